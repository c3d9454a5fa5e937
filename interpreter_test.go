package jinjago

import "testing"

func TestRenderIfElif(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("n", Int(2))
	got := evalStr(t, "{% if n == 1 %}one{% elif n == 2 %}two{% else %}other{% endif %}", ctx)
	if got != "two" {
		t.Errorf("got %q, want %q", got, "two")
	}
}

func TestRenderForLoopVariables(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{String("a"), String("b"), String("c")}))
	src := "{% for x in xs %}{{ loop.index }}:{{ x }}:{{ loop.first }}:{{ loop.last }} {% endfor %}"
	got := evalStr(t, src, ctx)
	want := "1:a:true:false 2:b:false:false 3:c:false:true "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderForElseOnEmpty(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray(nil))
	got := evalStr(t, "{% for x in xs %}{{ x }}{% else %}empty{% endfor %}", ctx)
	if got != "empty" {
		t.Errorf("got %q, want %q", got, "empty")
	}
}

func TestRenderForBreakContinue(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3), Int(4), Int(5)}))
	got := evalStr(t, "{% for x in xs %}{% if x == 2 %}{% continue %}{% endif %}{% if x == 4 %}{% break %}{% endif %}{{ x }}{% endfor %}", ctx)
	if got != "13" {
		t.Errorf("got %q, want %q", got, "13")
	}
}

func TestRenderNestedLoopParent(t *testing.T) {
	ctx := NewValueMap()
	outer := NewArray([]*Value{String("a"), String("b")})
	inner := NewArray([]*Value{Int(1), Int(2)})
	ctx.Set("outer", outer)
	ctx.Set("inner", inner)
	src := "{% for o in outer %}{% for i in inner %}{{ loop.parent.index }}-{{ loop.index }} {% endfor %}{% endfor %}"
	got := evalStr(t, src, ctx)
	want := "1-1 1-2 2-1 2-2 "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderForBodyIsLocalToIteration(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3)}))
	// Plain `set` inside a for-body is local to that iteration: it never
	// accumulates across iterations.
	src := "{% set total = 0 %}{% for x in xs %}{% set total = total + x %}{% endfor %}{{ total }}"
	got := evalStr(t, src, ctx)
	if got != "0" {
		t.Errorf("got %q, want %q", got, "0")
	}
}

func TestRenderNamespaceEscapesForBarrier(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3)}))
	src := "{% set ns = namespace(total=0) %}{% for x in xs %}{% set ns.total = ns.total + x %}{% endfor %}{{ ns.total }}"
	got := evalStr(t, src, ctx)
	if got != "6" {
		t.Errorf("got %q, want %q", got, "6")
	}
}

func TestRenderIfBodyIsNotAScopeBoundary(t *testing.T) {
	src := "{% set x = 1 %}{% if true %}{% set x = 2 %}{% endif %}{{ x }}"
	got := evalStr(t, src, nil)
	if got != "2" {
		t.Errorf("got %q, want %q", got, "2")
	}
}

func TestRenderMacroBasic(t *testing.T) {
	src := `{% macro greet(name, greeting="Hello") %}{{ greeting }}, {{ name }}!{% endmacro %}{{ greet("World") }}`
	got := evalStr(t, src, nil)
	if got != "Hello, World!" {
		t.Errorf("got %q, want %q", got, "Hello, World!")
	}
}

func TestRenderMacroMissingRequiredArg(t *testing.T) {
	tpl, err := FromString(`{% macro greet(name) %}{{ name }}{% endmacro %}{{ greet() }}`)
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	_, err = tpl.Execute(NewValueMap())
	if err == nil {
		t.Error("Execute() with missing required macro arg: want error, got nil")
	}
}

func TestRenderCallBlock(t *testing.T) {
	src := `{% macro box() %}<{{ caller() }}>{% endmacro %}{% call box() %}content{% endcall %}`
	got := evalStr(t, src, nil)
	if got != "<content>" {
		t.Errorf("got %q, want %q", got, "<content>")
	}
}

func TestRenderFilterBlock(t *testing.T) {
	src := "{% filter upper %}hello{% endfilter %}"
	got := evalStr(t, src, nil)
	if got != "HELLO" {
		t.Errorf("got %q, want %q", got, "HELLO")
	}
}

func TestRenderSetBlockForm(t *testing.T) {
	src := "{% set greeting %}Hello, {{ name }}{% endset %}{{ greeting }}!"
	ctx := NewValueMap()
	ctx.Set("name", String("Ada"))
	got := evalStr(t, src, ctx)
	if got != "Hello, Ada!" {
		t.Errorf("got %q, want %q", got, "Hello, Ada!")
	}
}

func TestRenderTupleUnpacking(t *testing.T) {
	ctx := NewValueMap()
	m := NewValueMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	ctx.Set("d", NewMap(m))
	src := "{% for k, v in d|items %}{{ k }}={{ v }} {% endfor %}"
	got := evalStr(t, src, ctx)
	if got != "a=1 b=2 " {
		t.Errorf("got %q, want %q", got, "a=1 b=2 ")
	}
}

func TestRenderTupleUnpackingArityMismatch(t *testing.T) {
	src := "{% set a, b = [1, 2, 3] %}"
	_, err := FromString(src)
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	tpl, _ := FromString(src)
	_, err = tpl.Execute(NewValueMap())
	if err == nil {
		t.Error("Execute() with arity mismatch: want error, got nil")
	}
}

func TestRenderUndefinedLookupYieldsUndefined(t *testing.T) {
	got := evalStr(t, "[{{ missing }}]", nil)
	if got != "[]" {
		t.Errorf("got %q, want %q", got, "[]")
	}
}

func TestRenderRaiseException(t *testing.T) {
	tpl, err := FromString(`{{ raise_exception("boom") }}`)
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	_, err = tpl.Execute(NewValueMap())
	if err == nil {
		t.Fatal("Execute() with raise_exception: want error, got nil")
	}
}

func TestRenderBreakOutsideLoopErrors(t *testing.T) {
	tpl, err := FromString("{% if true %}{% break %}{% endif %}")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	_, err = tpl.Execute(NewValueMap())
	if err == nil {
		t.Error("Execute() with break outside for: want error, got nil")
	}
}

func TestRenderRangeGlobal(t *testing.T) {
	got := evalStr(t, "{% for i in range(3) %}{{ i }}{% endfor %}", nil)
	if got != "012" {
		t.Errorf("got %q, want %q", got, "012")
	}
	got2 := evalStr(t, "{% for i in range(5, 0, -2) %}{{ i }} {% endfor %}", nil)
	if got2 != "5 3 1 " {
		t.Errorf("got %q, want %q", got2, "5 3 1 ")
	}
}

func TestRenderCallNonCallableErrors(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("x", Int(1))
	tpl, err := FromString("{{ x() }}")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	_, err = tpl.Execute(ctx)
	if err == nil {
		t.Error("Execute() calling a non-callable: want error, got nil")
	}
}

func TestRenderCyclePerIteration(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3), Int(4)}))
	src := `{% for x in xs %}{{ loop.cycle("odd", "even") }} {% endfor %}`
	got := evalStr(t, src, ctx)
	want := "odd even odd even "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
