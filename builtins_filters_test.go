package jinjago

import "testing"

func TestFilterStringCase(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`{{ "Hello World"|upper }}`, "HELLO WORLD"},
		{`{{ "Hello World"|lower }}`, "hello world"},
		{`{{ "hello world"|title }}`, "Hello World"},
		{`{{ "hello"|capitalize }}`, "Hello"},
		{`{{ "  hi  "|trim }}`, "hi"},
		{`{{ "xxhixx"|trim("x") }}`, "hi"},
	}
	for _, tc := range tests {
		if got := evalStr(t, tc.source, nil); got != tc.want {
			t.Errorf("%s => %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestFilterLengthAndCount(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3)}))
	if got := evalStr(t, "{{ xs|length }}", ctx); got != "3" {
		t.Errorf("length => %q, want 3", got)
	}
	if got := evalStr(t, "{{ xs|count }}", ctx); got != "3" {
		t.Errorf("count => %q, want 3", got)
	}
}

func TestFilterJoin(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{String("a"), String("b"), String("c")}))
	if got := evalStr(t, `{{ xs|join(", ") }}`, ctx); got != "a, b, c" {
		t.Errorf("join => %q, want %q", got, "a, b, c")
	}
}

func TestFilterJoinWithAttribute(t *testing.T) {
	ctx := NewValueMap()
	m1, m2 := NewValueMap(), NewValueMap()
	m1.Set("name", String("Ada"))
	m2.Set("name", String("Alan"))
	ctx.Set("users", NewArray([]*Value{NewMap(m1), NewMap(m2)}))
	got := evalStr(t, `{{ users|join(", ", attribute="name") }}`, ctx)
	if got != "Ada, Alan" {
		t.Errorf("join attribute => %q, want %q", got, "Ada, Alan")
	}
}

func TestFilterFirstLast(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3)}))
	if got := evalStr(t, "{{ xs|first }}", ctx); got != "1" {
		t.Errorf("first => %q, want 1", got)
	}
	if got := evalStr(t, "{{ xs|last }}", ctx); got != "3" {
		t.Errorf("last => %q, want 3", got)
	}
}

func TestFilterReverse(t *testing.T) {
	if got := evalStr(t, `{{ "abc"|reverse }}`, nil); got != "cba" {
		t.Errorf("reverse string => %q, want %q", got, "cba")
	}
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3)}))
	if got := evalStr(t, "{{ xs|reverse }}", ctx); got != "[3, 2, 1]" {
		t.Errorf("reverse array => %q, want %q", got, "[3, 2, 1]")
	}
}

func TestFilterSort(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(3), Int(1), Int(2)}))
	if got := evalStr(t, "{{ xs|sort }}", ctx); got != "[1, 2, 3]" {
		t.Errorf("sort => %q, want %q", got, "[1, 2, 3]")
	}
	if got := evalStr(t, "{{ xs|sort(reverse=true) }}", ctx); got != "[3, 2, 1]" {
		t.Errorf("sort reverse => %q, want %q", got, "[3, 2, 1]")
	}
}

func TestFilterSortByAttribute(t *testing.T) {
	ctx := NewValueMap()
	m1, m2 := NewValueMap(), NewValueMap()
	m1.Set("age", Int(30))
	m2.Set("age", Int(20))
	ctx.Set("people", NewArray([]*Value{NewMap(m1), NewMap(m2)}))
	got := evalStr(t, "{% for p in people|sort(attribute=\"age\") %}{{ p.age }} {% endfor %}", ctx)
	if got != "20 30 " {
		t.Errorf("sort by attribute => %q, want %q", got, "20 30 ")
	}
}

func TestFilterUnique(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(1), Int(3), Int(2)}))
	if got := evalStr(t, "{{ xs|unique }}", ctx); got != "[1, 2, 3]" {
		t.Errorf("unique => %q, want %q", got, "[1, 2, 3]")
	}
}

func TestFilterAbs(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("i", Int(-5))
	ctx.Set("f", Float(-2.5))
	if got := evalStr(t, "{{ i|abs }}", ctx); got != "5" {
		t.Errorf("abs(int) => %q, want %q", got, "5")
	}
	if got := evalStr(t, "{{ f|abs }}", ctx); got != "2.5" {
		t.Errorf("abs(float) => %q, want %q", got, "2.5")
	}
}

func TestFilterRound(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"{{ 2.675|round(2) }}", "2.68"},
		{"{{ 2.5|round }}", "3.0"},
		{"{{ 42.4|round(method=\"ceil\") }}", "43.0"},
		{"{{ 42.8|round(method=\"floor\") }}", "42.0"},
	}
	for _, tc := range tests {
		if got := evalStr(t, tc.source, nil); got != tc.want {
			t.Errorf("%s => %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestFilterIntFloatString(t *testing.T) {
	if got := evalStr(t, `{{ "42"|int }}`, nil); got != "42" {
		t.Errorf("int => %q, want 42", got)
	}
	if got := evalStr(t, `{{ "3.5"|float }}`, nil); got != "3.5" {
		t.Errorf("float => %q, want 3.5", got)
	}
	if got := evalStr(t, "{{ 42|string }}", nil); got != "42" {
		t.Errorf("string => %q, want 42", got)
	}
}

func TestFilterDefault(t *testing.T) {
	if got := evalStr(t, "{{ missing|default(\"fallback\") }}", nil); got != "fallback" {
		t.Errorf("default on undefined => %q, want %q", got, "fallback")
	}
	ctx := NewValueMap()
	ctx.Set("x", Bool(false))
	if got := evalStr(t, `{{ x|default("fallback") }}`, ctx); got != "false" {
		t.Errorf("default without boolean flag => %q, want %q", got, "false")
	}
	if got := evalStr(t, `{{ x|default("fallback", true) }}`, ctx); got != "fallback" {
		t.Errorf("default with boolean flag on falsy => %q, want %q", got, "fallback")
	}
}

func TestFilterReplace(t *testing.T) {
	if got := evalStr(t, `{{ "hello world"|replace("world", "there") }}`, nil); got != "hello there" {
		t.Errorf("replace => %q, want %q", got, "hello there")
	}
}

func TestFilterIndent(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("s", String("a\nb\nc"))
	got := evalStr(t, "{{ s|indent(2) }}", ctx)
	want := "a\n  b\n  c"
	if got != want {
		t.Errorf("indent => %q, want %q", got, want)
	}
	got2 := evalStr(t, "{{ s|indent(2, first=true) }}", ctx)
	want2 := "  a\n  b\n  c"
	if got2 != want2 {
		t.Errorf("indent(first=true) => %q, want %q", got2, want2)
	}
}

func TestFilterTojson(t *testing.T) {
	ctx := NewValueMap()
	m := NewValueMap()
	m.Set("a", Int(1))
	m.Set("b", NewArray([]*Value{Int(1), Int(2)}))
	ctx.Set("data", NewMap(m))
	got := evalStr(t, "{{ data|tojson }}", ctx)
	want := `{"a": 1,"b": [1,2]}`
	if got != want {
		t.Errorf("tojson => %q, want %q", got, want)
	}
}

func TestFilterDictsort(t *testing.T) {
	ctx := NewValueMap()
	m := NewValueMap()
	m.Set("b", Int(2))
	m.Set("a", Int(1))
	ctx.Set("d", NewMap(m))
	got := evalStr(t, "{% for k, v in d|dictsort %}{{ k }}={{ v }} {% endfor %}", ctx)
	if got != "a=1 b=2 " {
		t.Errorf("dictsort => %q, want %q", got, "a=1 b=2 ")
	}
}

func TestFilterSum(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3)}))
	if got := evalStr(t, "{{ xs|sum }}", ctx); got != "6" {
		t.Errorf("sum => %q, want 6", got)
	}
	if got := evalStr(t, "{{ xs|sum(start=10) }}", ctx); got != "16" {
		t.Errorf("sum with start => %q, want 16", got)
	}
}

func TestFilterMapSelectReject(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(1), Int(2), Int(3), Int(4)}))
	if got := evalStr(t, "{{ xs|select(\"even\") }}", ctx); got != "[2, 4]" {
		t.Errorf("select(even) => %q, want %q", got, "[2, 4]")
	}
	if got := evalStr(t, "{{ xs|reject(\"even\") }}", ctx); got != "[1, 3]" {
		t.Errorf("reject(even) => %q, want %q", got, "[1, 3]")
	}
	if got := evalStr(t, "{{ xs|map(\"string\")|join(\",\") }}", ctx); got != "1,2,3,4" {
		t.Errorf("map(string) => %q, want %q", got, "1,2,3,4")
	}
}

func TestFilterSelectattrRejectattr(t *testing.T) {
	ctx := NewValueMap()
	m1, m2 := NewValueMap(), NewValueMap()
	m1.Set("active", Bool(true))
	m1.Set("name", String("Ada"))
	m2.Set("active", Bool(false))
	m2.Set("name", String("Alan"))
	ctx.Set("users", NewArray([]*Value{NewMap(m1), NewMap(m2)}))
	got := evalStr(t, "{{ users|selectattr(\"active\")|map(attribute=\"name\")|join(\",\") }}", ctx)
	if got != "Ada" {
		t.Errorf("selectattr => %q, want %q", got, "Ada")
	}
	got2 := evalStr(t, "{{ users|rejectattr(\"active\")|map(attribute=\"name\")|join(\",\") }}", ctx)
	if got2 != "Alan" {
		t.Errorf("rejectattr => %q, want %q", got2, "Alan")
	}
}

func TestFilterMinMax(t *testing.T) {
	ctx := NewValueMap()
	ctx.Set("xs", NewArray([]*Value{Int(3), Int(1), Int(2)}))
	if got := evalStr(t, "{{ xs|min }}", ctx); got != "1" {
		t.Errorf("min => %q, want 1", got)
	}
	if got := evalStr(t, "{{ xs|max }}", ctx); got != "3" {
		t.Errorf("max => %q, want 3", got)
	}
}

func TestFilterList(t *testing.T) {
	ctx := NewValueMap()
	m := NewValueMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	ctx.Set("d", NewMap(m))
	got := evalStr(t, "{{ d|list }}", ctx)
	if got != "['a', 'b']" {
		t.Errorf("list(map) => %q, want %q", got, "['a', 'b']")
	}
}

func TestFilterEscape(t *testing.T) {
	got := evalStr(t, `{{ "<b>&\"'"|escape }}`, nil)
	want := "&lt;b&gt;&amp;&#34;&#39;"
	if got != want {
		t.Errorf("escape => %q, want %q", got, want)
	}
}

func TestFilterUnknownErrors(t *testing.T) {
	tpl, err := FromString("{{ 1|nosuchfilter }}")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	_, err = tpl.Execute(NewValueMap())
	if err == nil {
		t.Error("Execute() with unknown filter: want error, got nil")
	}
}
