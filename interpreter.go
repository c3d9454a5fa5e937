package jinjago

import (
	"fmt"
	"strings"
)

// loopInfo is the bookkeeping a for-body scope carries alongside its "loop"
// binding: the precomputed map Value exposed to the template, and a link to
// the nearest enclosing loop (crossing barriers) so loop.parent can reach
// outward even though a plain `set` cannot.
type loopInfo struct {
	value  *Value
	parent *loopInfo
}

// controlSignal is returned up the evaluator by break/continue; it is never
// surfaced to a caller of Render - the nearest enclosing for-loop catches it.
type controlSignal struct{ kind string }

func (c *controlSignal) Error() string { return c.kind }

var (
	breakSignal    = &controlSignal{"break"}
	continueSignal = &controlSignal{"continue"}
)

// Render walks prog against a fresh root environment seeded with context and
// the built-in globals, and returns the concatenated output. Whitespace
// control (TrimBlocks/LstripBlocks) is a lexing-time concern already baked
// into prog by Parse, so Render itself takes no Options.
func Render(prog *Program, context *ValueMap) (string, error) {
	return renderWith(prog, context, nil)
}

// RenderWithEnv is Render, but filter/test/global lookup prefers jenv's own
// overrides (jinjaenv.go) before falling back to the package-level
// built-ins registries - used by Template instances created through a
// JinjaEnv rather than FromString/FromStringOpts directly.
func RenderWithEnv(prog *Program, context *ValueMap, jenv *JinjaEnv) (string, error) {
	return renderWith(prog, context, jenv)
}

func renderWith(prog *Program, context *ValueMap, jenv *JinjaEnv) (string, error) {
	env := NewEnvironment()
	env.jinjaEnv = jenv
	globals := defaultGlobals
	if jenv != nil {
		globals = jenv.rootGlobals()
	}
	for name, v := range globals {
		env.Declare(name, v)
	}
	if context != nil {
		for p := context.Oldest(); p != nil; p = p.Next() {
			env.Declare(p.Key, p.Value)
		}
	}
	var out strings.Builder
	if err := execStmts(prog.Nodes, env, &out); err != nil {
		if _, ok := err.(*controlSignal); ok {
			return "", newRenderError(prog.Pos(), "render", "'break'/'continue' used outside of a for loop")
		}
		return "", err
	}
	return out.String(), nil
}

// lookupFilterFor resolves a filter name through env's JinjaEnv (if any),
// falling back to the package-level filterRegistry.
func lookupFilterFor(env *Environment, name string) (BuiltinFunc, bool) {
	if jenv := env.findJinjaEnv(); jenv != nil {
		return jenv.lookupFilter(name)
	}
	fn, ok := filterRegistry[name]
	return fn, ok
}

// lookupTestFor resolves a test name through env's JinjaEnv (if any),
// falling back to the package-level testRegistry.
func lookupTestFor(env *Environment, name string) (BuiltinFunc, bool) {
	if jenv := env.findJinjaEnv(); jenv != nil {
		return jenv.lookupTest(name)
	}
	fn, ok := testRegistry[name]
	return fn, ok
}

func execStmts(stmts []Stmt, env *Environment, out *strings.Builder) error {
	for _, s := range stmts {
		if err := execStmt(s, env, out); err != nil {
			return err
		}
	}
	return nil
}

func execStmt(s Stmt, env *Environment, out *strings.Builder) error {
	switch n := s.(type) {
	case *TextStmt:
		out.WriteString(n.Text)
		return nil

	case *ExprStmt:
		v, err := evalExpr(n.X, env)
		if err != nil {
			return err
		}
		out.WriteString(Stringify(v))
		return nil

	case *SetStmt:
		return execSet(n, env)

	case *IfStmt:
		return execIf(n, env, out)

	case *ForStmt:
		return execFor(n, env, out)

	case *MacroStmt:
		env.Declare(n.Name, NewCallable(&MacroCallable{Name: n.Name, Params: n.Params, Body: n.Body, Closure: env}))
		return nil

	case *FilterBlockStmt:
		return execFilterBlock(n, env, out)

	case *CallBlockStmt:
		return execCallBlock(n, env, out)

	case *BreakStmt:
		return breakSignal

	case *ContinueStmt:
		return continueSignal
	}
	return fmt.Errorf("jinjago: unknown statement %T", s)
}

// execIf runs in the SAME scope as its surrounding statement list - unlike a
// for-body, an if/elif/else arm is not a scope boundary, so a `set` inside
// one is visible after the `{% endif %}`.
func execIf(n *IfStmt, env *Environment, out *strings.Builder) error {
	for _, b := range n.Branches {
		cv, err := evalExpr(b.Cond, env)
		if err != nil {
			return err
		}
		if cv.IsTrue() {
			return execStmts(b.Body, env, out)
		}
	}
	return execStmts(n.Else, env, out)
}

func execSet(n *SetStmt, env *Environment) error {
	if n.IsBlock {
		var buf strings.Builder
		if err := execStmts(n.Body, env.NewChild(), &buf); err != nil {
			return err
		}
		env.Assign(n.Target.Names[0], String(buf.String()))
		return nil
	}

	v, err := evalExpr(n.Value, env)
	if err != nil {
		return err
	}

	if len(n.Attr) > 0 {
		base, ok := env.Lookup(n.Target.Names[0])
		if !ok || !base.IsMap() {
			return newRenderError(n.Pos(), "set", "%q is not a namespace object", n.Target.Names[0])
		}
		m := base.Map()
		for _, a := range n.Attr[:len(n.Attr)-1] {
			next, ok := m.Get(a)
			if !ok || !next.IsMap() {
				return newRenderError(n.Pos(), "set", "%q has no namespace attribute %q", n.Target.Names[0], a)
			}
			m = next.Map()
		}
		m.Set(n.Attr[len(n.Attr)-1], v)
		return nil
	}

	if len(n.Target.Names) == 1 {
		env.Assign(n.Target.Names[0], v)
		return nil
	}
	return unpackInto(func(name string, val *Value) { env.Assign(name, val) }, n.Target.Names, v, n.Pos())
}

// unpackInto destructures an array Value into len(names) bindings via bind,
// reporting a render error on arity mismatch or a non-array right-hand side.
func unpackInto(bind func(name string, val *Value), names []string, v *Value, pos Position) error {
	if !v.IsArray() || len(v.Array()) != len(names) {
		got := 0
		if v.IsArray() {
			got = len(v.Array())
		}
		return newRenderError(pos, "set", "cannot unpack %d value(s) into %d name(s)", got, len(names))
	}
	for i, name := range names {
		bind(name, v.Array()[i])
	}
	return nil
}

func execFor(n *ForStmt, env *Environment, out *strings.Builder) error {
	iterV, err := evalExpr(n.Iterable, env)
	if err != nil {
		return err
	}
	if !iterV.IsIterable() {
		if iterV.IsUndefined() || iterV.IsNull() {
			iterV = NewArray(nil)
		} else {
			return newRenderError(n.Pos(), "for", "'%s' object is not iterable", iterV.Kind())
		}
	}

	var items []*Value
	iterV.Iterate(func(idx, count int, key, value *Value) bool {
		items = append(items, key)
		return true
	})

	if n.Filter != nil {
		var filtered []*Value
		for _, item := range items {
			probe := env.NewChild()
			if err := bindLoopTarget(probe, n.Target, item); err != nil {
				return err
			}
			fv, err := evalExpr(n.Filter, probe)
			if err != nil {
				return err
			}
			if fv.IsTrue() {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	count := len(items)
	if count == 0 {
		return execStmts(n.Else, env, out)
	}

	parentLoop := env.findLoop()
	for i, item := range items {
		iterEnv := env.NewLoopChild()
		if err := bindLoopTarget(iterEnv, n.Target, item); err != nil {
			return err
		}
		loopVal := buildLoopMap(i, count, items, parentLoop)
		iterEnv.loop = &loopInfo{value: loopVal, parent: parentLoop}
		iterEnv.Declare("loop", loopVal)

		err := execStmts(n.Body, iterEnv, out)
		if err == breakSignal {
			break
		}
		if err == continueSignal {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func bindLoopTarget(env *Environment, target LoopTarget, item *Value) error {
	if len(target.Names) == 1 {
		env.Declare(target.Names[0], item)
		return nil
	}
	return unpackInto(func(name string, val *Value) { env.Declare(name, val) }, target.Names, item, Position{})
}

func buildLoopMap(i, n int, items []*Value, parent *loopInfo) *Value {
	m := NewValueMap()
	m.Set("index", Int(int64(i+1)))
	m.Set("index0", Int(int64(i)))
	m.Set("revindex", Int(int64(n-i)))
	m.Set("revindex0", Int(int64(n-i-1)))
	m.Set("first", Bool(i == 0))
	m.Set("last", Bool(i == n-1))
	m.Set("length", Int(int64(n)))
	if i > 0 {
		m.Set("previtem", items[i-1])
	} else {
		m.Set("previtem", Undefined())
	}
	if i < n-1 {
		m.Set("nextitem", items[i+1])
	} else {
		m.Set("nextitem", Undefined())
	}
	m.Set("cycle", NewCallable(BuiltinFunc(func(args *Args, env *Environment) (*Value, error) {
		if args.Len() == 0 {
			return Undefined(), nil
		}
		return args.Get(i % args.Len()), nil
	})))
	if parent != nil {
		m.Set("parent", parent.value)
	}
	return NewMap(m)
}

func execFilterBlock(n *FilterBlockStmt, env *Environment, out *strings.Builder) error {
	var buf strings.Builder
	if err := execStmts(n.Body, env.NewChild(), &buf); err != nil {
		return err
	}
	fn, ok := lookupFilterFor(env, n.Name)
	if !ok {
		return newRenderError(n.Pos(), "filter", "no filter named %q", n.Name)
	}
	args, kwargs, err := evalArgs(n.Args, n.Kwargs, env)
	if err != nil {
		return err
	}
	all := append([]*Value{String(buf.String())}, args...)
	res, err := fn(&Args{Positional: all, Keyword: kwargs}, env)
	if err != nil {
		return wrapRenderError(n.Pos(), "filter:"+n.Name, err)
	}
	out.WriteString(Stringify(res))
	return nil
}

func execCallBlock(n *CallBlockStmt, env *Environment, out *strings.Builder) error {
	fnVal, err := evalExpr(n.Call.Fn, env)
	if err != nil {
		return err
	}
	if !fnVal.IsCallable() {
		return newRenderError(n.Pos(), "call", "'%s' object is not callable", fnVal.Kind())
	}
	args, kwargs, err := evalArgs(n.Call.Args, n.Call.Kwargs, env)
	if err != nil {
		return err
	}

	mc, ok := fnVal.Callable().(*MacroCallable)
	if !ok {
		res, err := fnVal.Callable().Call(&Args{Positional: args, Keyword: kwargs}, env)
		if err != nil {
			return wrapRenderError(n.Pos(), "call", err)
		}
		out.WriteString(Stringify(res))
		return nil
	}

	callerFn := BuiltinFunc(func(_ *Args, _ *Environment) (*Value, error) {
		var buf strings.Builder
		if err := execStmts(n.Body, env.NewChild(), &buf); err != nil {
			return nil, err
		}
		return String(buf.String()), nil
	})
	res, err := mc.invoke(&Args{Positional: args, Keyword: kwargs}, callerFn)
	if err != nil {
		return wrapRenderError(n.Pos(), "call:"+mc.Name, err)
	}
	out.WriteString(Stringify(res))
	return nil
}

// MacroCallable is the Callable a `{% macro %}` statement binds: a closure
// over its definition scope, its parameter list (with optional per-call
// default evaluation), and its body.
type MacroCallable struct {
	Name    string
	Params  []MacroParam
	Body    []Stmt
	Closure *Environment
}

func (m *MacroCallable) Call(args *Args, _ *Environment) (*Value, error) {
	return m.invoke(args, nil)
}

// invoke binds args (positional first, then matching keyword, then default
// expressions evaluated in the new scope) and renders Body to a string.
// caller, when non-nil, is exposed to the body as the `caller()` callable
// used by {% call %} blocks.
func (m *MacroCallable) invoke(args *Args, caller Callable) (*Value, error) {
	scope := m.Closure.NewChild()

	for i, param := range m.Params {
		var v *Value
		switch {
		case i < len(args.Positional):
			v = args.Positional[i]
		case args.Keyword != nil && hasKey(args.Keyword, param.Name):
			v, _ = args.Keyword.Get(param.Name)
		case param.Default != nil:
			var err error
			v, err = evalExpr(param.Default, scope)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("macro %q is missing required argument %q", m.Name, param.Name)
		}
		scope.Declare(param.Name, v)
	}

	if args.Keyword != nil {
		for p := args.Keyword.Oldest(); p != nil; p = p.Next() {
			found := false
			for _, param := range m.Params {
				if param.Name == p.Key {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("macro %q got an unexpected keyword argument %q", m.Name, p.Key)
			}
		}
	}

	if caller != nil {
		scope.Declare("caller", NewCallable(caller))
	}

	var buf strings.Builder
	if err := execStmts(m.Body, scope, &buf); err != nil {
		return nil, err
	}
	return String(buf.String()), nil
}

func hasKey(m *ValueMap, key string) bool {
	_, ok := m.Get(key)
	return ok
}

// evalArgs evaluates a call/filter/test's positional and keyword argument
// expressions against env, left to right.
func evalArgs(argExprs []Expr, kwExprs []KeywordArg, env *Environment) ([]*Value, *ValueMap, error) {
	args := make([]*Value, len(argExprs))
	for i, e := range argExprs {
		v, err := evalExpr(e, env)
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}
	kwargs := NewValueMap()
	for _, kw := range kwExprs {
		v, err := evalExpr(kw.Value, env)
		if err != nil {
			return nil, nil, err
		}
		kwargs.Set(kw.Name, v)
	}
	return args, kwargs, nil
}

func evalExpr(e Expr, env *Environment) (*Value, error) {
	switch n := e.(type) {
	case *LiteralExpr:
		return n.Value, nil

	case *IdentifierExpr:
		v, _ := env.Lookup(n.Name)
		return v, nil

	case *ArrayExpr:
		items := make([]*Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := evalExpr(el, env)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return NewArray(items), nil

	case *MapExpr:
		m := NewValueMap()
		for _, entry := range n.Entries {
			k, err := evalExpr(entry.Key, env)
			if err != nil {
				return nil, err
			}
			v, err := evalExpr(entry.Value, env)
			if err != nil {
				return nil, err
			}
			m.Set(Stringify(k), v)
		}
		return NewMap(m), nil

	case *UnaryExpr:
		return evalUnary(n, env)

	case *BinaryExpr:
		return evalBinary(n, env)

	case *FilterExpr:
		xv, err := evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		fn, ok := lookupFilterFor(env, n.Name)
		if !ok {
			return nil, newRenderError(n.Pos(), "filter", "no filter named %q", n.Name)
		}
		args, kwargs, err := evalArgs(n.Args, n.Kwargs, env)
		if err != nil {
			return nil, err
		}
		all := append([]*Value{xv}, args...)
		res, err := fn(&Args{Positional: all, Keyword: kwargs}, env)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "filter:"+n.Name, err)
		}
		return res, nil

	case *TestExpr:
		xv, err := evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		fn, ok := lookupTestFor(env, n.Name)
		if !ok {
			return nil, newRenderError(n.Pos(), "test", "no test named %q", n.Name)
		}
		args, _, err := evalArgs(n.Args, nil, env)
		if err != nil {
			return nil, err
		}
		all := append([]*Value{xv}, args...)
		res, err := fn(&Args{Positional: all, Keyword: NewValueMap()}, env)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "test:"+n.Name, err)
		}
		truth := res.IsTrue()
		if n.Negate {
			truth = !truth
		}
		return Bool(truth), nil

	case *TernaryExpr:
		cv, err := evalExpr(n.Cond, env)
		if err != nil {
			return nil, err
		}
		if cv.IsTrue() {
			return evalExpr(n.Then, env)
		}
		if n.Else != nil {
			return evalExpr(n.Else, env)
		}
		return Undefined(), nil

	case *MemberExpr:
		xv, err := evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		return xv.Member(n.Name), nil

	case *IndexExpr:
		xv, err := evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		if xv.IsUndefined() {
			return Undefined(), nil
		}
		iv, err := evalExpr(n.Index, env)
		if err != nil {
			return nil, err
		}
		return memberOrIndex(xv, iv), nil

	case *SliceExpr:
		xv, err := evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		if xv.IsUndefined() {
			return Undefined(), nil
		}
		start, err := evalOptionalInt(n.Start, env)
		if err != nil {
			return nil, err
		}
		stop, err := evalOptionalInt(n.Stop, env)
		if err != nil {
			return nil, err
		}
		step, err := evalOptionalInt(n.Step, env)
		if err != nil {
			return nil, err
		}
		res, err := xv.Slice(start, stop, step)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "slice", err)
		}
		return res, nil

	case *CallExpr:
		return evalCall(n, env)
	}
	return nil, fmt.Errorf("jinjago: unknown expression %T", e)
}

func evalOptionalInt(e Expr, env *Environment) (*int, error) {
	if e == nil {
		return nil, nil
	}
	v, err := evalExpr(e, env)
	if err != nil {
		return nil, err
	}
	if v.IsUndefined() || v.IsNull() {
		return nil, nil
	}
	i := int(v.Int())
	return &i, nil
}

func memberOrIndex(xv, idxv *Value) *Value {
	switch {
	case xv.IsMap():
		return xv.Member(Stringify(idxv))
	case xv.IsArray(), xv.IsString():
		return xv.Index(int(idxv.Int()))
	default:
		return Undefined()
	}
}

func evalUnary(n *UnaryExpr, env *Environment) (*Value, error) {
	x, err := evalExpr(n.X, env)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case UnaryNot:
		return x.Negate(), nil
	case UnaryPos:
		if !x.IsNumber() {
			return nil, newRenderError(n.Pos(), "unary+", "bad operand type for unary +: %q", x.Kind())
		}
		return x, nil
	case UnaryNeg:
		if !x.IsNumber() {
			return nil, newRenderError(n.Pos(), "unary-", "bad operand type for unary -: %q", x.Kind())
		}
		if x.IsInt() {
			return Int(-x.Int()), nil
		}
		return Float(-x.Float()), nil
	}
	return nil, fmt.Errorf("jinjago: unknown unary operator")
}

func evalCall(n *CallExpr, env *Environment) (*Value, error) {
	fnVal, err := evalExpr(n.Fn, env)
	if err != nil {
		return nil, err
	}
	if !fnVal.IsCallable() {
		return nil, newRenderError(n.Pos(), "call", "'%s' object is not callable", fnVal.Kind())
	}
	args, kwargs, err := evalArgs(n.Args, n.Kwargs, env)
	if err != nil {
		return nil, err
	}
	res, err := fnVal.Callable().Call(&Args{Positional: args, Keyword: kwargs}, env)
	if err != nil {
		return nil, wrapRenderError(n.Pos(), "call", err)
	}
	return res, nil
}

func evalBinary(n *BinaryExpr, env *Environment) (*Value, error) {
	if n.Op == BinAnd {
		l, err := evalExpr(n.L, env)
		if err != nil {
			return nil, err
		}
		if !l.IsTrue() {
			return l, nil
		}
		return evalExpr(n.R, env)
	}
	if n.Op == BinOr {
		l, err := evalExpr(n.L, env)
		if err != nil {
			return nil, err
		}
		if l.IsTrue() {
			return l, nil
		}
		return evalExpr(n.R, env)
	}

	l, err := evalExpr(n.L, env)
	if err != nil {
		return nil, err
	}
	r, err := evalExpr(n.R, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case BinAdd:
		v, err := l.Add(r)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "+", err)
		}
		return v, nil
	case BinSub:
		v, err := l.Sub(r)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "-", err)
		}
		return v, nil
	case BinMul:
		v, err := l.Mul(r)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "*", err)
		}
		return v, nil
	case BinDiv:
		v, err := l.Div(r)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "/", err)
		}
		return v, nil
	case BinFloorDiv:
		v, err := l.FloorDiv(r)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "//", err)
		}
		return v, nil
	case BinMod:
		v, err := l.Mod(r)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "%", err)
		}
		return v, nil
	case BinPow:
		v, err := l.Pow(r)
		if err != nil {
			return nil, wrapRenderError(n.Pos(), "**", err)
		}
		return v, nil
	case BinConcat:
		return l.Concat(r), nil
	case BinEq:
		return Bool(l.Equals(r)), nil
	case BinNe:
		return Bool(!l.Equals(r)), nil
	case BinLt, BinLe, BinGt, BinGe:
		c, ok := l.Compare(r)
		if !ok {
			return nil, newRenderError(n.Pos(), "compare", "'%s' and '%s' are not comparable", l.Kind(), r.Kind())
		}
		switch n.Op {
		case BinLt:
			return Bool(c < 0), nil
		case BinLe:
			return Bool(c <= 0), nil
		case BinGt:
			return Bool(c > 0), nil
		default:
			return Bool(c >= 0), nil
		}
	case BinIn:
		return Bool(r.Contains(l)), nil
	case BinNotIn:
		return Bool(!r.Contains(l)), nil
	}
	return nil, fmt.Errorf("jinjago: unknown binary operator")
}
