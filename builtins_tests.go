package jinjago

// testRegistry is the global test table consulted by `is`/`is not`. Every
// test receives the probed value as its first positional argument.
var testRegistry = make(map[string]BuiltinFunc)

func registerTest(name string, fn BuiltinFunc) {
	if _, exists := testRegistry[name]; exists {
		panic("jinjago: test already registered: " + name)
	}
	testRegistry[name] = fn
}

func init() {
	registerTest("defined", testDefined)
	registerTest("undefined", testUndefined)
	registerTest("none", testNone)
	registerTest("string", testString)
	registerTest("number", testNumber)
	registerTest("integer", testInteger)
	registerTest("float", testFloat)
	registerTest("boolean", testBoolean)
	registerTest("sequence", testSequence)
	registerTest("iterable", testIterable)
	registerTest("mapping", testMapping)
	registerTest("even", testEven)
	registerTest("odd", testOdd)
	registerTest("divisibleby", testDivisibleby)
	registerTest("equalto", testEqualto)
	registerTest("eq", testEqualto)
	registerTest("ne", testNe)
	registerTest("lt", testLt)
	registerTest("le", testLe)
	registerTest("gt", testGt)
	registerTest("ge", testGe)
	registerTest("in", testIn)
	registerTest("sameas", testSameas)
	registerTest("filter", testFilter)
	registerTest("test", testTest)
}

func testDefined(args *Args, env *Environment) (*Value, error) {
	return Bool(!args.Get(0).IsUndefined()), nil
}

func testUndefined(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsUndefined()), nil
}

func testNone(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsNull()), nil
}

func testString(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsString()), nil
}

func testNumber(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsNumber()), nil
}

func testInteger(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsInt()), nil
}

func testFloat(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsFloat()), nil
}

func testBoolean(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsBool()), nil
}

func testSequence(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsSequence()), nil
}

func testIterable(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsIterable()), nil
}

func testMapping(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).IsMap()), nil
}

func testEven(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).Int()%2 == 0), nil
}

func testOdd(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).Int()%2 != 0), nil
}

func testDivisibleby(args *Args, env *Environment) (*Value, error) {
	n := args.Get(1).Int()
	if n == 0 {
		return Bool(false), nil
	}
	return Bool(args.Get(0).Int()%n == 0), nil
}

func testEqualto(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(0).Equals(args.Get(1))), nil
}

func testNe(args *Args, env *Environment) (*Value, error) {
	return Bool(!args.Get(0).Equals(args.Get(1))), nil
}

func testLt(args *Args, env *Environment) (*Value, error) {
	c, ok := args.Get(0).Compare(args.Get(1))
	return Bool(ok && c < 0), nil
}

func testLe(args *Args, env *Environment) (*Value, error) {
	c, ok := args.Get(0).Compare(args.Get(1))
	return Bool(ok && c <= 0), nil
}

func testGt(args *Args, env *Environment) (*Value, error) {
	c, ok := args.Get(0).Compare(args.Get(1))
	return Bool(ok && c > 0), nil
}

func testGe(args *Args, env *Environment) (*Value, error) {
	c, ok := args.Get(0).Compare(args.Get(1))
	return Bool(ok && c >= 0), nil
}

func testIn(args *Args, env *Environment) (*Value, error) {
	return Bool(args.Get(1).Contains(args.Get(0))), nil
}

// testSameas reports pointer identity for arrays/maps/callables and value
// equality for every other kind, approximating Python's `is` for the kinds
// this engine exposes.
func testSameas(args *Args, env *Environment) (*Value, error) {
	a, b := args.Get(0), args.Get(1)
	if a.kind != b.kind {
		return Bool(false), nil
	}
	switch a.kind {
	case KindArray:
		return Bool(sameArray(a.arr, b.arr)), nil
	case KindMap:
		return Bool(a.m == b.m), nil
	case KindCallable:
		return Bool(a == b), nil
	default:
		return Bool(a.Equals(b)), nil
	}
}

func sameArray(a, b []*Value) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return len(a) == len(b) && &a[0] == &b[0]
}

func testFilter(args *Args, env *Environment) (*Value, error) {
	_, ok := filterRegistry[args.Get(0).Str()]
	return Bool(ok), nil
}

func testTest(args *Args, env *Environment) (*Value, error) {
	_, ok := testRegistry[args.Get(0).Str()]
	return Bool(ok), nil
}
