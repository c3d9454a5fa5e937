package jinjago

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// filterRegistry is the global filter table consulted by `|name(...)` and
// `{% filter name %}`. It is populated once at init time and never mutated
// afterwards, so it is safe to share across concurrently rendering Programs.
var filterRegistry = make(map[string]BuiltinFunc)

func registerFilter(name string, fn BuiltinFunc) {
	if _, exists := filterRegistry[name]; exists {
		panic("jinjago: filter already registered: " + name)
	}
	filterRegistry[name] = fn
}

func init() {
	registerFilter("upper", filterUpper)
	registerFilter("lower", filterLower)
	registerFilter("capitalize", filterCapitalize)
	registerFilter("title", filterTitle)
	registerFilter("trim", filterTrim)
	registerFilter("length", filterLength)
	registerFilter("count", filterLength)
	registerFilter("join", filterJoin)
	registerFilter("first", filterFirst)
	registerFilter("last", filterLast)
	registerFilter("reverse", filterReverse)
	registerFilter("sort", filterSort)
	registerFilter("unique", filterUnique)
	registerFilter("abs", filterAbs)
	registerFilter("round", filterRound)
	registerFilter("int", filterInt)
	registerFilter("float", filterFloat)
	registerFilter("string", filterString)
	registerFilter("default", filterDefault)
	registerFilter("d", filterDefault)
	registerFilter("replace", filterReplace)
	registerFilter("indent", filterIndent)
	registerFilter("tojson", filterTojson)
	registerFilter("dictsort", filterDictsort)
	registerFilter("sum", filterSum)
	registerFilter("items", filterItems)
	registerFilter("map", filterMap)
	registerFilter("select", filterSelect)
	registerFilter("reject", filterReject)
	registerFilter("selectattr", filterSelectattr)
	registerFilter("rejectattr", filterRejectattr)
	registerFilter("min", filterMin)
	registerFilter("max", filterMax)
	registerFilter("list", filterList)
	registerFilter("e", filterEscape)
	registerFilter("escape", filterEscape)
}

func filterUpper(args *Args, env *Environment) (*Value, error) {
	return String(strings.ToUpper(args.Get(0).Str())), nil
}

func filterLower(args *Args, env *Environment) (*Value, error) {
	return String(strings.ToLower(args.Get(0).Str())), nil
}

func filterCapitalize(args *Args, env *Environment) (*Value, error) {
	return String(capitalize(Stringify(args.Get(0)))), nil
}

func filterTitle(args *Args, env *Environment) (*Value, error) {
	return String(titleCase(Stringify(args.Get(0)))), nil
}

func filterTrim(args *Args, env *Environment) (*Value, error) {
	cutset := args.Get(1)
	if cutset.IsString() {
		return String(strings.Trim(Stringify(args.Get(0)), cutset.Str())), nil
	}
	return String(strings.TrimSpace(Stringify(args.Get(0)))), nil
}

func filterLength(args *Args, env *Environment) (*Value, error) {
	return Int(int64(args.Get(0).Len())), nil
}

func filterJoin(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if !in.IsArray() {
		return nil, fmt.Errorf("'join' requires an array, got %q", in.Kind())
	}
	sep := ""
	if s := args.Get(1); s.IsString() {
		sep = s.Str()
	}
	attr := args.KwargOr("attribute", Undefined())
	parts := make([]string, len(in.Array()))
	for i, e := range in.Array() {
		if attr.IsString() {
			parts[i] = Stringify(e.Member(attr.Str()))
		} else {
			parts[i] = Stringify(e)
		}
	}
	return String(strings.Join(parts, sep)), nil
}

func filterFirst(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if in.IsArray() {
		if len(in.Array()) == 0 {
			return Undefined(), nil
		}
		return in.Array()[0], nil
	}
	if in.IsString() {
		return in.Index(0), nil
	}
	return Undefined(), nil
}

func filterLast(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if in.IsArray() {
		if len(in.Array()) == 0 {
			return Undefined(), nil
		}
		return in.Array()[len(in.Array())-1], nil
	}
	if in.IsString() {
		return in.Index(-1), nil
	}
	return Undefined(), nil
}

func filterReverse(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if in.IsString() {
		runes := []rune(in.Str())
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return String(string(runes)), nil
	}
	if !in.IsArray() {
		return nil, fmt.Errorf("'reverse' requires an array or string, got %q", in.Kind())
	}
	src := in.Array()
	out := make([]*Value, len(src))
	for i, e := range src {
		out[len(src)-1-i] = e
	}
	return NewArray(out), nil
}

func filterSort(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if !in.IsArray() {
		return nil, fmt.Errorf("'sort' requires an array, got %q", in.Kind())
	}
	reverse := args.KwargOr("reverse", Bool(false)).IsTrue()
	attr := args.KwargOr("attribute", Undefined())
	out := append([]*Value(nil), in.Array()...)
	key := func(v *Value) *Value {
		if attr.IsString() {
			return v.Member(attr.Str())
		}
		return v
	}
	sort.SliceStable(out, func(i, j int) bool {
		c, _ := key(out[i]).Compare(key(out[j]))
		if reverse {
			return c > 0
		}
		return c < 0
	})
	return NewArray(out), nil
}

func filterUnique(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if !in.IsArray() {
		return nil, fmt.Errorf("'unique' requires an array, got %q", in.Kind())
	}
	var out []*Value
	for _, e := range in.Array() {
		dup := false
		for _, seen := range out {
			if seen.Equals(e) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return NewArray(out), nil
}

func filterAbs(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if in.IsInt() {
		if in.Int() < 0 {
			return Int(-in.Int()), nil
		}
		return in, nil
	}
	return Float(math.Abs(in.Float())), nil
}

// filterRound implements Jinja's round(precision=0, method='common'),
// using decimal arithmetic rather than a raw float multiply-round-divide so
// that a borderline value like 2.675 at precision 2 doesn't inherit binary
// floating point's representation error.
func filterRound(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	precision := int32(0)
	if p := args.Get(1); p.IsNumber() {
		precision = int32(p.Int())
	}
	method := "common"
	if m := args.KwargOr("method", Undefined()); m.IsString() {
		method = m.Str()
	}
	d := decimal.NewFromFloat(in.Float())
	var rounded decimal.Decimal
	switch method {
	case "ceil":
		rounded = d.RoundCeil(precision)
	case "floor":
		rounded = d.RoundFloor(precision)
	default:
		rounded = d.Round(precision)
	}
	f, _ := rounded.Float64()
	return Float(f), nil
}

func filterInt(args *Args, env *Environment) (*Value, error) {
	return Int(args.Get(0).Int()), nil
}

func filterFloat(args *Args, env *Environment) (*Value, error) {
	return Float(args.Get(0).Float()), nil
}

func filterString(args *Args, env *Environment) (*Value, error) {
	return String(Stringify(args.Get(0))), nil
}

func filterDefault(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	fallback := args.Get(1)
	boolean := args.Get(2)
	if boolean.IsTrue() {
		if !in.IsTrue() {
			return fallback, nil
		}
		return in, nil
	}
	if in.IsUndefined() {
		return fallback, nil
	}
	return in, nil
}

func filterReplace(args *Args, env *Environment) (*Value, error) {
	s := Stringify(args.Get(0))
	old, new := args.Get(1).Str(), args.Get(2).Str()
	count := -1
	if c := args.Get(3); c.IsInt() {
		count = int(c.Int())
	}
	return String(strings.Replace(s, old, new, count)), nil
}

func filterIndent(args *Args, env *Environment) (*Value, error) {
	s := Stringify(args.Get(0))
	width := 4
	if w := args.Get(1); w.IsNumber() {
		width = int(w.Int())
	}
	first := args.KwargOr("first", Bool(false)).IsTrue()
	prefix := strings.Repeat(" ", width)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i == 0 && !first {
			continue
		}
		if line == "" {
			continue
		}
		lines[i] = prefix + line
	}
	return String(strings.Join(lines, "\n")), nil
}

func filterTojson(args *Args, env *Environment) (*Value, error) {
	indent := -1
	if i := args.KwargOr("indent", Undefined()); i.IsNumber() {
		indent = int(i.Int())
	}
	return String(toJSON(args.Get(0), indent, 0)), nil
}

func toJSON(v *Value, indent, depth int) string {
	nl, pad, pad2 := "", "", ""
	if indent >= 0 {
		nl = "\n"
		pad = strings.Repeat(" ", indent*(depth+1))
		pad2 = strings.Repeat(" ", indent*depth)
	}
	switch v.Kind() {
	case KindUndefined, KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.Str())
	case KindArray:
		if len(v.Array()) == 0 {
			return "[]"
		}
		parts := make([]string, len(v.Array()))
		for i, e := range v.Array() {
			parts[i] = pad + toJSON(e, indent, depth+1)
		}
		return "[" + nl + strings.Join(parts, ","+nl) + nl + pad2 + "]"
	case KindMap:
		if v.Map().Len() == 0 {
			return "{}"
		}
		var parts []string
		for p := v.Map().Oldest(); p != nil; p = p.Next() {
			sep := ": "
			if indent < 0 {
				sep = ": "
			}
			parts = append(parts, pad+strconv.Quote(p.Key)+sep+toJSON(p.Value, indent, depth+1))
		}
		return "{" + nl + strings.Join(parts, ","+nl) + nl + pad2 + "}"
	}
	return "null"
}

func filterDictsort(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if !in.IsMap() {
		return nil, fmt.Errorf("'dictsort' requires a map, got %q", in.Kind())
	}
	keys := in.Keys(true)
	out := make([]*Value, len(keys))
	for i, k := range keys {
		v, _ := in.Map().Get(k)
		out[i] = NewArray([]*Value{String(k), v})
	}
	return NewArray(out), nil
}

func filterSum(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if !in.IsArray() {
		return nil, fmt.Errorf("'sum' requires an array, got %q", in.Kind())
	}
	attr := args.KwargOr("attribute", Undefined())
	start := args.KwargOr("start", Int(0))
	acc := start
	for _, e := range in.Array() {
		item := e
		if attr.IsString() {
			item = e.Member(attr.Str())
		}
		var err error
		acc, err = acc.Add(item)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func filterItems(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if !in.IsMap() {
		return nil, fmt.Errorf("'items' requires a map, got %q", in.Kind())
	}
	return NewArray(in.Items()), nil
}

func filterMap(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	if !in.IsArray() {
		return nil, fmt.Errorf("'map' requires an array, got %q", in.Kind())
	}
	if attr, ok := args.Kwarg("attribute"); ok {
		out := make([]*Value, len(in.Array()))
		for i, e := range in.Array() {
			out[i] = e.Member(attr.Str())
		}
		return NewArray(out), nil
	}
	filterName := args.Get(1)
	if !filterName.IsString() {
		return nil, fmt.Errorf("'map' requires either a filter name or attribute=... keyword argument")
	}
	fn, ok := filterRegistry[filterName.Str()]
	if !ok {
		return nil, fmt.Errorf("no filter named %q", filterName.Str())
	}
	extra := args.Positional
	if len(extra) > 2 {
		extra = extra[2:]
	} else {
		extra = nil
	}
	out := make([]*Value, len(in.Array()))
	for i, e := range in.Array() {
		all := append([]*Value{e}, extra...)
		v, err := fn(&Args{Positional: all, Keyword: args.Keyword}, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return NewArray(out), nil
}

func filterSelect(args *Args, env *Environment) (*Value, error) {
	return selectOrReject(args, env, true)
}

func filterReject(args *Args, env *Environment) (*Value, error) {
	return selectOrReject(args, env, false)
}

func selectOrReject(args *Args, env *Environment, keepTruthy bool) (*Value, error) {
	in := args.Get(0)
	if !in.IsArray() {
		return nil, fmt.Errorf("'select'/'reject' requires an array, got %q", in.Kind())
	}
	testName := args.Get(1)
	var out []*Value
	for _, e := range in.Array() {
		truth := e.IsTrue()
		if testName.IsString() {
			fn, ok := testRegistry[testName.Str()]
			if !ok {
				return nil, fmt.Errorf("no test named %q", testName.Str())
			}
			extra := args.Positional
			if len(extra) > 2 {
				extra = extra[2:]
			} else {
				extra = nil
			}
			all := append([]*Value{e}, extra...)
			v, err := fn(&Args{Positional: all, Keyword: args.Keyword}, env)
			if err != nil {
				return nil, err
			}
			truth = v.IsTrue()
		}
		if truth == keepTruthy {
			out = append(out, e)
		}
	}
	return NewArray(out), nil
}

func filterSelectattr(args *Args, env *Environment) (*Value, error) {
	return selectOrRejectAttr(args, env, true)
}

func filterRejectattr(args *Args, env *Environment) (*Value, error) {
	return selectOrRejectAttr(args, env, false)
}

func selectOrRejectAttr(args *Args, env *Environment, keepTruthy bool) (*Value, error) {
	in := args.Get(0)
	if !in.IsArray() {
		return nil, fmt.Errorf("'selectattr'/'rejectattr' requires an array, got %q", in.Kind())
	}
	attr := args.Get(1).Str()
	testName := args.Get(2)
	var out []*Value
	for _, e := range in.Array() {
		val := e.Member(attr)
		truth := val.IsTrue()
		if testName.IsString() {
			fn, ok := testRegistry[testName.Str()]
			if !ok {
				return nil, fmt.Errorf("no test named %q", testName.Str())
			}
			extra := args.Positional
			if len(extra) > 3 {
				extra = extra[3:]
			} else {
				extra = nil
			}
			all := append([]*Value{val}, extra...)
			v, err := fn(&Args{Positional: all, Keyword: args.Keyword}, env)
			if err != nil {
				return nil, err
			}
			truth = v.IsTrue()
		}
		if truth == keepTruthy {
			out = append(out, e)
		}
	}
	return NewArray(out), nil
}

func filterMin(args *Args, env *Environment) (*Value, error) {
	return extreme(args, -1)
}

func filterMax(args *Args, env *Environment) (*Value, error) {
	return extreme(args, 1)
}

func extreme(args *Args, want int) (*Value, error) {
	in := args.Get(0)
	if !in.IsArray() || len(in.Array()) == 0 {
		return Undefined(), nil
	}
	attr := args.KwargOr("attribute", Undefined())
	best := in.Array()[0]
	bestKey := best
	if attr.IsString() {
		bestKey = best.Member(attr.Str())
	}
	for _, e := range in.Array()[1:] {
		key := e
		if attr.IsString() {
			key = e.Member(attr.Str())
		}
		c, _ := key.Compare(bestKey)
		if c == want {
			best, bestKey = e, key
		}
	}
	return best, nil
}

func filterList(args *Args, env *Environment) (*Value, error) {
	in := args.Get(0)
	var out []*Value
	in.Iterate(func(idx, count int, key, value *Value) bool {
		out = append(out, key)
		return true
	})
	return NewArray(out), nil
}

func filterEscape(args *Args, env *Environment) (*Value, error) {
	s := Stringify(args.Get(0))
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&#34;",
		"'", "&#39;",
	)
	return String(r.Replace(s)), nil
}
