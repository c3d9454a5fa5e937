package jinjago

import "strings"

// stringMethods and mapMethods are the fixed dispatch tables behind
// Value.Member's bound-method fallback: `x.upper`, `x.items`, and so on
// resolve to a Callable here before any `()` call is ever applied.
var stringMethods = map[string]func(recv *Value, args *Args) (*Value, error){
	"upper": func(recv *Value, args *Args) (*Value, error) {
		return String(strings.ToUpper(recv.s)), nil
	},
	"lower": func(recv *Value, args *Args) (*Value, error) {
		return String(strings.ToLower(recv.s)), nil
	},
	"strip": func(recv *Value, args *Args) (*Value, error) {
		if cutset := args.Get(0); cutset.IsString() {
			return String(strings.Trim(recv.s, cutset.Str())), nil
		}
		return String(strings.TrimSpace(recv.s)), nil
	},
	"lstrip": func(recv *Value, args *Args) (*Value, error) {
		if cutset := args.Get(0); cutset.IsString() {
			return String(strings.TrimLeft(recv.s, cutset.Str())), nil
		}
		return String(strings.TrimLeft(recv.s, " \t\n\r\v\f")), nil
	},
	"rstrip": func(recv *Value, args *Args) (*Value, error) {
		if cutset := args.Get(0); cutset.IsString() {
			return String(strings.TrimRight(recv.s, cutset.Str())), nil
		}
		return String(strings.TrimRight(recv.s, " \t\n\r\v\f")), nil
	},
	"title": func(recv *Value, args *Args) (*Value, error) {
		return String(titleCase(recv.s)), nil
	},
	"capitalize": func(recv *Value, args *Args) (*Value, error) {
		return String(capitalize(recv.s)), nil
	},
	"split": func(recv *Value, args *Args) (*Value, error) {
		sep := args.Get(0)
		var parts []string
		if sep.IsString() && sep.Str() != "" {
			parts = strings.Split(recv.s, sep.Str())
		} else {
			parts = strings.Fields(recv.s)
		}
		out := make([]*Value, len(parts))
		for i, p := range parts {
			out[i] = String(p)
		}
		return NewArray(out), nil
	},
	"replace": func(recv *Value, args *Args) (*Value, error) {
		old, new := args.Get(0), args.Get(1)
		count := -1
		if c := args.Get(2); c.IsInt() {
			count = int(c.Int())
		}
		return String(strings.Replace(recv.s, old.Str(), new.Str(), count)), nil
	},
	"startswith": func(recv *Value, args *Args) (*Value, error) {
		return Bool(strings.HasPrefix(recv.s, args.Get(0).Str())), nil
	},
	"endswith": func(recv *Value, args *Args) (*Value, error) {
		return Bool(strings.HasSuffix(recv.s, args.Get(0).Str())), nil
	},
}

var mapMethods = map[string]func(recv *Value, args *Args) (*Value, error){
	"items": func(recv *Value, args *Args) (*Value, error) {
		return NewArray(recv.Items()), nil
	},
	"keys": func(recv *Value, args *Args) (*Value, error) {
		keys := recv.Keys(false)
		out := make([]*Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return NewArray(out), nil
	},
	"values": func(recv *Value, args *Args) (*Value, error) {
		var out []*Value
		for p := recv.m.Oldest(); p != nil; p = p.Next() {
			out = append(out, p.Value)
		}
		return NewArray(out), nil
	},
	"get": func(recv *Value, args *Args) (*Value, error) {
		key := args.Get(0)
		if v, ok := recv.m.Get(key.Str()); ok {
			return v, nil
		}
		if def := args.Get(1); !def.IsUndefined() {
			return def, nil
		}
		return Null(), nil
	},
}

// lookupBoundMethod returns the BoundMethod for name on v's kind, or nil if
// v's kind exposes no such method - the Member fallback then reports
// Undefined rather than erroring, matching attribute-lookup semantics
// elsewhere in the engine.
func lookupBoundMethod(v *Value, name string) *BoundMethod {
	var table map[string]func(recv *Value, args *Args) (*Value, error)
	switch v.kind {
	case KindString:
		table = stringMethods
	case KindMap:
		table = mapMethods
	default:
		return nil
	}
	fn, ok := table[name]
	if !ok {
		return nil
	}
	return &BoundMethod{Receiver: v, Name: name, Fn: fn}
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = capitalize(f)
	}
	return strings.Join(fields, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}
