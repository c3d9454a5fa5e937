package jinjago

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/strftime"
)

// defaultGlobals are declared into the root Environment by Render before the
// caller-supplied context, so a context entry of the same name shadows it.
var defaultGlobals = map[string]*Value{
	"range":           NewCallable(BuiltinFunc(globalRange)),
	"namespace":       NewCallable(BuiltinFunc(globalNamespace)),
	"raise_exception": NewCallable(BuiltinFunc(globalRaiseException)),
	"strftime_now":    NewCallable(BuiltinFunc(globalStrftimeNow)),
}

// globalRange implements Python's range(): range(stop), range(start, stop)
// and range(start, stop, step).
func globalRange(args *Args, env *Environment) (*Value, error) {
	var start, stop, step int64 = 0, 0, 1
	switch args.Len() {
	case 1:
		stop = args.Get(0).Int()
	case 2:
		start, stop = args.Get(0).Int(), args.Get(1).Int()
	case 3:
		start, stop, step = args.Get(0).Int(), args.Get(1).Int(), args.Get(2).Int()
	default:
		return nil, fmt.Errorf("range() takes 1 to 3 arguments, got %d", args.Len())
	}
	if step == 0 {
		return nil, fmt.Errorf("range() step argument must not be zero")
	}
	var out []*Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, Int(i))
		}
	}
	return NewArray(out), nil
}

// globalNamespace builds the shared, by-reference map Value templates use to
// escape the for-loop set-locality barrier: `ns.x = v` inside a for body
// mutates the same underlying ValueMap every iteration sees.
func globalNamespace(args *Args, env *Environment) (*Value, error) {
	m := NewValueMap()
	if args.Keyword != nil {
		for p := args.Keyword.Oldest(); p != nil; p = p.Next() {
			m.Set(p.Key, p.Value)
		}
	}
	return NewMap(m), nil
}

// globalRaiseException aborts the render with a user-supplied message; the
// call-site position is attached by the caller's wrapRenderError.
func globalRaiseException(args *Args, env *Environment) (*Value, error) {
	msg := "raise_exception() called"
	if args.Len() > 0 {
		msg = Stringify(args.Get(0))
	}
	return nil, fmt.Errorf("%s", msg)
}

// globalStrftimeNow formats the host wall clock with a POSIX strftime
// pattern, as used by chat templates that stamp a "knowledge cutoff" or
// "today's date" string into the rendered prompt.
func globalStrftimeNow(args *Args, env *Environment) (*Value, error) {
	pattern := "%Y-%m-%d"
	if p := args.Get(0); p.IsString() {
		pattern = p.Str()
	}
	out, err := strftime.Format(pattern, time.Now())
	if err != nil {
		return nil, fmt.Errorf("strftime_now: %w", err)
	}
	return String(out), nil
}
