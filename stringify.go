package jinjago

import (
	"fmt"
	"strconv"
	"strings"
)

// Stringify renders a Value the way an {{ expression }} tag or the "~"
// concatenation operator would: null/undefined vanish, booleans print
// lowercase, integral floats keep a trailing ".0", and arrays/maps render
// their elements recursively (strings quoted, as Python's str() would).
func Stringify(v *Value) string {
	switch v.kind {
	case KindUndefined, KindNull:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = reprValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, v.m.Len())
		for p := v.m.Oldest(); p != nil; p = p.Next() {
			parts = append(parts, fmt.Sprintf("%s: %s", reprValue(String(p.Key)), reprValue(p.Value)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindCallable:
		return "<callable>"
	}
	return ""
}

// String satisfies fmt.Stringer and mirrors Stringify, so Values can be
// passed directly to fmt verbs and string-building code without a helper.
func (v *Value) String() string { return Stringify(v) }

// reprValue formats a Value the way it would appear nested inside an array
// or map's display form: strings are single-quoted, everything else is the
// same as its top-level Stringify form.
func reprValue(v *Value) string {
	if v.kind == KindString {
		return "'" + strings.ReplaceAll(v.s, "'", "\\'") + "'"
	}
	return Stringify(v)
}

// formatFloat renders a float the way Jinja does: the shortest decimal that
// round-trips, with a trailing ".0" appended when the value is integral.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
