package jinjago

import "io"

// Template bundles a parsed Program with the Options it was parsed under, so
// callers who want "parse once, render many" don't have to thread Options
// through every call site themselves.
type Template struct {
	name string
	opts Options
	prog *Program

	// env is non-nil for a Template parsed through JinjaEnv.FromString,
	// and lets Execute prefer that environment's filter/test/global
	// overrides (jinjaenv.go).
	env *JinjaEnv
}

// FromString parses tpl with the zero Options (no trimBlocks/lstripBlocks).
func FromString(tpl string) (*Template, error) {
	return FromStringOpts(tpl, Options{})
}

// FromStringOpts parses tpl under opts.
func FromStringOpts(tpl string, opts Options) (*Template, error) {
	prog, err := Parse(tpl, opts)
	if err != nil {
		return nil, err
	}
	return &Template{name: "<string>", opts: opts, prog: prog}, nil
}

// Execute renders the template against context, an ordered string->Value
// mapping. Safe to call repeatedly, including concurrently, since Render
// never mutates t.prog and each call gets its own root Environment.
func (t *Template) Execute(context *ValueMap) (string, error) {
	if t.env != nil {
		return RenderWithEnv(t.prog, context, t.env)
	}
	return Render(t.prog, context)
}

// ExecuteMap is a convenience wrapper for callers happy to give up ordering
// guarantees on the top-level context: iteration order over a plain Go map
// is randomized by the runtime, so any observable effect of insertion order
// in the template output (itself unusual for top-level context entries) is
// not reproducible across calls built this way.
func (t *Template) ExecuteMap(context map[string]interface{}) (string, error) {
	m := NewValueMap()
	for k, v := range context {
		m.Set(k, AsValue(v))
	}
	return t.Execute(m)
}

// ExecuteWriter renders t against context and writes the result to w. The
// whole output is rendered into a string first and then written in one
// call; when rendering fails, nothing is written to w.
func (t *Template) ExecuteWriter(w io.Writer, context *ValueMap) error {
	out, err := t.Execute(context)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
