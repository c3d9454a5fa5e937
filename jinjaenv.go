package jinjago

// JinjaEnv bundles parse/render Options with a per-environment override of
// the global filter/test/global tables, so an embedding program can run
// several independently configured engines - one per chat-template family,
// say - without one family's custom filter leaking into another's via the
// shared package-level registries.
type JinjaEnv struct {
	Options Options

	filters map[string]BuiltinFunc
	tests   map[string]BuiltinFunc
	globals map[string]*Value
}

// NewJinjaEnv returns an environment with the given Options and no
// overrides; lookups fall through to the package-level built-ins registry.
func NewJinjaEnv(opts Options) *JinjaEnv {
	return &JinjaEnv{Options: opts}
}

// RegisterFilter installs name into this environment only, shadowing any
// package-level filter of the same name for templates parsed through this
// environment.
func (e *JinjaEnv) RegisterFilter(name string, fn BuiltinFunc) {
	if e.filters == nil {
		e.filters = make(map[string]BuiltinFunc)
	}
	e.filters[name] = fn
}

// RegisterTest installs name into this environment only.
func (e *JinjaEnv) RegisterTest(name string, fn BuiltinFunc) {
	if e.tests == nil {
		e.tests = make(map[string]BuiltinFunc)
	}
	e.tests[name] = fn
}

// RegisterGlobal installs name into this environment's root scope, in
// addition to the package-level defaultGlobals.
func (e *JinjaEnv) RegisterGlobal(name string, v *Value) {
	if e.globals == nil {
		e.globals = make(map[string]*Value)
	}
	e.globals[name] = v
}

// lookupFilter resolves name against this environment's overrides first,
// then the package-level registry.
func (e *JinjaEnv) lookupFilter(name string) (BuiltinFunc, bool) {
	if e != nil && e.filters != nil {
		if fn, ok := e.filters[name]; ok {
			return fn, true
		}
	}
	fn, ok := filterRegistry[name]
	return fn, ok
}

// lookupTest resolves name against this environment's overrides first, then
// the package-level registry.
func (e *JinjaEnv) lookupTest(name string) (BuiltinFunc, bool) {
	if e != nil && e.tests != nil {
		if fn, ok := e.tests[name]; ok {
			return fn, true
		}
	}
	fn, ok := testRegistry[name]
	return fn, ok
}

// FromString parses tpl under this environment's Options.
func (e *JinjaEnv) FromString(tpl string) (*Template, error) {
	prog, err := Parse(tpl, e.Options)
	if err != nil {
		return nil, err
	}
	return &Template{name: "<string>", opts: e.Options, prog: prog, env: e}, nil
}

// rootGlobals merges the package-level defaultGlobals with this
// environment's overrides, overrides winning on name collision.
func (e *JinjaEnv) rootGlobals() map[string]*Value {
	if e == nil || e.globals == nil {
		return defaultGlobals
	}
	out := make(map[string]*Value, len(defaultGlobals)+len(e.globals))
	for k, v := range defaultGlobals {
		out[k] = v
	}
	for k, v := range e.globals {
		out[k] = v
	}
	return out
}
