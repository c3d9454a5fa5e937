package jinjago

import (
	"fmt"
	"sync"
)

// Loader is an in-memory name->Template cache layered on top of a JinjaEnv.
// It exists for the common shape of a chat-template deployment that renders
// one of several named prompt templates ("default", "tool-use", "rag")
// selected by the caller at request time - never by the template text
// itself; there is no {% include %} or {% extends %} tag for a template to
// name another template with (spec.md's non-goals exclude that surface
// entirely). Loader only resolves names the host program registered with
// LoadString; it never touches a filesystem or a network.
type Loader struct {
	env *JinjaEnv

	mu        sync.RWMutex
	templates map[string]*Template
}

// NewLoader returns an empty Loader bound to env (NewJinjaEnv(Options{}) if
// env is nil).
func NewLoader(env *JinjaEnv) *Loader {
	if env == nil {
		env = NewJinjaEnv(Options{})
	}
	return &Loader{env: env, templates: make(map[string]*Template)}
}

// LoadString parses source under the Loader's JinjaEnv and registers it
// under name, replacing any previous template of that name.
func (l *Loader) LoadString(name, source string) (*Template, error) {
	tpl, err := l.env.FromString(source)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.templates[name] = tpl
	l.mu.Unlock()
	return tpl, nil
}

// Get returns the template previously registered under name.
func (l *Loader) Get(name string) (*Template, error) {
	l.mu.RLock()
	tpl, ok := l.templates[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("jinjago: no template loaded under name %q", name)
	}
	return tpl, nil
}

// MustGet is Get, panicking on a missing name - for callers that register
// every template at startup and treat a miss as a programming error.
func (l *Loader) MustGet(name string) *Template {
	tpl, err := l.Get(name)
	if err != nil {
		panic(err)
	}
	return tpl
}
