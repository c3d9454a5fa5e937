package jinjago

import (
	"strings"
	"testing"
)

func TestFromStringAndExecute(t *testing.T) {
	tpl, err := FromString("Hello, {{ name }}!")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	ctx := NewValueMap()
	ctx.Set("name", String("World"))
	out, err := tpl.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "Hello, World!" {
		t.Errorf("Execute() = %q, want %q", out, "Hello, World!")
	}
}

func TestFromStringOptsWhitespaceControl(t *testing.T) {
	tpl, err := FromStringOpts("  {% if true %}\nyes\n  {% endif %}\n", Options{TrimBlocks: true, LstripBlocks: true})
	if err != nil {
		t.Fatalf("FromStringOpts() error = %v", err)
	}
	out, err := tpl.Execute(NewValueMap())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "yes\n" {
		t.Errorf("Execute() = %q, want %q", out, "yes\n")
	}
}

func TestExecuteMapRendersEachEntry(t *testing.T) {
	tpl, err := FromString("{{ a }}-{{ b }}")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	out, err := tpl.ExecuteMap(map[string]interface{}{"a": 1, "b": "two"})
	if err != nil {
		t.Fatalf("ExecuteMap() error = %v", err)
	}
	if out != "1-two" {
		t.Errorf("ExecuteMap() = %q, want %q", out, "1-two")
	}
}

func TestExecuteWriterWritesRenderedOutput(t *testing.T) {
	tpl, err := FromString("{{ 1 + 1 }}")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	var buf strings.Builder
	if err := tpl.ExecuteWriter(&buf, NewValueMap()); err != nil {
		t.Fatalf("ExecuteWriter() error = %v", err)
	}
	if buf.String() != "2" {
		t.Errorf("ExecuteWriter() wrote %q, want %q", buf.String(), "2")
	}
}

func TestExecuteWriterPropagatesRenderError(t *testing.T) {
	tpl, err := FromString("{{ 1/0 }}")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	var buf strings.Builder
	if err := tpl.ExecuteWriter(&buf, NewValueMap()); err == nil {
		t.Error("ExecuteWriter() with a render error: want error, got nil")
	}
}

func TestFromStringParseErrorSurfacesImmediately(t *testing.T) {
	_, err := FromString("{% if x %}unterminated")
	if err == nil {
		t.Error("FromString() with unterminated if: want error, got nil")
	}
}
