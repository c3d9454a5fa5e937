package jinjago

import (
	"fmt"

	"github.com/juju/errors"
)

// ParseError is returned by Parse when the template source cannot be turned
// into an AST: an unclosed delimiter, an unexpected token, a mismatched
// end-tag, or a malformed literal.
type ParseError struct {
	Filename string
	Line     int
	Col      int
	Token    *Token
	Message  string
	cause    error
}

func (e *ParseError) Error() string {
	s := "[Parse Error"
	if e.Filename != "" {
		s += " in " + e.Filename
	}
	if e.Line > 0 {
		s += fmt.Sprintf(" | Line %d Col %d", e.Line, e.Col)
	}
	if e.Token != nil {
		s += fmt.Sprintf(" near %s", e.Token.String())
	}
	s += "] " + e.Message
	return s
}

func (e *ParseError) Unwrap() error { return e.cause }

func newParseError(tok *Token, format string, args ...interface{}) error {
	pe := &ParseError{Message: errors.Errorf(format, args...).Error()}
	if tok != nil {
		pe.Token = tok
		pe.Line = tok.Line
		pe.Col = tok.Col
	}
	return pe
}

// RenderError is returned by Render when evaluating the AST fails: an
// undefined filter/test/method, an arity or type mismatch, division by
// zero, a tuple-unpacking arity mismatch, or an explicit raise_exception
// call from the template.
type RenderError struct {
	Line, Col int
	Sender    string
	Message   string
	cause     error
}

func (e *RenderError) Error() string {
	s := "[Render Error"
	if e.Sender != "" {
		s += " (" + e.Sender + ")"
	}
	if e.Line > 0 {
		s += fmt.Sprintf(" | Line %d Col %d", e.Line, e.Col)
	}
	s += "] " + e.Message
	return s
}

func (e *RenderError) Unwrap() error { return e.cause }

func newRenderError(pos Position, sender, format string, args ...interface{}) error {
	return &RenderError{
		Line:    pos.Line,
		Col:     pos.Col,
		Sender:  sender,
		Message: errors.Errorf(format, args...).Error(),
	}
}

// wrapRenderError annotates a lower-level error (e.g. from a host callable)
// with the AST position at which it surfaced, preserving the original error
// in its cause chain via github.com/juju/errors.
func wrapRenderError(pos Position, sender string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*RenderError); ok {
		return err
	}
	return &RenderError{
		Line:    pos.Line,
		Col:     pos.Col,
		Sender:  sender,
		Message: err.Error(),
		cause:   errors.Trace(err),
	}
}
