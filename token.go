package jinjago

import "fmt"

// TokenType classifies a single lexical token produced by the Lexer.
type TokenType int

const (
	// TokenError indicates a lexical error; Val carries the message.
	TokenError TokenType = iota

	// TokenText is raw template text outside of any {{ }}, {% %} or {# #} tag.
	TokenText

	// TokenKeyword is a reserved word recognized inside a tag, e.g. "if", "for", "in".
	TokenKeyword

	// TokenIdentifier is a variable, filter, test or tag name.
	TokenIdentifier

	// TokenString is a quoted string literal.
	TokenString

	// TokenInteger is an integer literal.
	TokenInteger

	// TokenFloat is a floating point literal.
	TokenFloat

	// TokenSymbol is an operator or punctuation symbol, e.g. "(", "|", "==".
	TokenSymbol

	// TokenOpenExpression is the "{{" or "{{-" delimiter.
	TokenOpenExpression

	// TokenCloseExpression is the "}}" or "-}}" delimiter.
	TokenCloseExpression

	// TokenOpenStatement is the "{%" or "{%-" delimiter.
	TokenOpenStatement

	// TokenCloseStatement is the "%}" or "-%}" delimiter.
	TokenCloseStatement

	// TokenEOF marks the end of the token stream.
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenError:
		return "Error"
	case TokenText:
		return "Text"
	case TokenKeyword:
		return "Keyword"
	case TokenIdentifier:
		return "Identifier"
	case TokenString:
		return "String"
	case TokenInteger:
		return "Integer"
	case TokenFloat:
		return "Float"
	case TokenSymbol:
		return "Symbol"
	case TokenOpenExpression:
		return "OpenExpression"
	case TokenCloseExpression:
		return "CloseExpression"
	case TokenOpenStatement:
		return "OpenStatement"
	case TokenCloseStatement:
		return "CloseStatement"
	case TokenEOF:
		return "EOF"
	}
	return "Unknown"
}

// Token is a single scanned unit of source text, tagged with its position so
// parse and render errors can point back at the offending template text.
type Token struct {
	Typ TokenType
	Val string

	// TrimLeft/TrimRight record whether this tag carried a "-" strip marker
	// on its opening/closing delimiter. Only meaningful for Open/Close tokens.
	TrimLeft  bool
	TrimRight bool

	// Offset is the byte offset of Val's first character in the source.
	Offset int
	Line   int
	Col    int
}

func (t *Token) String() string {
	val := t.Val
	suffix := ""
	if len(val) > 20 {
		val, suffix = val[:20], "..."
	}
	switch t.Typ {
	case TokenText, TokenString:
		return fmt.Sprintf("%s(%q%s)", t.Typ, val, suffix)
	default:
		return fmt.Sprintf("%s(%s%s)", t.Typ, val, suffix)
	}
}

// Keywords reserved inside {{ }} / {% %} tags. An identifier matching one of
// these is tokenized as TokenKeyword instead of TokenIdentifier.
var keywords = map[string]bool{
	"if": true, "else": true, "elif": true, "endif": true,
	"for": true, "endfor": true, "in": true,
	"not": true, "and": true, "or": true, "is": true,
	"set": true, "endset": true,
	"macro": true, "endmacro": true,
	"break": true, "continue": true,
	"call": true, "endcall": true,
	"filter": true, "endfilter": true,
	"true": true, "false": true, "none": true, "null": true,
}

// symbols lists recognized operator/punctuation lexemes, longest first so the
// lexer's greedy match never splits a multi-character operator in half.
var symbols = []string{
	"**", "//",
	"==", "!=", "<=", ">=",
	"(", ")", "[", "]", "{", "}",
	",", ".", ":", "|", "~",
	"+", "-", "*", "/", "%",
	"<", ">", "=",
}
