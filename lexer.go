package jinjago

import (
	"strings"
	"unicode/utf8"

	"github.com/juju/errors"
)

// eof is the sentinel rune returned by next() once the input is exhausted.
const eof rune = -1

// lexerStateFn is one state in the lexer's state machine; it scans some
// input, optionally emits a token, and returns the state to run next (or nil
// to stop).
type lexerStateFn func(*lexer) lexerStateFn

// lexer turns template source into a token stream in a single left-to-right
// pass, honoring the "{{-"/"-}}" whitespace-stripping markers and the
// trimBlocks/lstripBlocks options.
type lexer struct {
	name  string
	input string
	opts  Options

	start int
	pos   int
	width int

	line, col           int
	startLine, startCol int

	tokens []*Token

	// tagDepth tracks brace/bracket/paren nesting inside a tag so that a
	// "}" belonging to an inner map literal isn't mistaken for a tag close.
	tagDepth int

	// closeTyp/closeLit are the delimiter this tag must end with ("}}" for
	// {{ ... }}, "%}" for {% ... %}), set once when the tag is opened.
	closeTyp TokenType
	closeLit string

	// pendingTrimLeft is set when a comment's closing "-#}" should strip the
	// whitespace of the *next* text token, mirroring an expression/statement
	// close marker even though comments never emit a token of their own.
	pendingTrimLeft bool

	err error
}

func lex(name, input string, opts Options) ([]*Token, error) {
	l := &lexer{
		name:      name,
		input:     input,
		opts:      opts,
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
		tokens:    make([]*Token, 0, len(input)/8+8),
	}
	for state := lexText; state != nil; {
		state = state(l)
	}
	if l.err != nil {
		return nil, l.err
	}
	l.emit(TokenEOF)
	return applyStripMarkers(l.tokens, opts), nil
}

func (l *lexer) value() string { return l.input[l.start:l.pos] }

func (l *lexer) emit(t TokenType) {
	l.tokens = append(l.tokens, &Token{
		Typ:    t,
		Val:    l.value(),
		Offset: l.start,
		Line:   l.startLine,
		Col:    l.startCol,
	})
	l.resetStart()
}

func (l *lexer) resetStart() {
	l.start = l.pos
	l.startLine = l.line
	l.startCol = l.col
}

func (l *lexer) ignore() { l.resetStart() }

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
	if l.width > 0 {
		if l.input[l.pos] == '\n' {
			l.line--
		} else {
			l.col--
		}
	}
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

func (l *lexer) errorf(format string, args ...interface{}) lexerStateFn {
	l.err = &ParseError{
		Filename: l.name,
		Line:     l.startLine,
		Col:      l.startCol,
		Message:  errors.Errorf(format, args...).Error(),
	}
	return nil
}

// applyStripMarkers removes surrounding whitespace from adjacent TokenText
// tokens according to the strip markers recorded on open/close delimiters,
// then (when no marker is present) applies the trimBlocks/lstripBlocks
// options. This runs once the full token stream has been produced so that
// closing-delimiter markers can reach forward into the *next* text token.
func applyStripMarkers(tokens []*Token, opts Options) []*Token {
	for i, tok := range tokens {
		switch tok.Typ {
		case TokenOpenExpression, TokenOpenStatement:
			if tok.TrimLeft && i > 0 && tokens[i-1].Typ == TokenText {
				tokens[i-1].Val = strings.TrimRight(tokens[i-1].Val, " \t\r\n")
			} else if opts.LstripBlocks && tok.Typ == TokenOpenStatement && i > 0 && tokens[i-1].Typ == TokenText {
				tokens[i-1].Val = trimTrailingLineBlanks(tokens[i-1].Val, i-1 == 0)
			}
		case TokenCloseExpression, TokenCloseStatement:
			if tok.TrimRight && i+1 < len(tokens) && tokens[i+1].Typ == TokenText {
				tokens[i+1].Val = strings.TrimLeft(tokens[i+1].Val, " \t\r\n")
			} else if opts.TrimBlocks && tok.Typ == TokenCloseStatement && i+1 < len(tokens) && tokens[i+1].Typ == TokenText {
				if strings.HasPrefix(tokens[i+1].Val, "\n") {
					tokens[i+1].Val = tokens[i+1].Val[1:]
				} else if strings.HasPrefix(tokens[i+1].Val, "\r\n") {
					tokens[i+1].Val = tokens[i+1].Val[2:]
				}
			}
		}
	}
	return tokens
}

// trimTrailingLineBlanks removes the spaces/tabs after the last newline of s
// when they are all that precedes "{%" on its line (lstrip_blocks). A text
// with no newline counts as a line start only if it opens the template
// (atTemplateStart); a line that also holds other text is left as is.
func trimTrailingLineBlanks(s string, atTemplateStart bool) string {
	nl := strings.LastIndexByte(s, '\n')
	if nl < 0 && !atTemplateStart {
		return s
	}
	if strings.TrimRight(s[nl+1:], " \t") != "" {
		return s
	}
	return s[:nl+1]
}

func lexText(l *lexer) lexerStateFn {
	for {
		if strings.HasPrefix(l.input[l.pos:], "{{") ||
			strings.HasPrefix(l.input[l.pos:], "{%") ||
			strings.HasPrefix(l.input[l.pos:], "{#") {
			l.emitText()
			return lexDelimiter
		}
		if l.next() == eof {
			break
		}
	}
	l.emitText()
	return nil
}

// emitText flushes the pending text span as a TokenText, applying any
// strip-marker trim carried over from a preceding "-}}"/"-%}"/"-#}".
func (l *lexer) emitText() {
	if l.pos == l.start && !l.pendingTrimLeft {
		return
	}
	val := l.value()
	if l.pendingTrimLeft {
		val = strings.TrimLeft(val, " \t\r\n")
		l.pendingTrimLeft = false
	}
	l.tokens = append(l.tokens, &Token{Typ: TokenText, Val: val, Offset: l.start, Line: l.startLine, Col: l.startCol})
	l.resetStart()
}

func lexDelimiter(l *lexer) lexerStateFn {
	switch {
	case strings.HasPrefix(l.input[l.pos:], "{#"):
		return lexComment
	case strings.HasPrefix(l.input[l.pos:], "{{"):
		trim := strings.HasPrefix(l.input[l.pos:], "{{-")
		n := 2
		if trim {
			n = 3
		}
		l.pos += n
		l.col += n
		l.tokens = append(l.tokens, &Token{Typ: TokenOpenExpression, Val: "{{", TrimLeft: trim, Offset: l.start, Line: l.startLine, Col: l.startCol})
		l.resetStart()
		l.tagDepth = 0
		l.closeTyp, l.closeLit = TokenCloseExpression, "}}"
		return lexTag
	case strings.HasPrefix(l.input[l.pos:], "{%"):
		trim := strings.HasPrefix(l.input[l.pos:], "{%-")
		n := 2
		if trim {
			n = 3
		}
		l.pos += n
		l.col += n
		l.tokens = append(l.tokens, &Token{Typ: TokenOpenStatement, Val: "{%", TrimLeft: trim, Offset: l.start, Line: l.startLine, Col: l.startCol})
		l.resetStart()
		l.tagDepth = 0
		l.closeTyp, l.closeLit = TokenCloseStatement, "%}"
		return lexTag
	}
	return l.errorf("unreachable delimiter state")
}

func lexComment(l *lexer) lexerStateFn {
	l.next() // {
	l.next() // #
	trimLeft := l.peek() == '-'
	if trimLeft {
		l.next()
	}
	l.ignore()

	end := strings.Index(l.input[l.pos:], "#}")
	if end < 0 {
		return l.errorf("unclosed comment")
	}
	trimRight := end > 0 && l.input[l.pos+end-1] == '-'
	target := l.pos + end
	for l.pos < target {
		l.next()
	}
	l.next() // #
	l.next() // }
	l.ignore()

	// Propagate strip markers by synthesizing the same effect an
	// expression/statement tag would have: trim the preceding text token
	// directly, and defer the trailing trim to whatever text comes next.
	if trimLeft && len(l.tokens) > 0 && l.tokens[len(l.tokens)-1].Typ == TokenText {
		last := l.tokens[len(l.tokens)-1]
		last.Val = strings.TrimRight(last.Val, " \t\r\n")
	}
	if trimRight {
		l.pendingTrimLeft = true
	}
	return lexText
}

// lexTag scans the inside of a {{ ... }} or {% ... %} tag, dispatching to a
// more specific state for each token kind until the matching close delimiter
// (l.closeTyp/l.closeLit) is reached at brace depth 0.
func lexTag(l *lexer) lexerStateFn {
	for {
		r := l.peek()
		closeLit := l.closeLit
		switch {
		case r == eof:
			return l.errorf("unexpected EOF inside tag, expected %q", closeLit)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			l.next()
			l.ignore()
		case l.tagDepth == 0 && (strings.HasPrefix(l.input[l.pos:], closeLit) || strings.HasPrefix(l.input[l.pos:], "-"+closeLit)):
			trim := strings.HasPrefix(l.input[l.pos:], "-"+closeLit)
			n := len(closeLit)
			if trim {
				n++
			}
			l.pos += n
			l.col += n
			l.tokens = append(l.tokens, &Token{Typ: l.closeTyp, Val: closeLit, TrimRight: trim, Offset: l.start, Line: l.startLine, Col: l.startCol})
			l.resetStart()
			return lexText
		case r == '\'' || r == '"':
			return lexString
		case isDigit(r):
			return lexNumber
		case isIdentStart(r):
			return lexIdentifier
		case r == '{' || r == '[' || r == '(':
			l.tagDepth++
			return lexSymbol
		case r == '}' || r == ']' || r == ')':
			l.tagDepth--
			return lexSymbol
		default:
			return lexSymbol
		}
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func lexString(l *lexer) lexerStateFn {
	quote := l.next()
	l.ignore()
	var sb strings.Builder
	for {
		r := l.next()
		switch r {
		case eof:
			return l.errorf("unclosed string literal")
		case quote:
			tok := &Token{Typ: TokenString, Val: unescapeString(sb.String()), Offset: l.start, Line: l.startLine, Col: l.startCol}
			l.tokens = append(l.tokens, tok)
			l.resetStart()
			return lexTag
		case '\\':
			esc := l.next()
			if esc == eof {
				return l.errorf("unclosed string literal")
			}
			sb.WriteRune(r)
			sb.WriteRune(esc)
		default:
			sb.WriteRune(r)
		}
	}
}

var stringEscapes = strings.NewReplacer(
	`\n`, "\n", `\t`, "\t", `\r`, "\r", `\b`, "\b", `\f`, "\f", `\v`, "\v",
	`\\`, `\`, `\"`, `"`, `\'`, `'`,
)

func unescapeString(s string) string {
	return stringEscapes.Replace(s)
}

func lexNumber(l *lexer) lexerStateFn {
	l.acceptRun("0123456789")
	isFloat := false
	if l.peek() == '.' {
		save := l.pos
		l.next()
		if isDigit(l.peek()) {
			isFloat = true
			l.acceptRun("0123456789")
		} else {
			l.pos = save
		}
	}
	if isFloat {
		l.emit(TokenFloat)
	} else {
		l.emit(TokenInteger)
	}
	return lexTag
}

func lexIdentifier(l *lexer) lexerStateFn {
	for isIdentCont(l.peek()) {
		l.next()
	}
	word := l.value()
	if keywords[word] {
		l.emit(TokenKeyword)
	} else {
		l.emit(TokenIdentifier)
	}
	return lexTag
}

func lexSymbol(l *lexer) lexerStateFn {
	rest := l.input[l.pos:]
	for _, sym := range symbols {
		if strings.HasPrefix(rest, sym) {
			for range sym {
				l.next()
			}
			l.emit(TokenSymbol)
			return lexTag
		}
	}
	r := l.next()
	return l.errorf("unexpected character %q", r)
}

