package jinjago

// Options configures both the lexer's whitespace handling and (today) has
// no further effect on parsing or rendering; it is passed to Parse (and kept
// on Template and JinjaEnv) as the single piece of external configuration
// the core owns. Render takes no Options.
type Options struct {
	// TrimBlocks removes the first newline after a "%}" statement close,
	// when that close carries no explicit "-%}" strip marker.
	TrimBlocks bool

	// LstripBlocks strips leading whitespace on a line before "{%", up to
	// but not including the newline, when no explicit "{%-" marker is used.
	LstripBlocks bool
}

// Parser consumes a token stream produced by the lexer and builds a
// Program. It exposes Match/Peek-style helpers in the spirit of a classic
// hand-written recursive-descent parser: small, composable primitives that
// the statement and expression parsing functions build on.
type Parser struct {
	name   string
	tokens []*Token
	idx    int
	opts   Options
}

// Parse lexes and parses template source into an immutable Program, ready
// to be Render-ed any number of times (possibly concurrently, each against
// its own root Environment).
func Parse(source string, opts Options) (*Program, error) {
	tokens, err := lex("<string>", source, opts)
	if err != nil {
		return nil, err
	}
	p := &Parser{name: "<string>", tokens: tokens, opts: opts}
	nodes, endTok, err := p.parseStatements(nil)
	if err != nil {
		return nil, err
	}
	if endTok != nil {
		return nil, newParseError(endTok, "unexpected end-tag %q without a matching opening tag", endTok.Val)
	}
	prog := &Program{Nodes: nodes}
	fold(prog)
	return prog, nil
}

func (p *Parser) current() *Token {
	return p.tokens[p.idx]
}

func (p *Parser) peekN(n int) *Token {
	i := p.idx + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() *Token {
	t := p.current()
	if t.Typ != TokenEOF {
		p.idx++
	}
	return t
}

func (p *Parser) check(typ TokenType) bool {
	return p.current().Typ == typ
}

func (p *Parser) checkVal(typ TokenType, val string) bool {
	t := p.current()
	return t.Typ == typ && t.Val == val
}

// match consumes and returns the current token if it has the given type
// and value, otherwise leaves the cursor untouched and returns nil.
func (p *Parser) match(typ TokenType, val string) *Token {
	if p.checkVal(typ, val) {
		return p.advance()
	}
	return nil
}

func (p *Parser) matchKeyword(word string) *Token { return p.match(TokenKeyword, word) }
func (p *Parser) matchSymbol(sym string) *Token    { return p.match(TokenSymbol, sym) }

func (p *Parser) expect(typ TokenType, val string) (*Token, error) {
	if t := p.match(typ, val); t != nil {
		return t, nil
	}
	return nil, newParseError(p.current(), "expected %q, found %s", val, p.current())
}

func (p *Parser) expectIdentifier() (*Token, error) {
	if p.check(TokenIdentifier) {
		return p.advance(), nil
	}
	return nil, newParseError(p.current(), "expected an identifier, found %s", p.current())
}

// parseStatements parses top-level/body statements until it hits TokenEOF
// or a "{% <one of endKeywords>" tag. It consumes "{%" and the end keyword
// itself and returns the keyword token, but leaves the rest of that tag
// (an elif's condition, the closing "%}") for the caller to parse - the
// caller knows whether the end keyword takes trailing content before "%}".
func (p *Parser) parseStatements(endKeywords []string) ([]Stmt, *Token, error) {
	var nodes []Stmt
	for {
		switch p.current().Typ {
		case TokenEOF:
			if len(endKeywords) > 0 {
				return nil, nil, newParseError(p.current(), "unexpected EOF, expected one of %v", endKeywords)
			}
			return nodes, nil, nil
		case TokenText:
			tok := p.advance()
			if tok.Val != "" {
				nodes = append(nodes, &TextStmt{baseNode{posOf(tok)}, tok.Val})
			}
		case TokenOpenExpression:
			open := p.advance()
			expr, err := p.parseExpression()
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(TokenCloseExpression, "}}"); err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, &ExprStmt{baseNode{posOf(open)}, expr})
		case TokenOpenStatement:
			nameTok := p.peekN(1)
			if nameTok.Typ == TokenIdentifier || nameTok.Typ == TokenKeyword {
				for _, kw := range endKeywords {
					if nameTok.Val == kw {
						p.advance() // {%
						tagTok := p.advance()
						return nodes, tagTok, nil
					}
				}
			}
			stmt, err := p.parseTag()
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, stmt)
		default:
			return nil, nil, newParseError(p.current(), "unexpected token %s", p.current())
		}
	}
}

// parseTag parses one "{% ... %}" statement tag, dispatching on its
// leading keyword/identifier.
func (p *Parser) parseTag() (Stmt, error) {
	open := p.advance() // {%
	nameTok := p.current()
	if nameTok.Typ != TokenIdentifier && nameTok.Typ != TokenKeyword {
		return nil, newParseError(nameTok, "expected a tag name, found %s", nameTok)
	}
	p.advance()

	switch nameTok.Val {
	case "if":
		return p.parseIf(open)
	case "for":
		return p.parseFor(open)
	case "set":
		return p.parseSet(open)
	case "macro":
		return p.parseMacro(open)
	case "filter":
		return p.parseFilterBlock(open)
	case "call":
		return p.parseCallBlock(open)
	case "break":
		if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
			return nil, err
		}
		return &BreakStmt{baseNode{posOf(open)}}, nil
	case "continue":
		if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
			return nil, err
		}
		return &ContinueStmt{baseNode{posOf(open)}}, nil
	}
	return nil, newParseError(nameTok, "unknown tag %q", nameTok.Val)
}

func (p *Parser) parseIf(open *Token) (Stmt, error) {
	stmt := &IfStmt{baseNode: baseNode{posOf(open)}}
	for {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
			return nil, err
		}
		body, endTok, err := p.parseStatements([]string{"elif", "else", "endif"})
		if err != nil {
			return nil, err
		}
		stmt.Branches = append(stmt.Branches, IfBranch{Cond: cond, Body: body})
		switch endTok.Val {
		case "elif":
			continue
		case "else":
			if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
				return nil, err
			}
			elseBody, endTok2, err := p.parseStatements([]string{"endif"})
			if err != nil {
				return nil, err
			}
			_ = endTok2
			stmt.Else = elseBody
			if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
				return nil, err
			}
			return stmt, nil
		case "endif":
			if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
				return nil, err
			}
			return stmt, nil
		}
	}
}

func (p *Parser) parseLoopTarget() (LoopTarget, error) {
	first, err := p.expectIdentifier()
	if err != nil {
		return LoopTarget{}, err
	}
	names := []string{first.Val}
	for p.matchSymbol(",") != nil {
		next, err := p.expectIdentifier()
		if err != nil {
			return LoopTarget{}, err
		}
		names = append(names, next.Val)
	}
	return LoopTarget{Names: names}, nil
}

func (p *Parser) parseFor(open *Token) (Stmt, error) {
	target, err := p.parseLoopTarget()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenKeyword, "in"); err != nil {
		return nil, err
	}
	// The iterable is parsed below the ternary level so that a trailing
	// `if` starts the loop filter rather than a conditional expression.
	iterable, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	var filter Expr
	if p.matchKeyword("if") != nil {
		filter, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}

	body, endTok, err := p.parseStatements([]string{"else", "endfor"})
	if err != nil {
		return nil, err
	}
	stmt := &ForStmt{baseNode: baseNode{posOf(open)}, Target: target, Iterable: iterable, Filter: filter, Body: body}
	if endTok.Val == "else" {
		if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
			return nil, err
		}
		elseBody, endTok2, err := p.parseStatements([]string{"endfor"})
		if err != nil {
			return nil, err
		}
		_ = endTok2
		stmt.Else = elseBody
	}
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseSet(open *Token) (Stmt, error) {
	target, err := p.parseLoopTarget()
	if err != nil {
		return nil, err
	}

	// Namespace member-set: {% set ns.a.b = expr %}.
	if len(target.Names) == 1 && p.checkVal(TokenSymbol, ".") {
		var attrs []string
		for p.matchSymbol(".") != nil {
			nameTok, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, nameTok.Val)
		}
		if _, err := p.expect(TokenSymbol, "="); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
			return nil, err
		}
		return &SetStmt{baseNode: baseNode{posOf(open)}, Target: target, Attr: attrs, Value: value}, nil
	}

	if p.matchSymbol("=") != nil {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
			return nil, err
		}
		return &SetStmt{baseNode: baseNode{posOf(open)}, Target: target, Value: value}, nil
	}

	// Block form: {% set name %}...{% endset %}
	if len(target.Names) != 1 {
		return nil, newParseError(open, "block-form 'set' does not support tuple targets")
	}
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	body, endTok, err := p.parseStatements([]string{"endset"})
	if err != nil {
		return nil, err
	}
	_ = endTok
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	return &SetStmt{baseNode: baseNode{posOf(open)}, Target: target, Body: body, IsBlock: true}, nil
}

func (p *Parser) parseMacroParams() ([]MacroParam, error) {
	if _, err := p.expect(TokenSymbol, "("); err != nil {
		return nil, err
	}
	var params []MacroParam
	for !p.checkVal(TokenSymbol, ")") {
		nameTok, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		param := MacroParam{Name: nameTok.Val}
		if p.matchSymbol("=") != nil {
			def, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			param.Default = def
		}
		params = append(params, param)
		if p.matchSymbol(",") == nil {
			break
		}
	}
	if _, err := p.expect(TokenSymbol, ")"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseMacro(open *Token) (Stmt, error) {
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	params, err := p.parseMacroParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	body, endTok, err := p.parseStatements([]string{"endmacro"})
	if err != nil {
		return nil, err
	}
	_ = endTok
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	return &MacroStmt{baseNode: baseNode{posOf(open)}, Name: nameTok.Val, Params: params, Body: body}, nil
}

func (p *Parser) parseFilterBlock(open *Token) (Stmt, error) {
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	var args []Expr
	var kwargs []KeywordArg
	if p.matchSymbol("(") != nil {
		args, kwargs, err = p.parseArgList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenSymbol, ")"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	body, endTok, err := p.parseStatements([]string{"endfilter"})
	if err != nil {
		return nil, err
	}
	_ = endTok
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	return &FilterBlockStmt{baseNode: baseNode{posOf(open)}, Name: nameTok.Val, Args: args, Kwargs: kwargs, Body: body}, nil
}

func (p *Parser) parseCallBlock(open *Token) (Stmt, error) {
	callExpr, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	ce, ok := callExpr.(*CallExpr)
	if !ok {
		return nil, newParseError(open, "'call' must be followed by a macro call, e.g. {%% call mymacro(args) %%}")
	}
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	body, endTok, err := p.parseStatements([]string{"endcall"})
	if err != nil {
		return nil, err
	}
	_ = endTok
	if _, err := p.expect(TokenCloseStatement, "%}"); err != nil {
		return nil, err
	}
	return &CallBlockStmt{baseNode: baseNode{posOf(open)}, Call: *ce, Body: body}, nil
}

// parseArgList parses a comma-separated positional/keyword argument list up
// to (but not consuming) the closing ")". Positional arguments must precede
// keyword arguments.
func (p *Parser) parseArgList() ([]Expr, []KeywordArg, error) {
	var args []Expr
	var kwargs []KeywordArg
	for !p.checkVal(TokenSymbol, ")") {
		if p.check(TokenIdentifier) && p.peekN(1).Typ == TokenSymbol && p.peekN(1).Val == "=" {
			nameTok := p.advance()
			p.advance() // =
			val, err := p.parseTernary()
			if err != nil {
				return nil, nil, err
			}
			kwargs = append(kwargs, KeywordArg{Name: nameTok.Val, Value: val})
		} else {
			if len(kwargs) > 0 {
				return nil, nil, newParseError(p.current(), "positional argument follows keyword argument")
			}
			val, err := p.parseTernary()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, val)
		}
		if p.matchSymbol(",") == nil {
			break
		}
	}
	return args, kwargs, nil
}

func canStartExpression(t *Token) bool {
	switch t.Typ {
	case TokenString, TokenInteger, TokenFloat, TokenIdentifier:
		return true
	case TokenKeyword:
		return t.Val == "true" || t.Val == "false" || t.Val == "none" || t.Val == "null" || t.Val == "not"
	case TokenSymbol:
		return t.Val == "(" || t.Val == "[" || t.Val == "{" || t.Val == "-" || t.Val == "+"
	}
	return false
}
