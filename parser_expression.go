package jinjago

// parseExpression is the entry point for any single expression: a `{{ }}`
// body, a tag argument, a filter/test argument, a default value, and so on.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseTernary()
}

// parseTernary implements level 1: `then if cond else else_`. The `else`
// arm is optional and, when absent, a falsy cond yields Undefined at
// evaluation time rather than at parse time.
func (p *Parser) parseTernary() (Expr, error) {
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.matchKeyword("if"); tok != nil {
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		var elseExpr Expr
		if p.matchKeyword("else") != nil {
			elseExpr, err = p.parseTernary()
			if err != nil {
				return nil, err
			}
		}
		return &TernaryExpr{baseNode{posOf(tok)}, cond, then, elseExpr}, nil
	}
	return then, nil
}

// parseOr implements level 2: left-associative `or`, short-circuiting at
// evaluation time.
func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.matchKeyword("or")
		if tok == nil {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseNode{posOf(tok)}, BinOr, left, right}
	}
}

// parseAnd implements level 3: left-associative `and`.
func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.matchKeyword("and")
		if tok == nil {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseNode{posOf(tok)}, BinAnd, left, right}
	}
}

// parseNot implements level 4: prefix `not`, which may stack (`not not x`).
func (p *Parser) parseNot() (Expr, error) {
	if tok := p.matchKeyword("not"); tok != nil {
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{baseNode{posOf(tok)}, UnaryNot, x}, nil
	}
	return p.parseEquality()
}

// parseEquality implements level 5: `==` and `!=`.
func (p *Parser) parseEquality() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		var tok *Token
		switch {
		case p.checkVal(TokenSymbol, "=="):
			tok, op = p.advance(), BinEq
		case p.checkVal(TokenSymbol, "!="):
			tok, op = p.advance(), BinNe
		default:
			return left, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseNode{posOf(tok)}, op, left, right}
	}
}

// parseComparison implements level 6: relational comparison, membership
// (`in` / `not in`) and identity (`is` / `is not`) tests, all at the same
// precedence and left-associative.
func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.checkVal(TokenSymbol, "<"), p.checkVal(TokenSymbol, "<="),
			p.checkVal(TokenSymbol, ">"), p.checkVal(TokenSymbol, ">="):
			tok := p.advance()
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{baseNode{posOf(tok)}, comparisonOp(tok.Val), left, right}

		case p.checkVal(TokenKeyword, "in"):
			tok := p.advance()
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{baseNode{posOf(tok)}, BinIn, left, right}

		case p.checkVal(TokenKeyword, "not") && p.peekN(1).Typ == TokenKeyword && p.peekN(1).Val == "in":
			tok := p.advance()
			p.advance() // in
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{baseNode{posOf(tok)}, BinNotIn, left, right}

		case p.checkVal(TokenKeyword, "is"):
			tok := p.advance()
			negate := p.matchKeyword("not") != nil
			// Test names may be keywords too (`is none`, `is in`, `is filter`).
			nameTok := p.current()
			if nameTok.Typ != TokenIdentifier && nameTok.Typ != TokenKeyword {
				return nil, newParseError(nameTok, "expected a test name, found %s", nameTok)
			}
			p.advance()
			var args []Expr
			if p.matchSymbol("(") != nil {
				args, _, err = p.parseArgList()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(TokenSymbol, ")"); err != nil {
					return nil, err
				}
			} else if canStartExpression(p.current()) && !p.checkVal(TokenKeyword, "and") && !p.checkVal(TokenKeyword, "or") {
				arg, err := p.parseConcat()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
			}
			left = &TestExpr{baseNode{posOf(tok)}, left, nameTok.Val, negate, args}

		default:
			return left, nil
		}
	}
}

func comparisonOp(sym string) BinaryOp {
	switch sym {
	case "<":
		return BinLt
	case "<=":
		return BinLe
	case ">":
		return BinGt
	default:
		return BinGe
	}
}

// parseConcat implements level 7: the string-concatenation operator `~`.
func (p *Parser) parseConcat() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.matchSymbol("~")
		if tok == nil {
			return left, nil
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseNode{posOf(tok)}, BinConcat, left, right}
	}
}

// parseAdditive implements level 8: `+` and `-`.
func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		var tok *Token
		switch {
		case p.checkVal(TokenSymbol, "+"):
			tok, op = p.advance(), BinAdd
		case p.checkVal(TokenSymbol, "-"):
			tok, op = p.advance(), BinSub
		default:
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseNode{posOf(tok)}, op, left, right}
	}
}

// parseMultiplicative implements level 9: `*`, `/`, `//`, `%`.
func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		var tok *Token
		switch {
		case p.checkVal(TokenSymbol, "*"):
			tok, op = p.advance(), BinMul
		case p.checkVal(TokenSymbol, "//"):
			tok, op = p.advance(), BinFloorDiv
		case p.checkVal(TokenSymbol, "/"):
			tok, op = p.advance(), BinDiv
		case p.checkVal(TokenSymbol, "%"):
			tok, op = p.advance(), BinMod
		default:
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseNode{posOf(tok)}, op, left, right}
	}
}

// parseUnary implements level 10: prefix `-` and `+`. Its operand is parsed
// at the exponent level so that `-2 ** 2` parses as `-(2 ** 2)`.
func (p *Parser) parseUnary() (Expr, error) {
	if tok := p.matchSymbol("-"); tok != nil {
		x, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{baseNode{posOf(tok)}, UnaryNeg, x}, nil
	}
	if tok := p.matchSymbol("+"); tok != nil {
		x, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{baseNode{posOf(tok)}, UnaryPos, x}, nil
	}
	return p.parseExponent()
}

// parseExponent implements level 11: right-associative `**`. Its operand is
// parsed at the filter level, so `2 ** 3|abs` parses as `2 ** (3|abs)`.
func (p *Parser) parseExponent() (Expr, error) {
	left, err := p.parseFilterExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.matchSymbol("**"); tok != nil {
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{baseNode{posOf(tok)}, BinPow, left, right}, nil
	}
	return left, nil
}

// parseFilterExpr implements level 12: left-associative `|` filter
// application, binding tighter than every arithmetic operator but looser
// than postfix call/member/index/slice access.
func (p *Parser) parseFilterExpr() (Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.matchSymbol("|")
		if tok == nil {
			return left, nil
		}
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
		left = &FilterExpr{baseNode{posOf(tok)}, left, nameTok.Val, args, kwargs}
	}
}

// parsePostfix implements level 13: `.name`, `[index]`, `[start:stop:step]`
// and `(args)`, chained left to right off a primary expression.
func (p *Parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.checkVal(TokenSymbol, "."):
			tok := p.advance()
			nameTok, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			x = &MemberExpr{baseNode{posOf(tok)}, x, nameTok.Val}

		case p.checkVal(TokenSymbol, "("):
			tok := p.advance()
			args, kwargs, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenSymbol, ")"); err != nil {
				return nil, err
			}
			x = &CallExpr{baseNode{posOf(tok)}, x, args, kwargs}

		case p.checkVal(TokenSymbol, "["):
			tok := p.advance()
			var start, stop, step Expr
			isSlice := false
			if !p.checkVal(TokenSymbol, ":") {
				start, err = p.parseExpression()
				if err != nil {
					return nil, err
				}
			}
			if p.matchSymbol(":") != nil {
				isSlice = true
				if !p.checkVal(TokenSymbol, ":") && !p.checkVal(TokenSymbol, "]") {
					stop, err = p.parseExpression()
					if err != nil {
						return nil, err
					}
				}
				if p.matchSymbol(":") != nil {
					if !p.checkVal(TokenSymbol, "]") {
						step, err = p.parseExpression()
						if err != nil {
							return nil, err
						}
					}
				}
			}
			if _, err := p.expect(TokenSymbol, "]"); err != nil {
				return nil, err
			}
			if isSlice {
				x = &SliceExpr{baseNode{posOf(tok)}, x, start, stop, step}
			} else {
				x = &IndexExpr{baseNode{posOf(tok)}, x, start}
			}

		default:
			return x, nil
		}
	}
}

// parsePrimary implements the innermost expressions: literals, identifiers,
// parenthesized groups, and array/map literals.
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.current()
	switch tok.Typ {
	case TokenString:
		p.advance()
		return &LiteralExpr{baseNode{posOf(tok)}, String(tok.Val)}, nil

	case TokenInteger:
		p.advance()
		n, err := parseIntLiteral(tok.Val)
		if err != nil {
			return nil, newParseError(tok, "invalid integer literal %q", tok.Val)
		}
		return &LiteralExpr{baseNode{posOf(tok)}, Int(n)}, nil

	case TokenFloat:
		p.advance()
		f, err := parseFloatLiteral(tok.Val)
		if err != nil {
			return nil, newParseError(tok, "invalid float literal %q", tok.Val)
		}
		return &LiteralExpr{baseNode{posOf(tok)}, Float(f)}, nil

	case TokenIdentifier:
		p.advance()
		return &IdentifierExpr{baseNode{posOf(tok)}, tok.Val}, nil

	case TokenKeyword:
		switch tok.Val {
		case "true":
			p.advance()
			return &LiteralExpr{baseNode{posOf(tok)}, Bool(true)}, nil
		case "false":
			p.advance()
			return &LiteralExpr{baseNode{posOf(tok)}, Bool(false)}, nil
		case "none", "null":
			p.advance()
			return &LiteralExpr{baseNode{posOf(tok)}, Null()}, nil
		}

	case TokenSymbol:
		switch tok.Val {
		case "(":
			p.advance()
			x, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenSymbol, ")"); err != nil {
				return nil, err
			}
			return x, nil

		case "[":
			p.advance()
			var elems []Expr
			for !p.checkVal(TokenSymbol, "]") {
				e, err := p.parseTernary()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if p.matchSymbol(",") == nil {
					break
				}
			}
			if _, err := p.expect(TokenSymbol, "]"); err != nil {
				return nil, err
			}
			return &ArrayExpr{baseNode{posOf(tok)}, elems}, nil

		case "{":
			p.advance()
			var entries []MapEntry
			for !p.checkVal(TokenSymbol, "}") {
				key, err := p.parseTernary()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(TokenSymbol, ":"); err != nil {
					return nil, err
				}
				val, err := p.parseTernary()
				if err != nil {
					return nil, err
				}
				entries = append(entries, MapEntry{Key: key, Value: val})
				if p.matchSymbol(",") == nil {
					break
				}
			}
			if _, err := p.expect(TokenSymbol, "}"); err != nil {
				return nil, err
			}
			return &MapExpr{baseNode{posOf(tok)}, entries}, nil
		}
	}

	return nil, newParseError(tok, "unexpected token %s", tok)
}
