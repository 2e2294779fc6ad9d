package expr

// Binding powers, lowest to highest.
const (
	bpLowest   = 0
	bpTernary  = 10
	bpCoalesce = 20
	bpOr       = 30
	bpAnd      = 40
	bpEquality = 50
	bpCompare  = 60
	bpSum      = 70
	bpProduct  = 80
	bpPrefix   = 90
	bpPostfix  = 100
)

func lbp(tt TokenType) (int, bool) {
	switch tt {
	case QUESTION:
		return bpTernary, true
	case COALESCE:
		return bpCoalesce, true
	case OR:
		return bpOr, true
	case AND:
		return bpAnd, true
	case EQ, NEQ:
		return bpEquality, true
	case LT, LTE, GT, GTE:
		return bpCompare, true
	case PLUS, MINUS:
		return bpSum, true
	case STAR, SLASH, PERCENT:
		return bpProduct, true
	case LPAREN, LBRACKET:
		return bpPostfix, true
	}
	return 0, false
}

// MaxNesting bounds how deeply sub-expressions may nest in one line.
const MaxNesting = 256

func isRightAssoc(tt TokenType) bool { return tt == QUESTION || tt == COALESCE }

type parser struct {
	toks  []Token
	i     int
	depth int
}

// Parse lexes and parses a complete expression.
func Parse(src string) (Node, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already lexed token run. A trailing EOF is added when
// missing so callers can hand over sub-slices of a lexed line.
func ParseTokens(toks []Token) (Node, error) {
	if len(toks) == 0 || toks[len(toks)-1].Type != EOF {
		col := 1
		if len(toks) > 0 {
			last := toks[len(toks)-1]
			col = last.Col + len(last.Lexeme)
		}
		run := make([]Token, len(toks), len(toks)+1)
		copy(run, toks)
		toks = append(run, Token{Type: EOF, Col: col})
	}
	p := &parser{toks: toks}
	if p.atEnd() {
		return nil, newParseError(p.peek().Col, "empty expression")
	}
	n, err := p.expr(bpLowest)
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		t := p.peek()
		return nil, newParseError(t.Col, "unexpected %s %q", t.Type, t.Lexeme)
	}
	return n, nil
}

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) peek() Token { return p.toks[p.i] }

func (p *parser) peekAt(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) next() Token {
	t := p.toks[p.i]
	if t.Type != EOF {
		p.i++
	}
	return t
}

func (p *parser) need(tt TokenType, msg string) (Token, error) {
	t := p.peek()
	if t.Type != tt {
		if t.Type == EOF {
			return t, newParseError(t.Col, "%s, got end of input", msg)
		}
		return t, newParseError(t.Col, "%s, got %q", msg, t.Lexeme)
	}
	p.i++
	return t, nil
}

func (p *parser) expr(minBP int) (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxNesting {
		return nil, newParseError(p.peek().Col, "expression nested too deeply (limit %d)", MaxNesting)
	}

	left, err := p.prefix()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		bp, ok := lbp(t.Type)
		if !ok || bp <= minBP {
			return left, nil
		}
		p.i++

		switch t.Type {
		case LPAREN:
			args, err := p.list(RPAREN, "expected ',' or ')' in call")
			if err != nil {
				return nil, err
			}
			left = &Call{At: t.Col, Fn: left, Args: args}
			continue
		case LBRACKET:
			idx, err := p.expr(bpLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RBRACKET, "expected ']' after index"); err != nil {
				return nil, err
			}
			left = &Index{At: t.Col, X: left, Index: idx}
			continue
		case QUESTION:
			then, err := p.expr(bpLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.need(COLON, "expected ':' in conditional expression"); err != nil {
				return nil, err
			}
			els, err := p.expr(bp - 1)
			if err != nil {
				return nil, err
			}
			left = &Ternary{At: t.Col, Cond: left, Then: then, Else: els}
			continue
		}

		rbp := bp
		if isRightAssoc(t.Type) {
			rbp = bp - 1
		}
		if p.atEnd() {
			return nil, newParseError(p.peek().Col, "expected expression after %s", t.Type)
		}
		right, err := p.expr(rbp)
		if err != nil {
			return nil, err
		}
		if t.Type == COALESCE {
			left = &Coalesce{At: t.Col, L: left, R: right}
		} else {
			left = &Binary{At: t.Col, Op: t.Type, L: left, R: right}
		}
	}
}

func (p *parser) prefix() (Node, error) {
	t := p.next()
	switch t.Type {
	case INT, FLOAT, STRING, TRUE, FALSE:
		return &Literal{At: t.Col, Value: t.Literal}, nil
	case NIL:
		return &Literal{At: t.Col, Value: nil}, nil
	case IDENT:
		name := t.Literal.(string)
		if p.peek().Type == ARROW {
			p.i++
			return p.lambdaBody(t.Col, []string{name})
		}
		return &Ident{At: t.Col, Name: name}, nil
	case MINUS, NOT:
		if p.atEnd() {
			return nil, newParseError(p.peek().Col, "expected expression after unary operator")
		}
		x, err := p.expr(bpPrefix)
		if err != nil {
			return nil, err
		}
		return &Unary{At: t.Col, Op: t.Type, X: x}, nil
	case LPAREN:
		if params, ok := p.lambdaParams(); ok {
			return p.lambdaBody(t.Col, params)
		}
		inner, err := p.expr(bpLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case LBRACKET:
		return p.listLiteral(t)
	case EOF:
		return nil, newParseError(t.Col, "unexpected end of input")
	case MACRO:
		return nil, newParseError(t.Col, "macro %q is not valid inside an expression", t.Lexeme)
	}
	return nil, newParseError(t.Col, "unexpected %s %q", t.Type, t.Lexeme)
}

// lambdaParams recognizes "a, b) =>" right after an opening paren and
// consumes it. The cursor is left untouched when the shape does not match.
func (p *parser) lambdaParams() ([]string, bool) {
	var params []string
	n := 0
	if p.peekAt(n).Type != RPAREN {
		for {
			t := p.peekAt(n)
			if t.Type != IDENT {
				return nil, false
			}
			params = append(params, t.Literal.(string))
			n++
			if p.peekAt(n).Type == COMMA {
				n++
				continue
			}
			break
		}
	}
	if p.peekAt(n).Type != RPAREN || p.peekAt(n+1).Type != ARROW {
		return nil, false
	}
	p.i += n + 2
	return params, true
}

func (p *parser) lambdaBody(col int, params []string) (Node, error) {
	if p.atEnd() {
		return nil, newParseError(p.peek().Col, "expected lambda body after '=>'")
	}
	body, err := p.expr(bpLowest)
	if err != nil {
		return nil, err
	}
	return &LambdaLit{At: col, Params: params, Body: body}, nil
}

func (p *parser) listLiteral(open Token) (Node, error) {
	if p.peek().Type == RBRACKET {
		p.i++
		return &ListLit{At: open.Col}, nil
	}
	first, err := p.expr(bpLowest)
	if err != nil {
		return nil, err
	}
	if p.peek().Type == FOR {
		return p.comprehension(open, first)
	}

	elems := []Node{first}
	for p.peek().Type == COMMA {
		p.i++
		if p.peek().Type == RBRACKET {
			break
		}
		e, err := p.expr(bpLowest)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.need(RBRACKET, "expected ',' or ']' in list"); err != nil {
		return nil, err
	}
	return &ListLit{At: open.Col, Elems: elems}, nil
}

func (p *parser) comprehension(open Token, elem Node) (Node, error) {
	p.i++ // for
	v, err := p.need(IDENT, "expected loop variable after 'for'")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(IN, "expected 'in' after loop variable"); err != nil {
		return nil, err
	}
	iter, err := p.expr(bpLowest)
	if err != nil {
		return nil, err
	}
	var cond Node
	if p.peek().Type == IF {
		p.i++
		cond, err = p.expr(bpLowest)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.need(RBRACKET, "expected ']' to close comprehension"); err != nil {
		return nil, err
	}
	return &Comprehension{
		At:   open.Col,
		Elem: elem,
		Var:  v.Literal.(string),
		Iter: iter,
		Cond: cond,
	}, nil
}

func (p *parser) list(closer TokenType, msg string) ([]Node, error) {
	var out []Node
	if p.peek().Type == closer {
		p.i++
		return out, nil
	}
	for {
		e, err := p.expr(bpLowest)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.peek().Type == COMMA {
			p.i++
			continue
		}
		if _, err := p.need(closer, msg); err != nil {
			return nil, err
		}
		return out, nil
	}
}
