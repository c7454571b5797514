package main

// Parser is a recursive-descent parser over a Lexer. Parse errors are
// recorded in the lexer's ErrorList; after the first one the parser stops
// producing statements.
type Parser struct {
	l *Lexer
}

// ParseProgram parses a whole kiraz module.
func ParseProgram(l *Lexer) *ASTNode {
	p := &Parser{l: l}
	l.NextToken()
	module := &ASTNode{Kind: NodeModule, Line: 1, Col: 1}
	for l.CurrTokenType != EOF && !l.Errors.HasErrors() {
		stmt := p.parseStatement()
		if stmt != nil {
			module.Children = append(module.Children, stmt)
		}
	}
	return module
}

// ParseExpression parses a single expression followed by end of input.
func ParseExpression(l *Lexer) *ASTNode {
	p := &Parser{l: l}
	l.NextToken()
	expr := p.parseExpression(0)
	if l.CurrTokenType != EOF && !l.Errors.HasErrors() {
		l.Errors.Add(l.CurrLine, l.CurrCol, "unexpected %s after expression", l.describeCurrent())
	}
	return expr
}

func (p *Parser) node(kind NodeKind, children ...*ASTNode) *ASTNode {
	return &ASTNode{Kind: kind, Children: children, Line: p.l.CurrLine, Col: p.l.CurrCol}
}

func (p *Parser) failed() bool {
	return p.l.Errors.HasErrors()
}

func (p *Parser) skipOptionalSemicolon() {
	if p.l.CurrTokenType == SEMICOLON {
		p.l.SkipToken(SEMICOLON)
	}
}

func (p *Parser) parseIdent() *ASTNode {
	n := p.node(NodeIdent)
	n.String = p.l.CurrLiteral
	if !p.l.SkipToken(IDENT) {
		return nil
	}
	return n
}

// parseStatement parses one statement including its optional trailing ';'.
func (p *Parser) parseStatement() *ASTNode {
	var stmt *ASTNode
	switch p.l.CurrTokenType {
	case IMPORT:
		stmt = p.node(NodeImport)
		p.l.SkipToken(IMPORT)
		stmt.Children = []*ASTNode{p.parseIdent()}

	case CLASS:
		stmt = p.parseClass()

	case FUNC:
		stmt = p.parseFunc()

	case LET:
		stmt = p.parseLet()

	case IF:
		stmt = p.parseIf()

	case WHILE:
		stmt = p.node(NodeWhile)
		p.l.SkipToken(WHILE)
		cond := p.parseExpression(0)
		body := p.parseBlock()
		stmt.Children = []*ASTNode{cond, body}

	case RETURN:
		stmt = p.node(NodeReturn)
		p.l.SkipToken(RETURN)
		if p.l.CurrTokenType != SEMICOLON && p.l.CurrTokenType != RBRACE && p.l.CurrTokenType != EOF {
			stmt.Children = []*ASTNode{p.parseExpression(0)}
		}

	case SEMICOLON:
		p.l.SkipToken(SEMICOLON)
		return nil

	default:
		// Expression statement or assignment
		expr := p.parseExpression(0)
		if p.l.CurrTokenType == ASSIGN {
			stmt = p.node(NodeAssign)
			p.l.SkipToken(ASSIGN)
			stmt.Children = []*ASTNode{expr, p.parseExpression(0)}
		} else {
			stmt = expr
		}
	}
	p.skipOptionalSemicolon()
	return stmt
}

func (p *Parser) parseClass() *ASTNode {
	n := p.node(NodeClass)
	p.l.SkipToken(CLASS)
	name := p.parseIdent()
	var parent *ASTNode
	if p.l.CurrTokenType == COLON {
		p.l.SkipToken(COLON)
		parent = p.parseIdent()
	}
	body := p.parseBlock()
	n.Children = []*ASTNode{name, parent, body}
	return n
}

func (p *Parser) parseFunc() *ASTNode {
	n := p.node(NodeFunc)
	p.l.SkipToken(FUNC)
	name := p.parseIdent()
	params := p.node(NodeParams)
	p.l.SkipToken(LPAREN)
	for p.l.CurrTokenType != RPAREN && p.l.CurrTokenType != EOF && !p.failed() {
		param := p.node(NodeParam)
		pname := p.parseIdent()
		p.l.SkipToken(COLON)
		ptype := p.parseIdent()
		param.Children = []*ASTNode{pname, ptype}
		params.Children = append(params.Children, param)
		if p.l.CurrTokenType == COMMA {
			p.l.SkipToken(COMMA)
		} else {
			break
		}
	}
	p.l.SkipToken(RPAREN)
	var rettype *ASTNode
	if p.l.CurrTokenType == COLON {
		p.l.SkipToken(COLON)
		rettype = p.parseIdent()
	}
	body := p.parseBlock()
	n.Children = []*ASTNode{name, params, rettype, body}
	return n
}

func (p *Parser) parseLet() *ASTNode {
	n := p.node(NodeLet)
	p.l.SkipToken(LET)
	name := p.parseIdent()
	var typ, value *ASTNode
	if p.l.CurrTokenType == COLON {
		p.l.SkipToken(COLON)
		typ = p.parseIdent()
	}
	if p.l.CurrTokenType == ASSIGN {
		p.l.SkipToken(ASSIGN)
		value = p.parseExpression(0)
	}
	n.Children = []*ASTNode{name, typ, value}
	return n
}

func (p *Parser) parseIf() *ASTNode {
	n := p.node(NodeIf)
	p.l.SkipToken(IF)
	cond := p.parseExpression(0)
	then := p.parseBlock()
	var els *ASTNode
	if p.l.CurrTokenType == ELSE {
		p.l.SkipToken(ELSE)
		if p.l.CurrTokenType == IF {
			// else if: an else block holding a single if
			els = p.node(NodeBlock)
			els.Children = []*ASTNode{p.parseIf()}
		} else {
			els = p.parseBlock()
		}
	}
	n.Children = []*ASTNode{cond, then, els}
	return n
}

func (p *Parser) parseBlock() *ASTNode {
	block := p.node(NodeBlock)
	if !p.l.SkipToken(LBRACE) {
		return block
	}
	for p.l.CurrTokenType != RBRACE && p.l.CurrTokenType != EOF && !p.failed() {
		if stmt := p.parseStatement(); stmt != nil {
			block.Children = append(block.Children, stmt)
		}
	}
	if !p.failed() {
		p.l.SkipToken(RBRACE)
	}
	return block
}

// precedence returns the binding power of a binary operator token, or 0.
func precedence(tokenType TokenType) int {
	switch tokenType {
	case EQ, NOT_EQ, LT, GT, LE, GE:
		return 1
	case PLUS, MINUS:
		return 2
	case ASTERISK, SLASH:
		return 3
	default:
		return 0 // not an operator
	}
}

// parseExpression implements precedence climbing
func (p *Parser) parseExpression(minPrec int) *ASTNode {
	left := p.parseUnary()
	for !p.failed() {
		prec := precedence(p.l.CurrTokenType)
		if prec == 0 || prec < minPrec {
			break
		}
		n := p.node(NodeBinary)
		n.Op = p.l.CurrLiteral
		p.l.NextToken()
		right := p.parseExpression(prec + 1) // left-associative
		n.Children = []*ASTNode{left, right}
		left = n
	}
	return left
}

func (p *Parser) parseUnary() *ASTNode {
	if p.l.CurrTokenType == MINUS {
		n := p.node(NodeUnary)
		n.Op = "-"
		p.l.SkipToken(MINUS)
		if p.l.CurrTokenType == INT && p.l.CurrIntNeedsMinus {
			n.Kind, n.Op = NodeInteger, ""
			n.Integer = p.l.CurrIntValue
			p.l.SkipToken(INT)
			return p.parsePostfix(n)
		}
		n.Children = []*ASTNode{p.parseUnary()}
		return n
	}
	return p.parsePostfix(p.parsePrimary())
}

// parsePostfix handles calls and dot access.
func (p *Parser) parsePostfix(left *ASTNode) *ASTNode {
	for !p.failed() {
		switch p.l.CurrTokenType {
		case LPAREN:
			n := p.node(NodeCall)
			n.Line, n.Col = left.Line, left.Col
			args := p.parseArgs()
			n.Children = append([]*ASTNode{left}, args...)
			left = n
		case DOT:
			n := p.node(NodeDot)
			n.Line, n.Col = left.Line, left.Col
			p.l.SkipToken(DOT)
			n.Children = []*ASTNode{left, p.parseIdent()}
			left = n
		default:
			return left
		}
	}
	return left
}

func (p *Parser) parseArgs() []*ASTNode {
	var args []*ASTNode
	p.l.SkipToken(LPAREN)
	for p.l.CurrTokenType != RPAREN && p.l.CurrTokenType != EOF && !p.failed() {
		args = append(args, p.parseExpression(0))
		if p.l.CurrTokenType == COMMA {
			p.l.SkipToken(COMMA)
		} else {
			break
		}
	}
	p.l.SkipToken(RPAREN)
	return args
}

// parsePrimary handles literals, identifiers, parentheses and the logical
// operator forms and(a, b), or(a, b), not(a).
func (p *Parser) parsePrimary() *ASTNode {
	line, col := p.l.CurrLine, p.l.CurrCol
	switch p.l.CurrTokenType {
	case INT:
		if p.l.CurrIntNeedsMinus {
			p.l.Errors.Add(line, col, "invalid integer literal '%s'", p.l.CurrLiteral)
		}
		n := p.node(NodeInteger)
		n.Integer = p.l.CurrIntValue
		p.l.SkipToken(INT)
		return n

	case STRING:
		n := p.node(NodeString)
		n.String = p.l.CurrLiteral
		p.l.SkipToken(STRING)
		return n

	case TRUE, FALSE:
		n := p.node(NodeBoolean)
		n.Boolean = p.l.CurrTokenType == TRUE
		p.l.NextToken()
		return n

	case IDENT:
		name := p.l.CurrLiteral
		if isLogicalOperator(name) && p.l.PeekToken() == LPAREN {
			p.l.SkipToken(IDENT)
			args := p.parseArgs()
			n := p.logical(name, args, line, col)
			return n
		}
		return p.parseIdent()

	case LPAREN:
		p.l.SkipToken(LPAREN)
		expr := p.parseExpression(0)
		p.l.SkipToken(RPAREN)
		return expr

	default:
		p.l.Errors.Add(line, col, "unexpected %s in expression", p.l.describeCurrent())
		n := p.node(NodeIdent)
		if p.l.CurrTokenType != EOF {
			p.l.NextToken()
		}
		return n
	}
}

func (p *Parser) logical(name string, args []*ASTNode, line, col int) *ASTNode {
	want := 2
	if name == "not" {
		want = 1
	}
	if len(args) != want {
		p.l.Errors.Add(line, col, "'%s' takes %d argument(s) but got %d", name, want, len(args))
		return &ASTNode{Kind: NodeIdent, String: name, Line: line, Col: col}
	}
	var n *ASTNode
	switch name {
	case "and":
		n = AndFunction(args[0], args[1])
	case "or":
		n = OrFunction(args[0], args[1])
	default:
		n = NotFunction(args[0])
	}
	n.Line, n.Col = line, col
	return n
}
