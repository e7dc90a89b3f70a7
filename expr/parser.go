package expr

// Parse tokenizes and parses an expression string into an AST.
// It returns a LexError or SyntaxError on the first problem; there is
// no error recovery - the whole expression fails.
func Parse(src string) (Node, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	node, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != EOF {
		return nil, p.unexpected("end of expression")
	}
	return node, nil
}

// parser is a recursive-descent parser over a token stream. Each
// parse method corresponds to one precedence level, lowest first:
//
//	sequence , -> assignment = -> ternary ?: -> logical-or ||
//	-> logical-and && -> equality == != === !== -> relational > < >= <=
//	-> additive + - -> multiplicative * / % -> unary ! - +
//	-> call/member -> primary
type parser struct {
	tokens []Token
	cur    int
}

func (p *parser) peek() Token { return p.tokens[p.cur] }

func (p *parser) advance() Token {
	tok := p.tokens[p.cur]
	if tok.Type != EOF {
		p.cur++
	}
	return tok
}

// matchOperator consumes and returns true if the next token is an
// OPERATOR with one of the given spellings.
func (p *parser) matchOperator(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.Type != OPERATOR {
		return "", false
	}
	for _, op := range ops {
		if tok.Text == op {
			p.advance()
			return op, true
		}
	}
	return "", false
}

// matchPunct consumes and returns true if the next token is the given
// punctuation character.
func (p *parser) matchPunct(text string) bool {
	tok := p.peek()
	if tok.Type == PUNCTUATION && tok.Text == text {
		p.advance()
		return true
	}
	return false
}

// expectPunct consumes the given punctuation or fails.
func (p *parser) expectPunct(text string) error {
	if !p.matchPunct(text) {
		return p.unexpected("'" + text + "'")
	}
	return nil
}

func (p *parser) unexpected(expected string) error {
	return &SyntaxError{Expected: expected, Got: p.peek()}
}

// parseSequence parses comma expressions: a, b, c.
func (p *parser) parseSequence() (Node, error) {
	first, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if !p.matchPunct(",") {
		return first, nil
	}

	exprs := []Node{first}
	for {
		next, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, next)
		if !p.matchPunct(",") {
			return &Sequence{Exprs: exprs}, nil
		}
	}
}

// parseAssignment parses target = value, right-associative. The
// target must be an identifier or member expression.
func (p *parser) parseAssignment() (Node, error) {
	target, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != ASSIGNMENT {
		return target, nil
	}

	switch target.(type) {
	case *Identifier, *Member:
		// assignable
	default:
		return nil, p.unexpected("assignable target (identifier or member)")
	}

	p.advance()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &Assign{Target: target, Value: value}, nil
}

// parseTernary parses cond ? then : else with right-associative
// branches: a ? b : c ? d : e groups as a ? b : (c ? d : e).
func (p *parser) parseTernary() (Node, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if !p.matchPunct("?") {
		return cond, nil
	}

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	alt, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &Ternary{Cond: cond, Then: then, Else: alt}, nil
}

func (p *parser) parseLogicalOr() (Node, error) {
	return p.parseBinary(p.parseLogicalAnd, "||")
}

func (p *parser) parseLogicalAnd() (Node, error) {
	return p.parseBinary(p.parseEquality, "&&")
}

func (p *parser) parseEquality() (Node, error) {
	return p.parseBinary(p.parseRelational, "===", "!==", "==", "!=")
}

func (p *parser) parseRelational() (Node, error) {
	return p.parseBinary(p.parseAdditive, ">=", "<=", ">", "<")
}

func (p *parser) parseAdditive() (Node, error) {
	return p.parseBinary(p.parseMultiplicative, "+", "-")
}

func (p *parser) parseMultiplicative() (Node, error) {
	return p.parseBinary(p.parseUnary, "*", "/", "%")
}

// parseBinary parses a left-associative run of binary operators at
// one precedence level.
func (p *parser) parseBinary(next func() (Node, error), ops ...string) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator(ops...)
		if !ok {
			return left, nil
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

// parseUnary parses prefix ! - + chains.
func (p *parser) parseUnary() (Node, error) {
	if op, ok := p.matchOperator("!", "-", "+"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by any chain of member
// accesses and calls: a.b[c](d).e
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.matchPunct("."):
			tok := p.peek()
			if tok.Type != IDENTIFIER {
				return nil, p.unexpected("property name")
			}
			p.advance()
			node = &Member{
				Object:   node,
				Property: &Literal{Value: tok.Text},
			}

		case p.matchPunct("["):
			idx, err := p.parseSequence()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			node = &Member{Object: node, Property: idx, Computed: true}

		case p.matchPunct("("):
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			node = &Call{Callee: node, Args: args}

		default:
			return node, nil
		}
	}
}

// parseArgs parses a call argument list after the opening paren.
func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.matchPunct(")") {
		return args, nil
	}
	for {
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.matchPunct(")") {
			return args, nil
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
	}
}

// parsePrimary parses literals, identifiers, parenthesised
// expressions and object literals.
func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Type {
	case NUMBER, STRING, BOOLEAN, NULL, UNDEFINED:
		p.advance()
		return &Literal{Value: tok.Value}, nil

	case IDENTIFIER:
		p.advance()
		return &Identifier{Name: tok.Text}, nil
	}

	switch {
	case p.matchPunct("("):
		inner, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case p.matchPunct("{"):
		return p.parseObjectLiteral()
	}

	return nil, p.unexpected("expression")
}

// parseObjectLiteral parses {key: expr, ...} after the opening brace.
// Keys are bare identifiers or string literals. The shorthand {key}
// is sugar for {key: key} and is only legal for bare identifiers -
// a quoted key has no identifier to forward to.
func (p *parser) parseObjectLiteral() (Node, error) {
	obj := &ObjectLiteral{}
	if p.matchPunct("}") {
		return obj, nil
	}

	for {
		tok := p.peek()
		var key string
		var bareKey bool
		switch tok.Type {
		case IDENTIFIER:
			key = tok.Text
			bareKey = true
		case STRING:
			key = tok.Text
		default:
			return nil, p.unexpected("object key")
		}
		p.advance()

		var value Node
		if p.matchPunct(":") {
			v, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			value = v
		} else {
			if !bareKey {
				return nil, p.unexpected("':' after string key")
			}
			value = &Identifier{Name: key}
		}
		obj.Entries = append(obj.Entries, ObjectEntry{Key: key, Value: value})

		if p.matchPunct("}") {
			return obj, nil
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
	}
}
