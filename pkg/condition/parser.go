package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// parse turns a free-form condition into an expression tree. Anything outside the
// supported grammar is a *SyntaxError; nothing is ever executed.
//
//	or      := and (("||" | "or") and)*
//	and     := not (("&&" | "and") not)*
//	not     := ("!" | "not") not | cmp
//	cmp     := postfix [ cmpop postfix | word-op operand ]
//	postfix := primary ( "." ident [ "(" args ")" ] | "[" or "]" )*
//	primary := number | string | regex | ident | "(" or ")" | "[" list "]"
func parse(src string) (expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return root, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+offset]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Expr: p.src, Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.peek().kind != kind {
		return token{}, p.errorf("expected %s", what)
	}
	return p.next(), nil
}

func (p *parser) isWord(words ...string) bool {
	t := p.peek()
	if t.kind != tokIdent {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			return true
		}
	}
	return false
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") || p.isWord("or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicalExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") || p.isWord("and") {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &logicalExpr{and: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (expr, error) {
	if p.isOp("!") || (p.isWord("not") && p.peekAt(1).kind != tokEOF) {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notExpr{x: x}, nil
	}
	return p.parseCompare()
}

var symbolOps = map[string]Operator{
	"==": OpEquals, "=": OpEquals, "!=": OpNotEquals, "<>": OpNotEquals,
	"===": OpStrictEquals, "!==": OpStrictNotEquals,
	">": OpGreaterThan, ">=": OpGreaterThanOrEqual,
	"<": OpLessThan, "<=": OpLessThanOrEqual,
}

func (p *parser) parseCompare() (expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	if t.kind == tokOp {
		op, ok := symbolOps[t.text]
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		return emptyCheck(op, left, right), nil
	}

	if t.kind != tokIdent || strings.EqualFold(t.text, "and") || strings.EqualFold(t.text, "or") {
		return left, nil
	}

	// "not in" / "not contains" two-word forms.
	negate := false
	if strings.EqualFold(t.text, "not") {
		switch strings.ToLower(p.peekAt(1).text) {
		case "in":
			p.next()
			p.next()
			right, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			return &compareExpr{op: OpNotIn, left: left, right: right}, nil
		case "contains", "between", "matches", "startswith", "endswith":
			p.next()
			negate = true
			t = p.peek()
		default:
			return nil, p.errorf("unexpected %q", t.text)
		}
	}

	op, ok := ParseOperator(t.text)
	if !ok {
		return nil, p.errorf("unknown operator %q", t.text)
	}
	p.next()

	var cmp expr
	switch {
	case unaryOperators[op]:
		cmp = &compareExpr{op: op, left: left}
	case rangeOperators[op]:
		right, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		cmp = &compareExpr{op: op, left: left, right: right}
	default:
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		cmp = &compareExpr{op: op, left: left, right: right}
	}
	if negate {
		return &notExpr{x: cmp}, nil
	}
	return cmp, nil
}

// parseRange reads "lo and hi" or an array literal.
func (p *parser) parseRange() (expr, error) {
	lo, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if _, isArray := lo.(*arrayExpr); isArray || !p.isWord("and") {
		return lo, nil
	}
	p.next()
	hi, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	return &arrayExpr{elems: []expr{lo, hi}}, nil
}

func (p *parser) parsePostfix() (expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			name, err := p.expect(tokIdent, "property name")
			if err != nil {
				return nil, err
			}
			if hostTokens[name.text] {
				return nil, &SyntaxError{Expr: p.src, Pos: name.pos, Msg: fmt.Sprintf("identifier %q is not allowed", name.text)}
			}
			if p.peek().kind != tokLParen {
				x = &memberExpr{x: x, name: name.text}
				continue
			}
			arity, ok := allowedMethods[name.text]
			if !ok {
				return nil, &SyntaxError{Expr: p.src, Pos: name.pos, Msg: fmt.Sprintf("method %q is not supported", name.text)}
			}
			p.next()
			args, err := p.parseList(tokRParen, ")")
			if err != nil {
				return nil, err
			}
			if len(args) != arity {
				return nil, &SyntaxError{Expr: p.src, Pos: name.pos, Msg: fmt.Sprintf("%s expects %d argument(s), got %d", name.text, arity, len(args))}
			}
			x = &callExpr{recv: x, method: name.text, args: args}
		case tokLBrack:
			p.next()
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBrack, "]"); err != nil {
				return nil, err
			}
			x = &indexExpr{x: x, idx: idx}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseList(end tokenKind, endText string) ([]expr, error) {
	var items []expr
	if p.peek().kind == end {
		p.next()
		return items, nil
	}
	for {
		item, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peek().kind == tokComma {
			p.next()
			continue
		}
		if _, err := p.expect(end, endText); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func (p *parser) parsePrimary() (expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &SyntaxError{Expr: p.src, Pos: t.pos, Msg: fmt.Sprintf("invalid number %q", t.text)}
		}
		return &literalExpr{value: f}, nil
	case tokString:
		p.next()
		return &literalExpr{value: t.text}, nil
	case tokRegex:
		p.next()
		re, err := compileWithFlags(t.text, t.flags)
		if err != nil {
			return nil, &SyntaxError{Expr: p.src, Pos: t.pos, Msg: fmt.Sprintf("invalid regular expression: %v", err)}
		}
		return &regexExpr{re: re}, nil
	case tokLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokLBrack:
		p.next()
		elems, err := p.parseList(tokRBrack, "]")
		if err != nil {
			return nil, err
		}
		return &arrayExpr{elems: elems}, nil
	case tokOp:
		if t.text == "-" {
			p.next()
			x, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return &negExpr{x: x}, nil
		}
	case tokIdent:
		p.next()
		switch t.text {
		case "true":
			return &literalExpr{value: true}, nil
		case "false":
			return &literalExpr{value: false}, nil
		case "null", "undefined", "nil":
			return &literalExpr{value: nil}, nil
		}
		if hostTokens[t.text] {
			return nil, &SyntaxError{Expr: p.src, Pos: t.pos, Msg: fmt.Sprintf("identifier %q is not allowed", t.text)}
		}
		return &identExpr{name: t.text}, nil
	}
	return nil, p.errorf("unexpected %q", t.text)
}

// emptyCheck rewrites the x == '' idiom so a missing field also counts as empty.
func emptyCheck(op Operator, left, right expr) expr {
	lit, ok := right.(*literalExpr)
	if !ok || lit.value != "" {
		return &compareExpr{op: op, left: left, right: right}
	}
	switch op {
	case OpEquals, OpStrictEquals:
		return &compareExpr{op: OpIsEmpty, left: left}
	case OpNotEquals, OpStrictNotEquals:
		return &compareExpr{op: OpIsNotEmpty, left: left}
	}
	return &compareExpr{op: op, left: left, right: right}
}
