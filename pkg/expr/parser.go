package expr

import (
	"math"
	"strings"
)

// equalityTolerance is the absolute tolerance used by == and !=.
const equalityTolerance = 0.0001

// parser is a cursor over a token slice. Each grammar level is one method;
// the only mutable state is the cursor position.
type parser struct {
	tokens []token
	pos    int
	end    int
}

func newParser(tokens []token, srcLen int) *parser {
	return &parser{tokens: tokens, end: srcLen}
}

func (p *parser) peek() (token, bool) {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos], true
	}
	return token{}, false
}

func (p *parser) at(kind tokenKind) bool {
	t, ok := p.peek()
	return ok && t.kind == kind
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

// offset returns the source offset of the current token, or the end of input.
func (p *parser) offset() int {
	if t, ok := p.peek(); ok {
		return t.pos
	}
	return p.end
}

// parseOr: and ('||' and)*
func (p *parser) parseOr() (bool, error) {
	left, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for p.at(tokOr) {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

// parseAnd: comparison ('&&' comparison)*
func (p *parser) parseAnd() (bool, error) {
	left, err := p.parseComparison()
	if err != nil {
		return false, err
	}
	for p.at(tokAnd) {
		p.next()
		right, err := p.parseComparison()
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

// parseComparison: additive [relop additive]. A bare additive is true when nonzero.
func (p *parser) parseComparison() (bool, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return false, err
	}

	t, ok := p.peek()
	if !ok {
		return left != 0, nil
	}
	switch t.kind {
	case tokGT, tokLT, tokGTE, tokLTE, tokEQ, tokNEQ:
	default:
		return left != 0, nil
	}
	p.next()

	right, err := p.parseAdditive()
	if err != nil {
		return false, err
	}

	switch t.kind {
	case tokGT:
		return left > right, nil
	case tokLT:
		return left < right, nil
	case tokGTE:
		return left >= right, nil
	case tokLTE:
		return left <= right, nil
	case tokEQ:
		return math.Abs(left-right) < equalityTolerance, nil
	default: // tokNEQ
		return math.Abs(left-right) >= equalityTolerance, nil
	}
}

// parseAdditive: term (('+'|'-') term)*
func (p *parser) parseAdditive() (float64, error) {
	result, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.at(tokPlus):
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			result += right
		case p.at(tokMinus):
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			result -= right
		default:
			return result, nil
		}
	}
}

// parseTerm: factor (('*'|'/') factor)*
func (p *parser) parseTerm() (float64, error) {
	result, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.at(tokMul):
			p.next()
			right, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			result *= right
		case p.at(tokDiv):
			op := p.next()
			divisor, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if divisor == 0 {
				return 0, newError(KindArithmetic, op.pos, "division by zero")
			}
			result /= divisor
		default:
			return result, nil
		}
	}
}

// parseFactor: '-' factor | NUMBER | '(' additive ')' | FUNCTION '(' args ')'
func (p *parser) parseFactor() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, newError(KindSyntax, p.end, "unexpected end of expression")
	}

	switch t.kind {
	case tokMinus:
		p.next()
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -v, nil

	case tokNumber:
		p.next()
		return t.num, nil

	case tokLParen:
		p.next()
		v, err := p.parseAdditive()
		if err != nil {
			return 0, err
		}
		if !p.at(tokRParen) {
			return 0, newError(KindSyntax, p.offset(), "missing closing parenthesis")
		}
		p.next()
		return v, nil

	case tokFunction:
		return p.parseCall()
	}

	return 0, newError(KindSyntax, t.pos, "unexpected token %s", t.kind)
}

func (p *parser) parseCall() (float64, error) {
	fn := p.next()
	if !p.at(tokLParen) {
		return 0, newError(KindSyntax, p.offset(), "function %s requires parentheses", fn.name)
	}
	p.next()

	var args []float64
	if !p.at(tokRParen) {
		v, err := p.parseAdditive()
		if err != nil {
			return 0, err
		}
		args = append(args, v)
		for p.at(tokComma) {
			p.next()
			v, err := p.parseAdditive()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
		}
	}

	if !p.at(tokRParen) {
		return 0, newError(KindSyntax, p.offset(), "missing closing parenthesis in call to %s", fn.name)
	}
	p.next()

	v, err := callBuiltin(fn.name, args)
	if err != nil {
		err.Pos = fn.pos
		err.Name = fn.name
		return 0, err
	}
	return v, nil
}

// callBuiltin applies one of the builtin functions. Names are case-insensitive.
func callBuiltin(name string, args []float64) (float64, *Error) {
	arity := func(n int) *Error {
		if len(args) != n {
			plural := "s"
			if n == 1 {
				plural = ""
			}
			return newError(KindSyntax, -1, "%s requires %d argument%s, got %d", strings.ToLower(name), n, plural, len(args))
		}
		return nil
	}

	switch strings.ToLower(name) {
	case "ceil":
		if err := arity(1); err != nil {
			return 0, err
		}
		return math.Ceil(args[0]), nil
	case "floor":
		if err := arity(1); err != nil {
			return 0, err
		}
		return math.Floor(args[0]), nil
	case "min":
		if err := arity(2); err != nil {
			return 0, err
		}
		return math.Min(args[0], args[1]), nil
	case "max":
		if err := arity(2); err != nil {
			return 0, err
		}
		return math.Max(args[0], args[1]), nil
	}
	return 0, newError(KindSyntax, -1, "unknown function %s", name)
}
