package expr

import (
	"errors"
	"strings"
)

// EvaluateNumeric evaluates expr as an arithmetic expression against vars.
//
// Identifiers are resolved while lexing, so a reference to a name missing from
// vars fails with KindUnresolvedVariable even if it sits in a branch that would
// otherwise not matter. Tokens left over once the expression is complete are
// ignored.
func EvaluateNumeric(expr string, vars map[string]float64) (float64, error) {
	p, err := prepare(expr, vars)
	if err != nil {
		return 0, err
	}
	v, err := p.parseAdditive()
	if err != nil {
		return 0, annotate(err, expr)
	}
	return v, nil
}

// EvaluateBoolean evaluates expr as a boolean condition against vars.
// Comparisons may be chained with && and ||; a bare numeric operand is true
// when it is nonzero.
func EvaluateBoolean(expr string, vars map[string]float64) (bool, error) {
	p, err := prepare(expr, vars)
	if err != nil {
		return false, err
	}
	v, err := p.parseOr()
	if err != nil {
		return false, annotate(err, expr)
	}
	return v, nil
}

func prepare(expr string, vars map[string]float64) (*parser, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, annotate(newError(KindSyntax, -1, "expression is empty"), expr)
	}
	tokens, err := tokenize(expr, vars)
	if err != nil {
		return nil, annotate(err, expr)
	}
	return newParser(tokens, len(expr)), nil
}

func annotate(err error, expr string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Expr = expr
	}
	return err
}
