package expr

import (
	"errors"
	"fmt"
)

// Kind classifies an evaluation failure.
type Kind string

const (
	// KindLex indicates a character the lexer does not recognise, or a
	// malformed number literal.
	KindLex Kind = "lex"

	// KindUnresolvedVariable indicates an identifier absent from the variable mapping.
	KindUnresolvedVariable Kind = "unresolved_variable"

	// KindSyntax indicates an unexpected token, a missing parenthesis, an
	// unknown function or a wrong argument count.
	KindSyntax Kind = "syntax"

	// KindArithmetic indicates division by zero.
	KindArithmetic Kind = "arithmetic"
)

// Error describes why an expression could not be evaluated.
type Error struct {
	// Kind is the failure classification.
	Kind Kind `json:"kind"`

	// Expr is the expression being evaluated.
	Expr string `json:"expr"`

	// Pos is the byte offset in Expr where the failure was detected, or -1.
	Pos int `json:"pos"`

	// Name is the unresolved identifier or offending function name, if any.
	Name string `json:"name,omitempty"`

	// Msg is the human-readable detail.
	Msg string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s error in %q at offset %d: %s", e.Kind, e.Expr, e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s error in %q: %s", e.Kind, e.Expr, e.Msg)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, pos int, format string, args ...interface{}) *Error {
	return &Error{
		Kind: kind,
		Pos:  pos,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of an evaluation error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an evaluation error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UnresolvedName returns the identifier named by an unresolved-variable error.
func UnresolvedName(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindUnresolvedVariable {
		return e.Name, true
	}
	return "", false
}
