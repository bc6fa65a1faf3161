// Package expr implements the formula language used by cabinetry templates.
//
// # Grammar
//
// Formulas are arithmetic over float64 with comparisons and boolean
// connectives, listed from lowest to highest precedence:
//
//	or         := and ( "||" and )*
//	and        := comparison ( "&&" comparison )*
//	comparison := additive [ ( ">" | "<" | ">=" | "<=" | "==" | "!=" ) additive ]
//	additive   := term ( ( "+" | "-" ) term )*
//	term       := factor ( ( "*" | "/" ) factor )*
//	factor     := "-" factor | NUMBER | "(" additive ")" | FUNC "(" [ additive ( "," additive )* ] ")"
//
// EvaluateNumeric enters at additive, EvaluateBoolean at or.
//
// Number literals are digits with at most one "." and no exponent or sign.
// Identifiers match [A-Za-z_][A-Za-z0-9_]*; an identifier directly followed by
// "(" names a function, any other identifier is looked up in the variable
// mapping during lexing. The builtin functions are ceil, floor (one
// argument) and min, max (two arguments), matched case-insensitively.
//
// == and != compare with an absolute tolerance of 0.0001. Division by zero is
// an error, never Inf or NaN.
//
// # Errors
//
// Every failure is an *Error whose Kind is one of KindLex,
// KindUnresolvedVariable, KindSyntax or KindArithmetic:
//
//	_, err := expr.EvaluateNumeric("X+1", nil)
//	if name, ok := expr.UnresolvedName(err); ok {
//	    fmt.Println("missing", name) // missing X
//	}
//
// Stored formulas are a durable interface: the grammar and its edge cases
// must not change meaning between releases.
package expr
