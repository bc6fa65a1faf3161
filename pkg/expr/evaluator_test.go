package expr

import (
	"errors"
	"math"
	"testing"
)

func TestEvaluateNumeric(t *testing.T) {
	vars := map[string]float64{
		"W":          600,
		"H":          720,
		"T":          18,
		"DOOR_COUNT": 2,
		"_x1":        0.5,
	}

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"precedence", "2+3*4", 14},
		{"parentheses", "(2+3)*4", 20},
		{"left associative subtraction", "10-4-3", 3},
		{"left associative division", "100/10/5", 2},
		{"unary minus", "-5+2", -3},
		{"double unary minus", "--5", 5},
		{"unary minus binds tighter than multiply", "-2*3", -6},
		{"unary minus on group", "-(2+3)", -5},
		{"decimal literal", "1.5*2", 3},
		{"leading dot", ".5*4", 2},
		{"trailing dot", "5.*2", 10},
		{"variables", "W - 2*T", 564},
		{"underscore identifier", "_x1*2", 1},
		{"whitespace", "  W \t/\n DOOR_COUNT ", 300},
		{"ceil", "ceil(7/2)", 4},
		{"floor", "floor(7/2)", 3},
		{"min", "min(3,5)", 3},
		{"max", "max(3,5)", 5},
		{"case-insensitive function", "CEIL(7/2) + Max(1, 2)", 6},
		{"nested function", "max(min(W, H), 10) - 1", 599},
		{"function args are expressions", "min(W-2*T, H/2)", 360},
		{"trailing tokens ignored", "2 3", 2},
		{"unmatched trailing paren ignored", "1)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateNumeric(tt.expr, vars)
			if err != nil {
				t.Fatalf("EvaluateNumeric(%q) error: %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EvaluateNumeric(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateBoolean(t *testing.T) {
	dims := map[string]float64{"W": 600, "H": 720, "D": 560}
	flat := map[string]float64{"W": 600, "H": 720, "D": 0}

	tests := []struct {
		name string
		expr string
		vars map[string]float64
		want bool
	}{
		{"chain all positive", "W > 0 && H > 0 && D > 0", dims, true},
		{"chain with zero depth", "W > 0 && H > 0 && D > 0", flat, false},
		{"or short value", "D > 0 || W > 0", flat, true},
		{"and binds tighter than or", "1 > 2 && 1 > 2 || 3 > 2", nil, true},
		{"greater or equal", "W >= 600", dims, true},
		{"less or equal", "W <= 599", dims, false},
		{"less", "1 < 2", nil, true},
		{"equality within tolerance", "0.1+0.2 == 0.3", nil, true},
		{"equality just inside tolerance", "1 == 1.00009", nil, true},
		{"equality outside tolerance", "1 == 1.0002", nil, false},
		{"inequality within tolerance", "1 != 1.00005", nil, false},
		{"inequality outside tolerance", "1 != 1.001", nil, true},
		{"bare nonzero is true", "W", dims, true},
		{"bare zero is false", "D", flat, false},
		{"bare arithmetic", "W - 600", dims, false},
		{"door count range", "DOOR_COUNT >= 1 && DOOR_COUNT <= 2", map[string]float64{"DOOR_COUNT": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateBoolean(tt.expr, tt.vars)
			if err != nil {
				t.Fatalf("EvaluateBoolean(%q) error: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("EvaluateBoolean(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		boolean  bool
		wantKind Kind
	}{
		{"division by zero", "1/0", false, KindArithmetic},
		{"division by computed zero", "4/(2-2)", false, KindArithmetic},
		{"division by zero in condition", "1/0 > 1", true, KindArithmetic},
		{"unresolved variable", "X+1", false, KindUnresolvedVariable},
		{"unresolved in condition", "Y > 0", true, KindUnresolvedVariable},
		{"function name with space is a variable", "ceil (2)", false, KindUnresolvedVariable},
		{"unexpected character", "2 % 3", false, KindLex},
		{"single ampersand", "1 & 2", true, KindLex},
		{"single equals", "1 = 1", true, KindLex},
		{"bang alone", "!1", true, KindLex},
		{"two decimal points", "1.2.3", false, KindLex},
		{"lone dot", ".", false, KindLex},
		{"non-ascii letter", "é+1", false, KindLex},
		{"empty", "", false, KindSyntax},
		{"blank", "   ", true, KindSyntax},
		{"dangling operator", "2+", false, KindSyntax},
		{"missing close paren", "(2+3", false, KindSyntax},
		{"missing close paren in call", "min(2,3", false, KindSyntax},
		{"leading operator", "*2", false, KindSyntax},
		{"ceil arity", "ceil(1,2)", false, KindSyntax},
		{"floor no args", "floor()", false, KindSyntax},
		{"min arity", "min(1)", false, KindSyntax},
		{"max arity", "max(1,2,3)", false, KindSyntax},
		{"unknown function", "sqrt(4)", false, KindSyntax},
		{"comparison operand missing", "1 >", true, KindSyntax},
		{"empty group", "()", false, KindSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.boolean {
				_, err = EvaluateBoolean(tt.expr, nil)
			} else {
				_, err = EvaluateNumeric(tt.expr, nil)
			}
			if err == nil {
				t.Fatalf("expected %s error for %q, got nil", tt.wantKind, tt.expr)
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(%v) = %q, want %q", err, got, tt.wantKind)
			}

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if e.Expr != tt.expr {
				t.Errorf("Error.Expr = %q, want %q", e.Expr, tt.expr)
			}
		})
	}
}

func TestUnresolvedVariableNamesIdentifier(t *testing.T) {
	_, err := EvaluateNumeric("X+1", map[string]float64{})
	name, ok := UnresolvedName(err)
	if !ok {
		t.Fatalf("expected unresolved variable error, got %v", err)
	}
	if name != "X" {
		t.Errorf("unresolved name = %q, want %q", name, "X")
	}

	if !errors.Is(err, &Error{Kind: KindUnresolvedVariable}) {
		t.Errorf("errors.Is should match on kind")
	}
	if errors.Is(err, &Error{Kind: KindSyntax}) {
		t.Errorf("errors.Is should not match a different kind")
	}
}

func TestErrorPositions(t *testing.T) {
	tests := []struct {
		expr    string
		wantPos int
	}{
		{"W + 1/0", 5},
		{"1 + 2 # 3", 6},
		{"2+", 2},
		{"1 + MISSING", 4},
	}

	for _, tt := range tests {
		_, err := EvaluateNumeric(tt.expr, map[string]float64{"W": 1})
		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("%q: expected *Error, got %v", tt.expr, err)
		}
		if e.Pos != tt.wantPos {
			t.Errorf("%q: Pos = %d, want %d", tt.expr, e.Pos, tt.wantPos)
		}
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	vars := map[string]float64{"W": 600, "DOOR_COUNT": 3}
	first, err := EvaluateNumeric("W/DOOR_COUNT", vars)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		got, err := EvaluateNumeric("W/DOOR_COUNT", vars)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("iteration %d: got %v, want %v", i, got, first)
		}
	}
	if vars["W"] != 600 || len(vars) != 2 {
		t.Errorf("evaluation mutated the variable mapping: %v", vars)
	}
}
