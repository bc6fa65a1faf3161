package expr

import "testing"

func mustParser(t *testing.T, src string, vars map[string]float64) *parser {
	t.Helper()
	tokens, err := tokenize(src, vars)
	if err != nil {
		t.Fatalf("tokenize(%q): %v", src, err)
	}
	return newParser(tokens, len(src))
}

func TestTokenize(t *testing.T) {
	tokens, err := tokenize("max(W,2)>=1.5&&x||-3", map[string]float64{"W": 600, "x": 0})
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}

	want := []tokenKind{
		tokFunction, tokLParen, tokNumber, tokComma, tokNumber, tokRParen,
		tokGTE, tokNumber, tokAnd, tokNumber, tokOr, tokMinus, tokNumber,
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, k := range want {
		if tokens[i].kind != k {
			t.Errorf("token %d: kind %s, want %s", i, tokens[i].kind, k)
		}
	}

	if tokens[0].name != "max" {
		t.Errorf("function token name = %q, want max", tokens[0].name)
	}
	if tokens[2].num != 600 || tokens[2].name != "W" {
		t.Errorf("variable token = %+v, want W=600", tokens[2])
	}
	if tokens[7].num != 1.5 {
		t.Errorf("literal token = %v, want 1.5", tokens[7].num)
	}
}

func TestParserLevels(t *testing.T) {
	t.Run("term stops at additive operator", func(t *testing.T) {
		p := mustParser(t, "6/3+1", nil)
		v, err := p.parseTerm()
		if err != nil {
			t.Fatal(err)
		}
		if v != 2 {
			t.Errorf("parseTerm = %v, want 2", v)
		}
		if !p.at(tokPlus) {
			t.Errorf("cursor should rest on '+'")
		}
	})

	t.Run("factor consumes one operand", func(t *testing.T) {
		p := mustParser(t, "-(1+2)*4", nil)
		v, err := p.parseFactor()
		if err != nil {
			t.Fatal(err)
		}
		if v != -3 {
			t.Errorf("parseFactor = %v, want -3", v)
		}
		if p.pos != 6 {
			t.Errorf("cursor at %d, want 6", p.pos)
		}
	})

	t.Run("comparison without operator coerces", func(t *testing.T) {
		p := mustParser(t, "2-2", nil)
		v, err := p.parseComparison()
		if err != nil {
			t.Fatal(err)
		}
		if v {
			t.Errorf("parseComparison(2-2) = true, want false")
		}
	})

	t.Run("and stops at or", func(t *testing.T) {
		p := mustParser(t, "1 && 0 || 1", nil)
		v, err := p.parseAnd()
		if err != nil {
			t.Fatal(err)
		}
		if v {
			t.Errorf("parseAnd = true, want false")
		}
		if !p.at(tokOr) {
			t.Errorf("cursor should rest on '||'")
		}
	})
}
