package expr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenKind identifies a lexical token.
type tokenKind int

const (
	tokNumber tokenKind = iota
	tokFunction
	tokPlus
	tokMinus
	tokMul
	tokDiv
	tokLParen
	tokRParen
	tokComma
	tokGT
	tokLT
	tokGTE
	tokLTE
	tokEQ
	tokNEQ
	tokAnd
	tokOr
)

var tokenNames = map[tokenKind]string{
	tokNumber:   "number",
	tokFunction: "function",
	tokPlus:     "'+'",
	tokMinus:    "'-'",
	tokMul:      "'*'",
	tokDiv:      "'/'",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokComma:    "','",
	tokGT:       "'>'",
	tokLT:       "'<'",
	tokGTE:      "'>='",
	tokLTE:      "'<='",
	tokEQ:       "'=='",
	tokNEQ:      "'!='",
	tokAnd:      "'&&'",
	tokOr:       "'||'",
}

func (k tokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "unknown"
}

// token is a lexed unit. Variables never survive lexing: they are replaced
// by number tokens carrying their value.
type token struct {
	kind tokenKind
	num  float64
	name string
	pos  int
}

var twoCharOps = map[string]tokenKind{
	">=": tokGTE,
	"<=": tokLTE,
	"==": tokEQ,
	"!=": tokNEQ,
	"&&": tokAnd,
	"||": tokOr,
}

var oneCharOps = map[byte]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokMul,
	'/': tokDiv,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
	'>': tokGT,
	'<': tokLT,
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

// tokenize scans src left to right, resolving identifiers against vars as it goes.
func tokenize(src string, vars map[string]float64) ([]token, error) {
	tokens := make([]token, 0, len(src)/2+1)
	i := 0
	for i < len(src) {
		c := src[i]

		if c < 0x80 && unicode.IsSpace(rune(c)) {
			i++
			continue
		}

		if isDigit(c) || c == '.' {
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			lit := src[start:i]
			if strings.Count(lit, ".") > 1 {
				return nil, newError(KindLex, start, "malformed number %q", lit)
			}
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, newError(KindLex, start, "malformed number %q", lit)
			}
			tokens = append(tokens, token{kind: tokNumber, num: v, pos: start})
			continue
		}

		if isIdentStart(c) {
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			name := src[start:i]
			if i < len(src) && src[i] == '(' {
				tokens = append(tokens, token{kind: tokFunction, name: name, pos: start})
				continue
			}
			v, ok := vars[name]
			if !ok {
				e := newError(KindUnresolvedVariable, start, "variable %q not found in context", name)
				e.Name = name
				return nil, e
			}
			tokens = append(tokens, token{kind: tokNumber, num: v, name: name, pos: start})
			continue
		}

		if i+1 < len(src) {
			if kind, ok := twoCharOps[src[i:i+2]]; ok {
				tokens = append(tokens, token{kind: kind, pos: i})
				i += 2
				continue
			}
		}

		if kind, ok := oneCharOps[c]; ok {
			tokens = append(tokens, token{kind: kind, pos: i})
			i++
			continue
		}

		r, _ := utf8.DecodeRuneInString(src[i:])
		return nil, newError(KindLex, i, "unexpected character %q", r)
	}
	return tokens, nil
}
