package boolquery

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokPhrase
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

// lex splits input into tokens. Unterminated quotes run to the end of input.
func lex(input string) []token {
	var toks []token
	rs := []rune(input)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			if p := strings.TrimSpace(string(rs[i+1 : j])); p != "" {
				toks = append(toks, token{kind: tokPhrase, text: p})
			}
			i = j + 1
		case r == '&' && i+1 < len(rs) && rs[i+1] == '&':
			toks = append(toks, token{kind: tokAnd})
			i += 2
		case r == '|' && i+1 < len(rs) && rs[i+1] == '|':
			toks = append(toks, token{kind: tokOr})
			i += 2
		case r == '-' && i+1 < len(rs) && !unicode.IsSpace(rs[i+1]) && rs[i+1] != '-':
			toks = append(toks, token{kind: tokNot})
			i++
		default:
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) && !strings.ContainsRune(`()"`, rs[j]) {
				j++
			}
			toks = append(toks, wordToken(string(rs[i:j])))
			i = j
		}
	}
	return toks
}

func wordToken(w string) token {
	switch w {
	case "AND":
		return token{kind: tokAnd}
	case "OR":
		return token{kind: tokOr}
	case "NOT":
		return token{kind: tokNot}
	}
	return token{kind: tokTerm, text: w}
}
