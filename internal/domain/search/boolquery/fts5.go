package boolquery

import (
	"strings"
	"unicode"
)

// FTS5 renders the query as an SQLite FTS5 MATCH expression.
//
// FTS5 has no unary NOT, so negations are attached to the nearest conjunction
// with positive members and dropped elsewhere. Implicit conjunctions of plain
// words render as OR so free text ranks partial matches instead of requiring
// every word.
// Returns "" when nothing positive remains.
func (n Node) FTS5() string {
	return n.fts5()
}

func (n Node) fts5() string {
	switch n.Kind {
	case KindTerm, KindPhrase:
		return quote(n.Text)
	case KindNot:
		return ""
	case KindOr:
		var parts []string
		for _, c := range n.Children {
			if s := c.fts5(); s != "" {
				parts = append(parts, s)
			}
		}
		return joinGroup(parts, " OR ")
	}

	var pos, neg []string
	leaves := true
	for _, c := range n.Children {
		if c.Kind == KindNot {
			if s := c.Children[0].fts5(); s != "" {
				neg = append(neg, s)
			}
			continue
		}
		if s := c.fts5(); s != "" {
			pos = append(pos, s)
			leaves = leaves && (c.Kind == KindTerm || c.Kind == KindPhrase)
		}
	}
	sep := " AND "
	if n.Implicit && leaves {
		sep = " OR "
	}
	out := joinGroup(pos, sep)
	if out == "" {
		return ""
	}
	for _, s := range neg {
		out += " NOT " + s
	}
	if len(neg) > 0 {
		out = "(" + out + ")"
	}
	return out
}

func joinGroup(parts []string, sep string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FallbackFTS5 ORs every word of text. Used when parsing yields nothing usable.
func FallbackFTS5(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(words))
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w == "AND" || w == "OR" || w == "NOT" {
			continue
		}
		lw := strings.ToLower(w)
		if _, ok := seen[lw]; ok {
			continue
		}
		seen[lw] = struct{}{}
		parts = append(parts, quote(w))
	}
	return strings.Join(parts, " OR ")
}

// MatchExpression converts raw user text into an FTS5 MATCH expression,
// falling back to an OR of words. Returns "" when text has no searchable word.
func MatchExpression(text string) string {
	if n, err := Parse(text); err == nil {
		if s := n.FTS5(); s != "" {
			return s
		}
	}
	return FallbackFTS5(text)
}
