// Package boolquery parses the advisory boolean syntax users type into the
// search box: terms, quoted phrases, AND/OR/NOT, -term and parentheses.
// Parsing is best-effort and never rejects input outright.
package boolquery

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmpty is returned when the input holds no searchable term.
var ErrEmpty = errors.New("empty query")

// Kind is the node type of a parsed query.
type Kind int

// Node kinds.
const (
	KindTerm Kind = iota
	KindPhrase
	KindAnd
	KindOr
	KindNot
)

// Node is a parsed boolean query.
type Node struct {
	Kind     Kind
	Text     string
	Children []Node
	// Implicit marks an AND formed by juxtaposition rather than an explicit operator.
	Implicit bool
}

// Parse builds a boolean tree from input. Dangling operators are dropped and
// missing closing parentheses are assumed.
func Parse(input string) (Node, error) {
	p := &parser{toks: lex(input)}
	n, ok := p.parseOr()
	// Stray closing parens leave tokens behind; keep consuming as implicit AND.
	for p.pos < len(p.toks) {
		p.pos++
		if rest, more := p.parseOr(); more {
			if ok {
				n = Node{Kind: KindAnd, Children: []Node{n, rest}, Implicit: true}
			} else {
				n, ok = rest, true
			}
		}
	}
	if !ok || len(n.Terms()) == 0 {
		return Node{}, ErrEmpty
	}
	return n, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) parseOr() (Node, bool) {
	var children []Node
	for {
		if n, ok := p.parseAnd(); ok {
			children = append(children, n)
		}
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			break
		}
		p.pos++
	}
	return group(KindOr, children, false)
}

func (p *parser) parseAnd() (Node, bool) {
	var children []Node
	implicit := true
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokOr || t.kind == tokRParen {
			break
		}
		if t.kind == tokAnd {
			implicit = false
			p.pos++
			continue
		}
		if n, ok := p.parseUnary(); ok {
			children = append(children, n)
		}
	}
	return group(KindAnd, children, implicit)
}

func (p *parser) parseUnary() (Node, bool) {
	t, ok := p.peek()
	if !ok {
		return Node{}, false
	}
	if t.kind == tokNot {
		p.pos++
		child, ok := p.parseUnary()
		if !ok {
			return Node{}, false
		}
		if child.Kind == KindNot {
			return child.Children[0], true
		}
		return Node{Kind: KindNot, Children: []Node{child}}, true
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, bool) {
	t, ok := p.peek()
	if !ok {
		return Node{}, false
	}
	p.pos++
	switch t.kind {
	case tokTerm:
		w := cleanTerm(t.text)
		if w == "" {
			return Node{}, false
		}
		return Node{Kind: KindTerm, Text: w}, true
	case tokPhrase:
		return Node{Kind: KindPhrase, Text: t.text}, true
	case tokLParen:
		n, ok := p.parseOr()
		if t, more := p.peek(); more && t.kind == tokRParen {
			p.pos++
		}
		return n, ok
	default:
		// operator in operand position
		return Node{}, false
	}
}

func group(kind Kind, children []Node, implicit bool) (Node, bool) {
	switch len(children) {
	case 0:
		return Node{}, false
	case 1:
		return children[0], true
	}
	flat := make([]Node, 0, len(children))
	for _, c := range children {
		if c.Kind == kind && c.Implicit == implicit {
			flat = append(flat, c.Children...)
			continue
		}
		flat = append(flat, c)
	}
	return Node{Kind: kind, Children: flat, Implicit: implicit && kind == KindAnd}, true
}

func cleanTerm(w string) string {
	return strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Terms returns the positive terms and phrases in reading order.
func (n Node) Terms() []string {
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		switch n.Kind {
		case KindTerm, KindPhrase:
			out = append(out, n.Text)
		case KindAnd, KindOr:
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

// String renders the normalized query with explicit operators.
func (n Node) String() string {
	return n.render(KindOr)
}

func (n Node) render(parent Kind) string {
	switch n.Kind {
	case KindTerm:
		return n.Text
	case KindPhrase:
		return `"` + n.Text + `"`
	case KindNot:
		return "NOT " + n.Children[0].render(KindNot)
	}
	sep := " AND "
	if n.Kind == KindOr {
		sep = " OR "
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.render(n.Kind)
	}
	s := strings.Join(parts, sep)
	if parent != KindOr {
		return "(" + s + ")"
	}
	return s
}
