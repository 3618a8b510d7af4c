package boolquery

import (
	"fmt"
	"strings"
)

// Op joins a builder clause to the clauses before it.
type Op string

// Builder operators.
const (
	OpAnd Op = "AND"
	OpOr  Op = "OR"
	OpNot Op = "NOT"
)

// Clause is one row of the UI query builder.
type Clause struct {
	Op     Op
	Value  string
	Phrase bool
}

// Build turns builder clauses into normalized query text. The first clause's
// operator only matters when it is NOT.
func Build(clauses []Clause) (string, error) {
	var b strings.Builder
	for i, c := range clauses {
		v := strings.TrimSpace(c.Value)
		if v == "" {
			continue
		}
		op := Op(strings.ToUpper(string(c.Op)))
		if op == "" {
			op = OpAnd
		}
		switch op {
		case OpAnd, OpOr, OpNot:
		default:
			return "", fmt.Errorf("clause %d: unknown operator %q", i, c.Op)
		}
		if c.Phrase || strings.ContainsAny(v, " \t") {
			v = `"` + strings.ReplaceAll(v, `"`, "") + `"`
		}
		if b.Len() > 0 {
			if op == OpNot {
				b.WriteString(" AND NOT ")
			} else {
				b.WriteString(" " + string(op) + " ")
			}
		} else if op == OpNot {
			b.WriteString("NOT ")
		}
		b.WriteString(v)
	}
	n, err := Parse(b.String())
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
