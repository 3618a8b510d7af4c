package casestore

import (
	"strings"

	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
)

// columns maps logical filter fields to case_lookup columns.
var columns = map[filter.Field]string{
	filter.FieldJurisdiction: "c.jurisdiction",
	filter.FieldCourt:        "c.court",
	filter.FieldCaseType:     "c.case_type",
	filter.FieldDecided:      "c.decided_day",
}

// buildWhere projects a compiled filter.Expression into a parameterized SQL
// predicate. Membership compares case-insensitively; a NULL decided_day never
// satisfies a range. The empty expression yields "1=1".
func buildWhere(expr filter.Expression) (string, []any) {
	if expr.IsNever() {
		return "0=1", nil
	}
	conds := expr.Conditions()
	if len(conds) == 0 {
		return "1=1", nil
	}

	parts := make([]string, 0, len(conds))
	var args []any
	for _, cond := range conds {
		col := columns[cond.Field()]
		if cond.IsRange() {
			r := cond.Days()
			parts = append(parts, col+" BETWEEN ? AND ?")
			args = append(args, r.From, r.To)
			continue
		}
		vals := cond.Values()
		parts = append(parts, col+" COLLATE NOCASE IN ("+placeholders(len(vals))+")")
		for _, v := range vals {
			args = append(args, v)
		}
	}
	return strings.Join(parts, " AND "), args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
