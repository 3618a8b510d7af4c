package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
)

// Vocabulary holds the distinct values observed in the metadata store.
// It lets the compiler canonicalize spelling and reject unknown values.
type Vocabulary struct {
	jurisdictions map[string]string
	courts        map[string]string
}

// NewVocabulary indexes observed values case-insensitively.
func NewVocabulary(jurisdictions, courts []string) *Vocabulary {
	return &Vocabulary{
		jurisdictions: foldIndex(jurisdictions),
		courts:        foldIndex(courts),
	}
}

func foldIndex(values []string) map[string]string {
	m := make(map[string]string, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		m[foldKey(v)] = v
	}
	return m
}

// foldKey lowercases s and normalizes the spacing around commas, so
// "Court of Appeals,Ninth Circuit" and "court of appeals, ninth circuit" meet.
func foldKey(s string) string {
	parts := strings.Split(strings.ToLower(s), ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}

// Compile builds the canonical Expression for f. vocab may be nil, in which case
// jurisdiction and court values are accepted as given.
// Compile is pure: equal inputs produce equal expressions.
func Compile(f Filters, vocab *Vocabulary) Expression {
	var conds []Condition

	var jurisdictions, courts map[string]string
	if vocab != nil {
		jurisdictions, courts = vocab.jurisdictions, vocab.courts
	}

	for _, m := range []struct {
		field Field
		raw   string
		known map[string]string
	}{
		{FieldJurisdiction, f.Jurisdiction, jurisdictions},
		{FieldCourt, f.Court, courts},
	} {
		vals, constrained, ok := resolveValues(m.raw, m.known)
		if !ok {
			return Never()
		}
		if constrained {
			conds = append(conds, Condition{field: m.field, values: vals})
		}
	}

	if raw := strings.TrimSpace(f.CaseType); raw != "" && !strings.EqualFold(raw, Any) {
		ct, ok := courtcase.ParseType(raw)
		if !ok {
			return Never()
		}
		conds = append(conds, Condition{field: FieldCaseType, values: []string{string(ct)}})
	}

	if f.DateFrom != nil || f.DateTo != nil {
		r, ok := clampDays(f.DateFrom, f.DateTo)
		if !ok {
			return Never()
		}
		conds = append(conds, Condition{field: FieldDecided, days: &r})
	}

	return Expression{conditions: conds}
}

// resolveValues parses a single value or a comma-separated list into a
// sorted, de-duplicated set. "", "all" and lists made only of those impose no
// constraint. With a known map, values resolve to their stored spelling and
// neighbouring segments are rejoined longest first, so names that contain
// commas still match. Any member left unresolved makes ok false.
// A nil known map splits on every comma and accepts everything.
func resolveValues(raw string, known map[string]string) (vals []string, constrained, ok bool) {
	segs := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(segs))
	for i := 0; i < len(segs); {
		p := strings.TrimSpace(segs[i])
		if p == "" || strings.EqualFold(p, Any) {
			i++
			continue
		}
		next := i + 1
		if known != nil {
			canon, end, found := longestMatch(segs, i, known)
			if !found {
				return nil, true, false
			}
			p, next = canon, end
		}
		i = next

		key := foldKey(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		vals = append(vals, p)
	}
	sort.Strings(vals)
	return vals, len(vals) > 0, true
}

// longestMatch finds the longest run segs[i:end] that names a known value.
func longestMatch(segs []string, i int, known map[string]string) (canon string, end int, found bool) {
	for end = len(segs); end > i; end-- {
		if canon, found = known[foldKey(strings.Join(segs[i:end], ","))]; found {
			return canon, end, true
		}
	}
	return "", 0, false
}

// clampDays bounds the requested interval to the valid decision window.
// ok is false when the resulting interval is empty.
func clampDays(from, to *time.Time) (DayRange, bool) {
	r := DayRange{
		From: courtcase.DayNumber(courtcase.MinDecided),
		To:   courtcase.DayNumber(courtcase.MaxDecided),
	}
	if from != nil {
		if d := courtcase.DayNumber(*from); d > r.From {
			r.From = d
		}
	}
	if to != nil {
		if d := courtcase.DayNumber(*to); d < r.To {
			r.To = d
		}
	}
	return r, r.From <= r.To
}
