package courtcase

import (
	"time"
)

// Decision dates outside this window are treated as missing.
var (
	MinDecided = time.Date(1662, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxDecided = time.Date(2020, time.July, 30, 0, 0, 0, 0, time.UTC)
)

const secondsPerDay = 24 * 60 * 60

// Case is the canonical court decision record shared by search and detail reads.
type Case struct {
	id           string
	title        string
	court        string
	jurisdiction string
	caseType     Type
	decided      time.Time
	citation     string
	docketNumber string
	judges       string
	snippet      string
	summary      string
	keyPassages  []string
	contentRef   string
}

// Fields is the flat hydration shape used by storage adapters.
type Fields struct {
	ID           string
	Title        string
	Court        string
	Jurisdiction string
	CaseType     string
	Decided      time.Time
	Citation     string
	DocketNumber string
	Judges       string
	Snippet      string
	Summary      string
	KeyPassages  []string
	ContentRef   string
}

// Reconstruct hydrates a Case from storage without re-validation.
// Unknown case types are kept empty; the date is normalized to UTC midnight.
func Reconstruct(f Fields) Case {
	ct, _ := ParseType(f.CaseType)
	c := Case{
		id:           f.ID,
		title:        f.Title,
		court:        f.Court,
		jurisdiction: f.Jurisdiction,
		caseType:     ct,
		decided:      normalizeDate(f.Decided),
		citation:     f.Citation,
		docketNumber: f.DocketNumber,
		judges:       f.Judges,
		snippet:      f.Snippet,
		summary:      f.Summary,
		contentRef:   f.ContentRef,
	}
	if len(f.KeyPassages) > 0 {
		c.keyPassages = append([]string(nil), f.KeyPassages...)
	}
	if c.judges == "" {
		c.judges = ExtractJudge(f.Snippet)
	}
	return c
}

func normalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ID returns the case identifier.
func (c Case) ID() string { return c.id }

// Title returns the case name.
func (c Case) Title() string { return c.title }

// Court returns the deciding court.
func (c Case) Court() string { return c.court }

// Jurisdiction returns the jurisdiction.
func (c Case) Jurisdiction() string { return c.jurisdiction }

// CaseType returns the case type, empty when unknown.
func (c Case) CaseType() Type { return c.caseType }

// Decided returns the raw decision date.
func (c Case) Decided() time.Time { return c.decided }

// Citation returns the reporter citation.
func (c Case) Citation() string { return c.citation }

// DocketNumber returns the docket number.
func (c Case) DocketNumber() string { return c.docketNumber }

// Judges returns the authoring judges.
func (c Case) Judges() string { return c.judges }

// Snippet returns the short excerpt shown in result lists.
func (c Case) Snippet() string { return c.snippet }

// Summary returns the long-form summary.
func (c Case) Summary() string { return c.summary }

// KeyPassages returns a copy of the extracted quotations.
func (c Case) KeyPassages() []string {
	if len(c.keyPassages) == 0 {
		return nil
	}
	return append([]string(nil), c.keyPassages...)
}

// ContentRef points at the full text in the text store.
func (c Case) ContentRef() string { return c.contentRef }

// HasDate reports whether the decision date is present and within bounds.
func (c Case) HasDate() bool {
	return ValidDate(c.decided)
}

// DayNumber returns the decision date as days since 1970-01-01.
// Only meaningful when HasDate is true.
func (c Case) DayNumber() int64 {
	return DayNumber(c.decided)
}

// ValidDate reports whether t lies within [MinDecided, MaxDecided].
func ValidDate(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	t = normalizeDate(t)
	return !t.Before(MinDecided) && !t.After(MaxDecided)
}

// DayNumber converts a date to days since the Unix epoch. Negative before 1970.
func DayNumber(t time.Time) int64 {
	return normalizeDate(t).Unix() / secondsPerDay
}

// FromDayNumber is the inverse of DayNumber.
func FromDayNumber(day int64) time.Time {
	return time.Unix(day*secondsPerDay, 0).UTC()
}

// Lite drops the heavy enhancement fields, leaving the search result shape.
func (c Case) Lite() Case {
	c.summary = ""
	c.keyPassages = nil
	return c
}

// WithEnhancement returns a copy carrying the given summary and passages.
func (c Case) WithEnhancement(summary string, passages []string) Case {
	c.summary = summary
	c.keyPassages = append([]string(nil), passages...)
	return c
}

// Merge returns authoritative with empty fields filled from c.
func (c Case) Merge(authoritative Case) Case {
	out := authoritative
	if out.id == "" {
		out.id = c.id
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&out.title, c.title)
	fill(&out.court, c.court)
	fill(&out.jurisdiction, c.jurisdiction)
	fill(&out.citation, c.citation)
	fill(&out.docketNumber, c.docketNumber)
	fill(&out.judges, c.judges)
	fill(&out.snippet, c.snippet)
	fill(&out.summary, c.summary)
	fill(&out.contentRef, c.contentRef)
	if out.caseType == "" {
		out.caseType = c.caseType
	}
	if out.decided.IsZero() {
		out.decided = c.decided
	}
	if len(out.keyPassages) == 0 && len(c.keyPassages) > 0 {
		out.keyPassages = append([]string(nil), c.keyPassages...)
	}
	return out
}
