package filter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
)

// Field is a logical filterable attribute shared by every store projection.
type Field string

// Filterable fields.
const (
	FieldJurisdiction Field = "jurisdiction"
	FieldCourt        Field = "court"
	FieldCaseType     Field = "case_type"
	FieldDecided      Field = "decided"
)

// Any is the UI sentinel for "no constraint on this dimension".
const Any = "all"

// Filters is the user-facing filter object.
type Filters struct {
	Jurisdiction string
	Court        string
	CaseType     string
	DateFrom     *time.Time
	DateTo       *time.Time
}

// Expression is a compiled conjunction of conditions. The zero value matches everything.
type Expression struct {
	never      bool
	conditions []Condition
}

// Never returns the always-false expression.
func Never() Expression { return Expression{never: true} }

// IsNever reports whether the expression can match nothing.
func (e Expression) IsNever() bool { return e.never }

// IsEmpty reports whether the expression imposes no constraint.
func (e Expression) IsEmpty() bool { return !e.never && len(e.conditions) == 0 }

// Conditions returns the conjunction members in canonical field order.
func (e Expression) Conditions() []Condition { return slices.Clone(e.conditions) }

// Matches evaluates the expression against a case directly.
func (e Expression) Matches(c courtcase.Case) bool {
	if e.never {
		return false
	}
	for _, cond := range e.conditions {
		if !cond.Matches(c) {
			return false
		}
	}
	return true
}

// String renders a stable textual form, used for logs and cache keys.
func (e Expression) String() string {
	if e.never {
		return "never"
	}
	if len(e.conditions) == 0 {
		return "*"
	}
	parts := make([]string, len(e.conditions))
	for i, c := range e.conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// Condition is either a set membership over a string field or an inclusive day range.
type Condition struct {
	field  Field
	values []string
	days   *DayRange
}

// Field returns the constrained attribute.
func (c Condition) Field() Field { return c.field }

// Values returns the accepted values of a membership condition.
func (c Condition) Values() []string { return slices.Clone(c.values) }

// Days returns the range of a date condition, nil for membership.
func (c Condition) Days() *DayRange { return c.days }

// IsRange reports whether this is a date range condition.
func (c Condition) IsRange() bool { return c.days != nil }

// Matches evaluates the condition against one case.
func (c Condition) Matches(cs courtcase.Case) bool {
	if c.days != nil {
		if !cs.HasDate() {
			return false
		}
		d := cs.DayNumber()
		return d >= c.days.From && d <= c.days.To
	}
	var v string
	switch c.field {
	case FieldJurisdiction:
		v = cs.Jurisdiction()
	case FieldCourt:
		v = cs.Court()
	case FieldCaseType:
		v = string(cs.CaseType())
	default:
		return false
	}
	for _, want := range c.values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func (c Condition) String() string {
	if c.days != nil {
		return fmt.Sprintf("%s in [%d, %d]", c.field, c.days.From, c.days.To)
	}
	return fmt.Sprintf("%s in {%s}", c.field, strings.Join(c.values, ", "))
}

// DayRange is an inclusive range of days since 1970-01-01.
type DayRange struct {
	From int64
	To   int64
}
