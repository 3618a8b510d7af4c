// Package usage models provider token consumption against the budget.
package usage

import (
	"fmt"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants. Both align to UTC calendar boundaries.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod resolves a period name. Empty means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("period must be %q or %q, got %q", PeriodDay, PeriodMonth, s)
	}
}

// Bounds returns the UTC start and end of the period containing now.
func (p Period) Bounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	if p == PeriodMonth {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is the provider token usage for one budget period.
type Report struct {
	period    Period
	start     time.Time
	end       time.Time
	limit     int64
	used      int64
	remaining int64
}

// NewReport creates a usage report. A zero limit means unlimited; remaining
// is then reported as -1.
func NewReport(period Period, start, end time.Time, limit, used int64) Report {
	remaining := int64(-1)
	if limit > 0 {
		remaining = max(0, limit-used)
	}
	return Report{
		period:    period,
		start:     start,
		end:       end,
		limit:     limit,
		used:      used,
		remaining: remaining,
	}
}

// Period returns the aggregation granularity.
func (r Report) Period() Period { return r.period }

// Start returns the period start.
func (r Report) Start() time.Time { return r.start }

// End returns the period end, which is also when the budget resets.
func (r Report) End() time.Time { return r.end }

// Limit returns the token limit, 0 when unlimited.
func (r Report) Limit() int64 { return r.limit }

// Used returns the tokens consumed in the period.
func (r Report) Used() int64 { return r.used }

// Remaining returns the tokens left, -1 when unlimited.
func (r Report) Remaining() int64 { return r.remaining }

// Unlimited reports whether no limit applies.
func (r Report) Unlimited() bool { return r.limit <= 0 }

// Exhausted reports whether the limit is spent.
func (r Report) Exhausted() bool { return r.limit > 0 && r.remaining == 0 }
