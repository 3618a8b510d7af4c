// Package usage reports provider token consumption per budget period.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/casedex/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// WithClock replaces time.Now. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetReport builds a usage report for the period containing now.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())

	var limit, used int64
	if s.br != nil {
		dailyLimit, monthlyLimit := s.br.Limits()
		dailyUsed, monthlyUsed := s.br.Used()
		limit, used = dailyLimit, dailyUsed
		if period == domusage.PeriodMonth {
			limit, used = monthlyLimit, monthlyUsed
		}
	}
	return domusage.NewReport(period, start, end, limit, used)
}
