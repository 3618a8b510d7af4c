package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/kailas-cloud/casedex/internal/domain/usage"
)

// --- Mock ---

type mockBudgetReader struct {
	dailyLimit   int64
	monthlyLimit int64
	dailyUsed    int64
	monthlyUsed  int64
}

func (m *mockBudgetReader) Limits() (int64, int64) { return m.dailyLimit, m.monthlyLimit }
func (m *mockBudgetReader) Used() (int64, int64)   { return m.dailyUsed, m.monthlyUsed }

var now = time.Date(2026, 10, 15, 13, 45, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit:   10000,
		dailyUsed:    3000,
		monthlyLimit: 100000,
		monthlyUsed:  50000,
	}
	r := New(br).WithClock(fixedClock).GetReport(context.Background(), domusage.PeriodDay)

	if r.Period() != domusage.PeriodDay {
		t.Errorf("expected period %q, got %q", domusage.PeriodDay, r.Period())
	}
	dayStart := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	if !r.Start().Equal(dayStart) {
		t.Errorf("expected period start %v, got %v", dayStart, r.Start())
	}
	if !r.End().Equal(dayStart.Add(24 * time.Hour)) {
		t.Errorf("expected period end %v, got %v", dayStart.Add(24*time.Hour), r.End())
	}
	if r.Limit() != 10000 {
		t.Errorf("expected limit 10000, got %d", r.Limit())
	}
	if r.Remaining() != 7000 {
		t.Errorf("expected remaining 7000, got %d", r.Remaining())
	}
	if r.Exhausted() {
		t.Error("budget should not be exhausted")
	}
	if r.Used() != 3000 {
		t.Errorf("expected used 3000, got %d", r.Used())
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		monthlyLimit: 100000,
		monthlyUsed:  80000,
	}
	r := New(br).WithClock(fixedClock).GetReport(context.Background(), domusage.PeriodMonth)

	if r.Period() != domusage.PeriodMonth {
		t.Errorf("expected period %q, got %q", domusage.PeriodMonth, r.Period())
	}
	monthStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	if !r.Start().Equal(monthStart) {
		t.Errorf("expected period start %v, got %v", monthStart, r.Start())
	}
	if !r.End().Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected period end %v", r.End())
	}
	if r.Limit() != 100000 || r.Remaining() != 20000 {
		t.Errorf("expected 100000/20000, got %d/%d", r.Limit(), r.Remaining())
	}
}

func TestGetReport_NilBudgetReader(t *testing.T) {
	r := New(nil).WithClock(fixedClock).GetReport(context.Background(), domusage.PeriodDay)

	if !r.Unlimited() {
		t.Errorf("expected unlimited, got limit %d", r.Limit())
	}
	if r.Remaining() != -1 {
		t.Errorf("expected remaining -1, got %d", r.Remaining())
	}
	if r.Exhausted() {
		t.Error("nil budget reader should not be exhausted")
	}
}

func TestGetReport_Exhausted(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit: 5000,
		dailyUsed:  5000,
	}
	r := New(br).WithClock(fixedClock).GetReport(context.Background(), domusage.PeriodDay)

	if !r.Exhausted() {
		t.Error("budget should be exhausted when remaining is 0")
	}
}
