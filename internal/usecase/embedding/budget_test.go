package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestBudget(daily, monthly int64, action BudgetAction) (*Budget, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	return NewBudget("openai", daily, monthly, action, zap.NewNop()).WithClock(clock.Now), clock
}

func TestBudget_RejectWhenDailyExceeded(t *testing.T) {
	b, _ := newTestBudget(100, 0, BudgetActionReject)
	b.Record(100)

	if err := b.Check(context.Background()); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestBudget_RejectWhenMonthlyExceeded(t *testing.T) {
	b, _ := newTestBudget(0, 500, BudgetActionReject)
	b.Record(500)

	if err := b.Check(context.Background()); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestBudget_WarnAllows(t *testing.T) {
	b, _ := newTestBudget(100, 0, BudgetActionWarn)
	b.Record(200)

	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("warn action should allow, got %v", err)
	}
}

func TestBudget_Unlimited(t *testing.T) {
	b, _ := newTestBudget(0, 0, BudgetActionReject)
	b.Record(1 << 40)

	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	daily, monthly := b.Remaining()
	if daily != -1 || monthly != -1 {
		t.Errorf("remaining = %d/%d, want -1/-1", daily, monthly)
	}
}

func TestBudget_Remaining(t *testing.T) {
	b, _ := newTestBudget(1000, 10000, BudgetActionWarn)
	b.Record(300)

	daily, monthly := b.Remaining()
	if daily != 700 || monthly != 9700 {
		t.Errorf("remaining = %d/%d, want 700/9700", daily, monthly)
	}

	b.Record(5000)
	if daily, _ := b.Remaining(); daily != 0 {
		t.Errorf("daily remaining should floor at 0, got %d", daily)
	}
	if daily, monthly := b.Limits(); daily != 1000 || monthly != 10000 {
		t.Errorf("limits = %d/%d, want 1000/10000", daily, monthly)
	}
}

func TestBudget_RollsOverAtMidnightAndMonthStart(t *testing.T) {
	b, clock := newTestBudget(100, 1000, BudgetActionReject)
	b.Record(100)

	clock.Set(time.Date(2026, 10, 16, 0, 0, 1, 0, time.UTC))
	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("new day should reset the daily counter: %v", err)
	}
	daily, monthly := b.Used()
	if daily != 0 || monthly != 100 {
		t.Errorf("used = %d/%d, want 0/100", daily, monthly)
	}

	clock.Set(time.Date(2026, 11, 1, 0, 0, 1, 0, time.UTC))
	if _, monthly := b.Used(); monthly != 0 {
		t.Errorf("new month should reset the monthly counter, got %d", monthly)
	}
}

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	setErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: map[string]int64{}}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

func TestBudget_WithStore_LoadsCounters(t *testing.T) {
	store := newMockBudgetStore()
	store.data["casedex:budget:openai:daily:2026-10-15"] = 300
	store.data["casedex:budget:openai:monthly:2026-10"] = 5000

	b, _ := newTestBudget(1000, 10000, BudgetActionReject)
	b.WithStore(context.Background(), store)

	daily, monthly := b.Used()
	if daily != 300 || monthly != 5000 {
		t.Errorf("used = %d/%d, want 300/5000", daily, monthly)
	}
}

func TestBudget_Record_WritesThrough(t *testing.T) {
	store := newMockBudgetStore()
	b, _ := newTestBudget(1000, 10000, BudgetActionWarn)
	b.WithStore(context.Background(), store)

	b.Record(42)
	b.Record(8)

	if got := store.data["casedex:budget:openai:daily:2026-10-15"]; got != 50 {
		t.Errorf("daily key = %d, want 50", got)
	}
	if got := store.data["casedex:budget:openai:monthly:2026-10"]; got != 50 {
		t.Errorf("monthly key = %d, want 50", got)
	}
}

func TestBudget_StoreErrorsKeepMemoryCounters(t *testing.T) {
	store := newMockBudgetStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")

	b, _ := newTestBudget(100, 0, BudgetActionReject)
	b.WithStore(context.Background(), store)
	b.Record(100)

	if err := b.Check(context.Background()); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("in-memory counters must still enforce the limit, got %v", err)
	}
}
