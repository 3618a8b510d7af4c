package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
)

// BudgetAction defines what happens once a limit is reached.
type BudgetAction string

// Budget actions.
const (
	BudgetActionWarn   BudgetAction = "warn"
	BudgetActionReject BudgetAction = "reject"
)

const budgetKeyPrefix = "casedex:budget:"

// BudgetStore persists counters across replicas.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// period is one rolling token window.
type period struct {
	name   string
	layout string
	limit  int64
	used   int64
	start  time.Time
}

func (p *period) roll(now time.Time, truncate func(time.Time) time.Time) {
	if t := truncate(now); t.After(p.start) {
		p.used = 0
		p.start = t
	}
}

func (p *period) exceeded() bool { return p.limit > 0 && p.used >= p.limit }

func (p *period) remaining() int64 {
	if p.limit == 0 {
		return -1
	}
	return max(0, p.limit-p.used)
}

// Budget tracks provider tokens per UTC day and month. Check is in-memory
// only; Record updates memory first and then writes through to the store.
type Budget struct {
	mu       sync.Mutex
	provider string
	action   BudgetAction
	daily    period
	monthly  period
	store    BudgetStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewBudget creates a tracker. A zero limit means unlimited.
func NewBudget(provider string, dailyLimit, monthlyLimit int64, action BudgetAction, logger *zap.Logger) *Budget {
	b := &Budget{
		provider: provider,
		action:   action,
		daily:    period{name: "daily", layout: "2006-01-02", limit: dailyLimit},
		monthly:  period{name: "monthly", layout: "2006-01", limit: monthlyLimit},
		now:      time.Now,
		logger:   logger,
	}
	b.roll()
	return b
}

// WithClock replaces time.Now. Used by tests.
func (b *Budget) WithClock(now func() time.Time) *Budget {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	b.daily.start, b.monthly.start = time.Time{}, time.Time{}
	b.roll()
	return b
}

// WithStore attaches persistence and loads the current counters from it.
func (b *Budget) WithStore(ctx context.Context, s BudgetStore) *Budget {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store = s
	for _, p := range []*period{&b.daily, &b.monthly} {
		val, err := s.Get(ctx, b.key(p))
		if err != nil {
			b.logger.Warn("Failed to load token budget", zap.String("period", p.name), zap.Error(err))
			continue
		}
		p.used = val
	}
	b.logger.Info("Token budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("monthly_used", b.monthly.used),
	)
	return b
}

func (b *Budget) key(p *period) string {
	return fmt.Sprintf("%s%s:%s:%s", budgetKeyPrefix, b.provider, p.name, p.start.Format(p.layout))
}

func (b *Budget) roll() {
	now := b.now().UTC()
	b.daily.roll(now, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	})
	b.monthly.roll(now, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	})
}

// Check reports domain.ErrQuotaExceeded once a limit is spent and the action is reject.
func (b *Budget) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()

	if !b.daily.exceeded() && !b.monthly.exceeded() {
		return nil
	}
	if b.action == BudgetActionReject {
		return fmt.Errorf("%s: %w", b.provider, domain.ErrQuotaExceeded)
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.used),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record adds consumed tokens.
func (b *Budget) Record(tokens int64) {
	b.mu.Lock()
	b.roll()
	b.daily.used += tokens
	b.monthly.used += tokens
	s := b.store
	keys := []string{b.key(&b.daily), b.key(&b.monthly)}
	b.mu.Unlock()

	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Remaining returns tokens left today and this month, -1 when unlimited.
func (b *Budget) Remaining() (daily, monthly int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.daily.remaining(), b.monthly.remaining()
}

// Used returns tokens consumed today and this month.
func (b *Budget) Used() (daily, monthly int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.daily.used, b.monthly.used
}

// Limits returns the configured daily and monthly limits, 0 when unlimited.
func (b *Budget) Limits() (daily, monthly int64) {
	return b.daily.limit, b.monthly.limit
}
