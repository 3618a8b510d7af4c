package enhancement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Warmer generates and caches the enhancement of one case.
type Warmer interface {
	Warm(ctx context.Context, id string)
}

// Prefetcher warms enhancements in the background on a bounded worker pool.
// Submissions never block: when every worker is busy the id is dropped.
type Prefetcher struct {
	pool     *ants.Pool
	warmer   Warmer
	timeout  time.Duration
	logger   *zap.Logger
	inflight sync.Map
}

// NewPrefetcher creates a prefetcher with the given number of workers.
// timeout bounds a single warm-up.
func NewPrefetcher(workers int, w Warmer, timeout time.Duration, logger *zap.Logger) (*Prefetcher, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("workers must be positive")
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create prefetch pool: %w", err)
	}
	return &Prefetcher{pool: pool, warmer: w, timeout: timeout, logger: logger}, nil
}

// Prefetch schedules warm-ups for ids not already in flight.
func (p *Prefetcher) Prefetch(ids []string) {
	for _, id := range ids {
		if _, busy := p.inflight.LoadOrStore(id, struct{}{}); busy {
			continue
		}
		err := p.pool.Submit(func() {
			defer p.inflight.Delete(id)
			ctx := context.Background()
			if p.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, p.timeout)
				defer cancel()
			}
			p.warmer.Warm(ctx, id)
		})
		if err != nil {
			p.inflight.Delete(id)
			if !errors.Is(err, ants.ErrPoolOverload) {
				p.logger.Warn("Failed to schedule enhancement prefetch", zap.String("case_id", id), zap.Error(err))
			}
		}
	}
}

// Release stops the worker pool, waiting up to timeout for running warm-ups.
func (p *Prefetcher) Release(timeout time.Duration) {
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		p.logger.Warn("Prefetch pool did not drain", zap.Error(err))
	}
}
