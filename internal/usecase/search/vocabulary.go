package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/logger"
)

// vocabularyRetryAfter is how long a failed refresh suppresses further attempts.
const vocabularyRetryAfter = 30 * time.Second

// vocabularyCache keeps the filter vocabulary read from the text store.
// Concurrent refreshes share one store call made outside the lock. A failed
// refresh keeps serving the previous snapshot and is not retried for
// vocabularyRetryAfter, so an outage costs at most one store timeout per interval.
type vocabularyCache struct {
	mu        sync.RWMutex
	opts      filter.Options
	vocab     *filter.Vocabulary
	fetchedAt time.Time
	failedAt  time.Time
	lastErr   error
	loaded    bool

	group   singleflight.Group
	store   TextStore
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
}

// snapshot is one consistent read of the cache.
type snapshot struct {
	opts   filter.Options
	vocab  *filter.Vocabulary
	loaded bool
	err    error
}

func (v *vocabularyCache) read() (snapshot, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	now := v.now()
	current := v.loaded && now.Sub(v.fetchedAt) < v.ttl
	backoff := !v.failedAt.IsZero() && now.Sub(v.failedAt) < min(vocabularyRetryAfter, v.ttl)
	return snapshot{opts: v.opts, vocab: v.vocab, loaded: v.loaded, err: v.lastErr}, current || backoff
}

// current returns a snapshot, refreshing it first when stale.
func (v *vocabularyCache) current(ctx context.Context) snapshot {
	if snap, ok := v.read(); ok {
		return snap
	}

	ch := v.group.DoChan("vocabulary", func() (any, error) {
		return nil, v.refresh(ctx)
	})
	select {
	case <-ch:
	case <-ctx.Done():
	}
	snap, _ := v.read()
	return snap
}

// get returns the current vocabulary, nil when none could ever be loaded.
func (v *vocabularyCache) get(ctx context.Context) *filter.Vocabulary {
	return v.current(ctx).vocab
}

// options returns the current filter options, stale ones when a refresh fails.
func (v *vocabularyCache) options(ctx context.Context) (filter.Options, error) {
	snap := v.current(ctx)
	if snap.loaded {
		return snap.opts, nil
	}
	if snap.err != nil {
		return filter.Options{}, snap.err
	}
	return filter.Options{}, ctx.Err()
}

// refresh loads the options from the store. It runs detached from the
// caller's cancellation because other requests may be waiting on it.
func (v *vocabularyCache) refresh(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	opts, err := v.store.FilterOptions(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to refresh filter vocabulary", zap.Bool("stale", v.loaded), zap.Error(err))
		v.failedAt = v.now()
		v.lastErr = err
		return err
	}
	v.opts = opts
	v.vocab = opts.Vocabulary()
	v.fetchedAt = v.now()
	v.failedAt = time.Time{}
	v.lastErr = nil
	v.loaded = true
	return nil
}
