// Package enhancecache memoizes per-case enhancements in process or in Redis.
package enhancecache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/casedex/internal/domain/enhancement"
)

// Defaults for the in-process cache.
const (
	DefaultCapacity = 1024
	DefaultTTL      = time.Hour
)

type entry struct {
	value   enhancement.Enhancement
	expires time.Time
}

// Memory is an in-process LRU with per-entry TTL measured from insertion.
// Safe for concurrent use.
type Memory struct {
	entries *lru.Cache[string, entry]
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an in-process cache. Non-positive capacity or ttl select the defaults.
func NewMemory(capacity int, ttl time.Duration, opts ...MemoryOption) (*Memory, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entries, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	m := &Memory{entries: entries, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get returns the live entry for id. Expired entries are removed and reported absent.
func (m *Memory) Get(_ context.Context, id string) (enhancement.Enhancement, bool) {
	e, ok := m.entries.Get(id)
	if !ok {
		return enhancement.Enhancement{}, false
	}
	if !m.now().Before(e.expires) {
		m.entries.Remove(id)
		return enhancement.Enhancement{}, false
	}
	return e.value, true
}

// Set replaces the value for id. Last write wins.
func (m *Memory) Set(_ context.Context, id string, e enhancement.Enhancement) {
	m.entries.Add(id, entry{value: e, expires: m.now().Add(m.ttl)})
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	return m.entries.Len()
}
