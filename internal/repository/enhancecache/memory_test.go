package enhancecache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/casedex/internal/domain/enhancement"
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

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newEnhancement(summary string) enhancement.Enhancement {
	return enhancement.New(summary, []string{"We hold that the search was unreasonable."},
		enhancement.SourceAI, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestMemory_SetGet(t *testing.T) {
	m, err := NewMemory(8, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok := m.Get(ctx, "c-1")
	assert.False(t, ok)

	want := newEnhancement("summary")
	m.Set(ctx, "c-1", want)

	got, ok := m.Get(ctx, "c-1")
	require.True(t, ok)
	assert.True(t, want.Equal(got))
}

func TestMemory_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m, err := NewMemory(8, 3600*time.Second, WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	m.Set(ctx, "c-1", newEnhancement("summary"))

	clock.Advance(3599 * time.Second)
	_, ok := m.Get(ctx, "c-1")
	assert.True(t, ok, "entry should be live just before ttl")

	clock.Advance(time.Second)
	_, ok = m.Get(ctx, "c-1")
	assert.False(t, ok, "entry should expire at ttl")
	assert.Zero(t, m.Len(), "expired entry should be removed on read")
}

func TestMemory_SetRestartsTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m, err := NewMemory(8, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	m.Set(ctx, "c-1", newEnhancement("first"))
	clock.Advance(50 * time.Second)
	m.Set(ctx, "c-1", newEnhancement("second"))
	clock.Advance(50 * time.Second)

	got, ok := m.Get(ctx, "c-1")
	require.True(t, ok)
	assert.Equal(t, "second", got.Summary())
}

func TestMemory_CapacityEvictsLeastRecent(t *testing.T) {
	m, err := NewMemory(2, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	m.Set(ctx, "a", newEnhancement("a"))
	m.Set(ctx, "b", newEnhancement("b"))
	_, _ = m.Get(ctx, "a")
	m.Set(ctx, "c", newEnhancement("c"))

	_, ok := m.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = m.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemory_Defaults(t *testing.T) {
	m, err := NewMemory(0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, m.ttl)
}

func TestMemory_ConcurrentSetsLastWriteWins(t *testing.T) {
	m, err := NewMemory(64, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Set(ctx, "shared", newEnhancement(fmt.Sprintf("v%d", i)))
			_, _ = m.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	got, ok := m.Get(ctx, "shared")
	require.True(t, ok)
	assert.Regexp(t, `^v\d+$`, got.Summary())

	m.Set(ctx, "shared", newEnhancement("final"))
	got, _ = m.Get(ctx, "shared")
	assert.Equal(t, "final", got.Summary())
}
