package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bar struct {
	Time  int64   `json:"time"`
	Close float64 `json:"close"`
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "bars", []bar{{1, 1.5}, {2, 2.5}}, time.Minute))
	var got []bar
	require.NoError(t, mc.Get(ctx, "bars", &got))
	assert.Equal(t, []bar{{1, 1.5}, {2, 2.5}}, got)

	require.NoError(t, mc.Set(ctx, "name", "BTC", time.Minute))
	var s string
	require.NoError(t, mc.Get(ctx, "name", &s))
	assert.Equal(t, "BTC", s)
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	clock := newFakeClock()
	mc := NewMemoryCache(withMemoryClock(clock.Now))
	defer mc.Close()
	ctx := context.Background()

	var v []bar
	assert.ErrorIs(t, mc.Get(ctx, "nope", &v), ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "short", []bar{{1, 1}}, 10*time.Second))
	clock.Advance(9 * time.Second)
	require.NoError(t, mc.Get(ctx, "short", &v))

	clock.Advance(time.Second)
	assert.ErrorIs(t, mc.Get(ctx, "short", &v), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	mc := NewMemoryCache(withMemoryClock(clock.Now), WithMemoryDefaultTTL(time.Minute))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", 0))
	clock.Advance(59 * time.Second)
	var s string
	require.NoError(t, mc.Get(ctx, "k", &s))
	clock.Advance(time.Second)
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, mc.Set(ctx, "b", "2", time.Minute))

	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	require.NoError(t, mc.Set(ctx, "c", "3", time.Minute))

	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &s))
	require.NoError(t, mc.Get(ctx, "c", &s))
	assert.Equal(t, 2, mc.Len())
}

func TestMemoryCacheOverwriteKeepsSize(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, mc.Set(ctx, "b", "2", time.Minute))
	require.NoError(t, mc.Set(ctx, "a", "3", time.Minute))

	var s string
	require.NoError(t, mc.Get(ctx, "b", &s))
	require.NoError(t, mc.Get(ctx, "a", &s))
	assert.Equal(t, "3", s)
	assert.Equal(t, 2, mc.Len())
}

func TestMemoryCacheCorruptValue(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "bars", "not json", time.Minute))
	var got []bar
	assert.ErrorIs(t, mc.Get(ctx, "bars", &got), ErrCorrupt)

	require.NoError(t, mc.Delete(ctx, "bars", "absent"))
	assert.ErrorIs(t, mc.Get(ctx, "bars", &got), ErrCacheMiss)
}

func TestMemoryCacheDropExpired(t *testing.T) {
	clock := newFakeClock()
	mc := NewMemoryCache(withMemoryClock(clock.Now))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "old", "1", time.Second))
	require.NoError(t, mc.Set(ctx, "new", "2", time.Hour))
	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, mc.dropExpired())
	assert.Equal(t, 1, mc.Len())
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	mc := NewMemoryCache()
	require.NoError(t, mc.Close())
	require.NoError(t, mc.Close())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "market:history:BTC:1d:YAHOO:1y", Key("market:history", "BTC", "1d", "YAHOO", "1y"))
	assert.Equal(t, "market:latest::1d", Key("market:latest", "", "1d"))
	assert.Equal(t, "ns", Key("ns"))
}
