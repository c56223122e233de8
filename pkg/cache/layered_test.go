package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteStub stands in for Redis with a memory cache and a fixed TTL answer.
type remoteStub struct {
	*MemoryCache
	ttl    time.Duration
	gets   int
	setErr error
}

func newRemoteStub() *remoteStub {
	return &remoteStub{MemoryCache: NewMemoryCache(), ttl: time.Minute}
}

func (r *remoteStub) Get(ctx context.Context, key string, dest interface{}) error {
	r.gets++
	return r.MemoryCache.Get(ctx, key, dest)
}

func (r *remoteStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.setErr != nil {
		return r.setErr
	}
	return r.MemoryCache.Set(ctx, key, value, ttl)
}

func (r *remoteStub) TTL(context.Context, string) (time.Duration, error) { return r.ttl, nil }

func TestLayeredCacheFillsMemoryFromRemote(t *testing.T) {
	remote := newRemoteStub()
	lc := newLayered(remote)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, remote.MemoryCache.Set(ctx, "bars", []bar{{1, 2}}, time.Minute))

	var got []bar
	require.NoError(t, lc.Get(ctx, "bars", &got))
	assert.Equal(t, []bar{{1, 2}}, got)
	require.NoError(t, lc.Get(ctx, "bars", &got))
	assert.Equal(t, 1, remote.gets)
}

func TestLayeredCacheWriteThrough(t *testing.T) {
	remote := newRemoteStub()
	lc := newLayered(remote)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, lc.Set(ctx, "k", "v", time.Minute))
	var s string
	require.NoError(t, remote.MemoryCache.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	remote.setErr = errors.New("down")
	assert.Error(t, lc.Set(ctx, "k2", "v", time.Minute))
	assert.ErrorIs(t, lc.mem.Get(ctx, "k2", &s), ErrCacheMiss)
}

func TestLayeredCacheDeleteAndMiss(t *testing.T) {
	remote := newRemoteStub()
	lc := newLayered(remote)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, lc.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, lc.Delete(ctx, "k"))

	var s string
	assert.ErrorIs(t, lc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestLayeredCacheMemoryTTLBoundedByRemote(t *testing.T) {
	lc := newLayered(newRemoteStub(), WithLayeredMemoryTTL(30*time.Second))
	defer lc.Close()

	assert.Equal(t, 5*time.Second, lc.l1TTL(5*time.Second))
	assert.Equal(t, 30*time.Second, lc.l1TTL(time.Hour))
	assert.Equal(t, 30*time.Second, lc.l1TTL(0))
}
