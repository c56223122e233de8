package cache

import (
	"context"
	"errors"
	"time"
)

// l2 is the slice of RedisCache the layered cache relies on.
type l2 interface {
	Service
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// LayeredCache serves hot keys from memory and falls back to Redis, so
// several instances share one warm L2 while each keeps its own L1.
type LayeredCache struct {
	mem    *MemoryCache
	remote l2
	memTTL time.Duration
}

// NewLayeredCache creates a layered cache with memory and Redis.
func NewLayeredCache(remote *RedisCache, opts ...LayeredOption) *LayeredCache {
	return newLayered(remote, opts...)
}

func newLayered(remote l2, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{MemoryMaxSize: 1000, MemoryTTL: 10 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		mem:    NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		remote: remote,
		memTTL: cfg.MemoryTTL,
	}
}

// Set writes through: Redis first, then memory.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := lc.remote.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return lc.mem.Set(ctx, key, value, lc.l1TTL(ttl))
}

// Get fills L1 from Redis on a memory miss. The L1 copy never outlives the
// Redis one.
func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	err := lc.mem.Get(ctx, key, dest)
	if err == nil || !errors.Is(err, ErrCacheMiss) {
		return err
	}

	var raw string
	if err := lc.remote.Get(ctx, key, &raw); err != nil {
		return err
	}
	if err := decode([]byte(raw), dest); err != nil {
		return err
	}

	ttl, err := lc.remote.TTL(ctx, key)
	if err == nil {
		_ = lc.mem.Set(ctx, key, []byte(raw), lc.l1TTL(ttl))
	}
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.remote.Close()
}

func (lc *LayeredCache) l1TTL(remote time.Duration) time.Duration {
	if remote > 0 && remote < lc.memTTL {
		return remote
	}
	return lc.memTTL
}
