package marketapi

import (
	"context"
	"errors"
	"time"

	"LiveChart/internal/domain/models"
	"LiveChart/internal/domain/repository"
	"LiveChart/pkg/cache"
	"LiveChart/pkg/logger"
)

// DefaultCacheTTL keeps responses short lived; viewers switching between the
// same few identities share them, nothing more.
const DefaultCacheTTL = 30 * time.Second

// Cached is a read-through decorator over repository.MarketData. Latest is
// always forwarded.
type Cached struct {
	next   repository.MarketData
	cache  cache.Service
	ttl    time.Duration
	logger *logger.Logger
}

// NewCached wraps next. A non-positive ttl falls back to DefaultCacheTTL.
func NewCached(next repository.MarketData, c cache.Service, ttl time.Duration, log *logger.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Cached{next: next, cache: c, ttl: ttl, logger: log}
}

func (c *Cached) History(ctx context.Context, q repository.HistoryQuery) ([]models.Candle, error) {
	return readThrough(ctx, c, queryKey(EndpointHistory, q), func() ([]models.Candle, error) {
		return c.next.History(ctx, q)
	})
}

func (c *Cached) Latest(ctx context.Context, key models.FeedKey) (models.Tick, error) {
	return c.next.Latest(ctx, key)
}

func (c *Cached) Signals(ctx context.Context, strategy models.Strategy, q repository.HistoryQuery) ([]models.Signal, error) {
	if !strategy.Enabled() {
		return c.next.Signals(ctx, strategy, q)
	}
	return readThrough(ctx, c, queryKey(EndpointStrategy+":"+strategy.Slug(), q), func() ([]models.Signal, error) {
		return c.next.Signals(ctx, strategy, q)
	})
}

func (c *Cached) VolumeProfile(ctx context.Context, q repository.HistoryQuery) ([]models.VolumePoint, error) {
	return readThrough(ctx, c, queryKey(EndpointVolume, q), func() ([]models.VolumePoint, error) {
		return c.next.VolumeProfile(ctx, q)
	})
}

// readThrough serves key from cache, else loads and stores it. Cache errors
// other than a miss are logged and bypassed; failed loads are never stored.
func readThrough[T any](ctx context.Context, c *Cached, key string, load func() ([]T, error)) ([]T, error) {
	var hit []T
	err := c.cache.Get(ctx, key, &hit)
	switch {
	case err == nil:
		return hit, nil
	case errors.Is(err, cache.ErrCacheMiss):
	case errors.Is(err, cache.ErrCorrupt):
		c.logger.Warn("dropping undecodable market cache entry", logger.String("key", key), logger.Error(err))
		_ = c.cache.Delete(ctx, key)
	default:
		c.logger.Warn("market cache read failed", logger.String("key", key), logger.Error(err))
	}

	rows, err := load()
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, rows, c.ttl); err != nil {
		c.logger.Warn("market cache write failed", logger.String("key", key), logger.Error(err))
	}
	return rows, nil
}

func queryKey(endpoint string, q repository.HistoryQuery) string {
	return cache.Key("market:"+endpoint, q.Symbol, q.Interval, q.Source, q.Period)
}
