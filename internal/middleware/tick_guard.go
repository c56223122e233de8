package middleware

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"LiveChart/internal/domain/models"
	domrepo "LiveChart/internal/domain/repository"
)

// ErrInvalidTick marks a polled tick that failed validation.
var ErrInvalidTick = errors.New("invalid tick")

// ErrThrottled marks a tick dropped by the per-feed rate limit.
var ErrThrottled = errors.New("tick throttled")

// TickGuard sits between the live poller and the active session.
// It validates ticks and throttles them per feed.
type TickGuard struct {
	metrics  domrepo.Metrics
	maxRPS   int
	mu       sync.Mutex
	lastSeen map[models.FeedKey]time.Time
}

type GuardOption func(*TickGuard)

// WithMaxRPS caps accepted ticks per second per feed. Zero disables throttling.
func WithMaxRPS(n int) GuardOption {
	return func(g *TickGuard) {
		if n >= 0 {
			g.maxRPS = n
		}
	}
}

// NewTickGuard creates a guard. Throttling is off by default.
func NewTickGuard(metrics domrepo.Metrics, opts ...GuardOption) *TickGuard {
	g := &TickGuard{
		metrics:  metrics,
		lastSeen: make(map[models.FeedKey]time.Time),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns the tick to apply, or an error when it must be dropped.
func (g *TickGuard) Check(key models.FeedKey, t models.Tick) (models.Tick, error) {
	if err := validateTick(t); err != nil {
		g.metrics.RecordTick("invalid")
		return models.Tick{}, err
	}
	if !g.allow(key, time.Now()) {
		g.metrics.RecordTick("throttled")
		return models.Tick{}, ErrThrottled
	}
	return t, nil
}

// Forget drops the throttle state of a feed that is no longer polled.
func (g *TickGuard) Forget(key models.FeedKey) {
	g.mu.Lock()
	delete(g.lastSeen, key)
	g.mu.Unlock()
}

func validateTick(t models.Tick) error {
	if t.Time <= 0 {
		return fmt.Errorf("%w: timestamp %d", ErrInvalidTick, t.Time)
	}
	for _, v := range []float64{t.Open, t.High, t.Low, t.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite price", ErrInvalidTick)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative price", ErrInvalidTick)
		}
	}
	return nil
}

func (g *TickGuard) allow(key models.FeedKey, now time.Time) bool {
	if g.maxRPS <= 0 {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	last := g.lastSeen[key]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(g.maxRPS) {
		return false
	}
	g.lastSeen[key] = now
	return true
}
