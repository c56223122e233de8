package usecase

import (
	"context"
	"sync"
	"time"

	"LiveChart/internal/domain/models"
	drepo "LiveChart/internal/domain/repository"
	mid "LiveChart/internal/middleware"
	applogger "LiveChart/pkg/logger"
)

// DefaultPollInterval is the live chart cadence.
const DefaultPollInterval = time.Second

// TickHandler receives ticks that passed the guard.
type TickHandler func(key models.FeedKey, tick models.Tick)

// LivePoller polls the latest-price endpoint for one feed on a fixed
// cadence. Each poll is fired without waiting for the previous one, so
// responses land in completion order. A generation counter discards
// completions that arrive after Stop or a restart.
type LivePoller struct {
	data     drepo.MarketData
	guard    *mid.TickGuard
	logger   *applogger.Logger
	interval time.Duration

	mu      sync.Mutex
	gen     uint64
	key     models.FeedKey
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewLivePoller creates a stopped poller. A non-positive interval means DefaultPollInterval.
func NewLivePoller(data drepo.MarketData, guard *mid.TickGuard, logger *applogger.Logger, interval time.Duration) *LivePoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &LivePoller{data: data, guard: guard, logger: logger, interval: interval}
}

// Start (re)starts polling key. Any previous loop is cancelled first.
func (p *LivePoller) Start(parent context.Context, key models.FeedKey, handle TickHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	p.gen++
	p.key = key
	p.running = true
	p.cancel = cancel

	gen := p.gen
	p.wg.Add(1)
	go p.loop(ctx, gen, key, handle)
	p.logger.Info("live poller started",
		applogger.String("symbol", key.Symbol),
		applogger.String("interval", key.Interval),
		applogger.String("source", key.Source),
		applogger.Duration("cadence_ms", p.interval),
	)
}

// Stop cancels the loop and every in-flight poll.
func (p *LivePoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *LivePoller) stopLocked() {
	if !p.running {
		return
	}
	p.gen++
	p.running = false
	p.cancel()
	p.guard.Forget(p.key)
}

// Wait blocks until every loop and poll started so far has returned.
func (p *LivePoller) Wait() { p.wg.Wait() }

// Key returns the feed being polled.
func (p *LivePoller) Key() (models.FeedKey, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key, p.running
}

func (p *LivePoller) loop(ctx context.Context, gen uint64, key models.FeedKey, handle TickHandler) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.wg.Add(1)
			go p.poll(ctx, gen, key, handle)
		}
	}
}

func (p *LivePoller) poll(ctx context.Context, gen uint64, key models.FeedKey, handle TickHandler) {
	defer p.wg.Done()

	tick, err := p.data.Latest(ctx, key)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("latest fetch failed",
				applogger.String("symbol", key.Symbol),
				applogger.String("interval", key.Interval),
				applogger.Error(err),
			)
		}
		return
	}
	// The guard is consulted under mu so a stopped feed cannot leave
	// throttle state behind after Forget.
	p.mu.Lock()
	live := p.running && p.gen == gen
	if live {
		tick, err = p.guard.Check(key, tick)
	}
	p.mu.Unlock()
	if !live {
		return
	}
	if err != nil {
		p.logger.Debug("tick rejected", applogger.String("symbol", key.Symbol), applogger.Error(err))
		return
	}
	handle(key, tick)
}
