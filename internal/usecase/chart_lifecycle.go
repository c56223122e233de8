package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"LiveChart/internal/chart"
	"LiveChart/internal/domain/models"
	drepo "LiveChart/internal/domain/repository"
	applogger "LiveChart/pkg/logger"
)

// State of the chart lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateActive        State = "active"
	StateTornDown      State = "torn_down"
)

var (
	ErrNotMounted     = errors.New("chart is not mounted")
	ErrAlreadyMounted = errors.New("chart is already mounted")
)

const (
	sinkTimeout = 5 * time.Second
	eventBuffer = 1024
)

// ChartLifecycleController drives Uninitialized -> Active -> TornDown.
// Every identity change tears the active session down completely before
// the next one is created. The live poller follows the feed key only.
type ChartLifecycleController struct {
	data    drepo.MarketData
	poller  *LivePoller
	sink    drepo.EventSink
	metrics drepo.Metrics
	logger  *applogger.Logger
	opts    chart.Options
	vp      *Viewport

	mu      sync.Mutex
	state   State
	session *Session
	ctx     context.Context
	cancel  context.CancelFunc

	lmu       sync.RWMutex
	listeners map[int]func(models.ChartEvent)
	nextID    int

	// events feeds the single sink publisher so a symbol's events reach
	// the sink in emission order.
	qmu     sync.RWMutex
	closed  bool
	events  chan models.ChartEvent
	drained chan struct{}
}

func NewChartLifecycleController(
	data drepo.MarketData,
	poller *LivePoller,
	sink drepo.EventSink,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	opts chart.Options,
) *ChartLifecycleController {
	c := &ChartLifecycleController{
		data:      data,
		poller:    poller,
		sink:      sink,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
		vp:        NewViewport(opts.Width),
		state:     StateUninitialized,
		listeners: make(map[int]func(models.ChartEvent)),
	}
	if sink != nil {
		c.events = make(chan models.ChartEvent, eventBuffer)
		c.drained = make(chan struct{})
		go c.publishLoop()
	}
	return c
}

// Subscribe registers a receiver of chart events.
func (c *ChartLifecycleController) Subscribe(fn func(models.ChartEvent)) (unsubscribe func()) {
	c.lmu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.lmu.Unlock()

	return func() {
		c.lmu.Lock()
		delete(c.listeners, id)
		c.lmu.Unlock()
	}
}

func (c *ChartLifecycleController) emit(ev models.ChartEvent) {
	c.lmu.RLock()
	fns := make([]func(models.ChartEvent), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.lmu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
	c.enqueue(ev)
}

// enqueue never blocks the chart: when the sink falls behind by a full
// buffer the event is dropped.
func (c *ChartLifecycleController) enqueue(ev models.ChartEvent) {
	if c.events == nil {
		return
	}
	c.qmu.RLock()
	defer c.qmu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("chart event queue full, event dropped", applogger.String("kind", ev.Kind))
	}
}

func (c *ChartLifecycleController) publishLoop() {
	defer close(c.drained)
	for ev := range c.events {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := c.sink.Publish(ctx, ev); err != nil {
			c.logger.Warn("chart event publish failed", applogger.String("kind", ev.Kind), applogger.Error(err))
		}
		cancel()
	}
}

// Close stops accepting events and waits until the queued ones have been
// handed to the sink. Call it after Unmount and before closing the sink.
func (c *ChartLifecycleController) Close(ctx context.Context) error {
	if c.events == nil {
		return nil
	}
	c.qmu.Lock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	c.qmu.Unlock()

	select {
	case <-c.drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain chart events: %w", ctx.Err())
	}
}

// Mount enters Active with the first identity.
func (c *ChartLifecycleController) Mount(ctx context.Context, id models.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateActive {
		return ErrAlreadyMounted
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.enter(id)
	c.poller.Start(c.ctx, id.FeedKey(), c.deliver)
	c.transition("mount", c.session)
	return nil
}

// Switch rebuilds the chart for a new identity. The poller restarts only
// when symbol, interval or source changed. Switching to the active
// identity is a no-op.
func (c *ChartLifecycleController) Switch(id models.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return ErrNotMounted
	}
	prev := c.session.Identity()
	if prev == id {
		return nil
	}

	c.session.Teardown()
	feedChanged := prev.FeedKey() != id.FeedKey()
	if feedChanged {
		c.poller.Stop()
	}
	c.enter(id)
	if feedChanged {
		c.poller.Start(c.ctx, id.FeedKey(), c.deliver)
	}
	c.transition("switch", c.session)
	return nil
}

// Unmount tears everything down. It is idempotent.
func (c *ChartLifecycleController) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return
	}
	s := c.session
	s.Teardown()
	c.poller.Stop()
	c.cancel()
	c.state = StateTornDown
	c.transition("unmount", s)
}

// enter must be called with mu held and any previous session torn down.
func (c *ChartLifecycleController) enter(id models.Identity) {
	s := newSession(c.ctx, id, c.opts, c.vp, sessionDeps{
		data:    c.data,
		metrics: c.metrics,
		logger:  c.logger,
		emit:    c.emit,
	})
	c.session = s
	c.state = StateActive
	go s.run()
}

func (c *ChartLifecycleController) transition(name string, s *Session) {
	id := s.Identity()
	c.metrics.RecordSession(name)
	c.logger.Info("chart "+name, append(identityFields(id), applogger.String("session_id", s.ID()))...)
	c.emit(models.ChartEvent{
		Kind:      models.EventSession,
		SessionID: s.ID(),
		Identity:  id,
		State:     string(c.state),
		At:        time.Now().UTC(),
	})
}

// deliver hands a polled tick to the session active right now.
func (c *ChartLifecycleController) deliver(key models.FeedKey, tick models.Tick) {
	if s := c.active(); s != nil {
		s.ApplyTick(key, tick)
	}
}

func (c *ChartLifecycleController) active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return nil
	}
	return c.session
}

func (c *ChartLifecycleController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the active identity.
func (c *ChartLifecycleController) Identity() (models.Identity, bool) {
	if s := c.active(); s != nil {
		return s.Identity(), true
	}
	return models.Identity{}, false
}

// Snapshot renders the current chart, or an empty one when nothing is mounted.
func (c *ChartLifecycleController) Snapshot() models.ChartSnapshot {
	c.mu.Lock()
	state, s := c.state, c.session
	c.mu.Unlock()

	if state != StateActive {
		return models.ChartSnapshot{
			State:       string(state),
			Width:       c.vp.Width(),
			Height:      c.opts.Height,
			PriceFormat: chart.DefaultPriceFormat,
			Candles:     []models.Candle{},
			Markers:     []models.Marker{},
			PriceLines:  []models.PriceLine{},
		}
	}
	return s.Snapshot(state)
}

// Hover resolves the signal under the pointer.
func (c *ChartLifecycleController) Hover(t float64) (models.Tooltip, error) {
	s := c.active()
	if s == nil {
		return models.Tooltip{}, ErrNotMounted
	}
	return s.Hover(t), nil
}

// Resize is the window-resize input. The width carries over to later sessions.
func (c *ChartLifecycleController) Resize(width int) {
	c.vp.Resize(width)
}

// Summary returns the latest signal of the active session.
func (c *ChartLifecycleController) Summary() (models.SignalSummary, bool) {
	s := c.active()
	if s == nil {
		return models.SignalSummary{}, false
	}
	return s.Summary()
}

// Loaded is closed when the active session finished its load chain.
func (c *ChartLifecycleController) Loaded() <-chan struct{} {
	if s := c.active(); s != nil {
		return s.Loaded()
	}
	done := make(chan struct{})
	close(done)
	return done
}

// ResizeListeners reports the registered resize listeners.
func (c *ChartLifecycleController) ResizeListeners() int { return c.vp.Listeners() }
