package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"LiveChart/internal/chart"
	"LiveChart/internal/chart/overlay"
	"LiveChart/internal/domain/models"
	drepo "LiveChart/internal/domain/repository"
	applogger "LiveChart/pkg/logger"
)

// Session is one Active chart: the canvas, its series store, the cached
// signals and every subscription taken on entry. It is created when an
// identity becomes active and torn down before the next one starts.
type Session struct {
	sid     string
	id      models.Identity
	data    drepo.MarketData
	metrics drepo.Metrics
	logger  *applogger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	loaded chan struct{}

	mu      sync.Mutex
	live    bool
	canvas  *chart.Canvas
	series  chart.CandleSeries
	store   *chart.SeriesStore
	index   chart.SignalIndex
	drawing overlay.Drawing

	releaseCrosshair func()
	releaseResize    func()
}

type sessionDeps struct {
	data    drepo.MarketData
	metrics drepo.Metrics
	logger  *applogger.Logger
	emit    func(models.ChartEvent)
}

// newSession creates the chart and candlestick series and takes the hover
// and resize subscriptions. The load chain is started by run.
func newSession(parent context.Context, id models.Identity, opts chart.Options, vp *Viewport, deps sessionDeps) *Session {
	ctx, cancel := context.WithCancel(parent)
	sid := uuid.NewString()

	opts.Width = vp.Width()
	canvas := chart.NewCanvas(id, opts)
	canvas.SetEmitter(func(ev models.ChartEvent) {
		ev.SessionID = sid
		if ev.Snapshot != nil {
			ev.Snapshot.SessionID = sid
		}
		deps.emit(ev)
	})
	series := canvas.AddCandlestickSeries()
	series.ApplyPriceFormat(chart.DefaultPriceFormat)

	s := &Session{
		sid:     sid,
		id:      id,
		data:    deps.data,
		metrics: deps.metrics,
		logger:  deps.logger.With(append(identityFields(id), applogger.String("session_id", sid))...),
		ctx:     ctx,
		cancel:  cancel,
		loaded:  make(chan struct{}),
		live:    true,
		canvas:  canvas,
		series:  series,
		store:   chart.NewSeriesStore(canvas, series, id.Interval),
	}
	s.releaseCrosshair = canvas.SubscribeCrosshairMove(s.onCrosshair)
	s.releaseResize = vp.OnResize(canvas.ApplyWidth)
	return s
}

// run performs history then overlays, strictly in that order. Every
// failure is logged and swallowed so the base series keeps rendering.
func (s *Session) run() {
	defer close(s.loaded)

	q := drepo.QueryFor(s.id)
	candles, err := s.data.History(s.ctx, q)
	switch {
	case err != nil && s.ctx.Err() != nil:
		return
	case err != nil:
		s.logger.Warn("history fetch failed", applogger.Error(err))
	default:
		if !s.withLive(func() { s.store.LoadHistory(candles) }) {
			return
		}
		s.logger.Debug("history loaded", applogger.Int("bars", len(candles)))
	}

	s.renderOverlay(q)
	s.withLive(func() { s.canvas.Flush(string(StateActive)) })
}

func (s *Session) renderOverlay(q drepo.HistoryQuery) {
	r, ok := overlay.For(s.id.Strategy)
	if !ok {
		return
	}

	var in overlay.Input
	signals, sigErr := s.data.Signals(s.ctx, s.id.Strategy, q)
	if sigErr != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Warn("strategy fetch failed", applogger.Error(sigErr))
	}
	in.Signals = signals

	var volErr error
	if r.NeedsVolume() {
		in.Volume, volErr = s.data.VolumeProfile(s.ctx, q)
		if volErr != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("volume indicator fetch failed", applogger.Error(volErr))
		}
	}
	if sigErr != nil && (volErr != nil || !r.NeedsVolume()) {
		return
	}

	ov := r.Render(in)
	s.withLive(func() {
		if sigErr == nil {
			s.index.Replace(signals)
		}
		s.drawing.Apply(s.canvas, s.series, ov)
	})
	s.metrics.RecordOverlay(string(s.id.Strategy), len(ov.Markers), len(ov.Lines))
}

// withLive runs fn under the session lock if the session was not torn down.
func (s *Session) withLive(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live {
		return false
	}
	fn()
	return true
}

// ApplyTick merges a live tick. Ticks for another feed are ignored.
func (s *Session) ApplyTick(key models.FeedKey, tick models.Tick) {
	if key != s.id.FeedKey() {
		return
	}
	var (
		outcome string
		err     error
	)
	applied := s.withLive(func() {
		_, outcome, err = s.store.ApplyLiveTick(tick)
	})
	if !applied {
		return
	}
	s.metrics.RecordTick(outcome)
	if err != nil {
		s.logger.Debug("live tick dropped", applogger.Error(err), applogger.Int64("tick_time", tick.Time))
		return
	}
	s.metrics.RecordLastPrice(s.id.Symbol, tick.Close)
}

func (s *Session) onCrosshair(t float64) {
	var tp *models.Tooltip
	s.withLive(func() {
		tp = &models.Tooltip{Time: t}
		if sig, ok := s.index.FindNearest(t); ok {
			tp.Signal = &sig
		}
	})
	if tp != nil {
		s.canvas.SetTooltip(tp)
	}
}

// Hover routes a pointer position through the crosshair subscription and
// returns the tooltip for t itself, whatever other hovers drew meanwhile.
func (s *Session) Hover(t float64) models.Tooltip {
	s.canvas.MoveCrosshair(t)
	tp := models.Tooltip{Time: t}
	s.withLive(func() {
		if sig, ok := s.index.FindNearest(t); ok {
			tp.Signal = &sig
		}
	})
	return tp
}

// Summary returns the latest cached signal.
func (s *Session) Summary() (models.SignalSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig, ok := s.index.Latest()
	if !ok {
		return models.SignalSummary{}, false
	}
	return models.SignalSummary{
		Strategy:  s.id.Strategy,
		Name:      sig.Name,
		Type:      sig.Type,
		Price:     sig.Price,
		Timestamp: sig.Timestamp,
		Count:     s.index.Len(),
	}, true
}

// Snapshot renders the session for viewers.
func (s *Session) Snapshot(state State) models.ChartSnapshot {
	snap := s.canvas.Snapshot(string(state))
	snap.SessionID = s.sid
	if sum, ok := s.Summary(); ok {
		snap.Summary = &sum
	}
	return snap
}

// Loaded is closed once the history and overlay chain has finished.
func (s *Session) Loaded() <-chan struct{} { return s.loaded }

func (s *Session) Identity() models.Identity { return s.id }

// ID is unique per session, so events from a torn-down chart can be told
// apart from those of its successor with the same identity.
func (s *Session) ID() string { return s.sid }

// Teardown releases listeners, cancels in-flight fetches and removes the
// chart. Safe to call more than once.
func (s *Session) Teardown() {
	s.mu.Lock()
	if !s.live {
		s.mu.Unlock()
		return
	}
	s.live = false
	s.mu.Unlock()

	s.releaseResize()
	s.releaseCrosshair()
	s.cancel()
	s.canvas.Remove()
}

func identityFields(id models.Identity) []applogger.Field {
	return []applogger.Field{
		applogger.String("symbol", id.Symbol),
		applogger.String("interval", id.Interval),
		applogger.String("source", id.Source),
		applogger.String("strategy", string(id.Strategy)),
		applogger.String("period", id.Period),
	}
}
