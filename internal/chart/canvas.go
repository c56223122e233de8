package chart

import (
	"sync"
	"time"

	"LiveChart/internal/domain/models"
)

// Series kinds reported in snapshots.
const (
	KindHistogram = "histogram"
	KindLine      = "line"
)

// Options are the fixed chart options of a canvas.
type Options struct {
	Width     int
	Height    int
	UpColor   string
	DownColor string
}

// DefaultOptions mirrors the dashboard chart: 400px tall, teal/red candles.
func DefaultOptions() Options {
	return Options{
		Width:     800,
		Height:    400,
		UpColor:   "#26a69a",
		DownColor: "#ef5350",
	}
}

type drawnLine struct {
	id   PriceLineID
	line models.PriceLine
}

type secondary struct {
	id     string
	kind   string
	opts   SeriesOptions
	bars   []models.HistogramBar
	points []models.LinePoint
}

// Canvas is an in-memory Surface. It keeps exactly the visual state a
// browser chart would hold and renders it as a ChartSnapshot.
type Canvas struct {
	mu sync.RWMutex

	opts     Options
	identity models.Identity
	removed  bool
	fitted   bool

	candles  []models.Candle
	format   models.PrecisionProfile
	markers  []models.Marker
	lines    []drawnLine
	nextLine PriceLineID

	series []*secondary

	subs    map[int]func(float64)
	nextSub int

	tooltip *models.Tooltip
	emit    func(models.ChartEvent)
}

// NewCanvas creates a surface for one chart session.
func NewCanvas(id models.Identity, opts Options) *Canvas {
	return &Canvas{
		opts:     opts,
		identity: id,
		format:   DefaultPriceFormat,
		subs:     make(map[int]func(float64)),
	}
}

// SetEmitter registers the receiver of bar, tooltip and snapshot events.
func (c *Canvas) SetEmitter(fn func(models.ChartEvent)) {
	c.mu.Lock()
	c.emit = fn
	c.mu.Unlock()
}

func (c *Canvas) AddCandlestickSeries() CandleSeries {
	return candleHandle{c: c}
}

func (c *Canvas) AddHistogramSeries(id string, opts SeriesOptions) HistogramSeries {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.addSeries(id, KindHistogram, opts)
	return histogramHandle{c: c, s: s}
}

func (c *Canvas) AddLineSeries(id string, opts SeriesOptions) LineSeries {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.addSeries(id, KindLine, opts)
	return lineHandle{c: c, s: s}
}

// addSeries replaces any series already registered under id.
func (c *Canvas) addSeries(id, kind string, opts SeriesOptions) *secondary {
	s := &secondary{id: id, kind: kind, opts: opts}
	if c.removed {
		return s
	}
	c.dropSeries(id)
	c.series = append(c.series, s)
	return s
}

func (c *Canvas) RemoveSeries(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropSeries(id)
}

func (c *Canvas) dropSeries(id string) {
	for i, s := range c.series {
		if s.id == id {
			c.series = append(c.series[:i], c.series[i+1:]...)
			return
		}
	}
}

func (c *Canvas) ApplyWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed || width <= 0 {
		return
	}
	c.opts.Width = width
}

func (c *Canvas) FitContent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.removed {
		c.fitted = true
	}
}

func (c *Canvas) SubscribeCrosshairMove(fn func(t float64)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return func() {}
	}
	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Remove destroys the canvas. Subscriptions are dropped and every later call is a no-op.
func (c *Canvas) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = true
	c.subs = make(map[int]func(float64))
	c.emit = nil
}

// Removed reports whether Remove was called.
func (c *Canvas) Removed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.removed
}

// SubscriberCount returns the number of live crosshair subscriptions.
func (c *Canvas) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// MoveCrosshair feeds a pointer position (chart seconds) to subscribers.
func (c *Canvas) MoveCrosshair(t float64) {
	c.mu.RLock()
	if c.removed {
		c.mu.RUnlock()
		return
	}
	fns := make([]func(float64), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(t)
	}
}

// SetTooltip stores the hover result and pushes it to viewers.
func (c *Canvas) SetTooltip(tp *models.Tooltip) {
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	c.tooltip = tp
	emit, ev := c.event(models.EventTooltip)
	ev.Tooltip = tp
	c.mu.Unlock()

	if emit != nil {
		emit(ev)
	}
}

// Flush pushes a full snapshot to viewers.
func (c *Canvas) Flush(state string) {
	snap := c.Snapshot(state)
	c.mu.RLock()
	emit, ev := c.event(models.EventSnapshot)
	c.mu.RUnlock()
	if emit == nil {
		return
	}
	ev.State = state
	ev.Snapshot = &snap
	emit(ev)
}

// event must be called with mu held.
func (c *Canvas) event(kind string) (func(models.ChartEvent), models.ChartEvent) {
	return c.emit, models.ChartEvent{Kind: kind, Identity: c.identity, At: time.Now().UTC()}
}

// Snapshot renders the current visual state.
func (c *Canvas) Snapshot(state string) models.ChartSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := models.ChartSnapshot{
		State:       state,
		Identity:    c.identity,
		Width:       c.opts.Width,
		Height:      c.opts.Height,
		PriceFormat: c.format,
		Candles:     append([]models.Candle{}, c.candles...),
		Markers:     append([]models.Marker{}, c.markers...),
		PriceLines:  make([]models.PriceLine, 0, len(c.lines)),
	}
	if c.removed {
		snap.Candles = []models.Candle{}
		snap.Markers = []models.Marker{}
		return snap
	}
	for _, l := range c.lines {
		snap.PriceLines = append(snap.PriceLines, l.line)
	}
	for _, s := range c.series {
		margins := s.opts.Margins
		snap.Series = append(snap.Series, models.SeriesSnapshot{
			ID:         s.id,
			Kind:       s.kind,
			PriceScale: s.opts.PriceScaleID,
			Margins:    &margins,
			Color:      s.opts.Color,
			Histogram:  append([]models.HistogramBar(nil), s.bars...),
			Line:       append([]models.LinePoint(nil), s.points...),
		})
	}
	if c.tooltip != nil {
		tp := *c.tooltip
		snap.Tooltip = &tp
	}
	return snap
}

// Fitted reports whether the visible range was fitted to the data.
func (c *Canvas) Fitted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fitted
}

// candleHandle is the candlestick series view of a Canvas.
type candleHandle struct {
	c *Canvas
}

func (h candleHandle) SetData(candles []models.Candle) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return
	}
	c.candles = append(c.candles[:0:0], candles...)
}

func (h candleHandle) Update(bar models.Candle) {
	c := h.c
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	n := len(c.candles)
	switch {
	case n > 0 && c.candles[n-1].Time == bar.Time:
		c.candles[n-1] = bar
	case n == 0 || c.candles[n-1].Time < bar.Time:
		c.candles = append(c.candles, bar)
	default:
		// older than the last bar; a browser chart rejects these too
		c.mu.Unlock()
		return
	}
	emit, ev := c.event(models.EventBar)
	c.mu.Unlock()

	if emit != nil {
		ev.Bar = &bar
		emit(ev)
	}
}

func (h candleHandle) ApplyPriceFormat(p models.PrecisionProfile) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.removed {
		c.format = p
	}
}

func (h candleHandle) SetMarkers(markers []models.Marker) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.removed {
		c.markers = append([]models.Marker{}, markers...)
	}
}

func (h candleHandle) CreatePriceLine(line models.PriceLine) PriceLineID {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextLine++
	if !c.removed {
		c.lines = append(c.lines, drawnLine{id: c.nextLine, line: line})
	}
	return c.nextLine
}

func (h candleHandle) RemovePriceLine(id PriceLineID) {
	c := h.c
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.lines {
		if l.id == id {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

type histogramHandle struct {
	c *Canvas
	s *secondary
}

func (h histogramHandle) SetData(bars []models.HistogramBar) {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	if !h.c.removed {
		h.s.bars = append([]models.HistogramBar{}, bars...)
	}
}

type lineHandle struct {
	c *Canvas
	s *secondary
}

func (h lineHandle) SetData(points []models.LinePoint) {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	if !h.c.removed {
		h.s.points = append([]models.LinePoint{}, points...)
	}
}
