package models

import "time"

// Candle is one OHLC bar keyed by its bucket start in unix seconds.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Tick is a single polled latest-price observation, not yet bucketed.
type Tick struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	Price float64 `json:"price"`
}

// Candle converts the tick into a bar starting at t.
func (t Tick) Candle(at int64) Candle {
	return Candle{Time: at, Open: t.Open, High: t.High, Low: t.Low, Close: t.Close}
}

// Identity is the tuple that decides when a chart session must be rebuilt.
type Identity struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Source   string   `json:"source"`
	Strategy Strategy `json:"strategy"`
	Period   string   `json:"period"`
}

// FeedKey is the subset of Identity the live poller is scoped to.
type FeedKey struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Source   string `json:"source"`
}

func (id Identity) FeedKey() FeedKey {
	return FeedKey{Symbol: id.Symbol, Interval: id.Interval, Source: id.Source}
}

// PrecisionProfile is the price format of the candlestick series.
type PrecisionProfile struct {
	Precision int     `json:"precision"`
	MinMove   float64 `json:"minMove"`
}

// Marker positions and shapes.
const (
	PositionAboveBar = "aboveBar"
	PositionBelowBar = "belowBar"
	PositionInBar    = "inBar"

	ShapeArrowUp   = "arrowUp"
	ShapeArrowDown = "arrowDown"
	ShapeCircle    = "circle"
)

// Price line styles.
const (
	LineSolid  = 0
	LineDashed = 2
)

// Marker is a glyph anchored to a bar time.
type Marker struct {
	Time     int64  `json:"time"`
	Position string `json:"position"`
	Color    string `json:"color"`
	Shape    string `json:"shape"`
	Text     string `json:"text"`
}

// PriceLine is a horizontal reference line on the candlestick series.
type PriceLine struct {
	Price            float64 `json:"price"`
	Color            string  `json:"color"`
	LineWidth        int     `json:"lineWidth"`
	LineStyle        int     `json:"lineStyle"`
	AxisLabelVisible bool    `json:"axisLabelVisible"`
	Title            string  `json:"title"`
}

// HistogramBar is one bar of a histogram series.
type HistogramBar struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// LinePoint is one point of a line series.
type LinePoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// ScaleMargins positions a price scale vertically (fractions of chart height).
type ScaleMargins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Tooltip is the hover state resolved from the signal index.
type Tooltip struct {
	Time   float64 `json:"time"`
	Signal *Signal `json:"signal,omitempty"`
}

// SignalSummary is the latest signal shown in the summary panel.
type SignalSummary struct {
	Strategy  Strategy  `json:"strategy"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// SeriesSnapshot is the visual state of one secondary series.
type SeriesSnapshot struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	PriceScale string         `json:"priceScaleId"`
	Margins    *ScaleMargins  `json:"scaleMargins,omitempty"`
	Color      string         `json:"color,omitempty"`
	Histogram  []HistogramBar `json:"histogram,omitempty"`
	Line       []LinePoint    `json:"line,omitempty"`
}

// ChartSnapshot is everything a viewer needs to paint the chart.
type ChartSnapshot struct {
	SessionID   string           `json:"sessionId,omitempty"`
	State       string           `json:"state"`
	Identity    Identity         `json:"identity"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	PriceFormat PrecisionProfile `json:"priceFormat"`
	Candles     []Candle         `json:"candles"`
	Markers     []Marker         `json:"markers"`
	PriceLines  []PriceLine      `json:"priceLines"`
	Series      []SeriesSnapshot `json:"series,omitempty"`
	Tooltip     *Tooltip         `json:"tooltip,omitempty"`
	Summary     *SignalSummary   `json:"summary,omitempty"`
}

// Chart event kinds.
const (
	EventSnapshot = "snapshot"
	EventBar      = "bar"
	EventTooltip  = "tooltip"
	EventSession  = "session"
)

// ChartEvent is pushed to websocket viewers and the event sink.
type ChartEvent struct {
	Kind      string         `json:"kind"`
	SessionID string         `json:"sessionId,omitempty"`
	Identity  Identity       `json:"identity"`
	Bar       *Candle        `json:"bar,omitempty"`
	Tooltip   *Tooltip       `json:"tooltip,omitempty"`
	Snapshot  *ChartSnapshot `json:"snapshot,omitempty"`
	State     string         `json:"state,omitempty"`
	At        time.Time      `json:"at"`
}
