package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches   *prometheus.CounterVec
	fetchTime *prometheus.HistogramVec
	ticks     *prometheus.CounterVec
	markers   *prometheus.HistogramVec
	lines     *prometheus.HistogramVec
	sessions  *prometheus.CounterVec
	lastPrice *prometheus.GaugeVec
}

// New creates a recorder registered on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livechart_market_fetches_total",
				Help: "Market API requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		fetchTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "livechart_market_fetch_duration_seconds",
				Help:    "Market API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livechart_live_ticks_total",
				Help: "Polled ticks by merge outcome",
			},
			[]string{"outcome"},
		),
		markers: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "livechart_overlay_markers",
				Help:    "Markers drawn per overlay render",
				Buckets: prometheus.ExponentialBuckets(1, 4, 6),
			},
			[]string{"strategy"},
		),
		lines: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "livechart_overlay_price_lines",
				Help:    "Price lines drawn per overlay render",
				Buckets: prometheus.ExponentialBuckets(1, 4, 6),
			},
			[]string{"strategy"},
		),
		sessions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livechart_session_transitions_total",
				Help: "Chart lifecycle transitions",
			},
			[]string{"transition"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "livechart_last_price",
				Help: "Last polled price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordFetch records one market API request.
func (r *Recorder) RecordFetch(endpoint, result string, seconds float64) {
	r.fetches.WithLabelValues(endpoint, result).Inc()
	r.fetchTime.WithLabelValues(endpoint).Observe(seconds)
}

// RecordTick records the outcome of a polled tick.
func (r *Recorder) RecordTick(outcome string) {
	r.ticks.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordOverlay(strategy string, markers, lines int) {
	r.markers.WithLabelValues(strategy).Observe(float64(markers))
	r.lines.WithLabelValues(strategy).Observe(float64(lines))
}

func (r *Recorder) RecordSession(transition string) {
	r.sessions.WithLabelValues(transition).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}
