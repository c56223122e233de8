package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordFetch("history", "ok", 0.2)
	r.RecordFetch("history", "ok", 0.1)
	r.RecordFetch("latest", "not_found", 0.01)
	r.RecordTick("snapped")
	r.RecordTick("snapped")
	r.RecordTick("stale")
	r.RecordOverlay("FVG", 4, 6)
	r.RecordSession("active")
	r.RecordLastPrice("BTC", 42000.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("history", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("latest", "not_found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ticks.WithLabelValues("snapped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ticks.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sessions.WithLabelValues("active")))
	assert.Equal(t, 42000.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("BTC")))

	n, err := testutil.GatherAndCount(reg, "livechart_overlay_markers", "livechart_overlay_price_lines")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordersOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
