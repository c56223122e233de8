package marketapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveChart/internal/domain/models"
	"LiveChart/internal/domain/repository"
)

type fetchRecord struct {
	endpoint, result string
}

type recordingMetrics struct {
	mu      sync.Mutex
	fetches []fetchRecord
}

func (m *recordingMetrics) RecordFetch(endpoint, result string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, fetchRecord{endpoint, result})
}
func (m *recordingMetrics) RecordTick(string) {}
func (m *recordingMetrics) RecordOverlay(string, int, int) {}
func (m *recordingMetrics) RecordSession(string) {}
func (m *recordingMetrics) RecordLastPrice(string, float64) {}

var btc = repository.HistoryQuery{Symbol: "BTC", Interval: "1d", Source: "YAHOO", Period: "1y"}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *recordingMetrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := &recordingMetrics{}
	return New(srv.URL+"/", m, append([]Option{WithHTTPClient(srv.Client())}, opts...)...), m
}

func TestHistory(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/history/BTC", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "YAHOO", r.URL.Query().Get("source"))
		assert.Equal(t, "1y", r.URL.Query().Get("period"))
		_, _ = w.Write([]byte(`[
			{"timestamp":"2024-01-01T00:00:00","open":1,"high":2,"low":0.5,"close":1.5,"volume":10},
			{"timestamp":"2024-01-02T00:00:00+00:00","open":1.5,"high":3,"low":1,"close":2.5},
			{"timestamp":"garbage","open":9,"high":9,"low":9,"close":9}
		]`))
	})

	candles, err := c.History(context.Background(), btc)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, models.Candle{Time: 1704067200, Open: 1, High: 2, Low: 0.5, Close: 1.5}, candles[0])
	assert.Equal(t, int64(1704153600), candles[1].Time)
	assert.Equal(t, []fetchRecord{{EndpointHistory, "ok"}}, m.fetches)
}

func TestHistoryEscapesSymbol(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/history/BRK%2FB", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`[]`))
	})

	q := btc
	q.Symbol = "BRK/B"
	candles, err := c.History(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestHistoryNon2xx(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.History(context.Background(), btc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
	assert.Equal(t, []fetchRecord{{EndpointHistory, "error"}}, m.fetches)
}

func TestHistoryRetriesServerErrors(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "warming up", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"timestamp":"2024-01-01","open":1,"high":1,"low":1,"close":1}]`))
	}, WithRetry(3))

	candles, err := c.History(context.Background(), btc)
	require.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHistoryDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad", http.StatusBadRequest)
	}, WithRetry(3))

	_, err := c.History(context.Background(), btc)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLatest(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/latest/BTC", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "YAHOO", r.URL.Query().Get("source"))
		assert.Equal(t, "1700000000000", r.URL.Query().Get("_t"))
		assert.Empty(t, r.URL.Query().Get("period"))
		_, _ = w.Write([]byte(`{"timestamp":"2024-01-02T00:00:00Z","open":1,"high":2,"low":0.5,"close":1.75,"volume":3}`))
	})
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	tick, err := c.Latest(context.Background(), models.FeedKey{Symbol: "BTC", Interval: "1d", Source: "YAHOO"})
	require.NoError(t, err)
	assert.Equal(t, models.Tick{Time: 1704153600, Open: 1, High: 2, Low: 0.5, Close: 1.75, Price: 1.75}, tick)
}

func TestLatestNotFound(t *testing.T) {
	key := models.FeedKey{Symbol: "ZZZ", Interval: "1d", Source: "YAHOO"}

	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.Latest(context.Background(), key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []fetchRecord{{EndpointLatest, "not_found"}}, m.fetches)

	c, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	_, err = c.Latest(context.Background(), key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSignals(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/strategy/volume_surprise/BTC", r.URL.Path)
		assert.Equal(t, "1y", r.URL.Query().Get("period"))
		_, _ = w.Write([]byte(`[
			{"name":"VS","timestamp":"2024-01-01T00:00:00","type":"BULLISH","price":42,"metadata":{"volume_ratio":2.5,"sl":40,"tp":50}}
		]`))
	})

	sigs, err := c.Signals(context.Background(), models.StrategyVolumeSurprise, btc)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, int64(1704067200), sigs[0].Unix())
	ratio, ok := sigs[0].VolumeRatio()
	require.True(t, ok)
	assert.Equal(t, 2.5, ratio)
	assert.Equal(t, []fetchRecord{{EndpointStrategy, "ok"}}, m.fetches)

	none, err := c.Signals(context.Background(), models.StrategyNone, btc)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Len(t, m.fetches, 1)
}

func TestVolumeProfile(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/indicator/volume_surprise/BTC", r.URL.Path)
		_, _ = w.Write([]byte(`[{"timestamp":"2024-01-01T00:00:00","volume":300,"expected_volume":100,"is_bullish":true}]`))
	})

	pts, err := c.VolumeProfile(context.Background(), btc)
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, models.VolumePoint{Time: 1704067200, Volume: 300, ExpectedVolume: 100, IsBullish: true}, pts[0])
	assert.True(t, pts[0].IsSurprise())
}

func TestCanceledFetch(t *testing.T) {
	release := make(chan struct{})
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.History(ctx, btc)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []fetchRecord{{EndpointHistory, "canceled"}}, m.fetches)
}
