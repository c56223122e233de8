package middleware

import (
	"math"
	"sync"
	"testing"

	"LiveChart/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	mu    sync.Mutex
	ticks map[string]int
}

func (m *countingMetrics) RecordFetch(string, string, float64) {}
func (m *countingMetrics) RecordOverlay(string, int, int) {}
func (m *countingMetrics) RecordSession(string) {}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordTick(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticks == nil {
		m.ticks = map[string]int{}
	}
	m.ticks[outcome]++
}

var key = models.FeedKey{Symbol: "BTC", Interval: "1m", Source: "YAHOO"}

func TestTickGuard_Validation(t *testing.T) {
	m := &countingMetrics{}
	g := NewTickGuard(m)

	_, err := g.Check(key, models.Tick{Time: 0, Close: 1})
	assert.ErrorIs(t, err, ErrInvalidTick)
	_, err = g.Check(key, models.Tick{Time: 10, Close: -1})
	assert.ErrorIs(t, err, ErrInvalidTick)
	_, err = g.Check(key, models.Tick{Time: 10, High: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidTick)

	got, err := g.Check(key, models.Tick{Time: 10, Open: 1, High: 2, Low: 1, Close: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Close)
	assert.Equal(t, 3, m.ticks["invalid"])
}

func TestTickGuard_Throttle(t *testing.T) {
	m := &countingMetrics{}
	g := NewTickGuard(m, WithMaxRPS(1))

	_, err := g.Check(key, models.Tick{Time: 1})
	require.NoError(t, err)
	_, err = g.Check(key, models.Tick{Time: 2})
	assert.ErrorIs(t, err, ErrThrottled)

	other := models.FeedKey{Symbol: "ETH", Interval: "1m", Source: "YAHOO"}
	_, err = g.Check(other, models.Tick{Time: 2})
	assert.NoError(t, err, "throttle is per feed")
}

func TestTickGuard_Forget(t *testing.T) {
	g := NewTickGuard(&countingMetrics{}, WithMaxRPS(1))
	tick := models.Tick{Time: 1, Close: 5}

	_, err := g.Check(key, tick)
	require.NoError(t, err)
	_, err = g.Check(key, tick)
	require.ErrorIs(t, err, ErrThrottled)

	g.Forget(key)
	_, err = g.Check(key, tick)
	assert.NoError(t, err, "a forgotten feed starts unthrottled")
	g.Forget(models.FeedKey{Symbol: "unknown"})
}
