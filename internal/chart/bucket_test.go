package chart

import (
	"testing"

	"LiveChart/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tickAt(ts int64, close float64) models.Tick {
	return models.Tick{Time: ts, Open: close, High: close, Low: close, Close: close, Price: close}
}

func TestBucketTolerance(t *testing.T) {
	assert.Equal(t, int64(4*86400), BucketTolerance("1wk"))
	assert.Equal(t, int64(12*3600), BucketTolerance("1d"))
	assert.Equal(t, int64(15*86400), BucketTolerance("1mo"))
	for _, iv := range []string{"1m", "5m", "15m", "1h", ""} {
		assert.Equal(t, int64(60), BucketTolerance(iv), iv)
	}
}

func TestMergeTick_Daily(t *testing.T) {
	last := &models.Candle{Time: 1_700_000_000, Close: 10}

	bar, outcome, err := MergeTick(last, tickAt(last.Time+6*3600, 11), "1d")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSnapped, outcome)
	assert.Equal(t, last.Time, bar.Time)
	assert.Equal(t, 11.0, bar.Close)

	bar, outcome, err = MergeTick(last, tickAt(last.Time+13*3600, 12), "1d")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAppended, outcome)
	assert.Equal(t, last.Time+13*3600, bar.Time)
}

func TestMergeTick_Intraday(t *testing.T) {
	last := &models.Candle{Time: 1_700_000_000}

	bar, outcome, err := MergeTick(last, tickAt(last.Time+30, 1), "1h")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSnapped, outcome)
	assert.Equal(t, last.Time, bar.Time)

	bar, outcome, err = MergeTick(last, tickAt(last.Time+90, 1), "1h")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAppended, outcome)
	assert.Equal(t, last.Time+90, bar.Time)
}

func TestMergeTick_ExactThresholdStartsNewBar(t *testing.T) {
	last := &models.Candle{Time: 1000}
	_, outcome, err := MergeTick(last, tickAt(1060, 1), "5m")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAppended, outcome)
}

func TestMergeTick_Empty(t *testing.T) {
	bar, outcome, err := MergeTick(nil, tickAt(12345, 3), "1d")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFirst, outcome)
	assert.Equal(t, int64(12345), bar.Time)
}

func TestMergeTick_SkewBackwardsSnaps(t *testing.T) {
	last := &models.Candle{Time: 1_700_000_000}
	bar, outcome, err := MergeTick(last, tickAt(last.Time-3600, 5), "1d")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSnapped, outcome)
	assert.Equal(t, last.Time, bar.Time)
}

func TestMergeTick_Stale(t *testing.T) {
	last := &models.Candle{Time: 1_700_000_000}
	_, outcome, err := MergeTick(last, tickAt(last.Time-120, 5), "1m")
	assert.ErrorIs(t, err, ErrStaleTick)
	assert.Equal(t, OutcomeStale, outcome)
}
