package chart

import (
	"errors"

	"LiveChart/internal/domain/models"
)

// ErrStaleTick is returned for a tick that would open a bar before the last stored one.
var ErrStaleTick = errors.New("chart: stale tick")

// Merge outcomes, also used as metric labels.
const (
	OutcomeFirst    = "first"
	OutcomeSnapped  = "snapped"
	OutcomeAppended = "appended"
	OutcomeStale    = "stale"
)

const (
	day          = int64(86400)
	intradaySnap = int64(60)
)

// BucketTolerance returns the snap window in seconds for an interval token.
// Anything that is not daily or longer is treated as intraday.
func BucketTolerance(interval string) int64 {
	switch interval {
	case "1wk":
		return 4 * day
	case "1d":
		return 12 * 3600
	case "1mo":
		return 15 * day
	default:
		return intradaySnap
	}
}

// MergeTick decides where a tick lands relative to the last stored bar.
// With no last bar the tick is taken as is. Ticks within the tolerance
// window snap onto last.Time; others start a bar at their own time unless
// that would be earlier than last, which yields ErrStaleTick.
func MergeTick(last *models.Candle, tick models.Tick, interval string) (models.Candle, string, error) {
	if last == nil {
		return tick.Candle(tick.Time), OutcomeFirst, nil
	}

	diff := tick.Time - last.Time
	if diff < 0 {
		diff = -diff
	}
	if diff < BucketTolerance(interval) {
		return tick.Candle(last.Time), OutcomeSnapped, nil
	}
	if tick.Time < last.Time {
		return models.Candle{}, OutcomeStale, ErrStaleTick
	}
	return tick.Candle(tick.Time), OutcomeAppended, nil
}
