package chart

import (
	"math"

	"LiveChart/internal/domain/models"
)

// HoverTolerance is the max distance in seconds between a hover and a signal.
const HoverTolerance = 1.0

// SignalIndex caches the last fetched signal list of a session.
type SignalIndex struct {
	signals []models.Signal
}

// Replace swaps in a freshly fetched list. The order is kept as fetched.
func (x *SignalIndex) Replace(signals []models.Signal) {
	x.signals = append([]models.Signal{}, signals...)
}

// FindNearest returns the signal within one second of t. When several
// qualify, the closest wins and equal distances resolve to the later one.
func (x *SignalIndex) FindNearest(t float64) (models.Signal, bool) {
	best := -1
	bestDelta := math.Inf(1)
	for i, sig := range x.signals {
		delta := math.Abs(seconds(sig) - t)
		if delta > HoverTolerance {
			continue
		}
		if best < 0 || delta < bestDelta ||
			(delta == bestDelta && sig.Timestamp.After(x.signals[best].Timestamp)) {
			best, bestDelta = i, delta
		}
	}
	if best < 0 {
		return models.Signal{}, false
	}
	return x.signals[best], true
}

// Latest is the last element as fetched.
func (x *SignalIndex) Latest() (models.Signal, bool) {
	if len(x.signals) == 0 {
		return models.Signal{}, false
	}
	return x.signals[len(x.signals)-1], true
}

func (x *SignalIndex) Len() int { return len(x.signals) }

// Signals returns a copy of the cached list.
func (x *SignalIndex) Signals() []models.Signal {
	return append([]models.Signal{}, x.signals...)
}

func seconds(sig models.Signal) float64 {
	return float64(sig.Timestamp.UnixNano()) / 1e9
}
