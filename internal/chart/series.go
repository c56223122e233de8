package chart

import (
	"fmt"
	"sort"

	"LiveChart/internal/domain/models"
)

// SeriesStore owns the ordered candle sequence of one chart session and
// mirrors it onto the candlestick series. Not safe for concurrent use; the
// owning session serializes access.
type SeriesStore struct {
	surface  Surface
	series   CandleSeries
	interval string
	candles  []models.Candle
	format   models.PrecisionProfile
}

// NewSeriesStore binds a store to a series drawn on surface.
func NewSeriesStore(surface Surface, series CandleSeries, interval string) *SeriesStore {
	return &SeriesStore{
		surface:  surface,
		series:   series,
		interval: interval,
		format:   DefaultPriceFormat,
	}
}

// LoadHistory replaces the whole series. Input order is not trusted: the
// bars are sorted ascending and duplicate times collapse to the last
// occurrence. Precision is derived once from the last close.
func (s *SeriesStore) LoadHistory(candles []models.Candle) {
	s.candles = normalize(candles)
	s.series.SetData(s.candles)

	if n := len(s.candles); n > 0 {
		s.format = SelectPrecision(s.candles[n-1].Close)
		s.series.ApplyPriceFormat(s.format)
	}
	s.surface.FitContent()
}

// ApplyLiveTick merges a tick into the forming bar or appends a new bar.
// The returned candle is what was drawn.
func (s *SeriesStore) ApplyLiveTick(tick models.Tick) (models.Candle, string, error) {
	var last *models.Candle
	if n := len(s.candles); n > 0 {
		last = &s.candles[n-1]
	}

	bar, outcome, err := MergeTick(last, tick, s.interval)
	if err != nil {
		return models.Candle{}, outcome, fmt.Errorf("merge tick at %d: %w", tick.Time, err)
	}

	if outcome == OutcomeSnapped {
		*last = bar
	} else {
		s.candles = append(s.candles, bar)
	}
	s.series.Update(bar)
	return bar, outcome, nil
}

// Candles returns a copy of the stored sequence.
func (s *SeriesStore) Candles() []models.Candle {
	return append([]models.Candle{}, s.candles...)
}

func (s *SeriesStore) Len() int { return len(s.candles) }

// Last returns the most recent bar.
func (s *SeriesStore) Last() (models.Candle, bool) {
	if len(s.candles) == 0 {
		return models.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// PriceFormat is the precision applied at history load.
func (s *SeriesStore) PriceFormat() models.PrecisionProfile { return s.format }

func normalize(in []models.Candle) []models.Candle {
	out := append([]models.Candle{}, in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })

	dedup := out[:0]
	for _, c := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Time == c.Time {
			dedup[n-1] = c
			continue
		}
		dedup = append(dedup, c)
	}
	return dedup
}
