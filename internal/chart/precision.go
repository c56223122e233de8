package chart

import "LiveChart/internal/domain/models"

// DefaultPriceFormat is applied when a series is created, before any history is known.
var DefaultPriceFormat = models.PrecisionProfile{Precision: 2, MinMove: 0.01}

// SelectPrecision maps the latest close to a display precision.
// Boundary values 1 and 1000 belong to the upper bracket.
func SelectPrecision(lastClose float64) models.PrecisionProfile {
	switch {
	case lastClose < 1:
		return models.PrecisionProfile{Precision: 6, MinMove: 0.000001}
	case lastClose < 1000:
		return models.PrecisionProfile{Precision: 4, MinMove: 0.0001}
	default:
		return models.PrecisionProfile{Precision: 2, MinMove: 0.01}
	}
}
