package chart

import "LiveChart/internal/domain/models"

// PriceLineID is the handle of a drawn price line.
type PriceLineID int

// SeriesOptions places a secondary series on its own price scale.
type SeriesOptions struct {
	PriceScaleID string
	Margins      models.ScaleMargins
	Color        string
}

// CandleSeries is the main price series of a chart.
type CandleSeries interface {
	SetData(candles []models.Candle)
	Update(c models.Candle)
	ApplyPriceFormat(p models.PrecisionProfile)
	SetMarkers(markers []models.Marker)
	CreatePriceLine(line models.PriceLine) PriceLineID
	RemovePriceLine(id PriceLineID)
}

type HistogramSeries interface {
	SetData(bars []models.HistogramBar)
}

type LineSeries interface {
	SetData(points []models.LinePoint)
}

// Surface is what a chart session draws on. Calls after Remove are ignored.
type Surface interface {
	AddCandlestickSeries() CandleSeries
	AddHistogramSeries(id string, opts SeriesOptions) HistogramSeries
	AddLineSeries(id string, opts SeriesOptions) LineSeries
	RemoveSeries(id string)
	ApplyWidth(width int)
	FitContent()
	SubscribeCrosshairMove(fn func(t float64)) (unsubscribe func())
	Remove()
}
