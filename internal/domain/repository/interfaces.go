package repository

import (
	"context"

	"LiveChart/internal/domain/models"
)

// HistoryQuery addresses /api/history and the strategy/indicator endpoints.
type HistoryQuery struct {
	Symbol   string
	Interval string
	Source   string
	Period   string
}

// MarketData is the read-only backend that computes candles and signals.
type MarketData interface {
	History(ctx context.Context, q HistoryQuery) ([]models.Candle, error)
	Latest(ctx context.Context, key models.FeedKey) (models.Tick, error)
	Signals(ctx context.Context, strategy models.Strategy, q HistoryQuery) ([]models.Signal, error)
	VolumeProfile(ctx context.Context, q HistoryQuery) ([]models.VolumePoint, error)
}

// EventSink receives chart events for downstream consumers.
type EventSink interface {
	Publish(ctx context.Context, ev models.ChartEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(endpoint, result string, seconds float64)
	RecordTick(outcome string)
	RecordOverlay(strategy string, markers, lines int)
	RecordSession(transition string)
	RecordLastPrice(symbol string, price float64)
}

// QueryFor builds the history query of an identity.
func QueryFor(id models.Identity) HistoryQuery {
	return HistoryQuery{Symbol: id.Symbol, Interval: id.Interval, Source: id.Source, Period: id.Period}
}
