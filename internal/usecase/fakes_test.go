package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"LiveChart/internal/chart"
	"LiveChart/internal/domain/models"
	drepo "LiveChart/internal/domain/repository"
	mid "LiveChart/internal/middleware"
	applogger "LiveChart/pkg/logger"
)

var errBackend = errors.New("backend down")

type fakeMarket struct {
	mu         sync.Mutex
	history    map[string][]models.Candle
	historyErr error
	gate       map[string]chan struct{}
	signals    []models.Signal
	signalsErr error
	volume     []models.VolumePoint
	latest     models.Tick
	latestErr  error
	latestKeys []models.FeedKey
	calls      []string
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{history: map[string][]models.Candle{}, gate: map[string]chan struct{}{}}
}

func (f *fakeMarket) History(ctx context.Context, q drepo.HistoryQuery) ([]models.Candle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "history:"+q.Symbol)
	gate := f.gate[q.Symbol]
	candles, err := f.history[q.Symbol], f.historyErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return candles, err
}

func (f *fakeMarket) Latest(_ context.Context, key models.FeedKey) (models.Tick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestKeys = append(f.latestKeys, key)
	return f.latest, f.latestErr
}

func (f *fakeMarket) Signals(_ context.Context, s models.Strategy, q drepo.HistoryQuery) ([]models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "signals:"+s.Slug())
	return f.signals, f.signalsErr
}

func (f *fakeMarket) VolumeProfile(_ context.Context, q drepo.HistoryQuery) ([]models.VolumePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "volume")
	return f.volume, nil
}

func (f *fakeMarket) setLatest(t models.Tick) {
	f.mu.Lock()
	f.latest = t
	f.mu.Unlock()
}

func (f *fakeMarket) polledKeys() []models.FeedKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FeedKey{}, f.latestKeys...)
}

func (f *fakeMarket) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, float64) {}
func (nopMetrics) RecordTick(string) {}
func (nopMetrics) RecordOverlay(string, int, int) {}
func (nopMetrics) RecordSession(string) {}
func (nopMetrics) RecordLastPrice(string, float64) {}

type memorySink struct {
	mu     sync.Mutex
	events []models.ChartEvent
	closed bool
	late   int
}

func (s *memorySink) Publish(_ context.Context, ev models.ChartEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.late++
		return errors.New("sink closed")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *memorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memorySink) lateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.late
}

// sessionTrail lists session events as "<session id>/<state>".
func (s *memorySink) sessionTrail() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ev := range s.events {
		if ev.Kind == models.EventSession {
			out = append(out, ev.SessionID+"/"+ev.State)
		}
	}
	return out
}

func (s *memorySink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newController(data drepo.MarketData, cadence time.Duration) (*ChartLifecycleController, *LivePoller, *memorySink) {
	l := applogger.Nop()
	poller := NewLivePoller(data, mid.NewTickGuard(nopMetrics{}), l, cadence)
	sink := &memorySink{}
	return NewChartLifecycleController(data, poller, sink, nopMetrics{}, l, chart.DefaultOptions()), poller, sink
}

func fvgSignal(ts int64, top, bottom float64) models.Signal {
	meta, _ := json.Marshal(map[string]float64{"fvg_top": top, "fvg_bottom": bottom, "mid_price": (top + bottom) / 2})
	return models.Signal{
		Name:      "FVG",
		Timestamp: time.Unix(ts, 0).UTC(),
		Type:      models.SignalBullish,
		Price:     bottom,
		Metadata:  meta,
	}
}
