// Package marketapi reads candles, strategy signals and volume profiles from
// the charting backend's REST API.
package marketapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"LiveChart/internal/domain/models"
	"LiveChart/internal/domain/repository"
	xhttp "LiveChart/pkg/http"
	"LiveChart/pkg/util"
)

// ErrNotFound is returned by Latest when the backend has no bar for the feed.
var ErrNotFound = errors.New("marketapi: not found")

// Fetch endpoints as reported to metrics.
const (
	EndpointHistory  = "history"
	EndpointLatest   = "latest"
	EndpointStrategy = "strategy"
	EndpointVolume   = "volume_surprise"
)

// Option configures Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRetry sets attempts for history, strategy and indicator reads.
// Latest is never retried; the next poll is the retry.
func WithRetry(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// Client implements repository.MarketData over HTTP.
type Client struct {
	baseURL  string
	client   *xhttp.Client
	hc       *http.Client
	timeout  time.Duration
	attempts int
	metrics  repository.Metrics
	now      func() time.Time
}

// New builds a client for baseURL. A trailing slash on baseURL is ignored.
func New(baseURL string, metrics repository.Metrics, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		attempts: 1,
		metrics:  metrics,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	httpOpts := []xhttp.ClientOption{xhttp.WithTimeout(c.timeout), xhttp.WithUserAgent("livechart")}
	if c.hc != nil {
		httpOpts = append(httpOpts, xhttp.WithHTTPClient(c.hc))
	}
	c.client = xhttp.NewClient(httpOpts...)
	return c
}

type barWire struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Open      float64         `json:"open"`
	High      float64         `json:"high"`
	Low       float64         `json:"low"`
	Close     float64         `json:"close"`
	Price     *float64        `json:"price"`
}

type signalWire struct {
	Name      string          `json:"name"`
	Timestamp json.RawMessage `json:"timestamp"`
	Type      string          `json:"type"`
	Price     float64         `json:"price"`
	Metadata  json.RawMessage `json:"metadata"`
}

type volumeWire struct {
	Timestamp      json.RawMessage `json:"timestamp"`
	Volume         float64         `json:"volume"`
	ExpectedVolume float64         `json:"expected_volume"`
	IsBullish      bool            `json:"is_bullish"`
}

// History returns the ordered candles of q. Rows with unreadable timestamps
// are skipped.
func (c *Client) History(ctx context.Context, q repository.HistoryQuery) ([]models.Candle, error) {
	var rows []barWire
	if err := c.get(ctx, EndpointHistory, "/api/history/"+url.PathEscape(q.Symbol), historyParams(q), c.attempts, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		t, ok := parseStamp(r.Timestamp)
		if !ok {
			continue
		}
		out = append(out, models.Candle{Time: t.Unix(), Open: r.Open, High: r.High, Low: r.Low, Close: r.Close})
	}
	return out, nil
}

// Latest returns the most recent bar of key. A cache-busting _t parameter is
// sent with every call.
func (c *Client) Latest(ctx context.Context, key models.FeedKey) (models.Tick, error) {
	params := url.Values{
		"interval": {key.Interval},
		"source":   {key.Source},
		"_t":       {strconv.FormatInt(c.now().UnixMilli(), 10)},
	}

	var row *barWire
	err := c.get(ctx, EndpointLatest, "/api/latest/"+url.PathEscape(key.Symbol), params, 1, &row)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return models.Tick{}, fmt.Errorf("latest %s: %w", key.Symbol, ErrNotFound)
		}
		return models.Tick{}, err
	}
	if row == nil {
		return models.Tick{}, fmt.Errorf("latest %s: %w", key.Symbol, ErrNotFound)
	}

	t, ok := parseStamp(row.Timestamp)
	if !ok {
		return models.Tick{}, fmt.Errorf("latest %s: bad timestamp %s", key.Symbol, row.Timestamp)
	}
	price := row.Close
	if row.Price != nil {
		price = *row.Price
	}
	return models.Tick{Time: t.Unix(), Open: row.Open, High: row.High, Low: row.Low, Close: row.Close, Price: price}, nil
}

// Signals returns the strategy signals of q. NONE yields no request and no
// signals.
func (c *Client) Signals(ctx context.Context, strategy models.Strategy, q repository.HistoryQuery) ([]models.Signal, error) {
	if !strategy.Enabled() {
		return nil, nil
	}

	var rows []signalWire
	path := "/api/strategy/" + strategy.Slug() + "/" + url.PathEscape(q.Symbol)
	if err := c.get(ctx, EndpointStrategy, path, historyParams(q), c.attempts, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Signal, 0, len(rows))
	for _, r := range rows {
		t, ok := parseStamp(r.Timestamp)
		if !ok {
			continue
		}
		out = append(out, models.Signal{Name: r.Name, Timestamp: t, Type: r.Type, Price: r.Price, Metadata: r.Metadata})
	}
	return out, nil
}

// VolumeProfile returns the volume-surprise indicator rows of q.
func (c *Client) VolumeProfile(ctx context.Context, q repository.HistoryQuery) ([]models.VolumePoint, error) {
	var rows []volumeWire
	if err := c.get(ctx, EndpointVolume, "/api/indicator/volume_surprise/"+url.PathEscape(q.Symbol), historyParams(q), c.attempts, &rows); err != nil {
		return nil, err
	}

	out := make([]models.VolumePoint, 0, len(rows))
	for _, r := range rows {
		t, ok := parseStamp(r.Timestamp)
		if !ok {
			continue
		}
		out = append(out, models.VolumePoint{
			Time:           t.Unix(),
			Volume:         r.Volume,
			ExpectedVolume: r.ExpectedVolume,
			IsBullish:      r.IsBullish,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, attempts int, dest interface{}) error {
	start := time.Now()
	err := c.getWithRetry(ctx, path, params, attempts, dest)
	if c.metrics != nil {
		c.metrics.RecordFetch(endpoint, fetchResult(err), time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

func (c *Client) getWithRetry(ctx context.Context, path string, params url.Values, attempts int, dest interface{}) error {
	var err error
	for i := 1; i <= attempts; i++ {
		err = c.client.GetJSON(ctx, c.baseURL+path, params, dest)
		if err == nil || !retryable(err) || i == attempts {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// retryable is false for 4xx answers other than 429 and for cancelled contexts.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

func fetchResult(err error) string {
	var se *xhttp.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func historyParams(q repository.HistoryQuery) url.Values {
	return url.Values{
		"interval": {q.Interval},
		"source":   {q.Source},
		"period":   {q.Period},
	}
}

// parseStamp accepts ISO strings with or without zone and numeric unix seconds.
func parseStamp(raw json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	return util.ParseTime(s)
}
