package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveChart/internal/domain/models"
	"LiveChart/internal/service/ratelimit"
	"LiveChart/internal/usecase"
	xlogger "LiveChart/pkg/logger"
)

type fakeController struct {
	state    usecase.State
	switched []models.Identity
	width    int
	hovered  []float64
	summary  *models.SignalSummary
	tip      models.Tooltip
}

func (f *fakeController) Snapshot() models.ChartSnapshot {
	return models.ChartSnapshot{State: string(f.state), Width: f.width, Candles: []models.Candle{{Time: 1, Close: 2}}}
}

func (f *fakeController) Switch(id models.Identity) error {
	if f.state != usecase.StateActive {
		return usecase.ErrNotMounted
	}
	f.switched = append(f.switched, id)
	return nil
}

func (f *fakeController) Hover(t float64) (models.Tooltip, error) {
	if f.state != usecase.StateActive {
		return models.Tooltip{}, usecase.ErrNotMounted
	}
	f.hovered = append(f.hovered, t)
	return f.tip, nil
}

func (f *fakeController) Resize(width int) { f.width = width }

func (f *fakeController) Summary() (models.SignalSummary, bool) {
	if f.summary == nil {
		return models.SignalSummary{}, false
	}
	return *f.summary, true
}

func (f *fakeController) State() usecase.State { return f.state }

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newEcho(ctrl ChartController, limit SessionLimit) *echo.Echo {
	e := echo.New()
	NewChartEchoHandler(ctrl, ratelimit.New(), limit, xlogger.Nop()).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "10.1.1.1:5000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestSnapshotRoute(t *testing.T) {
	e := newEcho(&fakeController{state: usecase.StateActive, width: 640}, SessionLimit{})

	code, env := do(t, e, http.MethodGet, "/api/chart", "")
	require.Equal(t, http.StatusOK, code)

	var snap models.ChartSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "active", snap.State)
	assert.Equal(t, 640, snap.Width)
	assert.Len(t, snap.Candles, 1)
}

func TestSwitchSessionAppliesDefaults(t *testing.T) {
	ctrl := &fakeController{state: usecase.StateActive}
	e := newEcho(ctrl, SessionLimit{})

	code, _ := do(t, e, http.MethodPut, "/api/chart/session", `{"symbol":" ETH ","strategy":"fvg"}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, ctrl.switched, 1)
	assert.Equal(t, models.Identity{
		Symbol:   "ETH",
		Interval: "1d",
		Source:   "YAHOO",
		Strategy: models.StrategyFVG,
		Period:   "1y",
	}, ctrl.switched[0])
}

func TestSwitchSessionUnknownStrategyIsNone(t *testing.T) {
	ctrl := &fakeController{state: usecase.StateActive}
	e := newEcho(ctrl, SessionLimit{})

	code, _ := do(t, e, http.MethodPut, "/api/chart/session", `{"symbol":"BTC","interval":"1h","strategy":"macd"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StrategyNone, ctrl.switched[0].Strategy)
	assert.Equal(t, "1h", ctrl.switched[0].Interval)
}

func TestSwitchSessionValidation(t *testing.T) {
	ctrl := &fakeController{state: usecase.StateActive}
	e := newEcho(ctrl, SessionLimit{})

	code, env := do(t, e, http.MethodPut, "/api/chart/session", `{"interval":"1d"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Data), "ERR_REQUIRED")
	assert.Empty(t, ctrl.switched)

	code, _ = do(t, e, http.MethodPut, "/api/chart/session", `{"symbol":"   "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, ctrl.switched)

	code, env = do(t, e, http.MethodPut, "/api/chart/session", `{"symbol":"BTC","interval":"1d&x=y"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Data), `"field":"interval"`)
	assert.Contains(t, string(env.Data), "ERR_TOKEN")
	assert.Empty(t, ctrl.switched)
}

func TestSwitchSessionNotMounted(t *testing.T) {
	e := newEcho(&fakeController{state: usecase.StateTornDown}, SessionLimit{})

	code, env := do(t, e, http.MethodPut, "/api/chart/session", `{"symbol":"BTC"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, string(env.Data), "ERR_UNAVAILABLE")
}

func TestSwitchSessionRateLimited(t *testing.T) {
	ctrl := &fakeController{state: usecase.StateActive}
	e := newEcho(ctrl, SessionLimit{Burst: 2, RefillPerSec: 0.001})

	for i := 0; i < 2; i++ {
		code, _ := do(t, e, http.MethodPut, "/api/chart/session", `{"symbol":"BTC"}`)
		require.Equal(t, http.StatusOK, code)
	}
	code, env := do(t, e, http.MethodPut, "/api/chart/session", `{"symbol":"ETH"}`)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, string(env.Data), "ERR_RATE_LIMITED")
	assert.Len(t, ctrl.switched, 2)
}

func TestTooltipRoute(t *testing.T) {
	sig := models.Signal{Name: "FVG", Type: models.SignalBullish, Price: 10, Timestamp: time.Unix(100, 0).UTC()}
	ctrl := &fakeController{state: usecase.StateActive, tip: models.Tooltip{Time: 100.5, Signal: &sig}}
	e := newEcho(ctrl, SessionLimit{})

	code, env := do(t, e, http.MethodGet, "/api/chart/tooltip?time=100.5", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []float64{100.5}, ctrl.hovered)

	var tip models.Tooltip
	require.NoError(t, json.Unmarshal(env.Data, &tip))
	require.NotNil(t, tip.Signal)
	assert.Equal(t, "FVG", tip.Signal.Name)

	code, _ = do(t, e, http.MethodGet, "/api/chart/tooltip?time=-1", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, e, http.MethodGet, "/api/chart/tooltip?time=abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []float64{100.5}, ctrl.hovered)
}

func TestTooltipRouteRequiresTime(t *testing.T) {
	ctrl := &fakeController{state: usecase.StateActive}
	e := newEcho(ctrl, SessionLimit{})

	code, env := do(t, e, http.MethodGet, "/api/chart/tooltip", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Data), "ERR_REQUIRED")
	assert.Contains(t, string(env.Data), `"field":"time"`)
	assert.Empty(t, ctrl.hovered)

	code, _ = do(t, e, http.MethodGet, "/api/chart/tooltip?time=0", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []float64{0}, ctrl.hovered)
}

func TestSummaryRoute(t *testing.T) {
	ctrl := &fakeController{state: usecase.StateActive}
	e := newEcho(ctrl, SessionLimit{})

	code, _ := do(t, e, http.MethodGet, "/api/chart/summary", "")
	assert.Equal(t, http.StatusNotFound, code)

	ctrl.summary = &models.SignalSummary{Strategy: models.StrategyRBD, Name: "RBD", Type: models.SignalBearish, Price: 9, Count: 3}
	code, env := do(t, e, http.MethodGet, "/api/chart/summary", "")
	require.Equal(t, http.StatusOK, code)

	var sum models.SignalSummary
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, 3, sum.Count)
	assert.Equal(t, models.SignalBearish, sum.Type)
}

func TestResizeRoute(t *testing.T) {
	ctrl := &fakeController{state: usecase.StateActive, width: 800}
	e := newEcho(ctrl, SessionLimit{})

	code, _ := do(t, e, http.MethodPost, "/api/chart/resize", `{"width":1024}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1024, ctrl.width)

	code, _ = do(t, e, http.MethodPost, "/api/chart/resize", `{"width":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 1024, ctrl.width)
}
