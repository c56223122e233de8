package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"LiveChart/internal/domain/models"
	"LiveChart/internal/service/ratelimit"
	"LiveChart/internal/usecase"
	xhttp "LiveChart/pkg/http"
	xlogger "LiveChart/pkg/logger"
)

// ChartController is the part of the lifecycle controller the HTTP surface
// drives.
type ChartController interface {
	Snapshot() models.ChartSnapshot
	Switch(id models.Identity) error
	Hover(t float64) (models.Tooltip, error)
	Resize(width int)
	Summary() (models.SignalSummary, bool)
	State() usecase.State
}

// SessionLimit is the token bucket applied per remote address to identity
// switches.
type SessionLimit struct {
	Burst        float64
	RefillPerSec float64
}

// ChartEchoHandler serves the chart snapshot and its inputs.
type ChartEchoHandler struct {
	ctrl   ChartController
	rl     *ratelimit.Limiter
	limit  SessionLimit
	logger *xlogger.Logger
}

func NewChartEchoHandler(ctrl ChartController, rl *ratelimit.Limiter, limit SessionLimit, logger *xlogger.Logger) *ChartEchoHandler {
	if rl == nil {
		rl = ratelimit.New()
	}
	return &ChartEchoHandler{ctrl: ctrl, rl: rl, limit: limit, logger: logger}
}

func (h *ChartEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/chart")
	g.GET("", h.Snapshot)
	g.PUT("/session", h.SwitchSession)
	g.GET("/tooltip", h.Tooltip)
	g.GET("/summary", h.Summary)
	g.POST("/resize", h.Resize)
}

func (h *ChartEchoHandler) Snapshot(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.ctrl.Snapshot())
}

// SwitchSession rebuilds the chart for the requested identity.
func (h *ChartEchoHandler) SwitchSession(c echo.Context) error {
	if h.limit.Burst > 0 && !h.rl.Allow(c.RealIP()+":session", h.limit.Burst, h.limit.RefillPerSec) {
		h.logger.Warn("chart session switch rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many session switches"))
	}

	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	id := req.Identity()
	if id.Symbol == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("Symbol is required"))
	}

	if err := h.ctrl.Switch(id); err != nil {
		if errors.Is(err, usecase.ErrNotMounted) {
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("chart is not mounted"))
		}
		h.logger.Error("chart session switch failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("switch failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"identity": id,
		"state":    h.ctrl.State(),
	})
}

// Tooltip resolves the signal under a hovered time.
func (h *ChartEchoHandler) Tooltip(c echo.Context) error {
	req := &models.TooltipRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	tip, err := h.ctrl.Hover(*req.Time)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("chart is not mounted"))
	}
	return xhttp.SuccessResponse(c, tip)
}

func (h *ChartEchoHandler) Summary(c echo.Context) error {
	sum, ok := h.ctrl.Summary()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no signals for the active chart"))
	}
	return xhttp.SuccessResponse(c, sum)
}

// Resize is the window-resize input.
func (h *ChartEchoHandler) Resize(c echo.Context) error {
	req := &models.ResizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.ctrl.Resize(req.Width)
	return xhttp.SuccessResponse(c, map[string]int{"width": req.Width})
}
