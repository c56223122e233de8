package api

import (
	"github.com/labstack/echo/v4"

	"LiveChart/internal/usecase"
	xhttp "LiveChart/pkg/http"
)

type viewerCounter interface {
	ClientCount() int
}

// Health serves /healthz. It answers 503 until a chart is mounted so a
// load balancer keeps traffic away from an instance that cannot serve.
func Health(ctrl ChartController, viewers viewerCounter) xhttp.Handler {
	return xhttp.HandlerFunc(func(e *echo.Echo) {
		e.GET("/healthz", func(c echo.Context) error {
			state := ctrl.State()
			if state != usecase.StateActive {
				return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("chart is not mounted"))
			}
			body := map[string]interface{}{"state": state}
			if viewers != nil {
				body["viewers"] = viewers.ClientCount()
			}
			return xhttp.SuccessResponse(c, body)
		})
	})
}
