package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ChartMethods are the verbs the chart API answers to.
var ChartMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}

// CORS lets browser dashboards on other origins drive the chart API. An empty
// origin list allows any origin.
func CORS(origins []string, methods ...string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	if len(methods) == 0 {
		methods = ChartMethods
	}
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: methods,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       600,
	})
}
