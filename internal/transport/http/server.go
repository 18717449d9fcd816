// Package http provides the HTTP server for the dashboard API.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/xiaot623/nexusdesk/internal/logger"
	"github.com/xiaot623/nexusdesk/internal/metrics"
	"github.com/xiaot623/nexusdesk/internal/service"
	v1 "github.com/xiaot623/nexusdesk/internal/transport/http/v1"
	"github.com/xiaot623/nexusdesk/internal/transport/ws"
)

// NewServer creates and configures the HTTP server. chat may be nil to
// run without the websocket endpoint.
func NewServer(svc *service.Service, chat *ws.Server, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(logger.AccessLog(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	if chat != nil {
		chat.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return e
}
