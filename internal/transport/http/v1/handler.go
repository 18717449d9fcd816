// Package v1 provides the dashboard's HTTP handlers.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/nexusdesk/internal/policy"
	"github.com/xiaot623/nexusdesk/internal/service"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the dashboard API with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Sessions
	e.GET("/api/sessions", h.ListSessions)
	e.POST("/api/sessions", h.CreateSession)
	e.GET("/api/sessions/count", h.CountSessions)
	e.DELETE("/api/sessions", h.ClearSessions)
	e.DELETE("/api/sessions/:sessionId", h.DeleteSession)
	e.PUT("/api/sessions/:sessionId/title", h.RenameSession)

	// Tickets
	e.GET("/api/tickets", h.ListTickets)
	e.POST("/api/tickets", h.CreateTicket)
	e.GET("/api/tickets/:ticketId", h.GetTicket)
	e.POST("/api/tickets/:ticketId/status", h.UpdateTicketStatus)
	e.POST("/api/tickets/:ticketId/comments", h.AddComment)

	// Profile and billing
	e.GET("/api/user/profile", h.GetProfile)
	e.POST("/api/user/profile", h.UpdateProfile)
	e.POST("/api/stripe/create-checkout-session", h.CreateCheckoutSession)

	e.GET("/api/analytics", h.GetAnalytics)
	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Success: false, Error: message})
}

// failErr maps a service error to a response. Policy violations are
// the caller's fault; everything else is reported without detail.
func failErr(c echo.Context, err error) error {
	var v *policy.Violation
	if errors.As(err, &v) {
		return fail(c, http.StatusBadRequest, v.Message)
	}
	log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
	return fail(c, http.StatusInternalServerError, "Internal server error")
}
