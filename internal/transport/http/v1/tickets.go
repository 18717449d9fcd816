package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/nexusdesk/internal/service"
)

// ListTickets lists every ticket.
// GET /api/tickets
func (h *Handler) ListTickets(c echo.Context) error {
	tickets, err := h.service.ListTickets(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, tickets)
}

// GetTicket returns one ticket.
// GET /api/tickets/:ticketId
func (h *Handler) GetTicket(c echo.Context) error {
	t, err := h.service.GetTicket(c.Request().Context(), c.Param("ticketId"))
	if err != nil {
		return failErr(c, err)
	}
	if t == nil {
		return fail(c, http.StatusNotFound, "Ticket not found")
	}
	return ok(c, http.StatusOK, t)
}

// CreateTicket classifies and files a ticket.
// POST /api/tickets
func (h *Handler) CreateTicket(c echo.Context) error {
	var req service.CreateTicketRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	t, err := h.service.CreateTicket(c.Request().Context(), req)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusCreated, t)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTicketStatus changes a ticket's status.
// POST /api/tickets/:ticketId/status
func (h *Handler) UpdateTicketStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	t, err := h.service.UpdateTicketStatus(c.Request().Context(), c.Param("ticketId"), req.Status)
	if err != nil {
		return failErr(c, err)
	}
	if t == nil {
		return fail(c, http.StatusNotFound, "Ticket not found")
	}
	return ok(c, http.StatusOK, t)
}

type addCommentRequest struct {
	Text string `json:"text"`
}

// AddComment appends a reply to a ticket.
// POST /api/tickets/:ticketId/comments
func (h *Handler) AddComment(c echo.Context) error {
	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	t, err := h.service.AddComment(c.Request().Context(), c.Param("ticketId"), req.Text)
	if err != nil {
		return failErr(c, err)
	}
	if t == nil {
		return fail(c, http.StatusNotFound, "Ticket not found")
	}
	return ok(c, http.StatusOK, t)
}
