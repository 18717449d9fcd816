package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/nexusdesk/internal/service"
)

// ListSessions lists sessions, most recently active first.
// GET /api/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions, err := h.service.ListSessions(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, sessions)
}

// CreateSession registers a chat session. The body is optional.
// POST /api/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req service.CreateSessionRequest
	// A missing or malformed body creates an untitled session.
	_ = c.Bind(&req)

	created, err := h.service.CreateSession(c.Request().Context(), req)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, created)
}

// CountSessions returns the number of sessions.
// GET /api/sessions/count
func (h *Handler) CountSessions(c echo.Context) error {
	n, err := h.service.CountSessions(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, map[string]int{"count": n})
}

// DeleteSession removes one session.
// DELETE /api/sessions/:sessionId
func (h *Handler) DeleteSession(c echo.Context) error {
	existed, err := h.service.DeleteSession(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return failErr(c, err)
	}
	if !existed {
		return fail(c, http.StatusNotFound, "Session not found")
	}
	return ok(c, http.StatusOK, map[string]bool{"deleted": true})
}

type renameSessionRequest struct {
	Title string `json:"title"`
}

// RenameSession sets a session's title.
// PUT /api/sessions/:sessionId/title
func (h *Handler) RenameSession(c echo.Context) error {
	var req renameSessionRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	updated, err := h.service.RenameSession(c.Request().Context(), c.Param("sessionId"), req.Title)
	if err != nil {
		return failErr(c, err)
	}
	if !updated {
		return fail(c, http.StatusNotFound, "Session not found")
	}
	return ok(c, http.StatusOK, map[string]string{"title": req.Title})
}

// ClearSessions deletes every session.
// DELETE /api/sessions
func (h *Handler) ClearSessions(c echo.Context) error {
	n, err := h.service.ClearSessions(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, map[string]int{"deletedCount": n})
}
