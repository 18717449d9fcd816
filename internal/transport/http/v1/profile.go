package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/nexusdesk/internal/domain"
)

// GetProfile returns the user profile.
// GET /api/user/profile
func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.service.GetProfile(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, p)
}

// UpdateProfile merges the supplied fields into the profile.
// POST /api/user/profile
func (h *Handler) UpdateProfile(c echo.Context) error {
	var patch domain.ProfilePatch
	if err := c.Bind(&patch); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	p, err := h.service.UpdateProfile(c.Request().Context(), patch)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, p)
}

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

// CreateCheckoutSession activates the subscription without a real
// payment provider.
// POST /api/stripe/create-checkout-session
func (h *Handler) CreateCheckoutSession(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	url, err := h.service.CreateCheckoutSession(c.Request().Context(), req.PriceID)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, http.StatusOK, map[string]string{"url": url})
}

// GetAnalytics returns the dashboard overview.
// GET /api/analytics
func (h *Handler) GetAnalytics(c echo.Context) error {
	return ok(c, http.StatusOK, h.service.Analytics())
}
