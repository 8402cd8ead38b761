package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Dashboard handles GET /api/dashboard
func (h *Handler) Dashboard(c echo.Context) error {
	dashboard, err := h.RFIs.Dashboard(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err, "Failed to load dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	if err := h.Store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
}
