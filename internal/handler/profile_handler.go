package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProfileRequest updates the caller's profile
type ProfileRequest struct {
	FullName    *string `json:"full_name"`
	CompanyName *string `json:"company_name"`
}

// GetProfile handles GET /api/profile
func (h *Handler) GetProfile(c echo.Context) error {
	profile, err := h.Store.GetProfile(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err, "Failed to load profile")
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PATCH /api/profile
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req ProfileRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	ctx := c.Request().Context()
	if err := h.Store.UpdateProfileDetails(ctx, userID(c), req.FullName, req.CompanyName); err != nil {
		return fail(c, err, "Failed to update profile")
	}

	profile, err := h.Store.GetProfile(ctx, userID(c))
	if err != nil {
		return fail(c, err, "Failed to load profile")
	}
	return c.JSON(http.StatusOK, profile)
}
