package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/rfitrack/internal/auth"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
)

// LoginRequest is a password sign-in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CodeRequest asks for a one-time code
type CodeRequest struct {
	Email            string `json:"email" validate:"required,email"`
	ShouldCreateUser bool   `json:"should_create_user"`
}

// VerifyCodeRequest submits a one-time code
type VerifyCodeRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Code             string `json:"code" validate:"required"`
	ShouldCreateUser bool   `json:"should_create_user"`
}

// SetPasswordRequest sets the caller's password
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	session, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return fail(c, err, "Failed to sign in")
	}
	return c.JSON(http.StatusOK, session)
}

// RequestCode handles POST /auth/otp/request
func (h *Handler) RequestCode(c echo.Context) error {
	var req CodeRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	flow, err := h.Auth.RequestCode(c.Request().Context(), req.Email, req.ShouldCreateUser)
	if err != nil {
		return fail(c, err, "Failed to send code")
	}
	return c.JSON(http.StatusOK, echo.Map{"next": flow})
}

// VerifyCode handles POST /auth/otp/verify
func (h *Handler) VerifyCode(c echo.Context) error {
	var req VerifyCodeRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	session, flow, err := h.Auth.VerifyCode(c.Request().Context(), req.Email, req.Code, req.ShouldCreateUser)
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid code", "next": flow})
	case errors.Is(err, auth.ErrCodeExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Code expired, request a new one", "next": flow})
	case err != nil:
		return fail(c, err, "Failed to verify code")
	}
	return c.JSON(http.StatusOK, session)
}

// Logout handles POST /auth/logout. Sessions are stateless tokens, so the
// client discards its token.
func (h *Handler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// SetPassword handles POST /api/users/password
func (h *Handler) SetPassword(c echo.Context) error {
	log := logger.FromEcho(c)

	var req SetPasswordRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid request data")
	}

	if err := h.Auth.SetPassword(c.Request().Context(), userID(c), req.Password); err != nil {
		return fail(c, err, "Failed to set password")
	}

	log.Info("Password updated", zap.String("user_id", userID(c)))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
