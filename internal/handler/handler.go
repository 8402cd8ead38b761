// Package handler holds the echo HTTP handlers
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/rfitrack/internal/auth"
	"github.com/suteetoe/rfitrack/internal/billing"
	"github.com/suteetoe/rfitrack/internal/middleware"
	"github.com/suteetoe/rfitrack/internal/rfi"
	"github.com/suteetoe/rfitrack/internal/store"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
)

// Deps are the services the handlers call
type Deps struct {
	Store              *store.Store
	RFIs               *rfi.Service
	Auth               *auth.Service
	Checkout           *billing.CheckoutService
	Gateway            billing.Gateway
	Reconciler         *billing.Reconciler
	Catalog            *billing.Catalog
	WebhookMaxBodySize int64
}

// Handler serves the HTTP API
type Handler struct {
	Deps
}

// New creates a Handler
func New(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

// bind decodes and validates a request body
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request data", ErrInvalidRequest)
	}
	return c.Validate(req)
}

// fail maps service errors onto HTTP responses. Unexpected errors are logged
// with the original cause and the client only sees msg.
func fail(c echo.Context, err error, msg string) error {
	log := logger.FromEcho(c)

	switch {
	case errors.Is(err, store.ErrMissingTenant):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated"})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, rfi.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": inputMessage(err)})
	case errors.Is(err, store.ErrInvalidReference):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "referenced record not found"})
	case errors.Is(err, rfi.ErrInvalidTransition), errors.Is(err, rfi.ErrClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}

	log.Error(msg, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// inputMessage drops the sentinel prefix from a wrapped input error
func inputMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// parseDate accepts a calendar date (midnight UTC) or an RFC 3339 timestamp
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*value)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD)", ErrInvalidRequest, field)
	}
	return &t, nil
}

// optional turns blank strings into nil
func optional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func userID(c echo.Context) string {
	return middleware.UserID(c)
}
