package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/rfitrack/internal/billing"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"go.uber.org/zap"
)

const signatureHeader = "Stripe-Signature"

// CheckoutRequest starts a subscription checkout
type CheckoutRequest struct {
	PriceID string `json:"priceId"`
	Plan    string `json:"plan"`
}

// ListPlans handles GET /plans
func (h *Handler) ListPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.Plans())
}

// StartCheckout handles POST /checkout
func (h *Handler) StartCheckout(c echo.Context) error {
	log := logger.FromEcho(c)

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	url, err := h.Checkout.Start(c.Request().Context(), userID(c), req.Plan, req.PriceID)
	if errors.Is(err, billing.ErrInvalidPlan) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid plan"})
	}
	if err != nil {
		log.Error("Failed to create checkout session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create checkout session"})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// BillingWebhook handles POST /webhooks/billing. The signature is verified
// over the raw body before any state changes.
func (h *Handler) BillingWebhook(c echo.Context) error {
	log := logger.FromEcho(c)

	signature := c.Request().Header.Get(signatureHeader)
	if signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing signature"})
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, h.WebhookMaxBodySize+1))
	if err != nil {
		log.Error("Failed to read webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if int64(len(payload)) > h.WebhookMaxBodySize {
		log.Warn("Webhook payload too large", zap.Int64("max_bytes", h.WebhookMaxBodySize))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	ctx := c.Request().Context()
	event, err := h.Gateway.ParseEvent(ctx, payload, signature)
	switch {
	case errors.Is(err, billing.ErrVerification):
		log.Warn("Webhook signature verification failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid signature"})
	case errors.Is(err, billing.ErrUnhandledEvent):
		metrics.RecordBillingEvent("unhandled", string(billing.OutcomeIgnored))
		log.Debug("Ignoring billing event", zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	case err != nil:
		log.Error("Failed to parse billing event", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook handler failed"})
	}

	outcome, err := h.Reconciler.Handle(ctx, *event)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook handler failed"})
	}
	log.Debug("Billing event handled", zap.String("outcome", string(outcome)))

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
