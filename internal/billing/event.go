// Package billing integrates the payment processor: plan catalog, checkout
// sessions, webhook verification and subscription reconciliation.
package billing

import (
	"errors"
	"time"
)

// EventType is the normalized kind of a billing event
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout_completed"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"
	EventPaymentFailed       EventType = "payment_failed"
)

// Metadata keys attached to checkout sessions and subscriptions
const (
	MetadataUserID = "user_id"
	MetadataPlan   = "plan"
)

var (
	// ErrVerification indicates a webhook whose signature could not be verified
	ErrVerification = errors.New("webhook verification failed")
	// ErrUnhandledEvent indicates a verified event of a type the reconciler ignores
	ErrUnhandledEvent = errors.New("unhandled event type")
	// ErrInvalidPlan indicates an unknown plan or a price that does not belong to it
	ErrInvalidPlan = errors.New("invalid plan")
)

// Event is a verified billing event reduced to what the reconciler needs
type Event struct {
	ID             string
	Type           EventType
	UserID         string
	Plan           string
	BillingStatus  string
	TrialEnd       *time.Time
	SubscriptionID string
	CreatedAt      time.Time
}
