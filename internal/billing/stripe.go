package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Processor event types consumed by the webhook
const (
	stripeCheckoutCompleted   = "checkout.session.completed"
	stripeSubscriptionUpdated = "customer.subscription.updated"
	stripeSubscriptionDeleted = "customer.subscription.deleted"
	stripePaymentFailed       = "invoice.payment_failed"
)

// CheckoutRequest describes a subscription checkout session
type CheckoutRequest struct {
	CustomerID string
	UserID     string
	Plan       string
	PriceID    string
	TrialDays  int64
	SuccessURL string
	CancelURL  string
}

// Gateway is the outbound and inbound surface of the payment processor
type Gateway interface {
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error)
}

type subscriptionFetcher interface {
	Get(ctx context.Context, id string) (*stripe.Subscription, error)
}

type stripeSubscriptions struct {
	api *client.API
}

func (s stripeSubscriptions) Get(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	return s.api.Subscriptions.Get(id, params)
}

// StripeGateway implements Gateway with stripe-go
type StripeGateway struct {
	api           *client.API
	subscriptions subscriptionFetcher
	webhookSecret string
}

// NewStripeGateway creates a gateway for the given secret key and webhook signing secret
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := client.New(secretKey, nil)
	return &StripeGateway{
		api:           api,
		subscriptions: stripeSubscriptions{api: api},
		webhookSecret: webhookSecret,
	}
}

// CreateCustomer creates a processor customer tagged with the user id
func (g *StripeGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, userID)

	customer, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return customer.ID, nil
}

// CreateCheckoutSession creates a subscription-mode checkout session and returns its URL
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	metadata := map[string]string{
		MetadataUserID: req.UserID,
		MetadataPlan:   req.Plan,
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(req.CustomerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(req.TrialDays),
			Metadata:        metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return session.URL, nil
}

// ParseEvent verifies the signature and normalizes the event. Verified events
// of other types return ErrUnhandledEvent.
func (g *StripeGateway) ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrUnhandledEvent, event.ID)
	}

	ev := &Event{
		ID:        event.ID,
		CreatedAt: time.Unix(event.Created, 0).UTC(),
	}

	switch string(event.Type) {
	case stripeCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		ev.Type = EventCheckoutCompleted
		ev.UserID = session.Metadata[MetadataUserID]
		ev.Plan = session.Metadata[MetadataPlan]
		if session.Subscription != nil && session.Subscription.ID != "" {
			ev.SubscriptionID = session.Subscription.ID
			if ev.UserID == "" || ev.Plan == "" {
				sub, err := g.subscriptions.Get(ctx, session.Subscription.ID)
				if err != nil {
					return nil, fmt.Errorf("retrieve subscription: %w", err)
				}
				if ev.UserID == "" {
					ev.UserID = sub.Metadata[MetadataUserID]
				}
				if ev.Plan == "" {
					ev.Plan = sub.Metadata[MetadataPlan]
				}
			}
		}

	case stripeSubscriptionUpdated, stripeSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		ev.Type = EventSubscriptionUpdated
		if string(event.Type) == stripeSubscriptionDeleted {
			ev.Type = EventSubscriptionDeleted
		}
		fromSubscription(ev, &sub)

	case stripePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		ev.Type = EventPaymentFailed
		if invoice.Subscription != nil && invoice.Subscription.ID != "" {
			sub, err := g.subscriptions.Get(ctx, invoice.Subscription.ID)
			if err != nil {
				return nil, fmt.Errorf("retrieve subscription: %w", err)
			}
			fromSubscription(ev, sub)
			ev.BillingStatus = ""
			ev.TrialEnd = nil
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEvent, event.Type)
	}

	return ev, nil
}

func fromSubscription(ev *Event, sub *stripe.Subscription) {
	ev.SubscriptionID = sub.ID
	ev.UserID = sub.Metadata[MetadataUserID]
	ev.Plan = sub.Metadata[MetadataPlan]
	ev.BillingStatus = string(sub.Status)
	if sub.TrialEnd > 0 {
		end := time.Unix(sub.TrialEnd, 0).UTC()
		ev.TrialEnd = &end
	}
}
