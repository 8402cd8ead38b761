package billing

import (
	"context"
	"fmt"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
)

// CustomerStore is the profile persistence checkout needs
type CustomerStore interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
}

// CheckoutService starts subscription checkouts
type CheckoutService struct {
	gateway   Gateway
	profiles  CustomerStore
	catalog   *Catalog
	appURL    string
	trialDays int64
}

// NewCheckoutService creates a CheckoutService
func NewCheckoutService(gateway Gateway, profiles CustomerStore, catalog *Catalog, appURL string, trialDays int64) *CheckoutService {
	return &CheckoutService{
		gateway:   gateway,
		profiles:  profiles,
		catalog:   catalog,
		appURL:    appURL,
		trialDays: trialDays,
	}
}

// Start validates the plan, ensures a processor customer exists and returns the checkout URL
func (s *CheckoutService) Start(ctx context.Context, userID, plan, priceID string) (string, error) {
	p, ok := s.catalog.Lookup(plan)
	if !ok || priceID == "" || (p.PriceID != "" && p.PriceID != priceID) {
		return "", ErrInvalidPlan
	}

	log := logger.FromContext(ctx).With(zap.String("user_id", userID), zap.String("plan", plan))

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}

	customerID := ""
	if profile.StripeCustomerID != nil {
		customerID = *profile.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, profile.Email, userID)
		if err != nil {
			return "", err
		}
		// The customer is not rolled back if this write fails.
		if err := s.profiles.SetStripeCustomerID(ctx, userID, customerID); err != nil {
			log.Error("Failed to save billing customer reference",
				zap.String("customer_id", customerID), zap.Error(err))
			return "", fmt.Errorf("save customer reference: %w", err)
		}
		log.Info("Billing customer created", zap.String("customer_id", customerID))
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		UserID:     userID,
		Plan:       plan,
		PriceID:    priceID,
		TrialDays:  s.trialDays,
		SuccessURL: s.appURL + "/settings?success=true",
		CancelURL:  s.appURL + "/settings?canceled=true",
	})
	if err != nil {
		return "", err
	}
	return url, nil
}
