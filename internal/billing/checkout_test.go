package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/rfitrack/internal/model"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	args := m.Called(ctx, email, userID)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error) {
	args := m.Called(ctx, payload, signature)
	ev, _ := args.Get(0).(*Event)
	return ev, args.Error(1)
}

func TestCheckout_InvalidPlan(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{}
	svc := NewCheckoutService(gw, newMemoryProfiles(&model.Profile{ID: "u1"}), DefaultCatalog(testPrices), "https://app.test", 7)

	for _, tc := range []struct{ plan, price string }{
		{"enterprise", "price_x"},
		{"pro", ""},
		{"pro", "price_team"},
	} {
		_, err := svc.Start(ctx, "u1", tc.plan, tc.price)
		require.ErrorIs(t, err, ErrInvalidPlan, "plan %s price %s", tc.plan, tc.price)
	}
	gw.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_CreatesCustomerOnce(t *testing.T) {
	ctx := context.Background()
	profiles := newMemoryProfiles(&model.Profile{ID: "u1", Email: "a@example.com"})

	gw := &mockGateway{}
	gw.On("CreateCustomer", ctx, "a@example.com", "u1").Return("cus_1", nil).Once()
	gw.On("CreateCheckoutSession", ctx, CheckoutRequest{
		CustomerID: "cus_1",
		UserID:     "u1",
		Plan:       "pro",
		PriceID:    "price_pro",
		TrialDays:  7,
		SuccessURL: "https://app.test/settings?success=true",
		CancelURL:  "https://app.test/settings?canceled=true",
	}).Return("https://checkout.test/cs_1", nil).Twice()

	svc := NewCheckoutService(gw, profiles, DefaultCatalog(testPrices), "https://app.test", 7)

	url, err := svc.Start(ctx, "u1", "pro", "price_pro")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/cs_1", url)
	require.NotNil(t, profiles.profiles["u1"].StripeCustomerID)
	assert.Equal(t, "cus_1", *profiles.profiles["u1"].StripeCustomerID)

	_, err = svc.Start(ctx, "u1", "pro", "price_pro")
	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestCheckout_ProcessorFailure(t *testing.T) {
	ctx := context.Background()
	customer := "cus_1"
	profiles := newMemoryProfiles(&model.Profile{ID: "u1", StripeCustomerID: &customer})

	gw := &mockGateway{}
	gw.On("CreateCheckoutSession", ctx, mock.Anything).Return("", errors.New("card network down"))

	_, err := NewCheckoutService(gw, profiles, DefaultCatalog(testPrices), "https://app.test", 7).Start(ctx, "u1", "starter", "price_starter")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPlan)
}
