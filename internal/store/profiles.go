package store

import (
	"context"
	"strings"
	"time"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/metrics"
)

// SubscriptionFields is the absolute subscription state written by the billing reconciler
type SubscriptionFields struct {
	Status      *model.SubscriptionStatus
	Tier        *model.SubscriptionTier
	TrialEndsAt *time.Time
	EventAt     *time.Time
}

// CreateProfile inserts a new profile
func (s *Store) CreateProfile(ctx context.Context, p *model.Profile) error {
	defer metrics.TrackDBOperation("insert")()
	return translate(s.db.WithContext(ctx).Create(p).Error, "create profile")
}

// GetProfile loads the caller's own profile
func (s *Store) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	var p model.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err, "get profile")
	}
	return &p, nil
}

// GetProfileByEmail looks a profile up by its normalized email; used only before a session exists
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	defer metrics.TrackDBOperation("query")()

	var p model.Profile
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, translate(err, "get profile by email")
	}
	return &p, nil
}

// UpdateProfileDetails patches the editable profile fields. A nil field is
// left unchanged and a blank one is cleared.
func (s *Store) UpdateProfileDetails(ctx context.Context, userID string, fullName, companyName *string) error {
	fields := map[string]interface{}{}
	patchField(fields, "full_name", fullName)
	patchField(fields, "company_name", companyName)

	if len(fields) == 0 {
		_, err := s.GetProfile(ctx, userID)
		return err
	}
	return s.updateProfile(ctx, userID, fields)
}

func patchField(fields map[string]interface{}, column string, value *string) {
	if value == nil {
		return
	}
	if v := strings.TrimSpace(*value); v != "" {
		fields[column] = v
		return
	}
	fields[column] = nil
}

// SetPasswordHash stores a new password hash
func (s *Store) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return s.updateProfile(ctx, userID, map[string]interface{}{"password_hash": hash})
}

// SetStripeCustomerID records the billing customer reference
func (s *Store) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return s.updateProfile(ctx, userID, map[string]interface{}{"stripe_customer_id": customerID})
}

// UpdateSubscription overwrites the subscription fields of a profile
func (s *Store) UpdateSubscription(ctx context.Context, userID string, f SubscriptionFields) error {
	return s.updateProfile(ctx, userID, map[string]interface{}{
		"subscription_status":   f.Status,
		"subscription_tier":     f.Tier,
		"trial_ends_at":         f.TrialEndsAt,
		"subscription_event_at": f.EventAt,
	})
}

func (s *Store) updateProfile(ctx context.Context, userID string, fields map[string]interface{}) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("update")()

	result := s.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		return translate(result.Error, "update profile")
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "update profile")
	}
	return nil
}
