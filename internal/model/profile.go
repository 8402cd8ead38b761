package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionStatus is the billing state mirrored onto a profile
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// SubscriptionTier is the purchased plan
type SubscriptionTier string

const (
	TierStarter SubscriptionTier = "starter"
	TierPro     SubscriptionTier = "pro"
	TierTeam    SubscriptionTier = "team"
)

// Valid reports whether the tier is one of the catalog tiers
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierStarter, TierPro, TierTeam:
		return true
	}
	return false
}

// Profile is the identity record of a tenant. Its ID is the tenant key for every other table.
type Profile struct {
	ID                  string              `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email               string              `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash        *string             `json:"-" gorm:"type:varchar(255)"`
	FullName            *string             `json:"full_name" gorm:"type:varchar(255)"`
	CompanyName         *string             `json:"company_name" gorm:"type:varchar(255)"`
	StripeCustomerID    *string             `json:"stripe_customer_id,omitempty" gorm:"type:varchar(255);index"`
	SubscriptionStatus  *SubscriptionStatus `json:"subscription_status" gorm:"type:varchar(20)"`
	SubscriptionTier    *SubscriptionTier   `json:"subscription_tier" gorm:"type:varchar(20)"`
	TrialEndsAt         *time.Time          `json:"trial_ends_at"`
	SubscriptionEventAt *time.Time          `json:"-"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// BeforeCreate assigns the primary key
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
