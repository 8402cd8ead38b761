package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPPurpose distinguishes sign-up codes from sign-in codes
type OTPPurpose string

const (
	OTPSignup OTPPurpose = "signup"
	OTPLogin  OTPPurpose = "login"
)

// OTPCode is a hashed one-time sign-in code
type OTPCode struct {
	ID         string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email      string     `json:"email" gorm:"type:varchar(255);index;not null"`
	Purpose    OTPPurpose `json:"purpose" gorm:"type:varchar(20);not null"`
	CodeHash   string     `json:"-" gorm:"type:varchar(255);not null"`
	Attempts   int        `json:"attempts" gorm:"not null;default:0"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null"`
	ConsumedAt *time.Time `json:"consumed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// BeforeCreate assigns the primary key
func (o *OTPCode) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
