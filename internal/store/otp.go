package store

import (
	"context"
	"time"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"gorm.io/gorm"
)

// ReplaceOTP consumes any outstanding codes for the email and purpose, then stores the new one
func (s *Store) ReplaceOTP(ctx context.Context, code *model.OTPCode, now time.Time) error {
	defer metrics.TrackDBOperation("insert")()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.OTPCode{}).
			Where("email = ? AND purpose = ? AND consumed_at IS NULL", code.Email, code.Purpose).
			Update("consumed_at", now).Error
		if err != nil {
			return translate(err, "retire otp codes")
		}
		return translate(tx.Create(code).Error, "create otp code")
	})
}

// LatestOTP returns the newest unconsumed code for the email and purpose
func (s *Store) LatestOTP(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTPCode, error) {
	defer metrics.TrackDBOperation("query")()

	var code model.OTPCode
	err := s.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND consumed_at IS NULL", email, purpose).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		return nil, translate(err, "latest otp code")
	}
	return &code, nil
}

// IncrementOTPAttempts records a failed verification
func (s *Store) IncrementOTPAttempts(ctx context.Context, id string) error {
	defer metrics.TrackDBOperation("update")()

	err := s.db.WithContext(ctx).Model(&model.OTPCode{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
	return translate(err, "increment otp attempts")
}

// ConsumeOTP marks a code as used
func (s *Store) ConsumeOTP(ctx context.Context, id string, at time.Time) error {
	defer metrics.TrackDBOperation("update")()

	result := s.db.WithContext(ctx).Model(&model.OTPCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if result.Error != nil {
		return translate(result.Error, "consume otp code")
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "consume otp code")
	}
	return nil
}
