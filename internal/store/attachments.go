package store

import (
	"context"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"gorm.io/gorm"
)

// Attachments are scoped through their parent RFI; the RFI's owner check runs first.

// AddAttachment stores attachment metadata on one of the user's RFIs
func (s *Store) AddAttachment(ctx context.Context, userID string, a *model.RFIAttachment) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("insert")()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRFI(tx, userID, a.RFIID); err != nil {
			return err
		}
		return translate(tx.Create(a).Error, "create attachment")
	})
}

// ListAttachments returns the attachments of one of the user's RFIs
func (s *Store) ListAttachments(ctx context.Context, userID, rfiID string) ([]model.RFIAttachment, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	var attachments []model.RFIAttachment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRFI(tx, userID, rfiID); err != nil {
			return err
		}
		return tx.Where("rfi_id = ?", rfiID).Order("created_at ASC").Find(&attachments).Error
	})
	if err != nil {
		return nil, translate(err, "list attachments")
	}
	return attachments, nil
}

// DeleteAttachment removes one attachment from one of the user's RFIs
func (s *Store) DeleteAttachment(ctx context.Context, userID, rfiID, attachmentID string) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("delete")()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRFI(tx, userID, rfiID); err != nil {
			return err
		}
		result := tx.Where("id = ? AND rfi_id = ?", attachmentID, rfiID).Delete(&model.RFIAttachment{})
		if result.Error != nil {
			return translate(result.Error, "delete attachment")
		}
		if result.RowsAffected == 0 {
			return translate(ErrNotFound, "delete attachment")
		}
		return nil
	})
}
