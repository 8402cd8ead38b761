package store

import (
	"context"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RFIFilter narrows an RFI listing
type RFIFilter struct {
	ProjectID string
	Status    model.RFIStatus
	Limit     int
}

// CreateRFI inserts an RFI and assigns the next rfi_number for its project.
// The project and the assignee must both belong to userID.
func (s *Store) CreateRFI(ctx context.Context, userID string, r *model.RFI) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("insert")()

	r.UserID = userID
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project model.Project
		err := owned(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID).
			Where("id = ?", r.ProjectID).
			First(&project).Error
		if err != nil {
			return translate(err, "lock project")
		}
		if err := checkContactRef(tx, userID, r.AssignedToID); err != nil {
			return err
		}

		var last int
		err = tx.Model(&model.RFI{}).
			Where("project_id = ?", r.ProjectID).
			Select("COALESCE(MAX(rfi_number), 0)").
			Scan(&last).Error
		if err != nil {
			return translate(err, "next rfi number")
		}
		r.RFINumber = last + 1

		if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
			return translate(err, "create rfi")
		}
		return nil
	})
}

// GetRFI loads one of the user's RFIs with its project and assignee
func (s *Store) GetRFI(ctx context.Context, userID, id string) (*model.RFI, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	var r model.RFI
	err := owned(s.db.WithContext(ctx), userID).
		Preload("Project").
		Preload("AssignedTo").
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, translate(err, "get rfi")
	}
	return &r, nil
}

// ListRFIs returns the user's RFIs. Within a project they are ordered by
// rfi_number descending, otherwise newest first.
func (s *Store) ListRFIs(ctx context.Context, userID string, f RFIFilter) ([]model.RFI, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	q := owned(s.db.WithContext(ctx), userID).Preload("Project").Preload("AssignedTo")
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID).Order("rfi_number DESC")
	} else {
		q = q.Order("created_at DESC")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rfis []model.RFI
	if err := q.Find(&rfis).Error; err != nil {
		return nil, translate(err, "list rfis")
	}
	return rfis, nil
}

// SaveRFI writes the mutable fields of an RFI loaded through GetRFI
func (s *Store) SaveRFI(ctx context.Context, userID string, r *model.RFI) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("update")()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkContactRef(tx, userID, r.AssignedToID); err != nil {
			return err
		}
		result := owned(tx.Model(r), userID).
			Where("id = ?", r.ID).
			Select("subject", "question", "answer", "status", "priority",
				"assigned_to_id", "due_date", "answered_at", "closed_at", "updated_at").
			Omit(clause.Associations).
			Updates(r)
		if result.Error != nil {
			return translate(result.Error, "save rfi")
		}
		if result.RowsAffected == 0 {
			return translate(ErrNotFound, "save rfi")
		}
		return nil
	})
}

// DeleteRFI removes an RFI and its attachments
func (s *Store) DeleteRFI(ctx context.Context, userID, id string) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("delete")()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRFI(tx, userID, id); err != nil {
			return err
		}
		if err := tx.Where("rfi_id = ?", id).Delete(&model.RFIAttachment{}).Error; err != nil {
			return translate(err, "delete attachments")
		}
		if err := owned(tx, userID).Where("id = ?", id).Delete(&model.RFI{}).Error; err != nil {
			return translate(err, "delete rfi")
		}
		return nil
	})
}

func requireRFI(tx *gorm.DB, userID, id string) error {
	var n int64
	if err := owned(tx.Model(&model.RFI{}), userID).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err, "check rfi")
	}
	if n == 0 {
		return translate(ErrNotFound, "check rfi")
	}
	return nil
}
