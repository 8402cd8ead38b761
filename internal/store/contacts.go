package store

import (
	"context"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateContact inserts a contact. A project association must point at one of the user's projects.
func (s *Store) CreateContact(ctx context.Context, userID string, c *model.Contact) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("insert")()

	c.UserID = userID
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkProjectRef(tx, userID, c.ProjectID); err != nil {
			return err
		}
		return translate(tx.Create(c).Error, "create contact")
	})
}

// GetContact loads one of the user's contacts
func (s *Store) GetContact(ctx context.Context, userID, id string) (*model.Contact, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	var c model.Contact
	if err := owned(s.db.WithContext(ctx), userID).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err, "get contact")
	}
	return &c, nil
}

// ListContacts returns the user's contacts ordered by name
func (s *Store) ListContacts(ctx context.Context, userID string) ([]model.Contact, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	var contacts []model.Contact
	if err := owned(s.db.WithContext(ctx), userID).Order("name ASC").Find(&contacts).Error; err != nil {
		return nil, translate(err, "list contacts")
	}
	return contacts, nil
}

// ListProjectContacts returns the contacts associated with one project
func (s *Store) ListProjectContacts(ctx context.Context, userID, projectID string) ([]model.Contact, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	var contacts []model.Contact
	err := owned(s.db.WithContext(ctx), userID).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, translate(err, "list project contacts")
	}
	return contacts, nil
}

// UpdateContact overwrites the editable contact fields
func (s *Store) UpdateContact(ctx context.Context, userID string, c *model.Contact) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("update")()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkProjectRef(tx, userID, c.ProjectID); err != nil {
			return err
		}
		result := owned(tx.Model(c), userID).
			Where("id = ?", c.ID).
			Select("project_id", "name", "email", "phone", "company", "role", "updated_at").
			Omit(clause.Associations).
			Updates(c)
		if result.Error != nil {
			return translate(result.Error, "update contact")
		}
		if result.RowsAffected == 0 {
			return translate(ErrNotFound, "update contact")
		}
		return nil
	})
}

// DeleteContact removes a contact and unassigns it from the user's RFIs
func (s *Store) DeleteContact(ctx context.Context, userID, id string) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("delete")()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := owned(tx.Model(&model.RFI{}), userID).
			Where("assigned_to_id = ?", id).
			Update("assigned_to_id", nil).Error
		if err != nil {
			return translate(err, "unassign contact")
		}

		result := owned(tx, userID).Where("id = ?", id).Delete(&model.Contact{})
		if result.Error != nil {
			return translate(result.Error, "delete contact")
		}
		if result.RowsAffected == 0 {
			return translate(ErrNotFound, "delete contact")
		}
		return nil
	})
}

func checkProjectRef(tx *gorm.DB, userID string, projectID *string) error {
	if projectID == nil {
		return nil
	}
	var n int64
	if err := owned(tx.Model(&model.Project{}), userID).Where("id = ?", *projectID).Count(&n).Error; err != nil {
		return translate(err, "check project")
	}
	if n == 0 {
		return ErrInvalidReference
	}
	return nil
}

func checkContactRef(tx *gorm.DB, userID string, contactID *string) error {
	if contactID == nil {
		return nil
	}
	var n int64
	if err := owned(tx.Model(&model.Contact{}), userID).Where("id = ?", *contactID).Count(&n).Error; err != nil {
		return translate(err, "check contact")
	}
	if n == 0 {
		return ErrInvalidReference
	}
	return nil
}
