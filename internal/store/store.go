// Package store holds the tenant-scoped repositories. Every query carries a
// user_id predicate; rows owned by another user are reported as ErrNotFound.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row doesn't exist or belongs to another user
	ErrNotFound = errors.New("not found")

	// ErrMissingTenant is returned when a scoped call is made without a user id
	ErrMissingTenant = errors.New("missing tenant id")

	// ErrInvalidReference is returned when a referenced row (project, contact) is not owned by the user
	ErrInvalidReference = errors.New("invalid reference")
)

// Store wraps the gorm connection used by all repositories
type Store struct {
	db *gorm.DB
}

// New creates a Store over an open database
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// owned scopes a query to one tenant
func owned(tx *gorm.DB, userID string) *gorm.DB {
	return tx.Where("user_id = ?", userID)
}

func requireTenant(userID string) error {
	if userID == "" {
		return ErrMissingTenant
	}
	return nil
}

// translate maps gorm errors onto store errors
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
