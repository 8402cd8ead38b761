package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle state of a construction project
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// Valid reports whether s is a known project status
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// Project groups RFIs and contacts for one job
type Project struct {
	ID          string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string        `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Name        string        `json:"name" gorm:"type:varchar(255);not null"`
	Description *string       `json:"description" gorm:"type:text"`
	ClientName  *string       `json:"client_name" gorm:"type:varchar(255)"`
	Address     *string       `json:"address" gorm:"type:varchar(500)"`
	Status      ProjectStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// BeforeCreate assigns the primary key and default status
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}
	return nil
}
