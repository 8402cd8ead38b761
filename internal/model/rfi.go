package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RFIStatus is the workflow state of an RFI
type RFIStatus string

const (
	RFIOpen     RFIStatus = "open"
	RFIPending  RFIStatus = "pending"
	RFIAnswered RFIStatus = "answered"
	RFIClosed   RFIStatus = "closed"
)

// Valid reports whether s is a known RFI status
func (s RFIStatus) Valid() bool {
	switch s {
	case RFIOpen, RFIPending, RFIAnswered, RFIClosed:
		return true
	}
	return false
}

// RFIPriority ranks how urgently an answer is needed
type RFIPriority string

const (
	PriorityLow    RFIPriority = "low"
	PriorityMedium RFIPriority = "medium"
	PriorityHigh   RFIPriority = "high"
	PriorityUrgent RFIPriority = "urgent"
)

// Valid reports whether p is a known priority
func (p RFIPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RFI is a Request For Information raised on a project
type RFI struct {
	ID           string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       string      `json:"user_id" gorm:"type:varchar(36);index;not null"`
	ProjectID    string      `json:"project_id" gorm:"type:varchar(36);not null;uniqueIndex:ux_rfis_project_number,priority:1"`
	RFINumber    int         `json:"rfi_number" gorm:"not null;uniqueIndex:ux_rfis_project_number,priority:2"`
	Subject      string      `json:"subject" gorm:"type:varchar(255);not null"`
	Question     string      `json:"question" gorm:"type:text;not null"`
	Answer       *string     `json:"answer" gorm:"type:text"`
	Status       RFIStatus   `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	Priority     RFIPriority `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	AssignedToID *string     `json:"assigned_to_id" gorm:"type:varchar(36);index"`
	DueDate      *time.Time  `json:"due_date"`
	AnsweredAt   *time.Time  `json:"answered_at"`
	ClosedAt     *time.Time  `json:"closed_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Project    *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	AssignedTo *Contact `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID"`
}

// TableName keeps the plural table name readable
func (RFI) TableName() string {
	return "rfis"
}

// BeforeCreate assigns the primary key and defaults
func (r *RFI) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = RFIOpen
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	return nil
}

// RFIAttachment is file metadata attached to an RFI
type RFIAttachment struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	RFIID     string    `json:"rfi_id" gorm:"type:varchar(36);index;not null"`
	FileName  string    `json:"file_name" gorm:"type:varchar(255);not null"`
	FileURL   string    `json:"file_url" gorm:"type:text;not null"`
	FileType  string    `json:"file_type" gorm:"type:varchar(100);not null"`
	FileSize  int64     `json:"file_size" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the plural table name readable
func (RFIAttachment) TableName() string {
	return "rfi_attachments"
}

// BeforeCreate assigns the primary key
func (a *RFIAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
