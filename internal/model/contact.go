package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a person RFIs can be assigned to
type Contact struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	ProjectID *string   `json:"project_id" gorm:"type:varchar(36);index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     *string   `json:"email" gorm:"type:varchar(255)"`
	Phone     *string   `json:"phone" gorm:"type:varchar(50)"`
	Company   *string   `json:"company" gorm:"type:varchar(255)"`
	Role      *string   `json:"role" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
