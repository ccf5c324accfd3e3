package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds the editable preference record, one per user. Created
// lazily: the login ensure step inserts an empty row in the same transaction
// as the user upsert.
type UserProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	Role            *string    `gorm:"column:role;size:255" json:"role,omitempty"`
	Department      *string    `gorm:"column:department;size:255" json:"department,omitempty"`
	Region          *string    `gorm:"column:region;size:100" json:"region,omitempty"`
	RoleDescription *string    `gorm:"column:role_description;type:text" json:"role_description,omitempty"`
	ResponseStyleID *uuid.UUID `gorm:"type:uuid;column:response_style_id" json:"response_style_id,omitempty"`

	CustomResponseStyle *string `gorm:"column:custom_response_style;type:text" json:"custom_response_style,omitempty"`
	CustomInstructions  *string `gorm:"column:custom_instructions;type:text" json:"custom_instructions,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profiles" }
