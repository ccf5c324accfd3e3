package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project groups conversations under one user. The (user_id, name) pair is
// unique per owner. Deleting a project clears the project reference on its
// conversations instead of deleting them.
type Project struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_projects_user_name" json:"user_id"`

	Name               string  `gorm:"column:name;size:255;not null;uniqueIndex:idx_projects_user_name" json:"name"`
	DisplayName        string  `gorm:"column:display_name;size:255;not null" json:"display_name"`
	Description        *string `gorm:"column:description;type:text" json:"description,omitempty"`
	CustomInstructions *string `gorm:"column:custom_instructions;type:text" json:"custom_instructions,omitempty"`

	IsStarred  bool `gorm:"column:is_starred;not null;default:false" json:"is_starred"`
	IsArchived bool `gorm:"column:is_archived;not null;default:false" json:"is_archived"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }
