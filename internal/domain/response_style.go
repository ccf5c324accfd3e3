package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResponseStyle is a seeded reference row describing an AI response tone
// preset. Read-only through the API.
type ResponseStyle struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Label        string    `gorm:"column:label;size:100;not null" json:"label"`
	Description  *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	SystemPrompt *string   `gorm:"column:system_prompt;type:text" json:"system_prompt,omitempty"`
	IsDefault    bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ResponseStyle) TableName() string { return "response_styles" }
