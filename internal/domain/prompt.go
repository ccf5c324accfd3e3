package domain

import (
	"time"

	"github.com/google/uuid"
)

// PromptType distinguishes reusable suggestion templates from finalized ones.
type PromptType string

const (
	PromptSuggestion PromptType = "suggestion"
	PromptFinal      PromptType = "final"
)

func (t PromptType) Valid() bool {
	return t == PromptSuggestion || t == PromptFinal
}

// Prompt is a reusable template. Personal prompts are always owned; shared
// (non-personal) prompts are readable by everyone and may have no owner, in
// which case nobody can modify them through the API.
type Prompt struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`

	Title   string     `gorm:"column:title;size:500;not null" json:"title"`
	Content string     `gorm:"column:content;type:text;not null" json:"content"`
	Type    PromptType `gorm:"column:type;size:20;not null" json:"type"`

	IsPersonal   bool       `gorm:"column:is_personal;not null;default:true" json:"is_personal"`
	IsStarred    bool       `gorm:"column:is_starred;not null;default:false" json:"is_starred"`
	ForkedFromID *uuid.UUID `gorm:"type:uuid;column:forked_from_id" json:"forked_from_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (Prompt) TableName() string { return "prompts" }

// WritableBy reports whether the caller may modify this prompt. Shared prompts
// without an owner are read-only for everyone.
func (p *Prompt) WritableBy(userID uuid.UUID) bool {
	return p.UserID != nil && *p.UserID == userID
}

// ReadableBy reports whether the caller may see this prompt: their own, or any
// shared one.
func (p *Prompt) ReadableBy(userID uuid.UUID) bool {
	if !p.IsPersonal {
		return true
	}
	return p.UserID != nil && *p.UserID == userID
}
