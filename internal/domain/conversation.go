package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a titled, ordered thread of messages belonging to one user,
// optionally grouped under a project. Archived conversations stay readable but
// reject new user messages and message edits.
type Conversation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ProjectID *uuid.UUID `gorm:"type:uuid;column:project_id;index" json:"project_id,omitempty"`

	Title      string `gorm:"column:title;size:500;not null" json:"title"`
	IsStarred  bool   `gorm:"column:is_starred;not null;default:false" json:"is_starred"`
	IsArchived bool   `gorm:"column:is_archived;not null;default:false" json:"is_archived"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`

	Messages []*Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }
