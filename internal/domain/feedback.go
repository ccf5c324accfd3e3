package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackRating is the closed set of message ratings.
type FeedbackRating string

const (
	FeedbackPositive FeedbackRating = "positive"
	FeedbackNegative FeedbackRating = "negative"
)

func (r FeedbackRating) Valid() bool {
	return r == FeedbackPositive || r == FeedbackNegative
}

// Feedback is a rating a user left on an assistant message.
type Feedback struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Rating   FeedbackRating `gorm:"column:rating;size:20;not null" json:"rating"`
	Category *string        `gorm:"column:category;size:100" json:"category,omitempty"`
	Details  *string        `gorm:"column:details;type:text" json:"details,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Feedback) TableName() string { return "feedback" }
