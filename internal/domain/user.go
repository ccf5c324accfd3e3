package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity root. Rows are created on first successful login and
// refreshed from the IdP on each subsequent one; they are never hard-deleted.
type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID string     `gorm:"column:external_id;size:50;not null;uniqueIndex" json:"external_id"`
	Name       string     `gorm:"column:name;size:255;not null" json:"name"`
	Surname    string     `gorm:"column:surname;size:255;not null" json:"surname"`
	Email      string     `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Image      string     `gorm:"column:image;size:500" json:"image,omitempty"`
	LastLogin  *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// DisplayName is "Name Surname" with a fallback to the email address when both
// parts are blank, matching what is forwarded to the inference gateway.
func (u *User) DisplayName() string {
	name := u.Name
	if u.Surname != "" {
		if name != "" {
			name += " "
		}
		name += u.Surname
	}
	if name == "" {
		return u.Email
	}
	return name
}
