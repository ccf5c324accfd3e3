package db

import (
	"gorm.io/gorm"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&types.User{},
		&types.UserProfile{},

		// Reference data
		&types.ResponseStyle{},

		// Chat
		&types.Project{},
		&types.Conversation{},
		&types.Message{},

		// Templates + ratings
		&types.Prompt{},
		&types.Feedback{},
	)
}
