package app

import (
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/chat"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/project"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/prompt"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/style"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/user"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type Repos struct {
	User          user.UserRepo
	UserProfile   user.UserProfileRepo
	ResponseStyle style.ResponseStyleRepo
	Project       project.ProjectRepo
	Conversation  chat.ConversationRepo
	Message       chat.MessageRepo
	Feedback      chat.FeedbackRepo
	Prompt        prompt.PromptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          user.NewUserRepo(db, log),
		UserProfile:   user.NewUserProfileRepo(db, log),
		ResponseStyle: style.NewResponseStyleRepo(db, log),
		Project:       project.NewProjectRepo(db, log),
		Conversation:  chat.NewConversationRepo(db, log),
		Message:       chat.NewMessageRepo(db, log),
		Feedback:      chat.NewFeedbackRepo(db, log),
		Prompt:        prompt.NewPromptRepo(db, log),
	}
}
