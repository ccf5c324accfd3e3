package app

import (
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
	"github.com/pharmchat/pharmchat-backend/internal/platform/inference"
	"github.com/pharmchat/pharmchat-backend/internal/services"
)

type Services struct {
	User          services.UserService
	Profile       services.ProfileService
	ResponseStyle services.ResponseStyleService
	Project       services.ProjectService
	Conversation  services.ConversationService
	Message       services.MessageService
	Prompt        services.PromptService
	Feedback      services.FeedbackService
}

func wireServices(db *gorm.DB, log *logger.Logger, r Repos) Services {
	log.Info("Wiring services...")
	gateway := inference.NewClient(log)

	return Services{
		User:          services.NewUserService(db, log, r.User, r.UserProfile),
		Profile:       services.NewProfileService(db, log, r.User, r.UserProfile, r.ResponseStyle),
		ResponseStyle: services.NewResponseStyleService(db, log, r.ResponseStyle),
		Project:       services.NewProjectService(db, log, r.Project, r.Conversation),
		Conversation:  services.NewConversationService(db, log, r.Conversation, r.Message, r.Project),
		Message:       services.NewMessageService(db, log, r.Conversation, r.Message, r.UserProfile, gateway),
		Prompt:        services.NewPromptService(db, log, r.Prompt),
		Feedback:      services.NewFeedbackService(db, log, r.Conversation, r.Message, r.Feedback),
	}
}
