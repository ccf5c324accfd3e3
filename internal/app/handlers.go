package app

import (
	httpH "github.com/pharmchat/pharmchat-backend/internal/http/handlers"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type Handlers struct {
	Health        *httpH.HealthHandler
	Profile       *httpH.ProfileHandler
	ResponseStyle *httpH.ResponseStyleHandler
	Project       *httpH.ProjectHandler
	Conversation  *httpH.ConversationHandler
	Message       *httpH.MessageHandler
	Prompt        *httpH.PromptHandler
	Feedback      *httpH.FeedbackHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:        httpH.NewHealthHandler(),
		Profile:       httpH.NewProfileHandler(s.Profile),
		ResponseStyle: httpH.NewResponseStyleHandler(s.ResponseStyle),
		Project:       httpH.NewProjectHandler(s.Project),
		Conversation:  httpH.NewConversationHandler(s.Conversation),
		Message:       httpH.NewMessageHandler(s.Message),
		Prompt:        httpH.NewPromptHandler(s.Prompt),
		Feedback:      httpH.NewFeedbackHandler(s.Feedback),
	}
}
