package app

import (
	internalhttp "github.com/pharmchat/pharmchat-backend/internal/http"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, h Handlers, mw Middleware) *internalhttp.Server {
	log.Info("Wiring router...")
	return internalhttp.NewServer(internalhttp.RouterConfig{
		Log:            log,
		AuthMiddleware: mw.Auth,

		HealthHandler:        h.Health,
		ProfileHandler:       h.Profile,
		ResponseStyleHandler: h.ResponseStyle,
		ProjectHandler:       h.Project,
		ConversationHandler:  h.Conversation,
		MessageHandler:       h.Message,
		PromptHandler:        h.Prompt,
		FeedbackHandler:      h.Feedback,
	})
}
