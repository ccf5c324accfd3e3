package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/pharmchat/pharmchat-backend/internal/http/handlers"
	httpMW "github.com/pharmchat/pharmchat-backend/internal/http/middleware"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler        *httpH.HealthHandler
	ProfileHandler       *httpH.ProfileHandler
	ResponseStyleHandler *httpH.ResponseStyleHandler
	ProjectHandler       *httpH.ProjectHandler
	ConversationHandler  *httpH.ConversationHandler
	MessageHandler       *httpH.MessageHandler
	PromptHandler        *httpH.PromptHandler
	FeedbackHandler      *httpH.FeedbackHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.ProfileHandler != nil {
			api.GET("/profile", cfg.ProfileHandler.Get)
			api.PATCH("/profile", cfg.ProfileHandler.Update)
		}

		if cfg.ResponseStyleHandler != nil {
			api.GET("/response-styles", cfg.ResponseStyleHandler.List)
		}

		if cfg.ProjectHandler != nil {
			api.POST("/projects", cfg.ProjectHandler.Create)
			api.GET("/projects", cfg.ProjectHandler.List)
			api.GET("/projects/:id", cfg.ProjectHandler.Get)
			api.PATCH("/projects/:id", cfg.ProjectHandler.Update)
			api.DELETE("/projects/:id", cfg.ProjectHandler.Delete)
		}

		if cfg.ConversationHandler != nil {
			api.POST("/conversations", cfg.ConversationHandler.Create)
			api.GET("/conversations", cfg.ConversationHandler.List)
			api.GET("/conversations/:id", cfg.ConversationHandler.Get)
			api.PATCH("/conversations/:id", cfg.ConversationHandler.Update)
			api.DELETE("/conversations/:id", cfg.ConversationHandler.Delete)
		}

		if cfg.MessageHandler != nil {
			api.POST("/conversations/:id/messages", cfg.MessageHandler.Send)
			api.PATCH("/conversations/:id/messages/:messageId", cfg.MessageHandler.Edit)
		}

		if cfg.FeedbackHandler != nil {
			api.POST("/conversations/:id/messages/:messageId/feedback", cfg.FeedbackHandler.Create)
			api.GET("/conversations/:id/messages/:messageId/feedback", cfg.FeedbackHandler.List)
		}

		if cfg.PromptHandler != nil {
			api.POST("/prompts", cfg.PromptHandler.Create)
			api.GET("/prompts", cfg.PromptHandler.List)
			api.GET("/prompts/:id", cfg.PromptHandler.Get)
			api.PATCH("/prompts/:id", cfg.PromptHandler.Update)
			api.DELETE("/prompts/:id", cfg.PromptHandler.Delete)
		}
	}

	return r
}
