package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/http/response"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/services"
)

type FeedbackHandler struct {
	feedback services.FeedbackService
}

func NewFeedbackHandler(feedback services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

type createFeedbackReq struct {
	Rating   string `json:"rating"`
	Category string `json:"category"`
	Details  string `json:"details"`
}

// POST /api/conversations/:id/messages/:messageId/feedback
func (h *FeedbackHandler) Create(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_message_id", err)
		return
	}
	var req createFeedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	row, err := h.feedback.Create(dbc, services.CreateFeedbackInput{
		ConversationID: conversationID,
		MessageID:      messageID,
		Rating:         types.FeedbackRating(req.Rating),
		Category:       req.Category,
		Details:        req.Details,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"feedback": row})
}

// GET /api/conversations/:id/messages/:messageId/feedback
func (h *FeedbackHandler) List(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_message_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.feedback.List(dbc, conversationID, messageID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"feedback": rows})
}
