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

type MessageHandler struct {
	messages services.MessageService
}

func NewMessageHandler(messages services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageReq struct {
	Message     string             `json:"message"`
	Attachments []types.Attachment `json:"attachments"`
}

// POST /api/conversations/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	res, err := h.messages.Send(dbc, conversationID, req.Message, req.Attachments)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	// A populated res.Error means the user message committed but the assistant
	// did not answer; that is still a success for the write that happened.
	response.RespondOK(c, res)
}

type editMessageReq struct {
	Message    string `json:"message"`
	Regenerate bool   `json:"regenerate"`
}

// PATCH /api/conversations/:id/messages/:messageId
func (h *MessageHandler) Edit(c *gin.Context) {
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
	var req editMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	res, err := h.messages.Edit(dbc, conversationID, messageID, req.Message, req.Regenerate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}
