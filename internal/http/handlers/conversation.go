package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/chat"
	"github.com/pharmchat/pharmchat-backend/internal/http/response"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/services"
)

type ConversationHandler struct {
	conversations services.ConversationService
}

func NewConversationHandler(conversations services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type createConversationReq struct {
	Title          string     `json:"title"`
	ProjectID      *uuid.UUID `json:"project_id"`
	InitialMessage string     `json:"initial_message"`
}

// POST /api/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conv, err := h.conversations.Create(dbc, services.CreateConversationInput{
		Title:          req.Title,
		ProjectID:      req.ProjectID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"conversation": conv})
}

// GET /api/conversations?include_archived=true&project_id=<uuid>
func (h *ConversationHandler) List(c *gin.Context) {
	filter := chat.ListFilter{
		IncludeArchived: c.Query("include_archived") == "true",
	}
	if v := c.Query("project_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
			return
		}
		filter.ProjectID = &id
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.conversations.List(dbc, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversations": out})
}

// GET /api/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conv, msgs, err := h.conversations.GetWithMessages(dbc, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv, "messages": msgs})
}

type updateConversationReq struct {
	Title      *string    `json:"title"`
	IsStarred  *bool      `json:"is_starred"`
	IsArchived *bool      `json:"is_archived"`
	ProjectID  *uuid.UUID `json:"project_id"`
}

// PATCH /api/conversations/:id
func (h *ConversationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	var req updateConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conv, err := h.conversations.Update(dbc, id, services.UpdateConversationInput{
		Title:      req.Title,
		IsStarred:  req.IsStarred,
		IsArchived: req.IsArchived,
		ProjectID:  req.ProjectID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv})
}

// DELETE /api/conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.conversations.Delete(dbc, id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
