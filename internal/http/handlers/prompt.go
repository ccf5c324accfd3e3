package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/prompt"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/http/response"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/services"
)

type PromptHandler struct {
	prompts services.PromptService
}

func NewPromptHandler(prompts services.PromptService) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

type createPromptReq struct {
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Type         string     `json:"type"`
	IsPersonal   *bool      `json:"is_personal"`
	ForkedFromID *uuid.UUID `json:"forked_from_id"`
}

// POST /api/prompts
func (h *PromptHandler) Create(c *gin.Context) {
	var req createPromptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	p, err := h.prompts.Create(dbc, services.CreatePromptInput{
		Title:        req.Title,
		Content:      req.Content,
		Type:         types.PromptType(req.Type),
		IsPersonal:   req.IsPersonal,
		ForkedFromID: req.ForkedFromID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"prompt": p})
}

// GET /api/prompts?type=suggestion&starred=true
func (h *PromptHandler) List(c *gin.Context) {
	filter := prompt.ListFilter{
		Type:        types.PromptType(c.Query("type")),
		OnlyStarred: c.Query("starred") == "true",
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.prompts.List(dbc, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prompts": out})
}

// GET /api/prompts/:id
func (h *PromptHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_prompt_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	p, err := h.prompts.Get(dbc, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prompt": p})
}

type updatePromptReq struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Type      *string `json:"type"`
	IsStarred *bool   `json:"is_starred"`
}

// PATCH /api/prompts/:id
func (h *PromptHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_prompt_id", err)
		return
	}
	var req updatePromptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.UpdatePromptInput{
		Title:     req.Title,
		Content:   req.Content,
		IsStarred: req.IsStarred,
	}
	if req.Type != nil {
		t := types.PromptType(*req.Type)
		input.Type = &t
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	p, err := h.prompts.Update(dbc, id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prompt": p})
}

// DELETE /api/prompts/:id
func (h *PromptHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_prompt_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.prompts.Delete(dbc, id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
