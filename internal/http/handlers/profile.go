package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmchat/pharmchat-backend/internal/http/response"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/services"
)

type ProfileHandler struct {
	profiles services.ProfileService
}

func NewProfileHandler(profiles services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.profiles.Get(dbc)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, doc)
}

type updateProfileReq struct {
	Role                *string    `json:"role"`
	Department          *string    `json:"department"`
	Region              *string    `json:"region"`
	RoleDescription     *string    `json:"role_description"`
	ResponseStyleID     *uuid.UUID `json:"response_style_id"`
	CustomResponseStyle *string    `json:"custom_response_style"`
	CustomInstructions  *string    `json:"custom_instructions"`

	// Identity fields are immutable through this endpoint; their presence in
	// the payload is an error rather than a silent no-op.
	Name       *string `json:"name"`
	Surname    *string `json:"surname"`
	Email      *string `json:"email"`
	ExternalID *string `json:"external_id"`
}

// PATCH /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Name != nil || req.Surname != nil || req.Email != nil || req.ExternalID != nil {
		response.RespondError(c, http.StatusBadRequest, "immutable_field",
			errors.New("identity fields cannot be changed here"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.profiles.Update(dbc, services.UpdateProfileInput{
		Role:                req.Role,
		Department:          req.Department,
		Region:              req.Region,
		RoleDescription:     req.RoleDescription,
		ResponseStyleID:     req.ResponseStyleID,
		CustomResponseStyle: req.CustomResponseStyle,
		CustomInstructions:  req.CustomInstructions,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, doc)
}
