package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pharmchat/pharmchat-backend/internal/http/response"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/services"
)

type ResponseStyleHandler struct {
	styles services.ResponseStyleService
}

func NewResponseStyleHandler(styles services.ResponseStyleService) *ResponseStyleHandler {
	return &ResponseStyleHandler{styles: styles}
}

// GET /api/response-styles
func (h *ResponseStyleHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	out, err := h.styles.List(dbc)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"response_styles": out})
}
