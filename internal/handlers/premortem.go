package handlers

import (
	"net/http"

	"failarchive/internal/services"

	"github.com/gin-gonic/gin"
)

type PreMortemHandler struct {
	premortem *services.PreMortemService
}

func NewPreMortemHandler(premortem *services.PreMortemService) *PreMortemHandler {
	return &PreMortemHandler{premortem: premortem}
}

func (h *PreMortemHandler) Analyze(c *gin.Context) {
	var req services.PreMortemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	result, err := h.premortem.Analyze(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
