package handlers

import (
	"net/http"

	"failarchive/internal/services"
	"failarchive/internal/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	gate *services.ModerationGate
}

func NewAdminHandler(gate *services.ModerationGate) *AdminHandler {
	return &AdminHandler{gate: gate}
}

// ModerationQueue 待人工审核的提交
func (h *AdminHandler) ModerationQueue(c *gin.Context) {
	limit := utils.BoundedInt(c.Query("limit"), 50, 1, 200)
	items, err := h.gate.Queue(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type decisionRequest struct {
	Decision services.Decision `json:"decision"`
	Note     string            `json:"note"`
}

// Decide 通过或驳回
func (h *AdminHandler) Decide(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	mod, err := h.gate.Decide(c.Request.Context(), c.Param("id"), mustUser(c).ID, req.Decision, req.Note)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "moderation": mod})
}
