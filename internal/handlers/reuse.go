package handlers

import (
	"net/http"

	"failarchive/internal/models"
	"failarchive/internal/services"

	"github.com/gin-gonic/gin"
)

type ReuseHandler struct {
	ledger *services.ReuseLedger
}

func NewReuseHandler(ledger *services.ReuseLedger) *ReuseHandler {
	return &ReuseHandler{ledger: ledger}
}

type declareRequest struct {
	FailureRecordID string           `json:"failureRecordId"`
	Type            models.ReuseType `json:"type"`
	PrivateNotes    *string          `json:"privateNotes"`
}

func (h *ReuseHandler) Declare(c *gin.Context) {
	var req declareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	user := mustUser(c)
	rec, err := h.ledger.Declare(c.Request.Context(), req.FailureRecordID, user.ID, req.Type, req.PrivateNotes)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reuseRecord": rec})
}

func (h *ReuseHandler) List(c *gin.Context) {
	reuses, err := h.ledger.ListForUser(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reuses": reuses})
}
