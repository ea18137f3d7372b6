package handlers

import (
	"net/http"

	"failarchive/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	submissions *services.SubmissionService
}

func NewDashboardHandler(submissions *services.SubmissionService) *DashboardHandler {
	return &DashboardHandler{submissions: submissions}
}

// Submissions 我的提交及统计
func (h *DashboardHandler) Submissions(c *gin.Context) {
	subs, stats, err := h.submissions.ListForOwner(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs, "stats": stats})
}

// Submission 我的某条提交的完整内容
func (h *DashboardHandler) Submission(c *gin.Context) {
	view, err := h.submissions.GetForOwner(c.Request.Context(), mustUser(c).ID, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
