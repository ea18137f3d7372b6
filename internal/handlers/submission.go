package handlers

import (
	"net/http"

	"failarchive/internal/services"
	"failarchive/internal/utils"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	submissions *services.SubmissionService
	tokens      *services.TokenService
}

func NewSubmissionHandler(submissions *services.SubmissionService, tokens *services.TokenService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, tokens: tokens}
}

// Create 已登录用户或持匿名令牌的访客提交失败记录
func (h *SubmissionHandler) Create(c *gin.Context) {
	var in services.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BindError(c, err)
		return
	}

	rec, err := h.submissions.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"id":         rec.ID,
		"status":     rec.Status,
		"moderation": rec.Moderation,
	})
}

func (h *SubmissionHandler) List(c *gin.Context) {
	result, err := h.submissions.List(c.Request.Context(), services.ListFilter{
		Type:   c.Query("type"),
		Domain: c.Query("domain"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
		Page:   utils.StringToInt(c.Query("page"), 1),
		Limit:  utils.StringToInt(c.Query("limit"), services.DefaultPageLimit),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SubmissionHandler) Detail(c *gin.Context) {
	view, err := h.submissions.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": view})
}

// IssueToken 签发匿名提交令牌
func (h *SubmissionHandler) IssueToken(c *gin.Context) {
	tok, err := h.tokens.Issue(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": tok.Token, "expiresAt": tok.ExpiresAt})
}
