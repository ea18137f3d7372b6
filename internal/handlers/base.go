package handlers

import (
	"errors"
	"net/http"

	"failarchive/internal/apperr"
	"failarchive/internal/middleware"
	"failarchive/internal/models"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:     http.StatusBadRequest,
	apperr.KindAuthentication: http.StatusUnauthorized,
	apperr.KindForbidden:      http.StatusForbidden,
	apperr.KindNotFound:       http.StatusNotFound,
	apperr.KindExternal:       http.StatusBadGateway,
}

// RespondError 按错误类别返回状态码。内部错误只返回通用文案，细节交给请求日志
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)

	kind := apperr.KindOf(err)
	code, ok := statusByKind[kind]
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "kind": apperr.KindInternal})
		return
	}

	message := err.Error()
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if kind == apperr.KindNotFound {
		message = "not found"
	}
	c.JSON(code, gin.H{"error": message, "kind": kind})
}

// BindError 请求体无法解析
func BindError(c *gin.Context, err error) {
	RespondError(c, apperr.Validation("invalid request body: %v", err))
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// mustUser 只在 AuthRequired 之后的路由里使用
func mustUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.CheckUserKey).(*models.User)
}
