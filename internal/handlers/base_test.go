package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"failarchive/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		code    int
		kind    apperr.Kind
		message string
	}{
		{"validation", apperr.Validation("title is required"), http.StatusBadRequest, apperr.KindValidation, "title is required"},
		{"auth", apperr.Authentication("authentication required"), http.StatusUnauthorized, apperr.KindAuthentication, "authentication required"},
		{"forbidden", apperr.Forbidden("admin access required"), http.StatusForbidden, apperr.KindForbidden, "admin access required"},
		{"not found", apperr.NotFound("submission"), http.StatusNotFound, apperr.KindNotFound, "not found"},
		{"external", apperr.External("moderation service failed", errors.New("timeout")), http.StatusBadGateway, apperr.KindExternal, "moderation service failed"},
		{"wrapped", fmt.Errorf("load: %w", apperr.NotFound("user")), http.StatusNotFound, apperr.KindNotFound, "not found"},
		{"internal", errors.New("pq: connection reset"), http.StatusInternalServerError, apperr.KindInternal, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			RespondError(c, tc.err)

			assert.Equal(t, tc.code, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tc.kind), body["kind"])
			assert.Equal(t, tc.message, body["error"])
			assert.Len(t, c.Errors, 1)
		})
	}
}
