package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confraria/backend/internal/auth"
)

func performAuthenticated(t *testing.T, svc *auth.JWTService, header string, inspect gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", JWT(svc), inspect, func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestJWTMiddlewareSetsMemberContext(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	memberID := uuid.New()
	token, err := svc.Generate(memberID, "jose@example.com", "PARTICIPANT")
	require.NoError(t, err)

	w := performAuthenticated(t, svc, "Bearer "+token, func(c *gin.Context) {
		assert.Equal(t, memberID, c.MustGet(ContextMemberID))
		assert.Equal(t, "PARTICIPANT", c.MustGet(ContextMemberRole))
		// The auth package reads the email back under its own key.
		email, ok := c.Get(auth.ContextEmailKey)
		assert.True(t, ok)
		assert.Equal(t, "jose@example.com", email)
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	w := performAuthenticated(t, svc, "", func(c *gin.Context) {})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsBadToken(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	w := performAuthenticated(t, svc, "Bearer garbage", func(c *gin.Context) {})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
