package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/confraria/backend/internal/models"
)

func performWithRole(t *testing.T, role string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	router := gin.New()
	router.GET("/x",
		func(c *gin.Context) {
			if role != "" {
				c.Set(ContextMemberRole, role)
			}
		},
		handler,
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequireRoleAllowsListedRoles(t *testing.T) {
	mw := RequireRole(models.RoleMaster, models.RoleAdmin)
	assert.Equal(t, http.StatusOK, performWithRole(t, "MASTER", mw).Code)
	assert.Equal(t, http.StatusOK, performWithRole(t, "ADMIN", mw).Code)
}

func TestRequireRoleForbidsOthers(t *testing.T) {
	mw := RequireRole(models.RoleMaster, models.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, performWithRole(t, "PARTICIPANT", mw).Code)
}

func TestRequireRoleWithoutContext(t *testing.T) {
	mw := RequireRole(models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, performWithRole(t, "", mw).Code)
}
