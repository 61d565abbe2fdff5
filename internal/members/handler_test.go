package members

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func performRoleChange(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, nil, nil, nil)
	router := gin.New()
	router.PATCH("/members/:id/role", h.SetRole)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSetRoleRejectsInvalidID(t *testing.T) {
	w := performRoleChange(t, "/members/not-a-uuid/role", `{"role":"ADMIN"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	w := performRoleChange(t, "/members/7a9d8f00-0000-4000-8000-000000000001/role", `{"role":"EMPEROR"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetRoleRejectsMissingRole(t *testing.T) {
	w := performRoleChange(t, "/members/7a9d8f00-0000-4000-8000-000000000001/role", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
