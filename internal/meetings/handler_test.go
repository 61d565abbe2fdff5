package meetings

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil)
	router := gin.New()
	router.GET("/term", h.Term)
	router.POST("/meetings", h.Create)
	router.PATCH("/meetings/:id", h.Update)
	router.DELETE("/meetings/:id", h.Delete)
	return router, h
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestTermReturnsConfidentialityText(t *testing.T) {
	router, _ := newTestRouter()
	w := perform(router, http.MethodGet, "/term", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TERMO DE CONFIDENCIALIDADE E SIGILO")
}

func TestCreateRejectsMalformedSchedule(t *testing.T) {
	router, _ := newTestRouter()
	// date must be YYYY-MM-DD and time HH:MM.
	w := perform(router, http.MethodPost, "/meetings",
		`{"date":"12/05/2026","time":"19h","location":"Sede"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRejectsInvalidID(t *testing.T) {
	router, _ := newTestRouter()
	w := perform(router, http.MethodPatch, "/meetings/not-a-uuid",
		`{"date":"2026-09-01","time":"19:00","location":"Sede"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRejectsMalformedBody(t *testing.T) {
	router, _ := newTestRouter()
	w := perform(router, http.MethodPatch, "/meetings/7a9d8f00-0000-4000-8000-000000000001",
		`{"date":"","time":"19:00"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRejectsInvalidID(t *testing.T) {
	router, _ := newTestRouter()
	w := perform(router, http.MethodDelete, "/meetings/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
