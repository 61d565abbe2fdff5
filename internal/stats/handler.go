package stats

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/confraria/backend/internal/middleware"
	"github.com/confraria/backend/pkg/response"
)

// Handler handles stats HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a stats handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Me handles GET /stats/me and returns the caller's activity summary.
func (h *Handler) Me(c *gin.Context) {
	memberID := c.MustGet(middleware.ContextMemberID).(uuid.UUID)
	s, err := h.repo.MemberStats(c.Request.Context(), memberID)
	if err != nil {
		response.Internal(c, "failed to compute stats")
		return
	}
	response.OK(c, s)
}

// Member handles GET /stats/members/:id.
func (h *Handler) Member(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	s, err := h.repo.MemberStats(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to compute stats")
		return
	}
	response.OK(c, s)
}

// Leaderboard handles GET /stats/leaderboard.
func (h *Handler) Leaderboard(c *gin.Context) {
	list, err := h.repo.Leaderboard(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to compute leaderboard")
		return
	}
	response.OK(c, list)
}
