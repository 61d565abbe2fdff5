package challenges

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/confraria/backend/internal/middleware"
	"github.com/confraria/backend/internal/models"
	"github.com/confraria/backend/internal/realtime"
	"github.com/confraria/backend/pkg/response"
)

// CreateRequest is the body for POST /challenges.
type CreateRequest struct {
	Content string `json:"content" binding:"required,min=10"`
}

// ContributeRequest is the body for POST /challenges/:id/contributions.
type ContributeRequest struct {
	Content string `json:"content" binding:"required"`
}

// Handler handles challenge HTTP endpoints.
type Handler struct {
	repo    *Repository
	service *Service
	hub     *realtime.Hub
}

// NewHandler creates a challenges handler.
func NewHandler(repo *Repository, service *Service, hub *realtime.Hub) *Handler {
	return &Handler{repo: repo, service: service, hub: hub}
}

// Create handles POST /challenges.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	authorID := c.MustGet(middleware.ContextMemberID).(uuid.UUID)

	ch := &models.Challenge{AuthorID: authorID, Content: req.Content}
	if err := h.repo.Create(c.Request.Context(), ch); err != nil {
		response.Internal(c, "failed to create challenge")
		return
	}
	h.hub.Broadcast(realtime.EventChallengeCreated, gin.H{"id": ch.ID, "author_id": authorID})
	response.Created(c, ch)
}

// List handles GET /challenges. Soft-deleted challenges are excluded.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list challenges")
		return
	}
	response.OK(c, list)
}

// Get handles GET /challenges/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid challenge id")
		return
	}
	ch, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrChallengeNotFound) {
		response.NotFound(c, "challenge not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load challenge")
		return
	}
	response.OK(c, ch)
}

// Close handles POST /challenges/:id/close. Author or admin only;
// reopening is not supported.
func (h *Handler) Close(c *gin.Context) {
	h.transition(c, h.repo.Close, models.ChallengeClosed)
}

// Delete handles DELETE /challenges/:id. Author or admin only; the
// challenge is soft-deleted and disappears from listings.
func (h *Handler) Delete(c *gin.Context) {
	h.transition(c, h.repo.SoftDelete, models.ChallengeDeleted)
}

// Contribute handles POST /challenges/:id/contributions. The text is
// classified as CONTACT or ADVICE; submissions too short to classify are
// rejected.
func (h *Handler) Contribute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid challenge id")
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	authorID := c.MustGet(middleware.ContextMemberID).(uuid.UUID)

	contribution, challenge, err := h.service.RecordContribution(c.Request.Context(), id, authorID, req.Content)
	switch {
	case errors.Is(err, ErrUndetermined):
		response.BadRequest(c, "contribution too short to classify")
		return
	case errors.Is(err, ErrChallengeNotFound):
		response.NotFound(c, "challenge not found")
		return
	case errors.Is(err, ErrChallengeNotOpen):
		response.Conflict(c, "challenge is not open for contributions")
		return
	case err != nil:
		response.Internal(c, "failed to record contribution")
		return
	}

	h.hub.Broadcast(realtime.EventContributionAdded, gin.H{
		"challenge_id": id,
		"type":         contribution.Type,
	})
	response.Created(c, gin.H{"contribution": contribution, "challenge": challenge})
}

func (h *Handler) transition(c *gin.Context, op func(context.Context, uuid.UUID) error, to models.ChallengeStatus) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid challenge id")
		return
	}
	if !h.authorOrAdmin(c, id) {
		response.Forbidden(c, "only the author or an admin can change a challenge")
		return
	}
	if err := op(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrChallengeNotFound):
			response.NotFound(c, "challenge not found")
		case errors.Is(err, ErrChallengeNotOpen):
			response.Conflict(c, "challenge is already "+string(to)+" or in a terminal status")
		default:
			response.Internal(c, "failed to update challenge")
		}
		return
	}
	response.OK(c, gin.H{"id": id, "status": to})
}

func (h *Handler) authorOrAdmin(c *gin.Context, id uuid.UUID) bool {
	role, _ := c.MustGet(middleware.ContextMemberRole).(string)
	if role == string(models.RoleMaster) || role == string(models.RoleAdmin) {
		return true
	}
	ch, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		// Let the transition surface the not-found.
		return true
	}
	memberID := c.MustGet(middleware.ContextMemberID).(uuid.UUID)
	return ch.AuthorID == memberID
}
