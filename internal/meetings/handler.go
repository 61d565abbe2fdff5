package meetings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/confraria/backend/internal/middleware"
	"github.com/confraria/backend/internal/models"
	"github.com/confraria/backend/internal/realtime"
	"github.com/confraria/backend/pkg/response"
)

// CreateRequest is the body for POST /meetings.
type CreateRequest struct {
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	Time        string `json:"time" binding:"required,datetime=15:04"`
	Location    string `json:"location" binding:"required"`
	Description string `json:"description"`
}

// Handler handles meeting HTTP endpoints.
type Handler struct {
	repo *Repository
	hub  *realtime.Hub
}

// NewHandler creates a meetings handler.
func NewHandler(repo *Repository, hub *realtime.Hub) *Handler {
	return &Handler{repo: repo, hub: hub}
}

// Create handles POST /meetings (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m := &models.Meeting{
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Description: req.Description,
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to create meeting")
		return
	}
	h.hub.Broadcast(realtime.EventMeetingScheduled, gin.H{"id": m.ID, "date": m.Date, "time": m.Time})
	response.Created(c, m)
}

// List handles GET /meetings.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list meetings")
		return
	}
	response.OK(c, list)
}

// Get handles GET /meetings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrMeetingNotFound) {
		response.NotFound(c, "meeting not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load meeting")
		return
	}
	response.OK(c, m)
}

// Update handles PATCH /meetings/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, req.Date, req.Time, req.Location, req.Description); err != nil {
		if errors.Is(err, ErrMeetingNotFound) {
			response.NotFound(c, "meeting not found")
			return
		}
		response.Internal(c, "failed to update meeting")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load meeting")
		return
	}
	response.OK(c, m)
}

// Delete handles DELETE /meetings/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrMeetingNotFound) {
			response.NotFound(c, "meeting not found")
			return
		}
		response.Internal(c, "failed to delete meeting")
		return
	}
	response.OK(c, gin.H{"id": id, "deleted": true})
}

// Term handles GET /term and returns the confidentiality term the client
// must display before AcceptTerm.
func (h *Handler) Term(c *gin.Context) {
	response.OK(c, gin.H{"text": TermText})
}

// AcceptTerm handles POST /meetings/:id/accept-term. Accepting the term
// confirms presence; repeating the call changes nothing.
func (h *Handler) AcceptTerm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	memberID := c.MustGet(middleware.ContextMemberID).(uuid.UUID)

	if err := h.repo.AcceptTerm(c.Request.Context(), id, memberID); err != nil {
		if errors.Is(err, ErrMeetingNotFound) {
			response.NotFound(c, "meeting not found")
			return
		}
		response.Internal(c, "failed to record term acceptance")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load meeting")
		return
	}
	response.OK(c, m)
}
