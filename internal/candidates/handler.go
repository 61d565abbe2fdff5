package candidates

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confraria/backend/internal/approval"
	"github.com/confraria/backend/internal/middleware"
	"github.com/confraria/backend/internal/models"
	"github.com/confraria/backend/internal/realtime"
	"github.com/confraria/backend/pkg/queue"
	"github.com/confraria/backend/pkg/response"
)

// NominateRequest is the body for POST /candidates.
type NominateRequest struct {
	Name         string   `json:"name" binding:"required"`
	Email        string   `json:"email" binding:"required,email"`
	Phone        string   `json:"phone"`
	Companies    []string `json:"companies"`
	Role         string   `json:"role"`
	RevenueRange string   `json:"revenue_range"`
	Bio          string   `json:"bio"`
}

// VoteRequest is the body for POST /candidates/:id/vote.
type VoteRequest struct {
	Vote models.VoteValue `json:"vote" binding:"required,oneof=APPROVE VETO"`
}

// Handler handles candidate HTTP endpoints.
type Handler struct {
	repo   *Repository
	engine *approval.Engine
	queue  *queue.Queue
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewHandler creates a candidates handler.
func NewHandler(repo *Repository, engine *approval.Engine, q *queue.Queue, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, engine: engine, queue: q, hub: hub, logger: logger}
}

// Nominate handles POST /candidates.
func (h *Handler) Nominate(c *gin.Context) {
	var req NominateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	nominatorID := c.MustGet(middleware.ContextMemberID).(uuid.UUID)

	company := ""
	if len(req.Companies) > 0 {
		company = req.Companies[0]
	}
	role := req.Role
	if role == "" {
		role = "CEO"
	}
	candidate := &models.Candidate{
		NominatorID:  nominatorID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      company,
		Companies:    req.Companies,
		Role:         role,
		RevenueRange: req.RevenueRange,
		Bio:          req.Bio,
	}
	if err := h.repo.Create(c.Request.Context(), candidate); err != nil {
		response.Internal(c, "failed to create nomination")
		return
	}
	response.Created(c, candidate)
}

// List handles GET /candidates. Returns the pending pool.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list candidates")
		return
	}
	response.OK(c, list)
}

// Vote handles POST /candidates/:id/vote. On quorum the candidate is
// promoted: the one-time password is returned to the voter who triggered
// the crossing and mailed to the new member.
func (h *Handler) Vote(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid candidate id")
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: vote must be APPROVE or VETO")
		return
	}
	memberID := c.MustGet(middleware.ContextMemberID).(uuid.UUID)

	result, err := h.engine.CastVote(c.Request.Context(), candidateID, memberID, req.Vote)
	switch {
	case errors.Is(err, approval.ErrCandidateNotFound):
		response.NotFound(c, "candidate not found")
		return
	case errors.Is(err, approval.ErrMemberNotFound):
		response.NotFound(c, "member not found")
		return
	case errors.Is(err, approval.ErrPromotionFailed):
		// Votes are preserved; distinguishable from an ordinary vote error.
		response.BadGateway(c, "approved but credential issuance failed; vote again to retry")
		return
	case err != nil:
		response.Internal(c, "failed to register vote")
		return
	}

	if result.Promoted {
		if qerr := h.queue.EnqueueWelcomeEmail(c.Request.Context(), queue.WelcomeEmailPayload{
			MemberID:     result.Member.ID,
			Recipient:    result.Member.Email,
			Name:         result.Member.Name,
			TempPassword: result.TempPassword,
		}); qerr != nil {
			h.logger.Error("enqueue welcome email", zap.Error(qerr),
				zap.String("member_id", result.Member.ID.String()))
		}
		h.hub.Broadcast(realtime.EventCandidatePromoted, gin.H{
			"candidate_id": candidateID,
			"member_id":    result.Member.ID,
			"name":         result.Member.Name,
		})
	}
	response.OK(c, result)
}

// Reject handles POST /candidates/:id/reject (MASTER/ADMIN).
func (h *Handler) Reject(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid candidate id")
		return
	}
	if err := h.repo.Reject(c.Request.Context(), candidateID); err != nil {
		if errors.Is(err, approval.ErrCandidateNotFound) {
			response.NotFound(c, "candidate not found or already resolved")
			return
		}
		response.Internal(c, "failed to reject candidate")
		return
	}
	response.OK(c, gin.H{"id": candidateID, "status": models.CandidateRejected})
}
