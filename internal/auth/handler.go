package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confraria/backend/internal/models"
	"github.com/confraria/backend/pkg/queue"
	"github.com/confraria/backend/pkg/response"
	"github.com/confraria/backend/pkg/utils"
)

// ContextEmailKey is the gin context key carrying the authenticated
// account's email. The JWT middleware sets it; defined here so the
// middleware and this package share one definition.
const ContextEmailKey = "user_email"

// MemberLoader resolves the member profile attached to an account.
// Implemented by the members repository.
type MemberLoader interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Member, error)
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RecoverRequest is the body for POST /auth/recover.
type RecoverRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ChangePasswordRequest is the body for PATCH /auth/password.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// TokenResponse is the auth response with JWT and member profile.
type TokenResponse struct {
	Token  string         `json:"token"`
	Member *models.Member `json:"member"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo    *Repository
	members MemberLoader
	jwt     *JWTService
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, members MemberLoader, jwt *JWTService, q *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, members: members, jwt: jwt, queue: q, logger: logger}
}

// Login handles POST /auth/login. Suspended members cannot log in.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	account, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, account.PasswordHash) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	member, err := h.members.GetByAccountID(c.Request.Context(), account.ID)
	if err != nil {
		response.Unauthorized(c, "authenticated but no member profile found")
		return
	}
	if member.Status == models.StatusSuspended {
		response.Forbidden(c, "membership suspended")
		return
	}

	token, err := h.jwt.Generate(member.ID, member.Email, string(member.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, Member: member})
}

// Recover handles POST /auth/recover. Always responds 200 so the endpoint
// does not leak which emails hold accounts.
func (h *Handler) Recover(c *gin.Context) {
	var req RecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	account, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err == nil {
		member, merr := h.members.GetByAccountID(c.Request.Context(), account.ID)
		name := ""
		if merr == nil {
			name = member.Name
		}
		if qerr := h.queue.EnqueueRecoveryEmail(c.Request.Context(), queue.RecoveryEmailPayload{
			Recipient: account.Email,
			Name:      name,
		}); qerr != nil {
			h.logger.Error("enqueue recovery email", zap.Error(qerr))
		}
	} else if !errors.Is(err, ErrAccountNotFound) {
		h.logger.Error("recover lookup", zap.Error(err))
	}
	response.OK(c, gin.H{"sent": true})
}

// ChangePassword handles PATCH /auth/password for the logged-in member.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	emailVal, ok := c.Get(ContextEmailKey)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	email, _ := emailVal.(string)

	account, err := h.repo.GetByEmail(c.Request.Context(), email)
	if err != nil {
		response.Unauthorized(c, "account not found")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), account.ID, hash); err != nil {
		response.Internal(c, "failed to update password")
		return
	}
	response.OK(c, gin.H{"changed": true})
}
