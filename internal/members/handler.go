package members

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confraria/backend/internal/auth"
	"github.com/confraria/backend/internal/middleware"
	"github.com/confraria/backend/internal/models"
	"github.com/confraria/backend/pkg/queue"
	"github.com/confraria/backend/pkg/response"
	"github.com/confraria/backend/pkg/storage"
)

// CreateRequest is the body for POST /members (admin provisioning, bypasses
// the candidate vote).
type CreateRequest struct {
	Name         string      `json:"name" binding:"required"`
	Email        string      `json:"email" binding:"required,email"`
	Phone        string      `json:"phone"`
	Company      string      `json:"company"`
	Companies    []string    `json:"companies"`
	Role         models.Role `json:"role" binding:"omitempty,oneof=MASTER ADMIN PARTICIPANT"`
	Bio          string      `json:"bio"`
	RevenueRange string      `json:"revenue_range"`
}

// UpdateRequest is the body for PATCH /members/:id.
type UpdateRequest struct {
	Name         string   `json:"name" binding:"required"`
	Phone        string   `json:"phone"`
	Company      string   `json:"company"`
	Companies    []string `json:"companies"`
	Bio          string   `json:"bio"`
	RevenueRange string   `json:"revenue_range"`
}

// StatusRequest is the body for PATCH /members/:id/status (admin).
type StatusRequest struct {
	Status models.MemberStatus `json:"status" binding:"required,oneof=ACTIVE PENDING_APPROVAL SUSPENDED"`
}

// RoleRequest is the body for PATCH /members/:id/role (MASTER).
type RoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=MASTER ADMIN PARTICIPANT"`
}

// Handler handles member directory HTTP endpoints.
type Handler struct {
	repo   *Repository
	issuer *auth.CredentialIssuer
	queue  *queue.Queue
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a members handler. s3 may be nil when avatar storage
// is not configured.
func NewHandler(repo *Repository, issuer *auth.CredentialIssuer, q *queue.Queue, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, issuer: issuer, queue: q, s3: s3, logger: logger}
}

// Create handles POST /members (MASTER/ADMIN). Provisions a login with a
// temporary password and mails it to the new member.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleParticipant
	}

	ctx := c.Request.Context()
	cred, err := h.issuer.IssueCredential(ctx, req.Email, req.Name)
	if err != nil {
		h.logger.Error("credential issuance", zap.Error(err), zap.String("email", req.Email))
		response.Internal(c, "failed to provision login")
		return
	}
	company := req.Company
	if company == "" && len(req.Companies) > 0 {
		company = req.Companies[0]
	}
	m, err := h.repo.Create(ctx, CreateParams{
		AccountID:    cred.AccountID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      company,
		Companies:    req.Companies,
		Role:         role,
		Status:       models.StatusActive,
		Bio:          req.Bio,
		RevenueRange: req.RevenueRange,
	})
	if err != nil {
		response.Internal(c, "failed to create member")
		return
	}
	if err := h.queue.EnqueueWelcomeEmail(ctx, queue.WelcomeEmailPayload{
		MemberID:     m.ID,
		Recipient:    m.Email,
		Name:         m.Name,
		TempPassword: cred.TempPassword,
	}); err != nil {
		h.logger.Error("welcome email enqueue", zap.Error(err), zap.String("member_id", m.ID.String()))
	}
	response.Created(c, gin.H{"member": m, "temp_password": cred.TempPassword})
}

// List handles GET /members.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list members")
		return
	}
	for i := range list {
		h.attachAvatarURL(c, &list[i])
	}
	response.OK(c, list)
}

// Get handles GET /members/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrMemberNotFound) {
		response.NotFound(c, "member not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load member")
		return
	}
	h.attachAvatarURL(c, m)
	response.OK(c, m)
}

// Update handles PATCH /members/:id. Members edit their own profile;
// MASTER and ADMIN may edit anyone's.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	if !h.selfOrAdmin(c, id) {
		response.Forbidden(c, "cannot edit another member's profile")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	company := req.Company
	if company == "" && len(req.Companies) > 0 {
		company = req.Companies[0]
	}
	m, err := h.repo.UpdateProfile(c.Request.Context(), id, UpdateParams{
		Name:         req.Name,
		Phone:        req.Phone,
		Company:      company,
		Companies:    req.Companies,
		Bio:          req.Bio,
		RevenueRange: req.RevenueRange,
	})
	if errors.Is(err, ErrMemberNotFound) {
		response.NotFound(c, "member not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to update member")
		return
	}
	response.OK(c, m)
}

// SetStatus handles PATCH /members/:id/status (MASTER/ADMIN).
// Members are suspended or reactivated, never hard-deleted.
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			response.NotFound(c, "member not found")
			return
		}
		response.Internal(c, "failed to update status")
		return
	}
	response.OK(c, gin.H{"id": id, "status": req.Status})
}

// SetRole handles PATCH /members/:id/role (MASTER).
func (h *Handler) SetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: role must be MASTER, ADMIN or PARTICIPANT")
		return
	}
	if err := h.repo.SetRole(c.Request.Context(), id, req.Role); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			response.NotFound(c, "member not found")
			return
		}
		response.Internal(c, "failed to update role")
		return
	}
	response.OK(c, gin.H{"id": id, "role": req.Role})
}

// UploadAvatar handles POST /members/:id/avatar (multipart form, field "file").
func (h *Handler) UploadAvatar(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "avatar storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	if !h.selfOrAdmin(c, id) {
		response.Forbidden(c, "cannot change another member's avatar")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxAvatarFileSize {
		response.BadRequest(c, "avatar exceeds maximum size")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateAvatarFileType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported avatar file type")
		return
	}

	key := storage.AvatarKey(id.String(), header.Filename)
	if err := h.s3.Upload(c.Request.Context(), key, contentType, file); err != nil {
		h.logger.Error("avatar upload", zap.Error(err), zap.String("member_id", id.String()))
		response.BadGateway(c, "avatar upload failed")
		return
	}
	if err := h.repo.SetAvatarKey(c.Request.Context(), id, key); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			response.NotFound(c, "member not found")
			return
		}
		response.Internal(c, "failed to record avatar")
		return
	}

	url, err := h.s3.PresignGet(c.Request.Context(), key)
	if err != nil {
		url = ""
	}
	response.OK(c, gin.H{"avatar_key": key, "avatar_url": url})
}

func (h *Handler) selfOrAdmin(c *gin.Context, target uuid.UUID) bool {
	memberID := c.MustGet(middleware.ContextMemberID).(uuid.UUID)
	if memberID == target {
		return true
	}
	role, _ := c.MustGet(middleware.ContextMemberRole).(string)
	return role == string(models.RoleMaster) || role == string(models.RoleAdmin)
}

func (h *Handler) attachAvatarURL(c *gin.Context, m *models.Member) {
	if h.s3 == nil || m.AvatarKey == "" {
		return
	}
	if url, err := h.s3.PresignGet(c.Request.Context(), m.AvatarKey); err == nil {
		m.AvatarURL = url
	}
}
