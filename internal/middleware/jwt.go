package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/confraria/backend/internal/auth"
	"github.com/confraria/backend/pkg/response"
)

const (
	// ContextMemberID is the key for member ID in gin context.
	ContextMemberID = "member_id"
	// ContextMemberRole is the key for member role in gin context.
	ContextMemberRole = "member_role"
	// ContextMemberEmail is the key for member email in gin context,
	// shared with the auth package which reads it back.
	ContextMemberEmail = auth.ContextEmailKey
)

// JWT returns a middleware that validates JWT and sets member claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextMemberID, claims.MemberID)
		c.Set(ContextMemberRole, claims.Role)
		c.Set(ContextMemberEmail, claims.Email)
		c.Next()
	}
}
