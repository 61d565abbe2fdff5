package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/confraria/backend/internal/models"
	"github.com/confraria/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
// Admin surfaces are gated with RequireRole(models.RoleMaster, models.RoleAdmin).
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextMemberRole)
		if !ok {
			response.Unauthorized(c, "missing member context")
			c.Abort()
			return
		}
		role, _ := roleVal.(string)
		if _, ok := allowed[models.Role(role)]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
