package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"creatorstribe/internal/models"
)

// RequireRoles must run after Auth. Suspended admins never reach it; Auth
// rejects them first.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !slices.Contains(roles, admin.Role) {
			zerolog.Ctx(c.Request.Context()).Warn().
				Str("admin_id", admin.ID).
				Str("role", string(admin.Role)).
				Str("path", c.FullPath()).
				Msg("admin role not permitted")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}

func currentAdmin(c *gin.Context) (models.Admin, bool) {
	val, ok := c.Get(ContextAdmin)
	if !ok {
		return models.Admin{}, false
	}
	admin, ok := val.(models.Admin)
	return admin, ok
}
