package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"creatorstribe/internal/repository"
	"creatorstribe/internal/service"
)

const (
	ContextClaims    = "access_claims"
	ContextAdmin     = "current_admin"
	ContextPrincipal = "principal"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token, ip, userAgent string) (service.Principal, error)
}

func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		principal, err := auth.Authenticate(c.Request.Context(), tokenStr, c.ClientIP(), c.GetHeader("User-Agent"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			case errors.Is(err, repository.ErrSessionNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			case errors.Is(err, service.ErrSessionMismatch):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			case errors.Is(err, repository.ErrAdminNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			case errors.Is(err, service.ErrAdminSuspended):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
			default:
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth_unavailable"})
			}
			return
		}

		c.Set(ContextClaims, principal.Claims)
		c.Set(ContextAdmin, principal.Admin)
		c.Set(ContextPrincipal, principal)

		c.Next()
	}
}

// CurrentPrincipal returns the caller stored by Auth.
func CurrentPrincipal(c *gin.Context) (service.Principal, bool) {
	val, ok := c.Get(ContextPrincipal)
	if !ok {
		return service.Principal{}, false
	}
	principal, ok := val.(service.Principal)
	return principal, ok
}
