package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a JSON 500. It logs through the
// request-scoped logger when RequestID ran first.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			reqLog := &log
			if ctxLog := zerolog.Ctx(c.Request.Context()); ctxLog.GetLevel() != zerolog.Disabled {
				reqLog = ctxLog
			}
			event := reqLog.Error().
				Interface("panic", r).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Bytes("stack", debug.Stack())
			if admin, ok := currentAdmin(c); ok {
				event = event.Str("admin_id", admin.ID)
			}
			event.Msg("panic recovered")

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal_server_error",
			})
		}()
		c.Next()
	}
}
