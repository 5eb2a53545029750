package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// Recovery turns a handler panic into a 500 without leaking details.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logx.Error().
			Str("request_id", RequestIDFrom(c)).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
