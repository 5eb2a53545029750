package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// AccessLog writes one zerolog event per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logx.Info()
		if status >= 500 {
			ev = logx.Error()
		} else if status >= 400 {
			ev = logx.Warn()
		}
		ev.Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}
