package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// trackingPrefix is the public viewer-facing surface. Those hits are the
// bulk of traffic and carry no admin intent, so they log at debug to keep
// production logs readable.
const trackingPrefix = "/t/"

// Logger emits one zap line per request: method, route, status, latency and
// client IP, plus the slug on tracking hits and any handler errors.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if strings.HasPrefix(path, trackingPrefix) {
			if slug := c.Param("slug"); slug != "" {
				fields = append(fields, zap.String("slug", slug))
			}
			log.Debug("track", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
