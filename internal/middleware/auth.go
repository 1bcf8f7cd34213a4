package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paperlink/core/internal/pkg/jwt"
	"github.com/paperlink/core/internal/pkg/response"
)

// ContextKeySubject carries the authenticated subject through the request.
const ContextKeySubject = "auth_subject"

// Auth returns a middleware that enforces JWT authentication on admin routes.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := jwt.Parse(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}
