// Package auth issues the admin JWT from a password login.
package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperlink/core/internal/pkg/jwt"
	"github.com/paperlink/core/internal/pkg/response"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 7 * 24 * time.Hour

// Handler validates the admin password against its bcrypt hash and signs
// access tokens. There is a single admin identity; viewer traffic never
// authenticates.
type Handler struct {
	passwordHash string
	logger       *zap.Logger
}

func NewHandler(passwordHash string, logger *zap.Logger) *Handler {
	return &Handler{passwordHash: passwordHash, logger: logger}
}

// RegisterRoutes mounts the public login route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.login)
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if h.passwordHash == "" {
		response.Unauthorized(c)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		h.logger.Warn("failed login attempt", zap.String("ip", c.ClientIP()))
		response.Unauthorized(c)
		return
	}

	token, err := jwt.Sign("admin", tokenTTL)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"token":      token,
		"expires_in": int(tokenTTL.Seconds()),
	})
}
