package link

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paperlink/core/internal/models"
	"github.com/paperlink/core/internal/pkg/pagination"
	"github.com/paperlink/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler exposes the link registry to admins.
type Handler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewHandler(db *gorm.DB, logger *zap.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// RegisterRoutes mounts the admin link routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/links", authMW)
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.remove)
}

type createLinkRequest struct {
	Name                 string  `json:"name" binding:"required"`
	Slug                 string  `json:"slug"`
	Kind                 string  `json:"kind"`
	TargetURL            string  `json:"target_url"`
	MimeType             string  `json:"mime_type"`
	TotalPages           int     `json:"total_pages"`
	VideoDurationSeconds float64 `json:"video_duration_seconds"`
	Timezone             string  `json:"timezone"`
}

func (h *Handler) create(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = models.LinkKindFile
	}
	if kind != models.LinkKindFile && kind != models.LinkKindURL {
		response.UnprocessableEntity(c, "kind must be \"file\" or \"url\"")
		return
	}
	if kind == models.LinkKindURL && req.TargetURL == "" {
		response.UnprocessableEntity(c, "url links require a target_url")
		return
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = uuid.New().String()[:8]
	}

	link := models.LinkModel{
		Name:                 req.Name,
		Slug:                 slug,
		Kind:                 kind,
		TargetURL:            req.TargetURL,
		MimeType:             req.MimeType,
		TotalPages:           req.TotalPages,
		VideoDurationSeconds: req.VideoDurationSeconds,
		Timezone:             req.Timezone,
		Active:               true,
	}
	if err := h.db.Create(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Conflict(c, "slug already in use")
			return
		}
		response.InternalError(c, err)
		return
	}

	h.logger.Info("link created", zap.String("id", link.ID), zap.String("slug", link.Slug), zap.String("kind", link.Kind))
	response.Created(c, link)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	tx := h.db.Model(&models.LinkModel{}).Order("created_at DESC")
	if kind := c.Query("kind"); kind != "" {
		tx = tx.Where("kind = ?", kind)
	}

	var items []models.LinkModel
	pag, err := pagination.Paginate(tx, q, &items)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) get(c *gin.Context) {
	var link models.LinkModel
	if err := h.db.First(&link, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, link)
}

func (h *Handler) remove(c *gin.Context) {
	result := h.db.Delete(&models.LinkModel{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		response.InternalError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}
