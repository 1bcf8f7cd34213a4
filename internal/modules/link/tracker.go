package link

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperlink/core/internal/models"
	"github.com/paperlink/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tracker serves the public tracking endpoints: the redirect for url links
// and the view-event ingest for file links. Every accepted request becomes
// one AccessLogModel row.
type Tracker struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewTracker(db *gorm.DB, logger *zap.Logger) *Tracker {
	return &Tracker{db: db, logger: logger}
}

// RegisterRoutes mounts the public tracking routes (no auth).
func (t *Tracker) RegisterRoutes(r *gin.Engine) {
	r.GET("/t/:slug", t.click)
	r.POST("/t/:slug/events", t.event)
}

// click records a tracked-URL click and redirects, or records a plain view
// for file links.
func (t *Tracker) click(c *gin.Context) {
	link, ok := t.findActive(c)
	if !ok {
		return
	}

	row := t.baseRow(c, link)
	if row != nil {
		t.persist(row)
	}

	if link.Kind == models.LinkKindURL && link.TargetURL != "" {
		c.Redirect(http.StatusFound, link.TargetURL)
		return
	}
	response.OK(c, gin.H{"recorded": row != nil})
}

type viewEventRequest struct {
	ViewerEmail          string          `json:"viewer_email"`
	ViewerName           string          `json:"viewer_name"`
	SessionID            string          `json:"session_id"`
	TotalDurationSeconds float64         `json:"total_duration_seconds"`
	CompletionPercentage *float64        `json:"completion_percentage"`
	WatchTimeSeconds     *float64        `json:"watch_time_seconds"`
	VideoDurationSeconds *float64        `json:"video_duration_seconds"`
	Downloaded           bool            `json:"downloaded"`
	DownloadCount        int             `json:"download_count"`
	PagesTime            map[int]float64 `json:"pages_time"`
	SegmentsTime         map[int]float64 `json:"segments_time"`
	ExitPage             int             `json:"exit_page"`
	Language             string          `json:"language"`
}

// event ingests an engagement payload from the viewer for file links.
func (t *Tracker) event(c *gin.Context) {
	link, ok := t.findActive(c)
	if !ok {
		return
	}

	var req viewEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	row := t.baseRow(c, link)
	if row == nil {
		// Bot or local traffic; acknowledge without recording.
		response.OK(c, gin.H{"recorded": false})
		return
	}

	row.ViewerEmail = strings.TrimSpace(req.ViewerEmail)
	row.ViewerName = strings.TrimSpace(req.ViewerName)
	if req.SessionID != "" {
		row.SessionID = req.SessionID
	}
	row.TotalDurationSeconds = req.TotalDurationSeconds
	row.CompletionPercentage = req.CompletionPercentage
	row.WatchTimeSeconds = req.WatchTimeSeconds
	row.VideoDurationSeconds = req.VideoDurationSeconds
	row.Downloaded = req.Downloaded
	row.DownloadCount = req.DownloadCount
	row.PagesTime = req.PagesTime
	row.SegmentsTime = req.SegmentsTime
	row.ExitPage = req.ExitPage
	if req.Language != "" {
		row.Language = req.Language
	}

	t.persist(row)
	response.OK(c, gin.H{"recorded": true})
}

func (t *Tracker) findActive(c *gin.Context) (*models.LinkModel, bool) {
	var link models.LinkModel
	err := t.db.First(&link, "slug = ? AND active = ?", c.Param("slug"), true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
		} else {
			response.InternalError(c, err)
		}
		return nil, false
	}
	return &link, true
}

// baseRow builds the identity/dimension part of an access-log row from the
// request, or nil when the request should not be tracked at all.
func (t *Tracker) baseRow(c *gin.Context, link *models.LinkModel) *models.AccessLogModel {
	ua := c.GetHeader("User-Agent")
	if IsBotUA(ua) {
		return nil
	}

	ip := strings.TrimSpace(c.ClientIP())
	if ip == "127.0.0.1" || ip == "localhost" || ip == "::1" {
		ip = ""
	}

	info := ParseUA(ua)
	referer := c.GetHeader("Referer")

	// mark this visit a return visit if the same identity has earlier rows.
	returnVisit := false
	if ip != "" {
		var prior int64
		t.db.Model(&models.AccessLogModel{}).
			Where("link_id = ? AND ip_address = ?", link.ID, ip).
			Count(&prior)
		returnVisit = prior > 0
	}

	return &models.AccessLogModel{
		LinkID:        link.ID,
		AccessedAt:    time.Now(),
		IPAddress:     ip,
		SessionID:     c.Query("sid"),
		ReturnVisit:   returnVisit,
		DeviceType:    info.DeviceType,
		Browser:       info.Browser,
		OS:            info.OS,
		Language:      c.GetHeader("Accept-Language"),
		TrafficSource: ClassifyTrafficSource(referer, c.Query("qr"), c.Query("utm_source")),
		UTMSource:     c.Query("utm_source"),
		UTMMedium:     c.Query("utm_medium"),
		UTMCampaign:   c.Query("utm_campaign"),
	}
}

func (t *Tracker) persist(row *models.AccessLogModel) {
	if err := t.db.Create(row).Error; err != nil {
		t.logger.Warn("failed to record access log", zap.String("link_id", row.LinkID), zap.Error(err))
	}
}
