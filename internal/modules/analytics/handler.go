package analytics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperlink/core/internal/models"
	"github.com/paperlink/core/internal/modules/analytics/engine"
	"github.com/paperlink/core/internal/pkg/redis"
	"github.com/paperlink/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultWindowDays = 30
	dateLayout        = "2006-01-02"
)

// Handler serves the admin analytics endpoints for a link.
type Handler struct {
	db        *gorm.DB
	memo      *memo
	logger    *zap.Logger
	defaultTZ string
}

func NewHandler(db *gorm.DB, cache *redis.Client, cacheTTL time.Duration, defaultTZ string, logger *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		memo:      newMemo(cache, cacheTTL, logger),
		logger:    logger,
		defaultTZ: defaultTZ,
	}
}

// RegisterRoutes mounts the analytics routes behind the auth middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/analytics", authMW)
	g.GET("/overview", h.overview)
	g.GET("/links/:id/summary", h.summary)
	g.GET("/links/:id/viewers", h.viewers)
	g.GET("/links/:id/performance", h.performance)
	g.GET("/links/:id/funnel", h.funnel)
	g.GET("/links/:id/timeseries", h.timeseries)
	g.GET("/links/:id/insights", h.insights)
	g.GET("/links/:id/actions", h.actions)
	g.DELETE("/logs", h.purgeLogs)
}

// reportQuery carries the parsed shared query parameters.
type reportQuery struct {
	from, to    time.Time
	tz          string
	loc         *time.Location
	granularity engine.Granularity
	limit       int
}

// parseQuery reads from/to/tz/granularity/limit from the request. Dates use
// 2006-01-02 in the report timezone; the window defaults to the last 30 days
// and "to" is end-exclusive at the start of the following day. The timezone
// resolves query param, then fallbackTZ (a link's own timezone), then the
// configured default.
func (h *Handler) parseQuery(c *gin.Context, fallbackTZ string) (reportQuery, error) {
	if fallbackTZ == "" {
		fallbackTZ = h.defaultTZ
	}
	q := reportQuery{tz: c.DefaultQuery("tz", fallbackTZ)}
	q.loc = engine.LoadLocation(q.tz)

	now := time.Now().In(q.loc)
	q.to = now
	q.from = now.AddDate(0, 0, -defaultWindowDays)

	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, q.loc)
		if err != nil {
			return q, errors.New("from must be formatted as 2006-01-02")
		}
		q.from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, q.loc)
		if err != nil {
			return q, errors.New("to must be formatted as 2006-01-02")
		}
		q.to = t.AddDate(0, 0, 1)
	}
	if !q.from.Before(q.to) {
		return q, errors.New("from must precede to")
	}

	switch g := engine.Granularity(c.DefaultQuery("granularity", string(engine.GranularityDay))); g {
	case engine.GranularityHour, engine.GranularityDay, engine.GranularityWeek, engine.GranularityMonth:
		q.granularity = g
	default:
		return q, errors.New("granularity must be hour, day, week or month")
	}

	q.limit = 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("limit must be a positive integer")
		}
		q.limit = n
	}
	return q, nil
}

func (q reportQuery) cacheParts() []string {
	return []string{
		strconv.FormatInt(q.from.Unix(), 10),
		strconv.FormatInt(q.to.Unix(), 10),
		q.tz,
		string(q.granularity),
		strconv.Itoa(q.limit),
	}
}

func (h *Handler) findLink(c *gin.Context) (*models.LinkModel, bool) {
	var link models.LinkModel
	if err := h.db.First(&link, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
		} else {
			response.InternalError(c, err)
		}
		return nil, false
	}
	return &link, true
}

func (h *Handler) fetchLogs(linkID string, q reportQuery) ([]engine.AccessLog, error) {
	var rows []models.AccessLogModel
	err := h.db.
		Where("link_id = ? AND accessed_at >= ? AND accessed_at < ?", linkID, q.from, q.to).
		Order("accessed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEngineLogs(rows), nil
}

// serve runs the shared fetch-compute-memoize pipeline for the per-link
// endpoints and writes the payload.
func (h *Handler) serve(c *gin.Context, endpoint string, compute func(link *models.LinkModel, logs []engine.AccessLog, q reportQuery) (interface{}, error)) {
	link, ok := h.findLink(c)
	if !ok {
		return
	}
	q, err := h.parseQuery(c, link.Timezone)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	key := cacheKey(endpoint, append([]string{link.ID}, q.cacheParts()...)...)
	raw, err := h.memo.fetch(c.Request.Context(), key, func() (interface{}, error) {
		logs, err := h.fetchLogs(link.ID, q)
		if err != nil {
			return nil, err
		}
		return compute(link, logs, q)
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *Handler) summary(c *gin.Context) {
	h.serve(c, "summary", func(link *models.LinkModel, logs []engine.AccessLog, _ reportQuery) (interface{}, error) {
		return engine.BuildLinkSummary(toMeta(*link), logs, time.Now()), nil
	})
}

func (h *Handler) viewers(c *gin.Context) {
	h.serve(c, "viewers", func(link *models.LinkModel, logs []engine.AccessLog, q reportQuery) (interface{}, error) {
		out := engine.BuildViewerSummaries(toMeta(*link), logs)
		if q.limit > 0 && len(out) > q.limit {
			out = out[:q.limit]
		}
		return gin.H{"viewers": out, "total": len(out)}, nil
	})
}

func (h *Handler) performance(c *gin.Context) {
	h.serve(c, "performance", func(link *models.LinkModel, logs []engine.AccessLog, _ reportQuery) (interface{}, error) {
		valid, dropped := engine.SplitValid(engine.NormalizeAll(logs))
		perf := engine.ScoreLinkPerformance(toMeta(*link), valid, time.Now())
		return gin.H{"performance": perf, "total_views": len(valid), "dropped_rows": dropped}, nil
	})
}

// funnel picks the document or media funnel by content category. URL links
// have no completion concept, so they are rejected up front.
func (h *Handler) funnel(c *gin.Context) {
	link, ok := h.findLink(c)
	if !ok {
		return
	}
	q, err := h.parseQuery(c, link.Timezone)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	meta := toMeta(*link)
	if meta.Kind == engine.LinkKindURL {
		response.UnprocessableEntity(c, "funnels apply to file links only")
		return
	}

	key := cacheKey("funnel", append([]string{link.ID}, q.cacheParts()...)...)
	raw, err := h.memo.fetch(c.Request.Context(), key, func() (interface{}, error) {
		logs, err := h.fetchLogs(link.ID, q)
		if err != nil {
			return nil, err
		}
		if meta.Category() == engine.CategoryMedia {
			return engine.MediaFunnel(meta, logs), nil
		}
		return engine.DocumentFunnel(meta, logs), nil
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *Handler) timeseries(c *gin.Context) {
	h.serve(c, "timeseries", func(_ *models.LinkModel, logs []engine.AccessLog, q reportQuery) (interface{}, error) {
		normalized := engine.NormalizeAll(logs)
		points, dropped := engine.Series(normalized, q.from, q.to, q.granularity, q.loc)
		valid, _ := engine.SplitValid(normalized)
		return gin.H{
			"series":       points,
			"by_hour":      engine.HourHistogram(valid, q.loc),
			"by_weekday":   engine.WeekdayHistogram(valid, q.loc),
			"granularity":  q.granularity,
			"timezone":     q.loc.String(),
			"dropped_rows": dropped,
		}, nil
	})
}

func (h *Handler) insights(c *gin.Context) {
	h.serve(c, "insights", func(link *models.LinkModel, logs []engine.AccessLog, q reportQuery) (interface{}, error) {
		meta := toMeta(*link)
		viewers := engine.BuildViewerSummaries(meta, logs)
		summary := engine.BuildLinkSummary(meta, logs, time.Now())
		out := engine.GenerateInsights(viewers, []engine.LinkSummary{summary}, q.limit)
		return gin.H{"insights": out}, nil
	})
}

func (h *Handler) actions(c *gin.Context) {
	h.serve(c, "actions", func(link *models.LinkModel, logs []engine.AccessLog, q reportQuery) (interface{}, error) {
		summary := engine.BuildLinkSummary(toMeta(*link), logs, time.Now())
		out := engine.GenerateActions([]engine.LinkSummary{summary}, q.limit)
		return gin.H{"actions": out}, nil
	})
}

// overview aggregates every link's summary plus cross-link insights and
// actions for the dashboard landing page.
func (h *Handler) overview(c *gin.Context) {
	q, err := h.parseQuery(c, "")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	key := cacheKey("overview", q.cacheParts()...)
	raw, err := h.memo.fetch(c.Request.Context(), key, func() (interface{}, error) {
		var links []models.LinkModel
		if err := h.db.Order("created_at ASC").Find(&links).Error; err != nil {
			return nil, err
		}

		now := time.Now()
		summaries := make([]engine.LinkSummary, 0, len(links))
		var allViewers []engine.ViewerSummary
		totalViews, totalHot := 0, 0
		for _, link := range links {
			logs, err := h.fetchLogs(link.ID, q)
			if err != nil {
				return nil, err
			}
			meta := toMeta(link)
			sum := engine.BuildLinkSummary(meta, logs, now)
			summaries = append(summaries, sum)
			allViewers = append(allViewers, engine.BuildViewerSummaries(meta, logs)...)
			totalViews += sum.TotalViews
			totalHot += sum.HotViewers
		}

		return gin.H{
			"links":       summaries,
			"insights":    engine.GenerateInsights(allViewers, summaries, q.limit),
			"actions":     engine.GenerateActions(summaries, q.limit),
			"total_views": totalViews,
			"hot_viewers": totalHot,
		}, nil
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// purgeLogs deletes access logs older than the given date, optionally scoped
// to one link. The retention cron uses the same deletion path.
func (h *Handler) purgeLogs(c *gin.Context) {
	before := c.Query("before")
	if before == "" {
		response.BadRequest(c, "before is required and must be formatted as 2006-01-02")
		return
	}
	cutoff, err := time.Parse(dateLayout, before)
	if err != nil {
		response.BadRequest(c, "before must be formatted as 2006-01-02")
		return
	}

	tx := h.db.Where("accessed_at < ?", cutoff)
	if linkID := c.Query("link_id"); linkID != "" {
		tx = tx.Where("link_id = ?", linkID)
	}
	result := tx.Delete(&models.AccessLogModel{})
	if result.Error != nil {
		response.InternalError(c, result.Error)
		return
	}

	h.logger.Info("access logs purged",
		zap.String("before", before),
		zap.Int64("deleted", result.RowsAffected))
	response.OK(c, gin.H{"deleted": result.RowsAffected})
}
