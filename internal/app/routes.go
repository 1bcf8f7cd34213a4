package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperlink/core/internal/middleware"
	"github.com/paperlink/core/internal/modules/analytics"
	"github.com/paperlink/core/internal/modules/auth"
	"github.com/paperlink/core/internal/modules/link"
	"github.com/paperlink/core/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/healthz", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})

	// Public viewer-facing tracking surface.
	link.NewTracker(a.db, a.logger).RegisterRoutes(r)

	api := r.Group("/api")

	auth.NewHandler(a.cfg.AdminPasswordHash, a.logger).RegisterRoutes(api)
	link.NewHandler(a.db, a.logger).RegisterRoutes(api, authMW)
	analytics.NewHandler(
		a.db,
		a.rc,
		time.Duration(a.cfg.CacheTTLSeconds)*time.Second,
		a.cfg.Timezone,
		a.logger,
	).RegisterRoutes(api, authMW)

	api.GET("/cron", authMW, func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	api.POST("/cron/:name/run", authMW, func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.OK(c, gin.H{"triggered": c.Param("name")})
	})
}
