package app

import (
	"context"
	"fmt"
	"time"

	"github.com/paperlink/core/internal/config"
	"github.com/paperlink/core/internal/models"
	pkgcron "github.com/paperlink/core/internal/pkg/cron"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, cfg *config.AppConfig, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "cleanup_access_logs",
		Description: fmt.Sprintf("delete access logs older than %d days", cfg.RetentionDays),
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
			result := db.WithContext(ctx).
				Where("accessed_at < ?", cutoff).
				Delete(&models.AccessLogModel{})
			if result.Error != nil {
				cronLogger.Warn("access log cleanup failed", zap.Error(result.Error))
				return result.Error
			}
			cronLogger.Info("access log cleanup done", zap.Int64("deleted", result.RowsAffected))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "deactivate_stale_links",
		Description: "deactivate links with no activity in a year",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(-1, 0, 0)
			result := db.WithContext(ctx).
				Model(&models.LinkModel{}).
				Where("active = ? AND created_at < ?", true, cutoff).
				Where("NOT EXISTS (SELECT 1 FROM access_logs WHERE access_logs.link_id = links.id AND access_logs.accessed_at >= ?)", cutoff).
				Update("active", false)
			if result.Error != nil {
				cronLogger.Warn("stale link sweep failed", zap.Error(result.Error))
				return result.Error
			}
			if result.RowsAffected > 0 {
				cronLogger.Info("stale links deactivated", zap.Int64("count", result.RowsAffected))
			}
			return nil
		},
	})
}
