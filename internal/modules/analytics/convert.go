// Package analytics exposes the scoring engine over HTTP. Handlers fetch
// rows from MySQL, convert them to engine inputs, memoize computed payloads
// in Redis and render JSON. All scoring logic lives in the engine package.
package analytics

import (
	"github.com/paperlink/core/internal/models"
	"github.com/paperlink/core/internal/modules/analytics/engine"
)

func toMeta(l models.LinkModel) engine.LinkMeta {
	return engine.LinkMeta{
		ID:                   l.ID,
		Name:                 l.Name,
		Kind:                 engine.LinkKind(l.Kind),
		MimeType:             l.MimeType,
		TotalPages:           l.TotalPages,
		VideoDurationSeconds: l.VideoDurationSeconds,
	}
}

func toEngineLog(m models.AccessLogModel) engine.AccessLog {
	return engine.AccessLog{
		AccessedAt:           m.AccessedAt,
		ViewerEmail:          m.ViewerEmail,
		ViewerName:           m.ViewerName,
		IPAddress:            m.IPAddress,
		SessionID:            m.SessionID,
		TotalDurationSeconds: m.TotalDurationSeconds,
		CompletionPercentage: m.CompletionPercentage,
		WatchTimeSeconds:     m.WatchTimeSeconds,
		VideoDurationSeconds: m.VideoDurationSeconds,
		Downloaded:           m.Downloaded,
		DownloadCount:        m.DownloadCount,
		ReturnVisit:          m.ReturnVisit,
		Country:              m.Country,
		City:                 m.City,
		Region:               m.Region,
		DeviceType:           m.DeviceType,
		Browser:              m.Browser,
		OS:                   m.OS,
		Language:             m.Language,
		TrafficSource:        m.TrafficSource,
		UTMSource:            m.UTMSource,
		UTMMedium:            m.UTMMedium,
		UTMCampaign:          m.UTMCampaign,
		PagesTime:            m.PagesTime,
		SegmentsTime:         m.SegmentsTime,
		ExitPage:             m.ExitPage,
	}
}

func toEngineLogs(rows []models.AccessLogModel) []engine.AccessLog {
	out := make([]engine.AccessLog, len(rows))
	for i, r := range rows {
		out[i] = toEngineLog(r)
	}
	return out
}
