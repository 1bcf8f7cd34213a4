package engine

import (
	"sort"
	"strings"
	"time"
)

// TrafficSourceQR marks rows that arrived through a QR scan; the tracker
// writes this value when it classifies the request.
const TrafficSourceQR = "qr"

// ViewerSummary is the per-viewer rollup fed to the insight generator and
// returned by the viewers endpoint.
type ViewerSummary struct {
	ViewerID             string    `json:"viewer_id"`
	Email                string    `json:"email,omitempty"`
	Name                 string    `json:"name,omitempty"`
	LinkID               string    `json:"link_id"`
	LinkName             string    `json:"link_name"`
	Score                int       `json:"score"`
	Intent               Intent    `json:"intent"`
	Visits               int       `json:"visits"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
	MaxCompletion        float64   `json:"max_completion"`
	Downloaded           bool      `json:"downloaded"`
	ReturnVisitor        bool      `json:"return_visitor"`
	LastVisit            time.Time `json:"last_visit"`
}

// LinkSummary is the aggregate rollup for one link.
type LinkSummary struct {
	LinkID        string          `json:"link_id"`
	Name          string          `json:"name"`
	Kind          LinkKind        `json:"kind"`
	Category      Category        `json:"category"`
	TotalViews    int             `json:"total_views"`
	UniqueViewers int             `json:"unique_viewers"`
	HotViewers    int             `json:"hot_viewers"`
	WarmViewers   int             `json:"warm_viewers"`
	ColdViewers   int             `json:"cold_viewers"`
	Downloads     int             `json:"downloads"`
	ReturnVisits  int             `json:"return_visits"`
	QRScans       int             `json:"qr_scans"`
	DirectViews   int             `json:"direct_views"`
	AvgEngagement int             `json:"avg_engagement"`
	Performance   LinkPerformance `json:"performance"`
	LastActivity  time.Time       `json:"last_activity"`
	DroppedRows   int             `json:"dropped_rows,omitempty"`
}

// BuildViewerSummaries resolves, folds and scores every viewer in the batch.
// Output is sorted by score descending, then most recent visit, then key, so
// identical input always yields identical order.
func BuildViewerSummaries(meta LinkMeta, logs []AccessLog) []ViewerSummary {
	valid, _ := SplitValid(NormalizeAll(logs))
	groups := GroupByViewer(valid)

	out := make([]ViewerSummary, 0, len(groups))
	for _, g := range groups {
		a := FoldViewerActivity(g)
		s := ScoreViewerActivity(meta.Kind, a)
		out = append(out, ViewerSummary{
			ViewerID:             a.Key,
			Email:                a.Email,
			Name:                 a.Name,
			LinkID:               meta.ID,
			LinkName:             meta.Name,
			Score:                s.Score,
			Intent:               s.Intent,
			Visits:               a.Visits,
			TotalDurationSeconds: a.TotalDurationSeconds,
			MaxCompletion:        a.MaxCompletion,
			Downloaded:           a.Downloaded,
			ReturnVisitor:        a.ReturnVisit,
			LastVisit:            a.LastVisit,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].LastVisit.Equal(out[j].LastVisit) {
			return out[i].LastVisit.After(out[j].LastVisit)
		}
		return out[i].ViewerID < out[j].ViewerID
	})
	return out
}

// BuildLinkSummary folds a link's rows into its aggregate counts and the
// volume-gated performance score.
func BuildLinkSummary(meta LinkMeta, logs []AccessLog, now time.Time) LinkSummary {
	valid, dropped := SplitValid(NormalizeAll(logs))

	sum := LinkSummary{
		LinkID:      meta.ID,
		Name:        meta.Name,
		Kind:        meta.Kind,
		Category:    meta.Category(),
		TotalViews:  len(valid),
		DroppedRows: dropped,
	}

	for _, l := range valid {
		if l.Downloaded || l.DownloadCount > 0 {
			sum.Downloads++
		}
		switch {
		case strings.EqualFold(l.TrafficSource, TrafficSourceQR):
			sum.QRScans++
		case l.TrafficSource == "Direct":
			sum.DirectViews++
		}
		if l.AccessedAt.After(sum.LastActivity) {
			sum.LastActivity = l.AccessedAt
		}
	}

	groups := GroupByViewer(valid)
	sum.UniqueViewers = len(groups)
	scoreTotal := 0
	for _, g := range groups {
		a := FoldViewerActivity(g)
		s := ScoreViewerActivity(meta.Kind, a)
		scoreTotal += s.Score
		switch s.Intent {
		case IntentHot:
			sum.HotViewers++
		case IntentWarm:
			sum.WarmViewers++
		default:
			sum.ColdViewers++
		}
		if a.ReturnVisit {
			sum.ReturnVisits++
		}
	}
	if len(groups) > 0 {
		sum.AvgEngagement = clampScore(float64(scoreTotal) / float64(len(groups)))
	}

	sum.Performance = ScoreLinkPerformance(meta, valid, now)
	return sum
}
