// Package engine computes engagement scores, link performance, funnels and
// insights from raw access-log rows. Everything in this package is a pure
// function over in-memory slices: no I/O, no clocks other than explicit
// parameters, no shared state. Callers fetch rows however they like, hand
// them in, and render whatever comes back.
package engine

import (
	"strings"
	"time"
)

// LinkKind selects which scoring formula applies to a link.
type LinkKind string

const (
	// LinkKindFile covers uploaded content: documents, media, images.
	LinkKindFile LinkKind = "file"
	// LinkKindURL covers tracked redirect links.
	LinkKindURL LinkKind = "url"
)

// Category refines LinkKind by content type for action generation.
type Category string

const (
	CategoryDoc   Category = "file-doc"
	CategoryMedia Category = "file-media"
	CategoryImage Category = "file-image"
	CategoryURL   Category = "file-url"
	CategoryOther Category = "file-other"
)

// Intent is the hot/warm/cold lead tier derived from an engagement score.
type Intent string

const (
	IntentHot  Intent = "hot"
	IntentWarm Intent = "warm"
	IntentCold Intent = "cold"
)

// Score cutoffs for the intent tiers. These are the canonical values; every
// caller must classify through IntentFor rather than comparing inline.
const (
	HotThreshold  = 70
	WarmThreshold = 40
)

// IntentFor maps a 0-100 engagement score to its lead tier.
func IntentFor(score int) Intent {
	switch {
	case score >= HotThreshold:
		return IntentHot
	case score >= WarmThreshold:
		return IntentWarm
	default:
		return IntentCold
	}
}

// AccessLog is one viewer interaction with a link. Optional numeric signals
// are pointers: nil means "no signal", which is not the same as zero.
type AccessLog struct {
	AccessedAt time.Time

	// Identity fields, in resolution priority order.
	ViewerEmail string
	ViewerName  string
	IPAddress   string
	SessionID   string

	// Engagement signals.
	TotalDurationSeconds float64
	CompletionPercentage *float64
	WatchTimeSeconds     *float64
	VideoDurationSeconds *float64
	Downloaded           bool
	DownloadCount        int
	ReturnVisit          bool

	// Categorical dimensions.
	Country       string
	City          string
	Region        string
	DeviceType    string
	Browser       string
	OS            string
	Language      string
	TrafficSource string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string

	// PagesTime maps page number -> seconds spent (documents only).
	PagesTime map[int]float64
	// SegmentsTime maps decile index 0-9 -> seconds spent (media only).
	SegmentsTime map[int]float64
	// ExitPage is the last page viewed before leaving; 0 means unknown.
	ExitPage int
}

// LinkMeta is the small set of file metadata the engine needs.
type LinkMeta struct {
	ID                   string
	Name                 string
	Kind                 LinkKind
	MimeType             string
	TotalPages           int
	VideoDurationSeconds float64
}

// Category classifies the link for action generation. Unknown mime types on
// file links fall into CategoryOther rather than erroring.
func (m LinkMeta) Category() Category {
	if m.Kind == LinkKindURL {
		return CategoryURL
	}
	mt := strings.ToLower(m.MimeType)
	switch {
	case strings.HasPrefix(mt, "video/"), strings.HasPrefix(mt, "audio/"):
		return CategoryMedia
	case strings.HasPrefix(mt, "image/"):
		return CategoryImage
	case strings.HasPrefix(mt, "application/pdf"),
		strings.Contains(mt, "word"),
		strings.Contains(mt, "presentation"),
		strings.Contains(mt, "spreadsheet"),
		strings.HasPrefix(mt, "text/"):
		return CategoryDoc
	default:
		return CategoryOther
	}
}

// ViewerScore is the scored output for one resolved viewer on one link.
type ViewerScore struct {
	ViewerID string `json:"viewer_id"`
	Score    int    `json:"score"`
	Intent   Intent `json:"intent"`
}

// LinkPerformance is the volume-gated 0-100 score for a whole link.
type LinkPerformance struct {
	LinkID string `json:"link_id"`
	Score  int    `json:"score"`
	Label  string `json:"label"`
}

// SeriesPoint is one bucket of a chart series.
type SeriesPoint struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	FullLabel string `json:"full_label"`
	Value     int    `json:"value"`
}

// WeekdayStat is one row of the top-days table.
type WeekdayStat struct {
	Day   string  `json:"day"`
	Count int     `json:"count"`
	Share float64 `json:"share"` // percent of in-range rows, 0-100
}

// Normalize fills the documented defaults for absent categorical fields and
// clamps obviously malformed signals. It never rejects a row; the only hard
// precondition anywhere in the engine is a valid AccessedAt.
func Normalize(l AccessLog) AccessLog {
	if l.Country == "" {
		l.Country = "Unknown"
	}
	if l.City == "" {
		l.City = "Unknown"
	}
	if l.Region == "" {
		l.Region = "Unknown"
	}
	if l.DeviceType == "" {
		l.DeviceType = "Unknown"
	}
	if l.Browser == "" {
		l.Browser = "Unknown"
	}
	if l.OS == "" {
		l.OS = "Unknown"
	}
	if l.Language == "" {
		l.Language = "Unknown"
	}
	if l.TrafficSource == "" {
		l.TrafficSource = "Direct"
	}
	if l.TotalDurationSeconds < 0 {
		l.TotalDurationSeconds = 0
	}
	if l.CompletionPercentage != nil {
		c := clampFloat(*l.CompletionPercentage, 0, 100)
		l.CompletionPercentage = &c
	}
	return l
}

// NormalizeAll applies Normalize to every row, returning a new slice.
func NormalizeAll(logs []AccessLog) []AccessLog {
	out := make([]AccessLog, len(logs))
	for i, l := range logs {
		out[i] = Normalize(l)
	}
	return out
}

// SplitValid separates rows with a usable timestamp from the rest. The
// dropped count is reported to callers for diagnostics; a malformed row never
// fails the batch.
func SplitValid(logs []AccessLog) (valid []AccessLog, dropped int) {
	valid = make([]AccessLog, 0, len(logs))
	for _, l := range logs {
		if l.AccessedAt.IsZero() {
			dropped++
			continue
		}
		valid = append(valid, l)
	}
	return valid, dropped
}
