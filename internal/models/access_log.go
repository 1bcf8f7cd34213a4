package models

import "time"

// AccessLogModel is one recorded viewer interaction with a link: a view, a
// click, a page read or a download. Identity fields are optional; absence is
// resolved downstream, never here.
type AccessLogModel struct {
	Base
	LinkID     string    `json:"link_id"     gorm:"index;index:idx_link_ts,composite:1;not null"`
	AccessedAt time.Time `json:"accessed_at" gorm:"index;index:idx_link_ts,composite:2;not null"`

	ViewerEmail string `json:"viewer_email" gorm:"index"`
	ViewerName  string `json:"viewer_name"`
	IPAddress   string `json:"ip_address"   gorm:"index"`
	SessionID   string `json:"session_id"   gorm:"index"`

	TotalDurationSeconds float64  `json:"total_duration_seconds"`
	CompletionPercentage *float64 `json:"completion_percentage"`
	WatchTimeSeconds     *float64 `json:"watch_time_seconds"`
	VideoDurationSeconds *float64 `json:"video_duration_seconds"`
	Downloaded           bool     `json:"downloaded"`
	DownloadCount        int      `json:"download_count"`
	ReturnVisit          bool     `json:"return_visit"`

	Country       string `json:"country"`
	City          string `json:"city"`
	Region        string `json:"region"`
	DeviceType    string `json:"device_type"`
	Browser       string `json:"browser"`
	OS            string `json:"os"`
	Language      string `json:"language"`
	TrafficSource string `json:"traffic_source" gorm:"index"`
	UTMSource     string `json:"utm_source"`
	UTMMedium     string `json:"utm_medium"`
	UTMCampaign   string `json:"utm_campaign"`

	PagesTime    map[int]float64 `json:"pages_time"    gorm:"serializer:json;type:longtext"`
	SegmentsTime map[int]float64 `json:"segments_time" gorm:"serializer:json;type:longtext"`
	ExitPage     int             `json:"exit_page"`
}

func (AccessLogModel) TableName() string { return "access_logs" }
