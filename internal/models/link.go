package models

// LinkKind classifies a shared link: an uploaded file or a tracked URL.
const (
	LinkKindFile = "file"
	LinkKindURL  = "url"
)

// LinkModel is a shared link registered by an owner. File links carry the
// content metadata the analytics engine needs (page count for documents,
// duration for media); url links carry the redirect target.
type LinkModel struct {
	Base
	Name                 string  `json:"name"        gorm:"not null"`
	Slug                 string  `json:"slug"        gorm:"uniqueIndex;not null"`
	Kind                 string  `json:"kind"        gorm:"index;default:file"`
	TargetURL            string  `json:"target_url"`
	MimeType             string  `json:"mime_type"`
	TotalPages           int     `json:"total_pages"`
	VideoDurationSeconds float64 `json:"video_duration_seconds"`
	Timezone             string  `json:"timezone"` // default reporting timezone
	Active               bool    `json:"active"      gorm:"default:true"`
}

func (LinkModel) TableName() string { return "links" }
