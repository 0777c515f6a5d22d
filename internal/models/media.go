package models

// MediaType classifies a stored blob.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
)

// MediaModel records one uploaded file stored in the object bucket.
// URL always carries the public client-facing endpoint, never the
// internal storage endpoint.
type MediaModel struct {
	Base
	FileName  string    `json:"file_name"  gorm:"not null;size:255"`
	ObjectKey string    `json:"object_key" gorm:"uniqueIndex;not null;size:512"`
	MediaType MediaType `json:"media_type" gorm:"not null;size:20;index"`
	URL       string    `json:"url"        gorm:"size:1024"`
}

func (MediaModel) TableName() string { return "media" }
