package models

import (
	"errors"
	"time"
)

var (
	ErrLatitudeRange  = errors.New("latitude must be between -90 and 90")
	ErrLongitudeRange = errors.New("longitude must be between -180 and 180")
	ErrHeadingRange   = errors.New("degrees must be between 0 and 359")
	ErrPressureRange  = errors.New("barometric pressure must be between 25 and 35 inHg")
)

// LogEntryModel is one journal entry in a vessel's logbook. Content is
// markdown; rendering happens at the presentation layer.
type LogEntryModel struct {
	Base
	VesselID     string       `json:"vessel_id" gorm:"type:char(36);not null;index:idx_vessel_ts"`
	Vessel       *VesselModel `json:"vessel,omitempty" gorm:"foreignKey:VesselID;constraint:OnDelete:CASCADE"`
	AuthorID     string       `json:"author_id" gorm:"type:char(36);not null;index"`
	Author       *UserModel   `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Title        string       `json:"title" gorm:"size:200"`
	Content      string       `json:"content" gorm:"type:text;not null"`
	LogTimestamp time.Time    `json:"log_timestamp" gorm:"not null;index:idx_vessel_ts,sort:desc"`

	Locations   []LogEntryLocationModel   `json:"locations,omitempty"   gorm:"foreignKey:LogEntryID"`
	Attachments []LogEntryAttachmentModel `json:"attachments,omitempty" gorm:"foreignKey:LogEntryID"`
}

func (LogEntryModel) TableName() string { return "log_entries" }

// LocationType classifies a point along a logged route.
type LocationType string

const (
	LocationWaypoint  LocationType = "waypoint"
	LocationStart     LocationType = "start"
	LocationEnd       LocationType = "end"
	LocationAnchorage LocationType = "anchorage"
	LocationMarina    LocationType = "marina"
	LocationFuel      LocationType = "fuel"
	LocationEmergency LocationType = "emergency"
	LocationOther     LocationType = "other"
)

// LogEntryLocationModel carries the geo and weather metadata for one
// point of a log entry. Optional measurements are pointers so absent
// readings stay NULL.
type LogEntryLocationModel struct {
	Base
	LogEntryID string       `json:"log_entry_id" gorm:"type:char(36);not null;index:idx_entry_order"`
	Name       string       `json:"name" gorm:"size:200"`
	Latitude   float64      `json:"latitude" gorm:"not null"`
	Longitude  float64      `json:"longitude" gorm:"not null"`
	Type       LocationType `json:"location_type" gorm:"column:location_type;default:waypoint;size:20"`
	Order      int          `json:"order" gorm:"index:idx_entry_order"`

	SpeedKnots           *float64   `json:"speed_knots"`
	HeadingDegrees       *int       `json:"heading_degrees"`
	DepthFeet            *float64   `json:"depth_feet"`
	WindSpeedKnots       *float64   `json:"wind_speed_knots"`
	WindDirectionDegrees *int       `json:"wind_direction_degrees"`
	TemperatureF         *int       `json:"temperature_f"`
	BarometricPressure   *float64   `json:"barometric_pressure"`
	SeaState             string     `json:"sea_state" gorm:"size:100"`
	VisibilityMiles      *float64   `json:"visibility_miles"`
	Timestamp            *time.Time `json:"timestamp"`
}

func (LogEntryLocationModel) TableName() string { return "log_entry_locations" }

// Validate bounds-checks coordinates and readings the way the intake
// forms did.
func (l *LogEntryLocationModel) Validate() error {
	switch {
	case l.Latitude < -90 || l.Latitude > 90:
		return ErrLatitudeRange
	case l.Longitude < -180 || l.Longitude > 180:
		return ErrLongitudeRange
	case l.HeadingDegrees != nil && (*l.HeadingDegrees < 0 || *l.HeadingDegrees > 359):
		return ErrHeadingRange
	case l.WindDirectionDegrees != nil && (*l.WindDirectionDegrees < 0 || *l.WindDirectionDegrees > 359):
		return ErrHeadingRange
	case l.BarometricPressure != nil && (*l.BarometricPressure < 25 || *l.BarometricPressure > 35):
		return ErrPressureRange
	}
	return nil
}

// AttachmentType classifies a logbook attachment.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentReceipt  AttachmentType = "receipt"
	AttachmentManual   AttachmentType = "manual"
	AttachmentDocument AttachmentType = "document"
	AttachmentVideo    AttachmentType = "video"
	AttachmentAudio    AttachmentType = "audio"
	AttachmentOther    AttachmentType = "other"
)

// LogEntryAttachmentModel links a media file to a log entry.
type LogEntryAttachmentModel struct {
	Base
	LogEntryID  string         `json:"log_entry_id" gorm:"type:char(36);not null;index:idx_attach_order"`
	MediaID     string         `json:"media_id" gorm:"type:char(36);not null"`
	Media       *MediaModel    `json:"media,omitempty" gorm:"foreignKey:MediaID"`
	Type        AttachmentType `json:"attachment_type" gorm:"column:attachment_type;not null;size:20;index"`
	Description string         `json:"description" gorm:"size:500"`
	Order       int            `json:"order" gorm:"index:idx_attach_order"`
}

func (LogEntryAttachmentModel) TableName() string { return "log_entry_attachments" }

// IsImage is true when either the declared type or the underlying media
// says image.
func (a *LogEntryAttachmentModel) IsImage() bool {
	if a.Type == AttachmentImage {
		return true
	}
	return a.Media != nil && a.Media.MediaType == MediaImage
}
