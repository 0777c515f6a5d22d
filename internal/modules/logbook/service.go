package logbook

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/access"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotAuthor  = errors.New("only the entry author or a vessel skipper can do that")
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// RenderMarkdown converts log entry content to HTML.
func RenderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}

type LocationDTO struct {
	Name                 string              `json:"name"`
	Latitude             float64             `json:"latitude" binding:"required"`
	Longitude            float64             `json:"longitude" binding:"required"`
	Type                 models.LocationType `json:"location_type"`
	Order                int                 `json:"order"`
	SpeedKnots           *float64            `json:"speed_knots"`
	HeadingDegrees       *int                `json:"heading_degrees"`
	DepthFeet            *float64            `json:"depth_feet"`
	WindSpeedKnots       *float64            `json:"wind_speed_knots"`
	WindDirectionDegrees *int                `json:"wind_direction_degrees"`
	TemperatureF         *int                `json:"temperature_f"`
	BarometricPressure   *float64            `json:"barometric_pressure"`
	SeaState             string              `json:"sea_state"`
	VisibilityMiles      *float64            `json:"visibility_miles"`
	Timestamp            *time.Time          `json:"timestamp"`
}

type AttachmentDTO struct {
	MediaID     string                `json:"media_id" binding:"required"`
	Type        models.AttachmentType `json:"attachment_type"`
	Description string                `json:"description"`
	Order       int                   `json:"order"`
}

type CreateEntryDTO struct {
	Title        string          `json:"title" binding:"max=200"`
	Content      string          `json:"content" binding:"required"`
	LogTimestamp *time.Time      `json:"log_timestamp"`
	Locations    []LocationDTO   `json:"locations"`
	Attachments  []AttachmentDTO `json:"attachments"`
}

type UpdateEntryDTO struct {
	Title        *string    `json:"title"`
	Content      *string    `json:"content"`
	LogTimestamp *time.Time `json:"log_timestamp"`
}

// EntryView is a log entry plus its rendered HTML.
type EntryView struct {
	models.LogEntryModel
	ContentHTML string `json:"content_html"`
}

type Service struct {
	db     *gorm.DB
	access *access.Service
}

func NewService(db *gorm.DB, accessSvc *access.Service) *Service {
	return &Service{db: db, access: accessSvc}
}

// List returns a vessel's entries, newest log time first, rendered.
func (s *Service) List(vesselID string) ([]EntryView, error) {
	var entries []models.LogEntryModel
	err := s.db.Preload("Author").
		Preload("Locations", func(db *gorm.DB) *gorm.DB { return db.Order("`order` ASC") }).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("`order` ASC") }).
		Preload("Attachments.Media").
		Where("vessel_id = ?", vesselID).
		Order("log_timestamp DESC").Find(&entries).Error
	if err != nil {
		return nil, err
	}

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, EntryView{LogEntryModel: e, ContentHTML: RenderMarkdown(e.Content)})
	}
	return views, nil
}

func (s *Service) GetByID(id string) (*models.LogEntryModel, error) {
	var entry models.LogEntryModel
	err := s.db.Preload("Vessel").First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Create writes an entry with its locations and attachments in one
// transaction.
func (s *Service) Create(user *models.UserModel, vesselID string, dto *CreateEntryDTO) (*models.LogEntryModel, error) {
	ts := time.Now()
	if dto.LogTimestamp != nil {
		ts = *dto.LogTimestamp
	}

	entry := models.LogEntryModel{
		VesselID:     vesselID,
		AuthorID:     user.ID,
		Title:        dto.Title,
		Content:      dto.Content,
		LogTimestamp: ts,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		for i, loc := range dto.Locations {
			if err := s.createLocation(tx, entry.ID, i, &loc); err != nil {
				return err
			}
		}
		for i, att := range dto.Attachments {
			if err := s.createAttachment(tx, entry.ID, i, &att); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) createLocation(tx *gorm.DB, entryID string, index int, dto *LocationDTO) error {
	locType := dto.Type
	if locType == "" {
		locType = models.LocationWaypoint
	}
	order := dto.Order
	if order == 0 {
		order = index + 1
	}
	loc := models.LogEntryLocationModel{
		LogEntryID:           entryID,
		Name:                 dto.Name,
		Latitude:             dto.Latitude,
		Longitude:            dto.Longitude,
		Type:                 locType,
		Order:                order,
		SpeedKnots:           dto.SpeedKnots,
		HeadingDegrees:       dto.HeadingDegrees,
		DepthFeet:            dto.DepthFeet,
		WindSpeedKnots:       dto.WindSpeedKnots,
		WindDirectionDegrees: dto.WindDirectionDegrees,
		TemperatureF:         dto.TemperatureF,
		BarometricPressure:   dto.BarometricPressure,
		SeaState:             dto.SeaState,
		VisibilityMiles:      dto.VisibilityMiles,
		Timestamp:            dto.Timestamp,
	}
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return tx.Create(&loc).Error
}

func (s *Service) createAttachment(tx *gorm.DB, entryID string, index int, dto *AttachmentDTO) error {
	attType := dto.Type
	if attType == "" {
		attType = models.AttachmentOther
	}
	order := dto.Order
	if order == 0 {
		order = index + 1
	}
	att := models.LogEntryAttachmentModel{
		LogEntryID:  entryID,
		MediaID:     dto.MediaID,
		Type:        attType,
		Description: dto.Description,
		Order:       order,
	}
	return tx.Create(&att).Error
}

// canEdit is true for the author and for vessel skippers.
func (s *Service) canEdit(user *models.UserModel, entry *models.LogEntryModel) (bool, error) {
	if entry.AuthorID == user.ID {
		return true, nil
	}
	if entry.Vessel == nil {
		return false, nil
	}
	return s.access.CanManage(user, entry.Vessel)
}

func (s *Service) Update(user *models.UserModel, entry *models.LogEntryModel, dto *UpdateEntryDTO) error {
	ok, err := s.canEdit(user, entry)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthor
	}

	if dto.Title != nil {
		entry.Title = *dto.Title
	}
	if dto.Content != nil {
		entry.Content = *dto.Content
	}
	if dto.LogTimestamp != nil {
		entry.LogTimestamp = *dto.LogTimestamp
	}
	return s.db.Save(entry).Error
}

func (s *Service) Delete(user *models.UserModel, entry *models.LogEntryModel) error {
	ok, err := s.canEdit(user, entry)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthor
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("log_entry_id = ?", entry.ID).Delete(&models.LogEntryLocationModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("log_entry_id = ?", entry.ID).Delete(&models.LogEntryAttachmentModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(entry).Error
	})
}

// AddLocation appends a location to an existing entry.
func (s *Service) AddLocation(user *models.UserModel, entry *models.LogEntryModel, dto *LocationDTO) error {
	ok, err := s.canEdit(user, entry)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthor
	}

	var count int64
	s.db.Model(&models.LogEntryLocationModel{}).Where("log_entry_id = ?", entry.ID).Count(&count)
	return s.createLocation(s.db, entry.ID, int(count), dto)
}

// AddAttachment appends an attachment to an existing entry.
func (s *Service) AddAttachment(user *models.UserModel, entry *models.LogEntryModel, dto *AttachmentDTO) error {
	ok, err := s.canEdit(user, entry)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthor
	}

	var count int64
	s.db.Model(&models.LogEntryAttachmentModel{}).Where("log_entry_id = ?", entry.ID).Count(&count)
	return s.createAttachment(s.db, entry.ID, int(count), dto)
}
