package note

import (
	"errors"

	"github.com/tidesail/core/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNoteExists   = errors.New("you already have a note for this vessel")
	ErrNotOwner     = errors.New("only the note owner can do that")
	ErrNotAuthor    = errors.New("only the message author can do that")
	ErrNoAccess     = errors.New("this note is not shared with you")
	ErrUnknownEmail = errors.New("no user with that email")
)

type CreateNoteDTO struct {
	Content string `json:"content" binding:"required"`
}

type MessageDTO struct {
	Content string `json:"content" binding:"required"`
}

type ShareDTO struct {
	Email string `json:"email" binding:"required"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create opens a note thread for (vessel, user) with its first message.
// Each user holds at most one note per vessel.
func (s *Service) Create(user *models.UserModel, vesselID string, dto *CreateNoteDTO) (*models.VesselNoteModel, error) {
	var count int64
	s.db.Model(&models.VesselNoteModel{}).
		Where("vessel_id = ? AND user_id = ?", vesselID, user.ID).Count(&count)
	if count > 0 {
		return nil, ErrNoteExists
	}

	var note models.VesselNoteModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		note = models.VesselNoteModel{VesselID: vesselID, UserID: user.ID}
		if err := tx.Create(&note).Error; err != nil {
			return err
		}
		msg := models.NoteMessageModel{VesselNoteID: note.ID, UserID: user.ID, Content: dto.Content}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(note.ID)
}

// ListAccessible returns the caller's own note plus notes shared with
// them on a vessel.
func (s *Service) ListAccessible(user *models.UserModel, vesselID string) ([]models.VesselNoteModel, error) {
	var notes []models.VesselNoteModel
	err := s.db.Preload("User").Preload("SharedWith").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Messages.User").
		Where("vessel_id = ? AND (user_id = ? OR id IN (?))", vesselID, user.ID,
			s.db.Table("vessel_note_shares").
				Select("vessel_note_model_id").
				Where("user_model_id = ?", user.ID)).
		Find(&notes).Error
	return notes, err
}

func (s *Service) GetByID(id string) (*models.VesselNoteModel, error) {
	var note models.VesselNoteModel
	err := s.db.Preload("User").Preload("SharedWith").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Messages.User").
		First(&note, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

// canPost reports whether the user owns the note or it is shared with them.
func canPost(note *models.VesselNoteModel, userID string) bool {
	if note.UserID == userID {
		return true
	}
	for _, u := range note.SharedWith {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// AddMessage appends a message to a note the caller owns or is shared on.
func (s *Service) AddMessage(user *models.UserModel, noteID string, dto *MessageDTO) (*models.NoteMessageModel, error) {
	note, err := s.GetByID(noteID)
	if err != nil || note == nil {
		return nil, err
	}
	if !canPost(note, user.ID) {
		return nil, ErrNoAccess
	}

	msg := models.NoteMessageModel{VesselNoteID: note.ID, UserID: user.ID, Content: dto.Content}
	return &msg, s.db.Create(&msg).Error
}

// UpdateMessage edits a message; author only.
func (s *Service) UpdateMessage(user *models.UserModel, messageID string, dto *MessageDTO) (*models.NoteMessageModel, error) {
	var msg models.NoteMessageModel
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if msg.UserID != user.ID {
		return nil, ErrNotAuthor
	}
	msg.Content = dto.Content
	return &msg, s.db.Save(&msg).Error
}

// DeleteMessage removes a message; author only.
func (s *Service) DeleteMessage(user *models.UserModel, messageID string) error {
	var msg models.NoteMessageModel
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if msg.UserID != user.ID {
		return ErrNotAuthor
	}
	return s.db.Delete(&msg).Error
}

// Share gives another user (looked up by email) access to the note;
// owner only.
func (s *Service) Share(user *models.UserModel, noteID string, dto *ShareDTO) error {
	note, err := s.GetByID(noteID)
	if err != nil {
		return err
	}
	if note == nil {
		return gorm.ErrRecordNotFound
	}
	if note.UserID != user.ID {
		return ErrNotOwner
	}

	var target models.UserModel
	if err := s.db.First(&target, "email = ?", dto.Email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownEmail
		}
		return err
	}
	return s.db.Model(note).Association("SharedWith").Append(&target)
}
