package moderation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidesail/core/internal/models"
	"gorm.io/gorm"
)

var ErrResolved = errors.New("moderation request is already resolved")

type ResolveDTO struct {
	ResponseNote string `json:"response_note"`
}

// RecordParams describes an audit row to write alongside a domain change.
type RecordParams struct {
	Target        models.ModerationTarget
	TargetID      *string
	Verb          models.ModerationVerb
	RequestedByID string
	RequestNote   string
	TriggeredByID *string
	Data          interface{}
}

// Record writes a moderation audit row. Accepts a transaction so callers
// can enroll the audit in their own unit of work. The domain change it
// describes is never blocked on review.
func Record(tx *gorm.DB, p RecordParams) (*models.ModerationModel, error) {
	raw, err := json.Marshal(p.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal moderation data: %w", err)
	}

	m := models.ModerationModel{
		Target:        p.Target,
		TargetID:      p.TargetID,
		Data:          string(raw),
		Verb:          p.Verb,
		RequestedByID: p.RequestedByID,
		RequestNote:   p.RequestNote,
		TriggeredByID: p.TriggeredByID,
		State:         models.ModerationUnmoderated,
	}
	return &m, tx.Create(&m).Error
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) query(state, target string) *gorm.DB {
	q := s.db.Model(&models.ModerationModel{})
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if target != "" {
		q = q.Where("target = ?", target)
	}
	return q.Order("created_at DESC")
}

func (s *Service) GetByID(id string) (*models.ModerationModel, error) {
	var m models.ModerationModel
	if err := s.db.Preload("RequestedBy").First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Resolve transitions a pending request to the given terminal state.
// Resolution is an audit verdict only; it never applies the payload.
func (s *Service) Resolve(id, moderatorID string, state models.ModerationState, note string) (*models.ModerationModel, error) {
	m, err := s.GetByID(id)
	if err != nil || m == nil {
		return m, err
	}
	if m.IsResolved() {
		return nil, ErrResolved
	}

	m.State = state
	m.ModeratorID = &moderatorID
	m.ResponseNote = note
	return m, s.db.Save(m).Error
}
