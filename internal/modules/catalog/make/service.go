package make

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/moderation"
	"github.com/tidesail/core/internal/pkg/csvutil"
	"gorm.io/gorm"
)

var ErrNameTaken = errors.New("a make with that name already exists")

type CreateMakeDTO struct {
	Name string `json:"name" binding:"required"`
}

type UpdateMakeDTO struct {
	Name *string `json:"name"`
}

// ImportResult summarizes a CSV import run.
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List() ([]models.MakeModel, error) {
	var makes []models.MakeModel
	return makes, s.db.Order("name ASC").Find(&makes).Error
}

func (s *Service) GetByID(id string) (*models.MakeModel, error) {
	var m models.MakeModel
	if err := s.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (s *Service) Create(dto *CreateMakeDTO) (*models.MakeModel, error) {
	name := strings.ToLower(strings.TrimSpace(dto.Name))
	var count int64
	s.db.Model(&models.MakeModel{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		return nil, ErrNameTaken
	}
	m := models.MakeModel{Name: name}
	return &m, s.db.Create(&m).Error
}

func (s *Service) Update(id string, dto *UpdateMakeDTO) (*models.MakeModel, error) {
	m, err := s.GetByID(id)
	if err != nil || m == nil {
		return m, err
	}
	if dto.Name != nil {
		m.Name = *dto.Name
	}
	return m, s.db.Save(m).Error
}

func (s *Service) Delete(id string) error {
	return s.db.Delete(&models.MakeModel{}, "id = ?", id).Error
}

// GetOrCreate finds a make by case-folded name, creating it if missing.
func GetOrCreate(tx *gorm.DB, name string) (*models.MakeModel, bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false, errors.New("make name is required")
	}

	var m models.MakeModel
	err := tx.Where("name = ?", name).First(&m).Error
	if err == nil {
		return &m, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	m = models.MakeModel{Name: name}
	if err := tx.Create(&m).Error; err != nil {
		return nil, false, err
	}
	return &m, true, nil
}

// GetOrCreateModerated is GetOrCreate plus an audit record when the make
// is new. User-driven vessel creation goes through here; the write is not
// held for review.
func GetOrCreateModerated(tx *gorm.DB, name, userID string) (*models.MakeModel, error) {
	m, created, err := GetOrCreate(tx, name)
	if err != nil {
		return nil, err
	}
	if created {
		if _, err := moderation.Record(tx, moderation.RecordParams{
			Target:        models.TargetMake,
			TargetID:      &m.ID,
			Verb:          models.VerbCreate,
			RequestedByID: userID,
			Data:          m,
		}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ImportCSV reads a header-row CSV with a "name" column and creates the
// missing makes.
func (s *Service) ImportCSV(r io.Reader) (*ImportResult, error) {
	rows, idx, err := csvutil.Read(r, "name")
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for i, row := range rows {
		name := csvutil.Field(row, idx, "name")
		if name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: empty name", i+2))
			continue
		}
		_, created, err := GetOrCreate(s.db, name)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// ExportCSV writes all makes as a header-row CSV.
func (s *Service) ExportCSV(w io.Writer) error {
	makes, err := s.List()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name"}); err != nil {
		return err
	}
	for _, m := range makes {
		if err := cw.Write([]string{m.Name}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
