package designer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/csvutil"
	"gorm.io/gorm"
)

var ErrNameTaken = errors.New("a designer with that name already exists")

type CreateDesignerDTO struct {
	Name string `json:"name" binding:"required"`
}

type UpdateDesignerDTO struct {
	Name *string `json:"name"`
}

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

func (s *Service) List() ([]models.DesignerModel, error) {
	var designers []models.DesignerModel
	return designers, s.db.Order("name ASC").Find(&designers).Error
}

func (s *Service) GetByID(id string) (*models.DesignerModel, error) {
	var d models.DesignerModel
	if err := s.db.First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (s *Service) Create(dto *CreateDesignerDTO) (*models.DesignerModel, error) {
	name := strings.ToLower(strings.TrimSpace(dto.Name))
	var count int64
	s.db.Model(&models.DesignerModel{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		return nil, ErrNameTaken
	}
	d := models.DesignerModel{Name: name}
	return &d, s.db.Create(&d).Error
}

func (s *Service) Update(id string, dto *UpdateDesignerDTO) (*models.DesignerModel, error) {
	d, err := s.GetByID(id)
	if err != nil || d == nil {
		return d, err
	}
	if dto.Name != nil {
		d.Name = *dto.Name
	}
	return d, s.db.Save(d).Error
}

func (s *Service) Delete(id string) error {
	return s.db.Delete(&models.DesignerModel{}, "id = ?", id).Error
}

// GetOrCreate finds a designer by case-folded name, creating it if missing.
func GetOrCreate(tx *gorm.DB, name string) (*models.DesignerModel, bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false, errors.New("designer name is required")
	}

	var d models.DesignerModel
	err := tx.Where("name = ?", name).First(&d).Error
	if err == nil {
		return &d, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	d = models.DesignerModel{Name: name}
	if err := tx.Create(&d).Error; err != nil {
		return nil, false, err
	}
	return &d, true, nil
}

// ResolveList splits a comma-joined designer string and get-or-creates
// each entry.
func ResolveList(tx *gorm.DB, joined string) ([]models.DesignerModel, error) {
	var out []models.DesignerModel
	for _, part := range strings.Split(joined, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, _, err := GetOrCreate(tx, part)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

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

func (s *Service) ExportCSV(w io.Writer) error {
	designers, err := s.List()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name"}); err != nil {
		return err
	}
	for _, d := range designers {
		if err := cw.Write([]string{d.Name}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
