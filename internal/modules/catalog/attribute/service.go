package attribute

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/moderation"
	"github.com/tidesail/core/internal/pkg/csvutil"
	"gorm.io/gorm"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNameTaken        = errors.New("an attribute with that name already exists")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

type CreateSectionDTO struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

type CreateAttributeDTO struct {
	Name                 string                    `json:"name" binding:"required"`
	Description          string                    `json:"description"`
	InputType            models.AttributeInputType `json:"input_type" binding:"required"`
	Options              models.ValueList          `json:"options"`
	SectionID            *string                   `json:"section_id"`
	AcceptsContributions *bool                     `json:"accepts_contributions"`
}

type UpdateAttributeDTO struct {
	Name                 *string           `json:"name"`
	Description          *string           `json:"description"`
	Options              *models.ValueList `json:"options"`
	SectionID            *string           `json:"section_id"`
	AcceptsContributions *bool             `json:"accepts_contributions"`
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

func (s *Service) ListSections() ([]models.AttributeSectionModel, error) {
	var sections []models.AttributeSectionModel
	return sections, s.db.Order("name ASC").Find(&sections).Error
}

func (s *Service) CreateSection(dto *CreateSectionDTO) (*models.AttributeSectionModel, error) {
	sec := models.AttributeSectionModel{Name: dto.Name, Icon: dto.Icon}
	return &sec, s.db.Create(&sec).Error
}

func (s *Service) List() ([]models.AttributeModel, error) {
	var attrs []models.AttributeModel
	return attrs, s.db.Preload("Section").Order("name ASC").Find(&attrs).Error
}

func (s *Service) GetByID(id string) (*models.AttributeModel, error) {
	var a models.AttributeModel
	if err := s.db.Preload("Section").First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GetByName looks an attribute up by its case-folded name.
func (s *Service) GetByName(name string) (*models.AttributeModel, error) {
	var a models.AttributeModel
	err := s.db.First(&a, "name = ?", strings.ToLower(strings.TrimSpace(name))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Service) Create(dto *CreateAttributeDTO) (*models.AttributeModel, error) {
	name := strings.ToLower(strings.TrimSpace(dto.Name))
	var count int64
	s.db.Model(&models.AttributeModel{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		return nil, ErrNameTaken
	}

	a := models.AttributeModel{
		Name:                 name,
		Description:          dto.Description,
		InputType:            dto.InputType,
		Options:              dto.Options,
		SectionID:            dto.SectionID,
		AcceptsContributions: true,
	}
	if dto.AcceptsContributions != nil {
		a.AcceptsContributions = *dto.AcceptsContributions
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &a, s.db.Create(&a).Error
}

func (s *Service) Update(id string, dto *UpdateAttributeDTO) (*models.AttributeModel, error) {
	a, err := s.GetByID(id)
	if err != nil || a == nil {
		return a, err
	}
	if dto.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*dto.Name))
		if name != a.Name {
			var count int64
			s.db.Model(&models.AttributeModel{}).Where("name = ? AND id <> ?", name, a.ID).Count(&count)
			if count > 0 {
				return nil, ErrNameTaken
			}
		}
		a.Name = name
	}
	if dto.Description != nil {
		a.Description = *dto.Description
	}
	if dto.Options != nil {
		a.Options = *dto.Options
	}
	if dto.SectionID != nil {
		a.SectionID = dto.SectionID
	}
	if dto.AcceptsContributions != nil {
		a.AcceptsContributions = *dto.AcceptsContributions
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return a, s.db.Save(a).Error
}

func (s *Service) Delete(id string) error {
	return s.db.Delete(&models.AttributeModel{}, "id = ?", id).Error
}

// CoerceValue parses a raw submission into the attribute's declared type.
// Numeric strings are accepted for float/integer attributes; integers
// reject fractional values; options must be a member of the option list.
func CoerceValue(attr *models.AttributeModel, raw interface{}) (interface{}, error) {
	norm := models.NormalizeValue(raw)

	switch attr.InputType {
	case models.InputTypeFloat:
		return coerceFloat(attr.Name, norm)

	case models.InputTypeInteger:
		f, err := coerceFloat(attr.Name, norm)
		if err != nil {
			return nil, err
		}
		fv := f.(float64)
		if fv != math.Trunc(fv) {
			return nil, fmt.Errorf("%w: %q expects a whole number, got %v", ErrValidation, attr.Name, fv)
		}
		return fv, nil

	case models.InputTypeOptions:
		if !attr.Options.Contains(norm) {
			return nil, fmt.Errorf("%w: %v is not an allowed option for %q", ErrValidation, norm, attr.Name)
		}
		return norm, nil

	default:
		if s, ok := norm.(string); ok {
			return s, nil
		}
		if f, ok := norm.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return fmt.Sprintf("%v", norm), nil
	}
}

func coerceFloat(name string, norm interface{}) (interface{}, error) {
	switch v := norm.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number for %q", ErrValidation, v, name)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %v is not a number for %q", ErrValidation, norm, name)
	}
}

// SubmitVesselValue records a vessel-level attribute value and folds it
// into the sailboat's value pool. Attributes that do not accept
// contributions only take values already in the pool. Every fold leaves a
// moderation record; the write itself is never held for review.
func (s *Service) SubmitVesselValue(user *models.UserModel, vessel *models.VesselModel, attributeID string, raw interface{}) (*models.VesselAttributeModel, error) {
	attr, err := s.GetByID(attributeID)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, ErrUnknownAttribute
	}

	coerced, err := CoerceValue(attr, raw)
	if err != nil {
		return nil, err
	}

	var va *models.VesselAttributeModel
	err = s.db.Transaction(func(tx *gorm.DB) error {
		va, err = SubmitVesselValueTx(tx, user, vessel, attr, coerced)
		return err
	})
	if err != nil {
		return nil, err
	}
	return va, nil
}

// SubmitVesselValueTx is the transactional core of SubmitVesselValue,
// exposed so vessel creation can enroll it in its own transaction. The
// value must already be coerced.
func SubmitVesselValueTx(tx *gorm.DB, user *models.UserModel, vessel *models.VesselModel, attr *models.AttributeModel, coerced interface{}) (*models.VesselAttributeModel, error) {
	var pool models.SailboatAttributeModel
	poolErr := tx.Where("sailboat_id = ? AND attribute_id = ?", vessel.SailboatID, attr.ID).
		First(&pool).Error
	hasPool := poolErr == nil
	if poolErr != nil && !errors.Is(poolErr, gorm.ErrRecordNotFound) {
		return nil, poolErr
	}

	if !attr.AcceptsContributions && hasPool && !pool.Values.Contains(coerced) {
		return nil, fmt.Errorf("%w: %q does not accept values outside the catalog", ErrValidation, attr.Name)
	}

	var va models.VesselAttributeModel
	findErr := tx.Where("vessel_id = ? AND attribute_id = ?", vessel.ID, attr.ID).First(&va).Error
	switch {
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		va = models.VesselAttributeModel{VesselID: vessel.ID, AttributeID: attr.ID, Value: coerced}
		if err := tx.Create(&va).Error; err != nil {
			return nil, err
		}
	case findErr != nil:
		return nil, findErr
	default:
		va.Value = coerced
		if err := tx.Save(&va).Error; err != nil {
			return nil, err
		}
	}

	// Fold into the pool. The verb stays update even when the value is
	// already pooled and nothing is appended.
	verb := models.VerbUpdate
	if !hasPool {
		pool = models.SailboatAttributeModel{
			SailboatID:  vessel.SailboatID,
			AttributeID: attr.ID,
			Values:      models.ValueList{coerced},
		}
		if err := tx.Create(&pool).Error; err != nil {
			return nil, err
		}
		verb = models.VerbCreate
	} else if !pool.Values.Contains(coerced) {
		pool.Values = append(pool.Values, coerced)
		if err := tx.Save(&pool).Error; err != nil {
			return nil, err
		}
	}

	if _, err := moderation.Record(tx, moderation.RecordParams{
		Target:        models.TargetSailboatAttribute,
		TargetID:      &pool.ID,
		Verb:          verb,
		RequestedByID: user.ID,
		TriggeredByID: &va.ID,
		Data:          map[string]interface{}{"attribute": attr.Name, "value": coerced},
	}); err != nil {
		return nil, err
	}
	return &va, nil
}

// ImportCSV reads attributes from a header-row CSV. Columns: name,
// input_type (required); description, section, options,
// accepts_contributions (optional). Options are comma-joined in one cell.
func (s *Service) ImportCSV(r io.Reader) (*ImportResult, error) {
	rows, idx, err := csvutil.Read(r, "name", "input_type")
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for i, row := range rows {
		name := strings.ToLower(csvutil.Field(row, idx, "name"))
		if name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: empty name", i+2))
			continue
		}

		var count int64
		s.db.Model(&models.AttributeModel{}).Where("name = ?", name).Count(&count)
		if count > 0 {
			res.Skipped++
			continue
		}

		a := models.AttributeModel{
			Name:                 name,
			Description:          csvutil.Field(row, idx, "description"),
			InputType:            models.AttributeInputType(csvutil.Field(row, idx, "input_type")),
			AcceptsContributions: true,
		}
		if raw := csvutil.Field(row, idx, "accepts_contributions"); raw != "" {
			if b, err := strconv.ParseBool(raw); err == nil {
				a.AcceptsContributions = b
			}
		}
		if raw := csvutil.Field(row, idx, "options"); raw != "" {
			for _, opt := range strings.Split(raw, ",") {
				if opt = strings.TrimSpace(opt); opt != "" {
					a.Options = append(a.Options, opt)
				}
			}
		}
		if secName := csvutil.Field(row, idx, "section"); secName != "" {
			sec, err := s.getOrCreateSection(secName)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+2, err))
				continue
			}
			a.SectionID = &sec.ID
		}

		if err := a.Validate(); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		if err := s.db.Create(&a).Error; err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		res.Created++
	}
	return res, nil
}

func (s *Service) getOrCreateSection(name string) (*models.AttributeSectionModel, error) {
	var sec models.AttributeSectionModel
	err := s.db.Where("name = ?", name).First(&sec).Error
	if err == nil {
		return &sec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	sec = models.AttributeSectionModel{Name: name}
	return &sec, s.db.Create(&sec).Error
}

// ExportCSV writes all attributes as a header-row CSV.
func (s *Service) ExportCSV(w io.Writer) error {
	attrs, err := s.List()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := []string{"name", "input_type", "description", "section", "options", "accepts_contributions"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range attrs {
		section := ""
		if a.Section != nil {
			section = a.Section.Name
		}
		row := []string{
			a.Name,
			string(a.InputType),
			a.Description,
			section,
			strings.Join(a.Options.Strings(), ","),
			strconv.FormatBool(a.AcceptsContributions),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
