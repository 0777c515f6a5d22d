package sailboat

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/catalog/attribute"
	"github.com/tidesail/core/internal/modules/catalog/designer"
	makemod "github.com/tidesail/core/internal/modules/catalog/make"
	"github.com/tidesail/core/internal/modules/moderation"
	"github.com/tidesail/core/internal/pkg/csvutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrDuplicate  = errors.New("this make already has a sailboat with that name")
	ErrValidation = errors.New("validation failed")
)

type CreateSailboatDTO struct {
	Name                  string                      `json:"name" binding:"required"`
	Make                  string                      `json:"make" binding:"required"`
	Designers             string                      `json:"designers"`
	ManufacturedStartYear *int                        `json:"manufactured_start_year"`
	ManufacturedEndYear   *int                        `json:"manufactured_end_year"`
	Attributes            map[string]models.ValueList `json:"attributes"`
	ImageIDs              []string                    `json:"image_ids"`
}

type UpdateSailboatDTO struct {
	Name                  *string                     `json:"name"`
	Make                  *string                     `json:"make"`
	Designers             *string                     `json:"designers"`
	ManufacturedStartYear *int                        `json:"manufactured_start_year"`
	ManufacturedEndYear   *int                        `json:"manufactured_end_year"`
	Attributes            map[string]models.ValueList `json:"attributes"`
	ImageIDs              []string                    `json:"image_ids"`
}

type SetAttributeDTO struct {
	Attribute string           `json:"attribute" binding:"required"`
	Values    models.ValueList `json:"values" binding:"required"`
}

// ListFilter captures the catalog search parameters.
type ListFilter struct {
	Name       string
	Make       string
	Designer   string
	YearStart  *int
	YearEnd    *int
	Attributes map[string]string
	OrderBy    string
}

// AttributeValueView pairs an attribute with its pooled values.
type AttributeValueView struct {
	Attribute models.AttributeModel `json:"attribute"`
	Values    models.ValueList      `json:"values"`
}

// SectionGroup is the attribute list of one display section. Attributes
// without a section land in the group with a nil Section.
type SectionGroup struct {
	Section    *models.AttributeSectionModel `json:"section"`
	Attributes []AttributeValueView          `json:"attributes"`
}

// Detail is the full catalog view of one sailboat.
type Detail struct {
	Sailboat models.SailboatModel        `json:"sailboat"`
	Sections []SectionGroup              `json:"sections"`
	Images   []models.SailboatImageModel `json:"images"`
}

type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

var orderColumns = map[string]string{
	"name":       "sailboats.name ASC",
	"-name":      "sailboats.name DESC",
	"created_at": "sailboats.created_at ASC",
	"year":       "sailboats.manufactured_start_year ASC",
	"-year":      "sailboats.manufactured_start_year DESC",
}

// Query builds the filtered catalog query for pagination.
func (s *Service) Query(f ListFilter) *gorm.DB {
	q := s.db.Model(&models.SailboatModel{}).Preload("Make").Preload("Designers")

	if f.Name != "" {
		q = q.Where("sailboats.name LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	if f.Make != "" {
		q = q.Joins("JOIN makes ON makes.id = sailboats.make_id").
			Where("makes.name LIKE ?", "%"+strings.ToLower(f.Make)+"%")
	}
	if f.Designer != "" {
		q = q.Where("sailboats.id IN (?)", s.db.
			Table("sailboat_designers").
			Select("sailboat_designers.sailboat_model_id").
			Joins("JOIN designers ON designers.id = sailboat_designers.designer_model_id").
			Where("designers.name LIKE ?", "%"+strings.ToLower(f.Designer)+"%"))
	}
	if f.YearStart != nil {
		q = q.Where("sailboats.manufactured_start_year >= ?", *f.YearStart)
	}
	if f.YearEnd != nil {
		q = q.Where("sailboats.manufactured_end_year <= ?", *f.YearEnd)
	}
	for name, value := range f.Attributes {
		q = q.Where("sailboats.id IN (?)", s.db.
			Table("sailboat_attributes").
			Select("sailboat_attributes.sailboat_id").
			Joins("JOIN attributes ON attributes.id = sailboat_attributes.attribute_id").
			Where("attributes.name = ? AND sailboat_attributes.`values` LIKE ?",
				strings.ToLower(name), "%"+value+"%"))
	}

	order, ok := orderColumns[f.OrderBy]
	if !ok {
		order = orderColumns["name"]
	}
	return q.Order(order)
}

func (s *Service) GetByID(id string) (*models.SailboatModel, error) {
	var boat models.SailboatModel
	err := s.db.Preload("Make").Preload("Designers").First(&boat, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &boat, nil
}

// GetDetail returns the sailboat with attribute pools grouped by section.
func (s *Service) GetDetail(id string) (*Detail, error) {
	boat, err := s.GetByID(id)
	if err != nil || boat == nil {
		return nil, err
	}

	sections, err := s.GroupPools(id)
	if err != nil {
		return nil, err
	}

	var images []models.SailboatImageModel
	if err := s.db.Preload("Media").Where("sailboat_id = ?", id).
		Order("`order` ASC").Find(&images).Error; err != nil {
		return nil, err
	}

	return &Detail{Sailboat: *boat, Sections: sections, Images: images}, nil
}

// GroupPools loads all attribute pools of a sailboat grouped by section.
func (s *Service) GroupPools(sailboatID string) ([]SectionGroup, error) {
	var pools []models.SailboatAttributeModel
	err := s.db.Preload("Attribute").Preload("Attribute.Section").
		Where("sailboat_id = ?", sailboatID).Find(&pools).Error
	if err != nil {
		return nil, err
	}

	views := make(map[string][]AttributeValueView)
	sectionsByID := map[string]*models.AttributeSectionModel{}
	order := []string{}
	for _, pool := range pools {
		if pool.Attribute == nil {
			continue
		}
		key := ""
		if pool.Attribute.Section != nil {
			key = pool.Attribute.Section.ID
			sectionsByID[key] = pool.Attribute.Section
		}
		if _, seen := views[key]; !seen {
			order = append(order, key)
		}
		views[key] = append(views[key], AttributeValueView{
			Attribute: *pool.Attribute,
			Values:    pool.Values,
		})
	}

	groups := make([]SectionGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, SectionGroup{
			Section:    sectionsByID[key],
			Attributes: views[key],
		})
	}
	return groups, nil
}

// Create builds a sailboat from the staff form. Deliberately not wrapped
// in one transaction: partial attribute failures are reported while the
// boat itself stays created.
func (s *Service) Create(dto *CreateSailboatDTO) (*models.SailboatModel, []string, error) {
	mk, _, err := makemod.GetOrCreate(s.db, dto.Make)
	if err != nil {
		return nil, nil, err
	}

	name := strings.ToLower(strings.TrimSpace(dto.Name))
	var count int64
	s.db.Model(&models.SailboatModel{}).
		Where("make_id = ? AND name = ?", mk.ID, name).Count(&count)
	if count > 0 {
		return nil, nil, ErrDuplicate
	}

	boat := models.SailboatModel{
		Name:                  name,
		MakeID:                mk.ID,
		ManufacturedStartYear: dto.ManufacturedStartYear,
		ManufacturedEndYear:   dto.ManufacturedEndYear,
	}
	if err := s.db.Create(&boat).Error; err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var problems []string
	if dto.Designers != "" {
		designers, err := designer.ResolveList(s.db, dto.Designers)
		if err != nil {
			problems = append(problems, err.Error())
		} else if err := s.db.Model(&boat).Association("Designers").Replace(designers); err != nil {
			problems = append(problems, err.Error())
		}
	}

	for attrName, values := range dto.Attributes {
		if err := s.setPool(&boat, attrName, values); err != nil {
			problems = append(problems, fmt.Sprintf("attribute %q: %v", attrName, err))
		}
	}

	for _, mediaID := range dto.ImageIDs {
		img := models.SailboatImageModel{SailboatID: boat.ID, MediaID: mediaID}
		if err := s.db.Create(&img).Error; err != nil {
			problems = append(problems, fmt.Sprintf("image %s: %v", mediaID, err))
		}
	}

	return &boat, problems, nil
}

// GetOrCreateModerated resolves (make name, boat name) to a sailboat,
// creating both with audit records when missing. The vessel-creation path
// goes through here inside its transaction.
func GetOrCreateModerated(tx *gorm.DB, makeName, name, userID string) (*models.SailboatModel, error) {
	mk, err := makemod.GetOrCreateModerated(tx, makeName, userID)
	if err != nil {
		return nil, err
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, errors.New("sailboat name is required")
	}

	var boat models.SailboatModel
	err = tx.Where("make_id = ? AND name = ?", mk.ID, name).First(&boat).Error
	if err == nil {
		return &boat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	boat = models.SailboatModel{Name: name, MakeID: mk.ID}
	if err := tx.Create(&boat).Error; err != nil {
		return nil, err
	}
	if _, err := moderation.Record(tx, moderation.RecordParams{
		Target:        models.TargetSailboat,
		TargetID:      &boat.ID,
		Verb:          models.VerbCreate,
		RequestedByID: userID,
		Data:          boat,
	}); err != nil {
		return nil, err
	}
	return &boat, nil
}

// Update applies field changes and reconciles the attribute pools against
// the submitted map, logging each pool create/update/delete.
func (s *Service) Update(id string, dto *UpdateSailboatDTO) (*models.SailboatModel, []string, error) {
	boat, err := s.GetByID(id)
	if err != nil || boat == nil {
		return boat, nil, err
	}

	if dto.Make != nil {
		mk, _, err := makemod.GetOrCreate(s.db, *dto.Make)
		if err != nil {
			return nil, nil, err
		}
		boat.MakeID = mk.ID
	}
	if dto.Name != nil {
		boat.Name = *dto.Name
	}
	if dto.ManufacturedStartYear != nil {
		boat.ManufacturedStartYear = dto.ManufacturedStartYear
	}
	if dto.ManufacturedEndYear != nil {
		boat.ManufacturedEndYear = dto.ManufacturedEndYear
	}
	if err := s.db.Save(boat).Error; err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var problems []string
	if dto.Designers != nil {
		designers, err := designer.ResolveList(s.db, *dto.Designers)
		if err != nil {
			problems = append(problems, err.Error())
		} else if err := s.db.Model(boat).Association("Designers").Replace(designers); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if dto.Attributes != nil {
		problems = append(problems, s.reconcilePools(boat, dto.Attributes)...)
	}

	for _, mediaID := range dto.ImageIDs {
		img := models.SailboatImageModel{SailboatID: boat.ID, MediaID: mediaID}
		if err := s.db.Create(&img).Error; err != nil {
			problems = append(problems, fmt.Sprintf("image %s: %v", mediaID, err))
		}
	}

	return boat, problems, nil
}

// reconcilePools diffs the stored pools against the submitted map.
// Missing entries are deleted, changed ones rewritten, new ones created.
func (s *Service) reconcilePools(boat *models.SailboatModel, want map[string]models.ValueList) []string {
	var problems []string

	var existing []models.SailboatAttributeModel
	if err := s.db.Preload("Attribute").Where("sailboat_id = ?", boat.ID).Find(&existing).Error; err != nil {
		return []string{err.Error()}
	}

	seen := map[string]bool{}
	for _, pool := range existing {
		if pool.Attribute == nil {
			continue
		}
		name := pool.Attribute.Name
		values, keep := want[name]
		if !keep {
			if err := s.db.Delete(&pool).Error; err != nil {
				problems = append(problems, fmt.Sprintf("attribute %q: %v", name, err))
				continue
			}
			s.log.Info("sailboat attribute deleted",
				zap.String("sailboat_id", boat.ID),
				zap.String("attribute", name))
			continue
		}
		seen[name] = true
		if valuesEqual(pool.Values, values) {
			continue
		}
		pool.Values = values
		if err := pool.ValidateAgainst(pool.Attribute); err != nil {
			problems = append(problems, fmt.Sprintf("attribute %q: %v", name, err))
			continue
		}
		if err := s.db.Save(&pool).Error; err != nil {
			problems = append(problems, fmt.Sprintf("attribute %q: %v", name, err))
			continue
		}
		s.log.Info("sailboat attribute updated",
			zap.String("sailboat_id", boat.ID),
			zap.String("attribute", name),
			zap.Any("values", values))
	}

	for name, values := range want {
		if seen[name] {
			continue
		}
		if err := s.setPool(boat, name, values); err != nil {
			problems = append(problems, fmt.Sprintf("attribute %q: %v", name, err))
			continue
		}
		s.log.Info("sailboat attribute created",
			zap.String("sailboat_id", boat.ID),
			zap.String("attribute", name),
			zap.Any("values", values))
	}

	return problems
}

func valuesEqual(a, b models.ValueList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if models.NormalizeValue(a[i]) != models.NormalizeValue(b[i]) {
			return false
		}
	}
	return true
}

// setPool upserts the value pool for one attribute, validating against
// the attribute's declared type.
func (s *Service) setPool(boat *models.SailboatModel, attrName string, values models.ValueList) error {
	var attr models.AttributeModel
	err := s.db.First(&attr, "name = ?", strings.ToLower(strings.TrimSpace(attrName))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return attribute.ErrUnknownAttribute
		}
		return err
	}

	normalized := make(models.ValueList, 0, len(values))
	for _, v := range values {
		coerced, err := attribute.CoerceValue(&attr, v)
		if err != nil {
			return err
		}
		normalized = append(normalized, coerced)
	}

	var pool models.SailboatAttributeModel
	err = s.db.Where("sailboat_id = ? AND attribute_id = ?", boat.ID, attr.ID).First(&pool).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		pool = models.SailboatAttributeModel{SailboatID: boat.ID, AttributeID: attr.ID, Values: normalized}
		return s.db.Create(&pool).Error
	case err != nil:
		return err
	default:
		pool.Values = normalized
		return s.db.Save(&pool).Error
	}
}

// GetAttributes returns all pools of a sailboat.
func (s *Service) GetAttributes(sailboatID string) ([]models.SailboatAttributeModel, error) {
	var pools []models.SailboatAttributeModel
	err := s.db.Preload("Attribute").Where("sailboat_id = ?", sailboatID).Find(&pools).Error
	return pools, err
}

// SetAttribute upserts one pool by attribute name.
func (s *Service) SetAttribute(sailboatID string, dto *SetAttributeDTO) error {
	boat, err := s.GetByID(sailboatID)
	if err != nil {
		return err
	}
	if boat == nil {
		return gorm.ErrRecordNotFound
	}
	return s.setPool(boat, dto.Attribute, dto.Values)
}

func (s *Service) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sailboat_id = ?", id).Delete(&models.SailboatAttributeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sailboat_id = ?", id).Delete(&models.SailboatImageModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SailboatModel{}, "id = ?", id).Error
	})
}

// ImportCSV reads sailboats from a header-row CSV. Columns: make, name
// (required); designers (comma-joined), manufactured_start_year,
// manufactured_end_year (optional). Makes are resolved by name and
// created when missing.
func (s *Service) ImportCSV(r io.Reader) (*ImportResult, error) {
	rows, idx, err := csvutil.Read(r, "make", "name")
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for i, row := range rows {
		makeName := csvutil.Field(row, idx, "make")
		name := strings.ToLower(csvutil.Field(row, idx, "name"))
		if makeName == "" || name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: make and name are required", i+2))
			continue
		}

		mk, _, err := makemod.GetOrCreate(s.db, makeName)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}

		var count int64
		s.db.Model(&models.SailboatModel{}).
			Where("make_id = ? AND name = ?", mk.ID, name).Count(&count)
		if count > 0 {
			res.Skipped++
			continue
		}

		boat := models.SailboatModel{Name: name, MakeID: mk.ID}
		if raw := csvutil.Field(row, idx, "manufactured_start_year"); raw != "" {
			if y, err := strconv.Atoi(raw); err == nil {
				boat.ManufacturedStartYear = &y
			}
		}
		if raw := csvutil.Field(row, idx, "manufactured_end_year"); raw != "" {
			if y, err := strconv.Atoi(raw); err == nil {
				boat.ManufacturedEndYear = &y
			}
		}
		if err := s.db.Create(&boat).Error; err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}

		if joined := csvutil.Field(row, idx, "designers"); joined != "" {
			designers, err := designer.ResolveList(s.db, joined)
			if err == nil {
				_ = s.db.Model(&boat).Association("Designers").Replace(designers)
			}
		}
		res.Created++
	}
	return res, nil
}

// ImportAttributesCSV reads attribute pools from a header-row CSV.
// Columns: make_name, sailboat_name, attribute_name, values (required,
// values comma-joined in one cell).
func (s *Service) ImportAttributesCSV(r io.Reader) (*ImportResult, error) {
	rows, idx, err := csvutil.Read(r, "make_name", "sailboat_name", "attribute_name", "values")
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for i, row := range rows {
		makeName := strings.ToLower(csvutil.Field(row, idx, "make_name"))
		boatName := strings.ToLower(csvutil.Field(row, idx, "sailboat_name"))

		var boat models.SailboatModel
		err := s.db.Joins("JOIN makes ON makes.id = sailboats.make_id").
			Where("makes.name = ? AND sailboats.name = ?", makeName, boatName).
			First(&boat).Error
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: sailboat %s %s not found", i+2, makeName, boatName))
			continue
		}

		var values models.ValueList
		for _, part := range strings.Split(csvutil.Field(row, idx, "values"), ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}

		if err := s.setPool(&boat, csvutil.Field(row, idx, "attribute_name"), values); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		res.Created++
	}
	return res, nil
}

// ExportCSV writes all sailboats as a header-row CSV.
func (s *Service) ExportCSV(w io.Writer) error {
	var boats []models.SailboatModel
	if err := s.db.Preload("Make").Preload("Designers").Order("name ASC").Find(&boats).Error; err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"make", "name", "designers", "manufactured_start_year", "manufactured_end_year"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, boat := range boats {
		makeName := ""
		if boat.Make != nil {
			makeName = boat.Make.Name
		}
		names := make([]string, 0, len(boat.Designers))
		for _, d := range boat.Designers {
			names = append(names, d.Name)
		}
		row := []string{
			makeName,
			boat.Name,
			strings.Join(names, ","),
			yearString(boat.ManufacturedStartYear),
			yearString(boat.ManufacturedEndYear),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func yearString(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}
