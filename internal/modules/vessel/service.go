package vessel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/access"
	"github.com/tidesail/core/internal/modules/catalog/attribute"
	"github.com/tidesail/core/internal/modules/catalog/sailboat"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrHINTaken        = errors.New("a vessel with that hull identification number already exists")
	ErrSailboatMissing = errors.New("either sailboat_id or make and model are required")
	ErrNotCreator      = errors.New("only the creator can delete a vessel")
	ErrConfirmName     = errors.New("confirmation name does not match the vessel name")
)

type CreateVesselDTO struct {
	SailboatID               *string                `json:"sailboat_id"`
	Make                     string                 `json:"make"`
	Model                    string                 `json:"model"`
	Name                     string                 `json:"name" binding:"required"`
	HullIdentificationNumber string                 `json:"hull_identification_number" binding:"required,max=14"`
	USCGNumber               string                 `json:"uscg_number"`
	YearBuilt                *int                   `json:"year_built"`
	HomePort                 string                 `json:"home_port"`
	IsPublic                 bool                   `json:"is_public"`
	Attributes               map[string]interface{} `json:"attributes"`
	ImageIDs                 []string               `json:"image_ids"`
}

type UpdateVesselDTO struct {
	Name       *string                `json:"name"`
	USCGNumber *string                `json:"uscg_number"`
	YearBuilt  *int                   `json:"year_built"`
	HomePort   *string                `json:"home_port"`
	Attributes map[string]interface{} `json:"attributes"`
	ImageIDs   []string               `json:"image_ids"`
}

type DeleteVesselDTO struct {
	ConfirmName string `json:"confirm_name" binding:"required"`
}

type SubmitAttributeDTO struct {
	Attribute string      `json:"attribute" binding:"required"`
	Value     interface{} `json:"value" binding:"required"`
}

// Summary is the search-listing view, safe for any caller.
type Summary struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	HullIdentificationNumber string `json:"hull_identification_number"`
	Make                     string `json:"make"`
	Model                    string `json:"model"`
	HomePort                 string `json:"home_port"`
	IsPublic                 bool   `json:"is_public"`
}

// AttributeValue pairs an attribute with this vessel's single value.
type AttributeValue struct {
	Attribute models.AttributeModel `json:"attribute"`
	Value     interface{}           `json:"value"`
}

// SectionGroup is one display section of vessel attribute values.
type SectionGroup struct {
	Section    *models.AttributeSectionModel `json:"section"`
	Attributes []AttributeValue              `json:"attributes"`
}

// Detail is the full view of a vessel for callers who may view it.
type Detail struct {
	Vessel   models.VesselModel        `json:"vessel"`
	Sections []SectionGroup            `json:"sections"`
	Images   []models.VesselImageModel `json:"images"`
	Notes    []models.VesselNoteModel  `json:"notes"`
	CanCrew  bool                      `json:"can_crew"`
	CanEdit  bool                      `json:"can_edit"`
}

// Obfuscated is the restricted view for callers without view access.
type Obfuscated struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	IsObfuscated bool   `json:"is_obfuscated"`
}

type Service struct {
	db     *gorm.DB
	attrs  *attribute.Service
	access *access.Service
	log    *zap.Logger
}

func NewService(db *gorm.DB, attrs *attribute.Service, accessSvc *access.Service, log *zap.Logger) *Service {
	return &Service{db: db, attrs: attrs, access: accessSvc, log: log}
}

// Query builds the vessel search query. Search matches name or HIN.
func (s *Service) Query(search string) *gorm.DB {
	q := s.db.Model(&models.VesselModel{}).
		Preload("Sailboat").Preload("Sailboat.Make")
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(vessels.name) LIKE ? OR LOWER(vessels.hull_identification_number) LIKE ?", like, like)
	}
	return q.Order("vessels.name ASC")
}

// Summarize renders vessels into the listing view.
func Summarize(vessels []models.VesselModel) []Summary {
	out := make([]Summary, 0, len(vessels))
	for _, v := range vessels {
		item := Summary{
			ID:                       v.ID,
			Name:                     v.Name,
			HullIdentificationNumber: v.HullIdentificationNumber,
			HomePort:                 v.HomePort,
			IsPublic:                 v.IsPublic,
		}
		if v.Sailboat != nil {
			item.Model = v.Sailboat.Name
			if v.Sailboat.Make != nil {
				item.Make = v.Sailboat.Make.Name
			}
		}
		out = append(out, item)
	}
	return out
}

func (s *Service) GetByID(id string) (*models.VesselModel, error) {
	var v models.VesselModel
	err := s.db.Preload("Sailboat").Preload("Sailboat.Make").
		Preload("Sailboat.Designers").Preload("CreatedBy").
		First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// Create registers a vessel in one transaction: sailboat resolution
// (moderated get-or-create when given make+model), validation, creator
// grants, attributes and images all commit or roll back together.
func (s *Service) Create(user *models.UserModel, dto *CreateVesselDTO) (*models.VesselModel, error) {
	hin := strings.ToUpper(strings.TrimSpace(dto.HullIdentificationNumber))

	var count int64
	s.db.Model(&models.VesselModel{}).
		Where("hull_identification_number = ?", hin).Count(&count)
	if count > 0 {
		return nil, ErrHINTaken
	}

	var created *models.VesselModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var boat *models.SailboatModel
		switch {
		case dto.SailboatID != nil && *dto.SailboatID != "":
			var b models.SailboatModel
			if err := tx.First(&b, "id = ?", *dto.SailboatID).Error; err != nil {
				return fmt.Errorf("%w: unknown sailboat", ErrValidation)
			}
			boat = &b
		case dto.Make != "" && dto.Model != "":
			var err error
			boat, err = sailboat.GetOrCreateModerated(tx, dto.Make, dto.Model, user.ID)
			if err != nil {
				return err
			}
		default:
			return ErrSailboatMissing
		}

		v := models.VesselModel{
			SailboatID:               boat.ID,
			HullIdentificationNumber: hin,
			USCGNumber:               dto.USCGNumber,
			Name:                     dto.Name,
			YearBuilt:                dto.YearBuilt,
			HomePort:                 dto.HomePort,
			IsPublic:                 dto.IsPublic,
			CreatedByID:              user.ID,
		}
		if err := v.Validate(boat); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if err := tx.Create(&v).Error; err != nil {
			return err
		}

		if err := s.access.Grant(tx, v.ID, user.ID, models.VesselRoleSkipper); err != nil {
			return err
		}

		for _, mediaID := range dto.ImageIDs {
			img := models.VesselImageModel{VesselID: v.ID, MediaID: mediaID}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}

		for name, raw := range dto.Attributes {
			if err := s.submitAttributeTx(tx, user, &v, name, raw); err != nil {
				return err
			}
		}

		created = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("vessel created",
		zap.String("vessel_id", created.ID),
		zap.String("user_id", user.ID),
		zap.String("hin", created.HullIdentificationNumber))
	return created, nil
}

func (s *Service) submitAttributeTx(tx *gorm.DB, user *models.UserModel, v *models.VesselModel, name string, raw interface{}) error {
	var attr models.AttributeModel
	if err := tx.First(&attr, "name = ?", strings.ToLower(strings.TrimSpace(name))).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: unknown attribute %q", ErrValidation, name)
		}
		return err
	}
	coerced, err := attribute.CoerceValue(&attr, raw)
	if err != nil {
		return err
	}
	_, err = attribute.SubmitVesselValueTx(tx, user, v, &attr, coerced)
	return err
}

// GetDetail renders the vessel for the caller, obfuscating when the
// caller lacks view access. The second return is the Obfuscated view and
// is non-nil exactly when access was denied.
func (s *Service) GetDetail(user *models.UserModel, v *models.VesselModel) (*Detail, *Obfuscated, error) {
	canView, err := s.access.CanView(user, v)
	if err != nil {
		return nil, nil, err
	}
	if !canView {
		ob := &Obfuscated{ID: v.ID, Name: v.Name, IsObfuscated: true}
		if v.Sailboat != nil {
			ob.Model = v.Sailboat.Name
			if v.Sailboat.Make != nil {
				ob.Make = v.Sailboat.Make.Name
			}
		}
		return nil, ob, nil
	}

	sections, err := s.groupAttributes(v.ID)
	if err != nil {
		return nil, nil, err
	}

	var images []models.VesselImageModel
	if err := s.db.Preload("Media").Where("vessel_id = ?", v.ID).
		Order("`order` ASC").Find(&images).Error; err != nil {
		return nil, nil, err
	}

	notes, err := s.accessibleNotes(user, v.ID)
	if err != nil {
		return nil, nil, err
	}

	canCrew, err := s.access.CanCrew(user, v)
	if err != nil {
		return nil, nil, err
	}
	canEdit, err := s.access.CanManage(user, v)
	if err != nil {
		return nil, nil, err
	}

	return &Detail{
		Vessel:   *v,
		Sections: sections,
		Images:   images,
		Notes:    notes,
		CanCrew:  canCrew,
		CanEdit:  canEdit,
	}, nil, nil
}

func (s *Service) groupAttributes(vesselID string) ([]SectionGroup, error) {
	var rows []models.VesselAttributeModel
	err := s.db.Preload("Attribute").Preload("Attribute.Section").
		Where("vessel_id = ?", vesselID).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	values := map[string][]AttributeValue{}
	sectionsByID := map[string]*models.AttributeSectionModel{}
	order := []string{}
	for _, row := range rows {
		if row.Attribute == nil {
			continue
		}
		key := ""
		if row.Attribute.Section != nil {
			key = row.Attribute.Section.ID
			sectionsByID[key] = row.Attribute.Section
		}
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = append(values[key], AttributeValue{
			Attribute: *row.Attribute,
			Value:     row.Value,
		})
	}

	groups := make([]SectionGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, SectionGroup{Section: sectionsByID[key], Attributes: values[key]})
	}
	return groups, nil
}

func (s *Service) accessibleNotes(user *models.UserModel, vesselID string) ([]models.VesselNoteModel, error) {
	if user == nil {
		return nil, nil
	}
	var notes []models.VesselNoteModel
	err := s.db.Preload("Messages").Preload("Messages.User").
		Where("vessel_id = ? AND (user_id = ? OR id IN (?))", vesselID, user.ID,
			s.db.Table("vessel_note_shares").
				Select("vessel_note_model_id").
				Where("user_model_id = ?", user.ID)).
		Find(&notes).Error
	return notes, err
}

// Update changes vessel fields; attributes submitted here replace the
// current set (delete and resubmit through the contribution pipeline).
func (s *Service) Update(user *models.UserModel, v *models.VesselModel, dto *UpdateVesselDTO) error {
	if dto.Name != nil {
		v.Name = *dto.Name
	}
	if dto.USCGNumber != nil {
		v.USCGNumber = *dto.USCGNumber
	}
	if dto.YearBuilt != nil {
		v.YearBuilt = dto.YearBuilt
	}
	if dto.HomePort != nil {
		v.HomePort = *dto.HomePort
	}
	if err := v.Validate(v.Sailboat); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(v).Error; err != nil {
			return err
		}

		if dto.Attributes != nil {
			if err := tx.Where("vessel_id = ?", v.ID).
				Delete(&models.VesselAttributeModel{}).Error; err != nil {
				return err
			}
			for name, raw := range dto.Attributes {
				if err := s.submitAttributeTx(tx, user, v, name, raw); err != nil {
					return err
				}
			}
		}

		for _, mediaID := range dto.ImageIDs {
			img := models.VesselImageModel{VesselID: v.ID, MediaID: mediaID}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a vessel and its dependents. Creator only, and the
// submitted name must match exactly.
func (s *Service) Delete(user *models.UserModel, v *models.VesselModel, confirmName string) error {
	if v.CreatedByID != user.ID {
		return ErrNotCreator
	}
	if confirmName != v.Name {
		return ErrConfirmName
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Note and logbook children must go before their parents; the
		// schema does not cascade past the first level.
		var noteIDs []string
		if err := tx.Model(&models.VesselNoteModel{}).
			Where("vessel_id = ?", v.ID).Pluck("id", &noteIDs).Error; err != nil {
			return err
		}
		if len(noteIDs) > 0 {
			if err := tx.Where("vessel_note_id IN ?", noteIDs).
				Delete(&models.NoteMessageModel{}).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM vessel_note_shares WHERE vessel_note_model_id IN ?", noteIDs).Error; err != nil {
				return err
			}
		}

		var entryIDs []string
		if err := tx.Model(&models.LogEntryModel{}).
			Where("vessel_id = ?", v.ID).Pluck("id", &entryIDs).Error; err != nil {
			return err
		}
		if len(entryIDs) > 0 {
			if err := tx.Where("log_entry_id IN ?", entryIDs).
				Delete(&models.LogEntryLocationModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("log_entry_id IN ?", entryIDs).
				Delete(&models.LogEntryAttachmentModel{}).Error; err != nil {
				return err
			}
		}

		for _, model := range []interface{}{
			&models.VesselNoteModel{},
			&models.LogEntryModel{},
			&models.VesselAttributeModel{},
			&models.VesselImageModel{},
			&models.VesselGrant{},
			&models.VesselAccessRequestModel{},
		} {
			if err := tx.Where("vessel_id = ?", v.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.VesselModel{}, "id = ?", v.ID).Error
	})
}

// TogglePrivacy flips is_public and returns the new value.
func (s *Service) TogglePrivacy(v *models.VesselModel) (bool, error) {
	v.IsPublic = !v.IsPublic
	return v.IsPublic, s.db.Model(v).Update("is_public", v.IsPublic).Error
}

// SubmitAttribute handles a crew member's value submission on the
// contribution pipeline.
func (s *Service) SubmitAttribute(user *models.UserModel, v *models.VesselModel, dto *SubmitAttributeDTO) (*models.VesselAttributeModel, error) {
	attr, err := s.attrs.GetByName(dto.Attribute)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		attr, err = s.attrs.GetByID(dto.Attribute)
		if err != nil {
			return nil, err
		}
	}
	if attr == nil {
		return nil, attribute.ErrUnknownAttribute
	}
	return s.attrs.SubmitVesselValue(user, v, attr.ID, dto.Value)
}
