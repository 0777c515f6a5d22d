package models

import (
	"errors"
	"regexp"
	"time"

	"gorm.io/gorm"
)

var (
	ErrHINFormat        = errors.New("hull identification number must be alphanumeric")
	ErrYearBuiltRange   = errors.New("year built must be between 1800 and next year")
	ErrYearBeforeModel  = errors.New("year built cannot be before the model's manufacturing start year")
	ErrYearAfterModel   = errors.New("year built cannot be after the model's manufacturing end year")
	hinPattern          = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// VesselModel is one physical boat instance of a Sailboat model.
type VesselModel struct {
	Base
	SailboatID               string         `json:"sailboat_id" gorm:"type:char(36);not null;index"`
	Sailboat                 *SailboatModel `json:"sailboat,omitempty" gorm:"foreignKey:SailboatID;constraint:OnDelete:CASCADE"`
	HullIdentificationNumber string         `json:"hull_identification_number" gorm:"uniqueIndex;not null;size:14"`
	USCGNumber               string         `json:"uscg_number" gorm:"size:20"`
	Name                     string         `json:"name" gorm:"not null;size:255"`
	YearBuilt                *int           `json:"year_built" gorm:"index"`
	HomePort                 string         `json:"home_port" gorm:"size:255"`
	IsPublic                 bool           `json:"is_public" gorm:"default:false"`
	CreatedByID              string         `json:"created_by_id" gorm:"type:char(36);not null;index"`
	CreatedBy                *UserModel     `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
}

func (VesselModel) TableName() string { return "vessels" }

// Validate checks the HIN format and the year_built window. The sailboat
// argument may be nil when the model years are unknown to the caller.
func (v *VesselModel) Validate(sailboat *SailboatModel) error {
	if !hinPattern.MatchString(v.HullIdentificationNumber) {
		return ErrHINFormat
	}
	if v.YearBuilt != nil {
		if *v.YearBuilt < MinManufactureYear || *v.YearBuilt > time.Now().Year()+1 {
			return ErrYearBuiltRange
		}
		if sailboat != nil {
			if sailboat.ManufacturedStartYear != nil && *v.YearBuilt < *sailboat.ManufacturedStartYear {
				return ErrYearBeforeModel
			}
			if sailboat.ManufacturedEndYear != nil && *v.YearBuilt > *sailboat.ManufacturedEndYear {
				return ErrYearAfterModel
			}
		}
	}
	return nil
}

// VesselImageModel orders the images of a vessel; (vessel, order) unique.
type VesselImageModel struct {
	Base
	VesselID string      `json:"vessel_id" gorm:"type:char(36);not null;uniqueIndex:idx_vessel_order;index"`
	MediaID  string      `json:"media_id"  gorm:"type:char(36);not null"`
	Media    *MediaModel `json:"media,omitempty" gorm:"foreignKey:MediaID"`
	Order    int         `json:"order" gorm:"uniqueIndex:idx_vessel_order"`
}

func (VesselImageModel) TableName() string { return "vessel_images" }

func (vi *VesselImageModel) BeforeCreate(tx *gorm.DB) error {
	if err := vi.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if vi.Order == 0 {
		var max int
		tx.Model(&VesselImageModel{}).
			Where("vessel_id = ?", vi.VesselID).
			Select("COALESCE(MAX(`order`), 0)").Scan(&max)
		vi.Order = max + 1
	}
	return nil
}

// VesselAttributeModel is the per-vessel value for one attribute.
// Validation and the fold into the sailboat pool happen in the attribute
// service, not here.
type VesselAttributeModel struct {
	Base
	VesselID    string          `json:"vessel_id"    gorm:"type:char(36);not null;uniqueIndex:idx_vessel_attr;index"`
	AttributeID string          `json:"attribute_id" gorm:"type:char(36);not null;uniqueIndex:idx_vessel_attr"`
	Attribute   *AttributeModel `json:"attribute,omitempty" gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE"`
	Value       interface{}     `json:"value" gorm:"type:text;serializer:json"`
}

func (VesselAttributeModel) TableName() string { return "vessel_attributes" }
