package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

const MinManufactureYear = 1800

var (
	ErrYearRange     = errors.New("end year cannot be before start year")
	ErrYearTooEarly  = errors.New("manufacture years must be 1800 or later")
	ErrValuesBadType = errors.New("values do not match the attribute type")
)

// SailboatModel is a boat model (the catalog unit): make + model name +
// manufacturing era. (make, name) is unique, names lowercased.
type SailboatModel struct {
	Base
	Name                  string          `json:"name" gorm:"not null;size:100;uniqueIndex:idx_make_name"`
	MakeID                string          `json:"make_id" gorm:"type:char(36);not null;uniqueIndex:idx_make_name;index"`
	Make                  *MakeModel      `json:"make,omitempty" gorm:"foreignKey:MakeID;constraint:OnDelete:CASCADE"`
	Designers             []DesignerModel `json:"designers,omitempty" gorm:"many2many:sailboat_designers"`
	ManufacturedStartYear *int            `json:"manufactured_start_year"`
	ManufacturedEndYear   *int            `json:"manufactured_end_year"`
}

func (SailboatModel) TableName() string { return "sailboats" }

func (s *SailboatModel) BeforeSave(tx *gorm.DB) error {
	s.Name = strings.ToLower(strings.TrimSpace(s.Name))
	return s.Validate()
}

func (s *SailboatModel) Validate() error {
	if s.ManufacturedStartYear != nil && *s.ManufacturedStartYear < MinManufactureYear {
		return ErrYearTooEarly
	}
	if s.ManufacturedEndYear != nil && *s.ManufacturedEndYear < MinManufactureYear {
		return ErrYearTooEarly
	}
	if s.ManufacturedStartYear != nil && s.ManufacturedEndYear != nil &&
		*s.ManufacturedEndYear < *s.ManufacturedStartYear {
		return ErrYearRange
	}
	return nil
}

// SailboatAttributeModel holds the accepted value pool for one attribute
// on one sailboat. Vessel-level contributions fold into this list.
type SailboatAttributeModel struct {
	Base
	SailboatID  string          `json:"sailboat_id"  gorm:"type:char(36);not null;uniqueIndex:idx_sailboat_attr;index"`
	AttributeID string          `json:"attribute_id" gorm:"type:char(36);not null;uniqueIndex:idx_sailboat_attr"`
	Attribute   *AttributeModel `json:"attribute,omitempty" gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE"`
	Values      ValueList       `json:"values" gorm:"type:text;not null"`
}

func (SailboatAttributeModel) TableName() string { return "sailboat_attributes" }

// ValidateAgainst checks every pooled value against the attribute's
// declared type and option list.
func (sa *SailboatAttributeModel) ValidateAgainst(attr *AttributeModel) error {
	for _, v := range sa.Values {
		norm := NormalizeValue(v)
		switch attr.InputType {
		case InputTypeFloat, InputTypeInteger:
			if _, ok := norm.(float64); !ok {
				return ErrValuesBadType
			}
		case InputTypeOptions:
			if !attr.Options.Contains(norm) {
				return ErrValuesBadType
			}
		}
	}
	return nil
}

// SailboatImageModel orders catalog images. Order auto-assigns to the
// tail when zero.
type SailboatImageModel struct {
	Base
	SailboatID string      `json:"sailboat_id" gorm:"type:char(36);not null;index"`
	MediaID    string      `json:"media_id"    gorm:"type:char(36);not null"`
	Media      *MediaModel `json:"media,omitempty" gorm:"foreignKey:MediaID"`
	Order      int         `json:"order"`
}

func (SailboatImageModel) TableName() string { return "sailboat_images" }

func (si *SailboatImageModel) BeforeCreate(tx *gorm.DB) error {
	if err := si.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if si.Order == 0 {
		var max int
		tx.Model(&SailboatImageModel{}).
			Where("sailboat_id = ?", si.SailboatID).
			Select("COALESCE(MAX(`order`), 0)").Scan(&max)
		si.Order = max + 1
	}
	return nil
}
