package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// MakeModel is a boat manufacturer. Names are folded to lowercase so
// uniqueness is case-insensitive.
type MakeModel struct {
	Base
	Name string `json:"name" gorm:"uniqueIndex;not null;size:100"`
}

func (MakeModel) TableName() string { return "makes" }

func (m *MakeModel) BeforeSave(tx *gorm.DB) error {
	m.Name = strings.ToLower(strings.TrimSpace(m.Name))
	return nil
}

// DesignerModel is a boat designer, same case-folding rule as Make.
type DesignerModel struct {
	Base
	Name string `json:"name" gorm:"uniqueIndex;not null;size:100"`
}

func (DesignerModel) TableName() string { return "designers" }

func (d *DesignerModel) BeforeSave(tx *gorm.DB) error {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	return nil
}

// AttributeSectionModel groups attributes for display (rig, hull, ...).
type AttributeSectionModel struct {
	Base
	Name string `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Icon string `json:"icon" gorm:"size:100"`
}

func (AttributeSectionModel) TableName() string { return "attribute_sections" }

// AttributeInputType is the declared value type of an attribute.
type AttributeInputType string

const (
	InputTypeString  AttributeInputType = "string"
	InputTypeFloat   AttributeInputType = "float"
	InputTypeInteger AttributeInputType = "integer"
	InputTypeOptions AttributeInputType = "options"
)

// Valid reports whether t is one of the declared input types.
func (t AttributeInputType) Valid() bool {
	switch t {
	case InputTypeString, InputTypeFloat, InputTypeInteger, InputTypeOptions:
		return true
	}
	return false
}

var (
	ErrOptionsRequired = errors.New("options are required for options type attributes")
	ErrBadInputType    = errors.New("input_type must be one of string, float, integer, options")
)

// AttributeModel is a typed, named field definition for sailboats and
// vessels. AcceptsContributions controls whether vessel-level submissions
// may introduce values absent from the sailboat-level pool.
type AttributeModel struct {
	Base
	Name                 string                 `json:"name"        gorm:"uniqueIndex;not null;size:100"`
	Description          string                 `json:"description" gorm:"type:text"`
	InputType            AttributeInputType     `json:"input_type"  gorm:"not null;index;size:20"`
	Options              ValueList              `json:"options"     gorm:"type:text"`
	SectionID            *string                `json:"section_id"  gorm:"type:char(36);index"`
	Section              *AttributeSectionModel `json:"section,omitempty" gorm:"foreignKey:SectionID"`
	AcceptsContributions bool                   `json:"accepts_contributions" gorm:"default:true"`
}

func (AttributeModel) TableName() string { return "attributes" }

func (a *AttributeModel) BeforeSave(tx *gorm.DB) error {
	a.Name = strings.ToLower(strings.TrimSpace(a.Name))
	return nil
}

func (a *AttributeModel) Validate() error {
	if !a.InputType.Valid() {
		return ErrBadInputType
	}
	if a.InputType == InputTypeOptions && len(a.Options) == 0 {
		return ErrOptionsRequired
	}
	return nil
}
