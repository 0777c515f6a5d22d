package models

// ModerationState is the review state of a proposed change. Transitions
// run unmoderated -> approved|declined|modified and are terminal.
type ModerationState string

const (
	ModerationUnmoderated ModerationState = "unmoderated"
	ModerationApproved    ModerationState = "approved"
	ModerationDeclined    ModerationState = "declined"
	ModerationModified    ModerationState = "modified"
)

// ModerationVerb describes what kind of write triggered the record.
type ModerationVerb string

const (
	VerbCreate ModerationVerb = "create"
	VerbUpdate ModerationVerb = "update"
	VerbDelete ModerationVerb = "delete"
)

// ModerationTarget is the closed set of moderatable entities. A tagged
// enum instead of a free-form type reference keeps lookups typed.
type ModerationTarget string

const (
	TargetMake              ModerationTarget = "make"
	TargetDesigner          ModerationTarget = "designer"
	TargetSailboat          ModerationTarget = "sailboat"
	TargetSailboatAttribute ModerationTarget = "sailboat_attribute"
	TargetVesselAttribute   ModerationTarget = "vessel_attribute"
)

// ModerationModel is an append-only review record for a catalog-affecting
// write. The write itself is never blocked; this is a parallel audit and
// approval trail.
type ModerationModel struct {
	Base
	Target        ModerationTarget `json:"target"    gorm:"not null;size:32;index:idx_target"`
	TargetID      *string          `json:"target_id" gorm:"type:char(36);index:idx_target"`
	Data          string           `json:"data"      gorm:"type:text;not null"`
	Verb          ModerationVerb   `json:"verb"      gorm:"not null;size:16"`
	RequestedByID string           `json:"requested_by_id" gorm:"type:char(36);not null;index"`
	RequestedBy   *UserModel       `json:"requested_by,omitempty" gorm:"foreignKey:RequestedByID"`
	RequestNote   string           `json:"request_note"  gorm:"type:text"`
	ModeratorID   *string          `json:"moderator_id"  gorm:"type:char(36);index"`
	Moderator     *UserModel       `json:"moderator,omitempty" gorm:"foreignKey:ModeratorID"`
	ResponseNote  string           `json:"response_note" gorm:"type:text"`
	State         ModerationState  `json:"state" gorm:"default:unmoderated;size:20;index"`
	// TriggeredByID points back at the row whose save caused this record
	// (e.g. the VesselAttribute behind a pool append).
	TriggeredByID *string `json:"triggered_by_id" gorm:"type:char(36);index"`
}

func (ModerationModel) TableName() string { return "moderations" }

func (m *ModerationModel) IsPending() bool  { return m.State == ModerationUnmoderated }
func (m *ModerationModel) IsResolved() bool { return m.State != ModerationUnmoderated }
