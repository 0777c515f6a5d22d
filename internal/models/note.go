package models

// VesselNoteModel is a per-(vessel, user) note thread. The owner may
// share it with other users; messages hang off the thread.
type VesselNoteModel struct {
	Base
	VesselID   string             `json:"vessel_id" gorm:"type:char(36);not null;uniqueIndex:idx_vessel_user;index"`
	Vessel     *VesselModel       `json:"vessel,omitempty" gorm:"foreignKey:VesselID;constraint:OnDelete:CASCADE"`
	UserID     string             `json:"user_id" gorm:"type:char(36);not null;uniqueIndex:idx_vessel_user"`
	User       *UserModel         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	SharedWith []UserModel        `json:"shared_with,omitempty" gorm:"many2many:vessel_note_shares"`
	Messages   []NoteMessageModel `json:"messages,omitempty" gorm:"foreignKey:VesselNoteID"`
}

func (VesselNoteModel) TableName() string { return "vessel_notes" }

// NoteMessageModel is one message in a note thread, ordered by creation.
type NoteMessageModel struct {
	Base
	VesselNoteID string     `json:"vessel_note_id" gorm:"type:char(36);not null;index"`
	UserID       string     `json:"user_id" gorm:"type:char(36);not null"`
	User         *UserModel `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Content      string     `json:"content" gorm:"type:text;not null"`
}

func (NoteMessageModel) TableName() string { return "note_messages" }
