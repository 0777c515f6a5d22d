package models

import "time"

// VesselRole is the closed set of vessel-scoped roles, descending in
// privilege: skipper > crew > viewer. Implication between roles is a
// business rule resolved in the access service, not in storage.
type VesselRole string

const (
	VesselRoleViewer  VesselRole = "viewer"
	VesselRoleCrew    VesselRole = "crew"
	VesselRoleSkipper VesselRole = "skipper"
)

func (r VesselRole) Valid() bool {
	switch r {
	case VesselRoleViewer, VesselRoleCrew, VesselRoleSkipper:
		return true
	}
	return false
}

// VesselGrant is one (subject, object, role) access-control triple.
type VesselGrant struct {
	Base
	VesselID string     `json:"vessel_id" gorm:"type:char(36);not null;uniqueIndex:idx_grant;index"`
	UserID   string     `json:"user_id"   gorm:"type:char(36);not null;uniqueIndex:idx_grant;index"`
	Role     VesselRole `json:"role"      gorm:"not null;size:10;uniqueIndex:idx_grant"`
}

func (VesselGrant) TableName() string { return "vessel_grants" }

// AccessRequestStatus is the lifecycle of an access request.
type AccessRequestStatus string

const (
	AccessPending  AccessRequestStatus = "pending"
	AccessApproved AccessRequestStatus = "approved"
	AccessDenied   AccessRequestStatus = "denied"
)

// VesselAccessRequestModel is a user's request for a role on a vessel.
// Only one pending request per (vessel, requester) is allowed.
type VesselAccessRequestModel struct {
	Base
	VesselID      string              `json:"vessel_id" gorm:"type:char(36);not null;index:idx_vessel_status"`
	Vessel        *VesselModel        `json:"vessel,omitempty" gorm:"foreignKey:VesselID;constraint:OnDelete:CASCADE"`
	RequesterID   string              `json:"requester_id" gorm:"type:char(36);not null;index"`
	Requester     *UserModel          `json:"requester,omitempty" gorm:"foreignKey:RequesterID"`
	RequestedRole VesselRole          `json:"requested_role" gorm:"default:viewer;size:10"`
	Message       string              `json:"message" gorm:"type:text"`
	Status        AccessRequestStatus `json:"status" gorm:"default:pending;size:10;index:idx_vessel_status"`
	ReviewedByID  *string             `json:"reviewed_by_id" gorm:"type:char(36)"`
	ReviewedBy    *UserModel          `json:"reviewed_by,omitempty" gorm:"foreignKey:ReviewedByID"`
	ReviewedAt    *time.Time          `json:"reviewed_at"`
}

func (VesselAccessRequestModel) TableName() string { return "vessel_access_requests" }

func (r *VesselAccessRequestModel) IsPending() bool { return r.Status == AccessPending }
