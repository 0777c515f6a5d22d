package models

// UserRole determines global access level. Vessel-scoped roles live in
// VesselGrant, not here.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// UserModel represents a registered account.
type UserModel struct {
	Base
	Username string   `json:"username" gorm:"uniqueIndex;not null"`
	Email    string   `json:"email"    gorm:"uniqueIndex;not null"`
	Name     string   `json:"name"`
	Password string   `json:"-"        gorm:"not null"`
	Role     UserRole `json:"role"     gorm:"default:user;index"`
}

func (UserModel) TableName() string { return "users" }

func (u *UserModel) IsAdmin() bool { return u.Role == RoleAdmin }

// IsModerator is true for moderators and admins.
func (u *UserModel) IsModerator() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

// IsStaff gates catalog writes, CSV import and moderation resolution.
func (u *UserModel) IsStaff() bool { return u.IsModerator() }

// DisplayName prefers the full name over the username.
func (u *UserModel) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
