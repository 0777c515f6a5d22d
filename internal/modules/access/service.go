package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tidesail/core/internal/models"
	redispkg "github.com/tidesail/core/internal/pkg/redis"
	"gorm.io/gorm"
)

var (
	ErrAlreadyViewable  = errors.New("you already have access to this vessel")
	ErrPendingExists    = errors.New("an access request for this vessel is already pending")
	ErrRequestResolved  = errors.New("access request is already resolved")
	ErrCreatorProtected = errors.New("the vessel creator's access cannot be changed")
	ErrUnknownEmail     = errors.New("no user with that email")
	ErrInvalidRole      = errors.New("invalid role")
)

type CreateRequestDTO struct {
	RequestedRole models.VesselRole `json:"requested_role"`
	Message       string            `json:"message"`
}

type AddUserDTO struct {
	Email string            `json:"email" binding:"required"`
	Role  models.VesselRole `json:"role" binding:"required"`
}

type ChangeRoleDTO struct {
	Role models.VesselRole `json:"role" binding:"required"`
}

// Member is one user's standing on a vessel, with every role they hold.
type Member struct {
	User      models.UserModel    `json:"user"`
	Roles     []models.VesselRole `json:"roles"`
	IsCreator bool                `json:"is_creator"`
}

type Service struct {
	db  *gorm.DB
	rdb *redispkg.Client
}

// NewService builds the access service. rdb may be nil (tests); the
// double-submit guard is then skipped.
func NewService(db *gorm.DB, rdb *redispkg.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

// rolesImplying lists the stored roles that satisfy a requested capability.
func rolesImplying(role models.VesselRole) []models.VesselRole {
	switch role {
	case models.VesselRoleViewer:
		return []models.VesselRole{models.VesselRoleViewer, models.VesselRoleCrew, models.VesselRoleSkipper}
	case models.VesselRoleCrew:
		return []models.VesselRole{models.VesselRoleCrew, models.VesselRoleSkipper}
	default:
		return []models.VesselRole{models.VesselRoleSkipper}
	}
}

// rolesGrantedFor lists the grants an approved role confers. Higher roles
// carry the lower ones explicitly.
func rolesGrantedFor(role models.VesselRole) []models.VesselRole {
	switch role {
	case models.VesselRoleSkipper:
		return []models.VesselRole{models.VesselRoleViewer, models.VesselRoleCrew, models.VesselRoleSkipper}
	case models.VesselRoleCrew:
		return []models.VesselRole{models.VesselRoleViewer, models.VesselRoleCrew}
	default:
		return []models.VesselRole{models.VesselRoleViewer}
	}
}

// Authorize reports whether user (nil for anonymous) may act on the vessel
// at the given capability. Admins pass every check, moderators pass the
// view check, public vessels are viewable by anyone.
func (s *Service) Authorize(user *models.UserModel, vessel *models.VesselModel, role models.VesselRole) (bool, error) {
	if role == models.VesselRoleViewer && vessel.IsPublic {
		return true, nil
	}
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() {
		return true, nil
	}
	if role == models.VesselRoleViewer && user.IsModerator() {
		return true, nil
	}
	if vessel.CreatedByID == user.ID {
		return true, nil
	}

	var count int64
	err := s.db.Model(&models.VesselGrant{}).
		Where("vessel_id = ? AND user_id = ? AND role IN ?", vessel.ID, user.ID, rolesImplying(role)).
		Count(&count).Error
	return count > 0, err
}

func (s *Service) CanView(user *models.UserModel, vessel *models.VesselModel) (bool, error) {
	return s.Authorize(user, vessel, models.VesselRoleViewer)
}

func (s *Service) CanCrew(user *models.UserModel, vessel *models.VesselModel) (bool, error) {
	return s.Authorize(user, vessel, models.VesselRoleCrew)
}

func (s *Service) CanManage(user *models.UserModel, vessel *models.VesselModel) (bool, error) {
	return s.Authorize(user, vessel, models.VesselRoleSkipper)
}

// Grant stores the cumulative grants an approved role confers. Existing
// rows are left in place.
func (s *Service) Grant(tx *gorm.DB, vesselID, userID string, role models.VesselRole) error {
	for _, r := range rolesGrantedFor(role) {
		grant := models.VesselGrant{VesselID: vesselID, UserID: userID, Role: r}
		if err := tx.Where("vessel_id = ? AND user_id = ? AND role = ?", vesselID, userID, r).
			FirstOrCreate(&grant).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) GetVessel(id string) (*models.VesselModel, error) {
	var v models.VesselModel
	if err := s.db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// CreateRequest files an access request. Rejected when the caller can
// already view the vessel or has one pending.
func (s *Service) CreateRequest(ctx context.Context, user *models.UserModel, vessel *models.VesselModel, dto *CreateRequestDTO) (*models.VesselAccessRequestModel, error) {
	role := dto.RequestedRole
	if role == "" {
		role = models.VesselRoleViewer
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if ok, err := s.CanView(user, vessel); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyViewable
	}

	if s.rdb != nil {
		key := fmt.Sprintf("tidesail:access_req:%s:%s", vessel.ID, user.ID)
		set, err := s.rdb.SetNX(ctx, key, 1, 5*time.Second)
		if err == nil && !set {
			return nil, ErrPendingExists
		}
	}

	var pending int64
	if err := s.db.Model(&models.VesselAccessRequestModel{}).
		Where("vessel_id = ? AND requester_id = ? AND status = ?", vessel.ID, user.ID, models.AccessPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, ErrPendingExists
	}

	req := models.VesselAccessRequestModel{
		VesselID:      vessel.ID,
		RequesterID:   user.ID,
		RequestedRole: role,
		Message:       dto.Message,
		Status:        models.AccessPending,
	}
	return &req, s.db.Create(&req).Error
}

// Roles returns the pending requests and current members of a vessel.
func (s *Service) Roles(vessel *models.VesselModel) ([]models.VesselAccessRequestModel, []Member, error) {
	var pending []models.VesselAccessRequestModel
	if err := s.db.Preload("Requester").
		Where("vessel_id = ? AND status = ?", vessel.ID, models.AccessPending).
		Order("created_at ASC").Find(&pending).Error; err != nil {
		return nil, nil, err
	}

	var grants []models.VesselGrant
	if err := s.db.Where("vessel_id = ?", vessel.ID).Order("user_id").Find(&grants).Error; err != nil {
		return nil, nil, err
	}

	byUser := map[string][]models.VesselRole{}
	order := []string{}
	for _, g := range grants {
		if _, seen := byUser[g.UserID]; !seen {
			order = append(order, g.UserID)
		}
		byUser[g.UserID] = append(byUser[g.UserID], g.Role)
	}

	members := make([]Member, 0, len(order))
	for _, uid := range order {
		var u models.UserModel
		if err := s.db.First(&u, "id = ?", uid).Error; err != nil {
			continue
		}
		members = append(members, Member{
			User:      u,
			Roles:     byUser[uid],
			IsCreator: uid == vessel.CreatedByID,
		})
	}
	return pending, members, nil
}

// ResolveRequest approves or denies a pending request. Approval grants
// the cumulative roles for the requested role.
func (s *Service) ResolveRequest(vessel *models.VesselModel, reqID, reviewerID string, approve bool) (*models.VesselAccessRequestModel, error) {
	var req models.VesselAccessRequestModel
	if err := s.db.First(&req, "id = ? AND vessel_id = ?", reqID, vessel.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !req.IsPending() {
		return nil, ErrRequestResolved
	}

	now := time.Now()
	return &req, s.db.Transaction(func(tx *gorm.DB) error {
		if approve {
			if err := s.Grant(tx, vessel.ID, req.RequesterID, req.RequestedRole); err != nil {
				return err
			}
			req.Status = models.AccessApproved
		} else {
			req.Status = models.AccessDenied
		}
		req.ReviewedByID = &reviewerID
		req.ReviewedAt = &now
		return tx.Save(&req).Error
	})
}

// AddUser grants a role directly, looking the user up by email.
func (s *Service) AddUser(vessel *models.VesselModel, dto *AddUserDTO) (*models.UserModel, error) {
	if !dto.Role.Valid() {
		return nil, ErrInvalidRole
	}
	var user models.UserModel
	if err := s.db.First(&user, "email = ?", dto.Email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownEmail
		}
		return nil, err
	}
	return &user, s.Grant(s.db, vessel.ID, user.ID, dto.Role)
}

// ChangeRole replaces a member's grants with the cumulative grants of the
// new role. The creator is exempt.
func (s *Service) ChangeRole(vessel *models.VesselModel, userID string, role models.VesselRole) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if userID == vessel.CreatedByID {
		return ErrCreatorProtected
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vessel_id = ? AND user_id = ?", vessel.ID, userID).
			Delete(&models.VesselGrant{}).Error; err != nil {
			return err
		}
		return s.Grant(tx, vessel.ID, userID, role)
	})
}

// RemoveUser deletes all of a member's grants. The creator is exempt.
func (s *Service) RemoveUser(vessel *models.VesselModel, userID string) error {
	if userID == vessel.CreatedByID {
		return ErrCreatorProtected
	}
	return s.db.Where("vessel_id = ? AND user_id = ?", vessel.ID, userID).
		Delete(&models.VesselGrant{}).Error
}

// RevokeGrant deletes a single grant. The creator is exempt.
func (s *Service) RevokeGrant(vessel *models.VesselModel, userID string, role models.VesselRole) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if userID == vessel.CreatedByID {
		return ErrCreatorProtected
	}
	return s.db.Where("vessel_id = ? AND user_id = ? AND role = ?", vessel.ID, userID, role).
		Delete(&models.VesselGrant{}).Error
}
