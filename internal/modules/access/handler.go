package access

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/middleware"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	vessels := rg.Group("/vessels/:id", authMW)
	vessels.POST("/access-requests", h.createRequest)
	vessels.GET("/roles", h.listRoles)
	vessels.POST("/access-requests/:reqID/approve", h.approveRequest)
	vessels.POST("/access-requests/:reqID/deny", h.denyRequest)
	vessels.POST("/users", h.addUser)
	vessels.POST("/users/:userID/role", h.changeRole)
	vessels.DELETE("/users/:userID", h.removeUser)
	vessels.DELETE("/users/:userID/grants/:role", h.revokeGrant)
}

// loadVessel fetches the vessel and optionally checks the skipper gate.
func (h *Handler) loadVessel(c *gin.Context, requireManage bool) *models.VesselModel {
	vessel, err := h.svc.GetVessel(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return nil
	}
	if vessel == nil {
		response.NotFound(c)
		return nil
	}
	if requireManage {
		ok, err := h.svc.CanManage(middleware.CurrentUser(c), vessel)
		if err != nil {
			response.InternalError(c, err)
			return nil
		}
		if !ok {
			response.Forbidden(c)
			return nil
		}
	}
	return vessel
}

func (h *Handler) createRequest(c *gin.Context) {
	vessel := h.loadVessel(c, false)
	if vessel == nil {
		return
	}

	var dto CreateRequestDTO
	_ = c.ShouldBindJSON(&dto)

	req, err := h.svc.CreateRequest(c.Request.Context(), middleware.CurrentUser(c), vessel, &dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyViewable), errors.Is(err, ErrPendingExists):
			response.Conflict(c, err.Error())
		case errors.Is(err, ErrInvalidRole):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, req)
}

func (h *Handler) listRoles(c *gin.Context) {
	vessel := h.loadVessel(c, true)
	if vessel == nil {
		return
	}
	pending, members, err := h.svc.Roles(vessel)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"pending_requests": pending, "members": members})
}

func (h *Handler) approveRequest(c *gin.Context) { h.resolveRequest(c, true) }
func (h *Handler) denyRequest(c *gin.Context)    { h.resolveRequest(c, false) }

func (h *Handler) resolveRequest(c *gin.Context, approve bool) {
	vessel := h.loadVessel(c, true)
	if vessel == nil {
		return
	}
	req, err := h.svc.ResolveRequest(vessel, c.Param("reqID"), middleware.CurrentUser(c).ID, approve)
	if err != nil {
		if errors.Is(err, ErrRequestResolved) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if req == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, req)
}

func (h *Handler) addUser(c *gin.Context) {
	vessel := h.loadVessel(c, true)
	if vessel == nil {
		return
	}
	var dto AddUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.svc.AddUser(vessel, &dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownEmail):
			response.NotFoundMsg(c, err.Error())
		case errors.Is(err, ErrInvalidRole):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, user)
}

func (h *Handler) changeRole(c *gin.Context) {
	vessel := h.loadVessel(c, true)
	if vessel == nil {
		return
	}
	var dto ChangeRoleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.finish(c, h.svc.ChangeRole(vessel, c.Param("userID"), dto.Role))
}

func (h *Handler) removeUser(c *gin.Context) {
	vessel := h.loadVessel(c, true)
	if vessel == nil {
		return
	}
	h.finish(c, h.svc.RemoveUser(vessel, c.Param("userID")))
}

func (h *Handler) revokeGrant(c *gin.Context) {
	vessel := h.loadVessel(c, true)
	if vessel == nil {
		return
	}
	h.finish(c, h.svc.RevokeGrant(vessel, c.Param("userID"), models.VesselRole(c.Param("role"))))
}

func (h *Handler) finish(c *gin.Context, err error) {
	switch {
	case err == nil:
		response.NoContent(c)
	case errors.Is(err, ErrCreatorProtected):
		response.ForbiddenMsg(c, err.Error())
	case errors.Is(err, ErrInvalidRole):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
