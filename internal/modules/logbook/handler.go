package logbook

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/middleware"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	vessels := rg.Group("/vessels/:id/logbook")
	vessels.GET("", h.list)
	vessels.POST("", authMW, h.create)

	entries := rg.Group("/logbook", authMW)
	entries.PUT("/:entryID", h.update)
	entries.DELETE("/:entryID", h.delete)
	entries.POST("/:entryID/locations", h.addLocation)
	entries.POST("/:entryID/attachments", h.addAttachment)
}

func (h *Handler) loadVessel(c *gin.Context, role models.VesselRole) *models.VesselModel {
	var v models.VesselModel
	if err := h.svc.db.First(&v, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
		} else {
			response.InternalError(c, err)
		}
		return nil
	}
	ok, err := h.svc.access.Authorize(middleware.CurrentUser(c), &v, role)
	if err != nil {
		response.InternalError(c, err)
		return nil
	}
	if !ok {
		response.Forbidden(c)
		return nil
	}
	return &v
}

func (h *Handler) list(c *gin.Context) {
	v := h.loadVessel(c, models.VesselRoleViewer)
	if v == nil {
		return
	}
	entries, err := h.svc.List(v.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) create(c *gin.Context) {
	v := h.loadVessel(c, models.VesselRoleCrew)
	if v == nil {
		return
	}
	var dto CreateEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	entry, err := h.svc.Create(middleware.CurrentUser(c), v.ID, &dto)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, entry)
}

func (h *Handler) loadEntry(c *gin.Context) *models.LogEntryModel {
	entry, err := h.svc.GetByID(c.Param("entryID"))
	if err != nil {
		response.InternalError(c, err)
		return nil
	}
	if entry == nil {
		response.NotFound(c)
		return nil
	}
	return entry
}

func (h *Handler) update(c *gin.Context) {
	entry := h.loadEntry(c)
	if entry == nil {
		return
	}
	var dto UpdateEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Update(middleware.CurrentUser(c), entry, &dto); err != nil {
		if errors.Is(err, ErrNotAuthor) {
			response.ForbiddenMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, entry)
}

func (h *Handler) delete(c *gin.Context) {
	entry := h.loadEntry(c)
	if entry == nil {
		return
	}
	if err := h.svc.Delete(middleware.CurrentUser(c), entry); err != nil {
		if errors.Is(err, ErrNotAuthor) {
			response.ForbiddenMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) addLocation(c *gin.Context) {
	entry := h.loadEntry(c)
	if entry == nil {
		return
	}
	var dto LocationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.AddLocation(middleware.CurrentUser(c), entry, &dto); err != nil {
		switch {
		case errors.Is(err, ErrNotAuthor):
			response.ForbiddenMsg(c, err.Error())
		case errors.Is(err, ErrValidation):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.NoContent(c)
}

func (h *Handler) addAttachment(c *gin.Context) {
	entry := h.loadEntry(c)
	if entry == nil {
		return
	}
	var dto AttachmentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.AddAttachment(middleware.CurrentUser(c), entry, &dto); err != nil {
		if errors.Is(err, ErrNotAuthor) {
			response.ForbiddenMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
