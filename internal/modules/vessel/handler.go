package vessel

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/middleware"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/catalog/attribute"
	"github.com/tidesail/core/internal/pkg/pagination"
	"github.com/tidesail/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the vessel routes. The listing and detail routes
// stay open; detail obfuscates for callers without view access.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	vessels := rg.Group("/vessels")
	vessels.GET("", h.list)
	vessels.GET("/:id", h.get)

	authed := vessels.Group("", authMW)
	authed.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
	authed.POST("/:id/privacy", h.togglePrivacy)
	authed.POST("/:id/attributes", h.submitAttribute)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	var vessels []models.VesselModel
	p, err := pagination.Paginate(h.svc.Query(c.Query("search")), q, &vessels)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, Summarize(vessels), p)
}

func (h *Handler) load(c *gin.Context) *models.VesselModel {
	v, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return nil
	}
	if v == nil {
		response.NotFound(c)
		return nil
	}
	return v
}

func (h *Handler) get(c *gin.Context) {
	v := h.load(c)
	if v == nil {
		return
	}
	detail, obfuscated, err := h.svc.GetDetail(middleware.CurrentUser(c), v)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if obfuscated != nil {
		response.OK(c, obfuscated)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateVesselDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	v, err := h.svc.Create(middleware.CurrentUser(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrHINTaken):
			response.Conflict(c, err.Error())
		case errors.Is(err, ErrSailboatMissing):
			response.BadRequest(c, err.Error())
		case errors.Is(err, ErrValidation), errors.Is(err, attribute.ErrValidation):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, v)
}

func (h *Handler) update(c *gin.Context) {
	v := h.load(c)
	if v == nil {
		return
	}
	user := middleware.CurrentUser(c)
	if ok, err := h.svc.access.CanManage(user, v); err != nil {
		response.InternalError(c, err)
		return
	} else if !ok {
		response.Forbidden(c)
		return
	}

	var dto UpdateVesselDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Update(user, v, &dto); err != nil {
		if errors.Is(err, ErrValidation) || errors.Is(err, attribute.ErrValidation) {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, v)
}

func (h *Handler) delete(c *gin.Context) {
	v := h.load(c)
	if v == nil {
		return
	}
	var dto DeleteVesselDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Delete(middleware.CurrentUser(c), v, dto.ConfirmName); err != nil {
		switch {
		case errors.Is(err, ErrNotCreator):
			response.ForbiddenMsg(c, err.Error())
		case errors.Is(err, ErrConfirmName):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.NoContent(c)
}

func (h *Handler) togglePrivacy(c *gin.Context) {
	v := h.load(c)
	if v == nil {
		return
	}
	user := middleware.CurrentUser(c)
	if ok, err := h.svc.access.CanManage(user, v); err != nil {
		response.InternalError(c, err)
		return
	} else if !ok {
		response.Forbidden(c)
		return
	}
	isPublic, err := h.svc.TogglePrivacy(v)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"is_public": isPublic})
}

func (h *Handler) submitAttribute(c *gin.Context) {
	v := h.load(c)
	if v == nil {
		return
	}
	user := middleware.CurrentUser(c)
	if ok, err := h.svc.access.CanCrew(user, v); err != nil {
		response.InternalError(c, err)
		return
	} else if !ok {
		response.Forbidden(c)
		return
	}

	var dto SubmitAttributeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	va, err := h.svc.SubmitAttribute(user, v, &dto)
	if err != nil {
		switch {
		case errors.Is(err, attribute.ErrUnknownAttribute):
			response.BadRequest(c, err.Error())
		case errors.Is(err, attribute.ErrValidation):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, va)
}
