package attribute

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/middleware"
	"github.com/tidesail/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	sections := rg.Group("/attribute-sections")
	sections.GET("", h.listSections)
	sections.POST("", authMW, middleware.RequireStaff(), h.createSection)

	attrs := rg.Group("/attributes")
	attrs.GET("", h.list)
	attrs.GET("/export", h.exportCSV)
	attrs.GET("/:id", h.get)

	staff := attrs.Group("", authMW, middleware.RequireStaff())
	staff.POST("", h.create)
	staff.PUT("/:id", h.update)
	staff.DELETE("/:id", h.delete)
	staff.POST("/import", h.importCSV)
}

func (h *Handler) listSections(c *gin.Context) {
	sections, err := h.svc.ListSections()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, sections)
}

func (h *Handler) createSection(c *gin.Context) {
	var dto CreateSectionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sec, err := h.svc.CreateSection(&dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, sec)
}

func (h *Handler) list(c *gin.Context) {
	attrs, err := h.svc.List()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, attrs)
}

func (h *Handler) get(c *gin.Context) {
	a, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if a == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, a)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateAttributeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.svc.Create(&dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameTaken):
			response.Conflict(c, err.Error())
		case errors.Is(err, ErrValidation):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, a)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateAttributeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameTaken):
			response.Conflict(c, err.Error())
		case errors.Is(err, ErrValidation):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	if a == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, a)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) importCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	res, err := h.svc.ImportCSV(file)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, res)
}

func (h *Handler) exportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="attributes.csv"`)
	if err := h.svc.ExportCSV(c.Writer); err != nil {
		response.InternalError(c, err)
	}
}
