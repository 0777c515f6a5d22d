package sailboat

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/middleware"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/catalog/attribute"
	"github.com/tidesail/core/internal/pkg/pagination"
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
	boats := rg.Group("/sailboats")
	boats.GET("", h.list)
	boats.GET("/export", h.exportCSV)
	boats.GET("/:id", h.get)
	boats.GET("/:id/attributes", h.getAttributes)

	staff := boats.Group("", authMW, middleware.RequireStaff())
	staff.POST("", h.create)
	staff.PUT("/:id", h.update)
	staff.DELETE("/:id", h.delete)
	staff.POST("/:id/attributes", h.setAttribute)
	staff.POST("/import", h.importCSV)

	rg.POST("/sailboat-attributes/import", authMW, middleware.RequireStaff(), h.importAttributesCSV)
}

func filterFromContext(c *gin.Context) ListFilter {
	f := ListFilter{
		Name:       c.Query("name"),
		Make:       c.Query("make"),
		Designer:   c.Query("designer"),
		OrderBy:    c.Query("order_by"),
		Attributes: map[string]string{},
	}
	if raw := c.Query("year_start"); raw != "" {
		if y, err := strconv.Atoi(raw); err == nil {
			f.YearStart = &y
		}
	}
	if raw := c.Query("year_end"); raw != "" {
		if y, err := strconv.Atoi(raw); err == nil {
			f.YearEnd = &y
		}
	}
	for key, vals := range c.Request.URL.Query() {
		if name, ok := strings.CutPrefix(key, "attr_"); ok && len(vals) > 0 && vals[0] != "" {
			f.Attributes[name] = vals[0]
		}
	}
	return f
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	var boats []models.SailboatModel
	p, err := pagination.Paginate(h.svc.Query(filterFromContext(c)), q, &boats)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, boats, p)
}

func (h *Handler) get(c *gin.Context) {
	detail, err := h.svc.GetDetail(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if detail == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateSailboatDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	boat, problems, err := h.svc.Create(&dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			response.Conflict(c, err.Error())
		case errors.Is(err, ErrValidation):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, gin.H{"sailboat": boat, "problems": problems})
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateSailboatDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	boat, problems, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if boat == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, gin.H{"sailboat": boat, "problems": problems})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) getAttributes(c *gin.Context) {
	boat, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if boat == nil {
		response.NotFound(c)
		return
	}
	pools, err := h.svc.GetAttributes(boat.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, pools)
}

func (h *Handler) setAttribute(c *gin.Context) {
	var dto SetAttributeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.SetAttribute(c.Param("id"), &dto); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c)
		case errors.Is(err, attribute.ErrUnknownAttribute):
			response.BadRequest(c, err.Error())
		case errors.Is(err, attribute.ErrValidation):
			response.UnprocessableEntity(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.NoContent(c)
}

func (h *Handler) exportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="sailboats.csv"`)
	if err := h.svc.ExportCSV(c.Writer); err != nil {
		response.InternalError(c, err)
	}
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

func (h *Handler) importAttributesCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	res, err := h.svc.ImportAttributesCSV(file)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, res)
}
