package moderation

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/middleware"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/pagination"
	"github.com/tidesail/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	mods := rg.Group("/moderations", authMW, middleware.RequireStaff())
	mods.GET("", h.list)
	mods.GET("/:id", h.get)
	mods.POST("/:id/approve", h.approve)
	mods.POST("/:id/decline", h.decline)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	var rows []models.ModerationModel
	p, err := pagination.Paginate(h.svc.query(c.Query("state"), c.Query("target")), q, &rows)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, rows, p)
}

func (h *Handler) get(c *gin.Context) {
	m, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if m == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, m)
}

func (h *Handler) approve(c *gin.Context) {
	h.resolve(c, models.ModerationApproved)
}

func (h *Handler) decline(c *gin.Context) {
	h.resolve(c, models.ModerationDeclined)
}

func (h *Handler) resolve(c *gin.Context, state models.ModerationState) {
	var dto ResolveDTO
	_ = c.ShouldBindJSON(&dto)

	user := middleware.CurrentUser(c)
	m, err := h.svc.Resolve(c.Param("id"), user.ID, state, dto.ResponseNote)
	if err != nil {
		if errors.Is(err, ErrResolved) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if m == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, m)
}
