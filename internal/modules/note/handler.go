package note

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/middleware"
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
	vessels := rg.Group("/vessels/:id/notes", authMW)
	vessels.POST("", h.create)
	vessels.GET("", h.list)

	notes := rg.Group("/notes", authMW)
	notes.POST("/:noteID/messages", h.addMessage)
	notes.POST("/:noteID/share", h.share)
	notes.PUT("/messages/:messageID", h.updateMessage)
	notes.DELETE("/messages/:messageID", h.deleteMessage)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateNoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	note, err := h.svc.Create(middleware.CurrentUser(c), c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, ErrNoteExists) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, note)
}

func (h *Handler) list(c *gin.Context) {
	notes, err := h.svc.ListAccessible(middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, notes)
}

func (h *Handler) addMessage(c *gin.Context) {
	var dto MessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	msg, err := h.svc.AddMessage(middleware.CurrentUser(c), c.Param("noteID"), &dto)
	if err != nil {
		if errors.Is(err, ErrNoAccess) {
			response.ForbiddenMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if msg == nil {
		response.NotFound(c)
		return
	}
	response.Created(c, msg)
}

func (h *Handler) updateMessage(c *gin.Context) {
	var dto MessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	msg, err := h.svc.UpdateMessage(middleware.CurrentUser(c), c.Param("messageID"), &dto)
	if err != nil {
		if errors.Is(err, ErrNotAuthor) {
			response.ForbiddenMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if msg == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, msg)
}

func (h *Handler) deleteMessage(c *gin.Context) {
	if err := h.svc.DeleteMessage(middleware.CurrentUser(c), c.Param("messageID")); err != nil {
		if errors.Is(err, ErrNotAuthor) {
			response.ForbiddenMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) share(c *gin.Context) {
	var dto ShareDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.svc.Share(middleware.CurrentUser(c), c.Param("noteID"), &dto)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c)
		case errors.Is(err, ErrNotOwner):
			response.ForbiddenMsg(c, err.Error())
		case errors.Is(err, ErrUnknownEmail):
			response.NotFoundMsg(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.NoContent(c)
}
