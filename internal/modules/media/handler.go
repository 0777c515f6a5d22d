package media

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/pkg/response"
)

// 20 MiB upload cap.
const maxUploadBytes = 20 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/media/upload", authMW, h.upload)
	// Legacy path kept for clients of the old API.
	rg.POST("/upload-image", authMW, h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if len(data) > maxUploadBytes {
		response.BadRequest(c, "file is too large")
		return
	}

	m, err := h.svc.UploadImage(c.Request.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, ErrBadExtension) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{"id": m.ID, "url": m.URL, "name": m.ObjectKey})
}
