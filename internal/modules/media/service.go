package media

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/objstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxDimension = 1024

var ErrBadExtension = errors.New("only .jpg, .jpeg and .png files are accepted")

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type Service struct {
	db    *gorm.DB
	store *objstore.Store
	log   *zap.Logger
}

func NewService(db *gorm.DB, store *objstore.Store, log *zap.Logger) *Service {
	return &Service{db: db, store: store, log: log}
}

// UploadImage validates, resizes and stores one image, returning the
// media record with its public URL.
func (s *Service) UploadImage(ctx context.Context, fileName string, data []byte) (*models.MediaModel, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return nil, ErrBadExtension
	}

	objectName := "image-" + uuid.New().String() + ext
	resized := s.resize(data, ext)

	url, err := s.store.Put(ctx, objectName, resized, contentType)
	if err != nil {
		return nil, err
	}

	m := models.MediaModel{
		FileName:  fileName,
		ObjectKey: objectName,
		MediaType: models.MediaImage,
		URL:       url,
	}
	if err := s.db.Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// resize bounds the image to maxDimension on its longest side. Images
// that already fit, or that fail to decode or re-encode, pass through
// unchanged.
func (s *Service) resize(data []byte, ext string) []byte {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		s.log.Warn("image decode failed, storing original", zap.Error(err))
		return data
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return data
	}

	thumb := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)

	format := imaging.JPEG
	if ext == ".png" {
		format = imaging.PNG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		s.log.Warn("image encode failed, storing original", zap.Error(err))
		return data
	}
	return buf.Bytes()
}

func (s *Service) GetByID(id string) (*models.MediaModel, error) {
	var m models.MediaModel
	if err := s.db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
