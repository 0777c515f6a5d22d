package auth

import (
	"errors"
	"time"

	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 14 * 24 * time.Hour

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrUserExists     = errors.New("username or email already taken")
)

type RegisterDTO struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Register(dto *RegisterDTO) (*models.UserModel, string, error) {
	var count int64
	s.db.Model(&models.UserModel{}).
		Where("username = ? OR email = ?", dto.Username, dto.Email).
		Count(&count)
	if count > 0 {
		return nil, "", ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := models.UserModel{
		Username: dto.Username,
		Email:    dto.Email,
		Password: string(hash),
		Name:     dto.Name,
		Role:     models.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, "", err
	}

	token, err := jwt.Sign(user.ID, tokenTTL)
	return &user, token, err
}

func (s *Service) Login(dto *LoginDTO) (*models.UserModel, string, error) {
	var user models.UserModel
	err := s.db.Where("username = ? OR email = ?", dto.Username, dto.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			time.Sleep(3 * time.Second)
			return nil, "", ErrBadCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)) != nil {
		time.Sleep(3 * time.Second)
		return nil, "", ErrBadCredentials
	}

	token, err := jwt.Sign(user.ID, tokenTTL)
	return &user, token, err
}
