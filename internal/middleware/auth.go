package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/jwt"
	"github.com/tidesail/core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "user"
)

// Auth returns a middleware that enforces JWT authentication and loads
// the user record into the request context.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveUser(db, extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// OptionalAuth loads the user if a valid token is present, but does not
// block anonymous requests.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := resolveUser(db, extractToken(c)); err == nil {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUser, user)
		}
		c.Next()
	}
}

// RequireStaff rejects requests from users who are neither moderator nor admin.
// Must run after Auth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsStaff() {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.UserModel {
	v, ok := c.Get(ContextKeyUser)
	if !ok {
		return nil
	}
	user, ok := v.(*models.UserModel)
	if !ok {
		return nil
	}
	return user
}

// IsAuthenticated reports whether the request carries a valid user.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := c.Get(ContextKeyUserID)
	return ok
}

func resolveUser(db *gorm.DB, rawToken string) (*models.UserModel, error) {
	claims, err := jwt.Parse(NormalizeToken(rawToken))
	if err != nil {
		return nil, err
	}
	var user models.UserModel
	if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return auth
	}
	return c.Query("token")
}

// NormalizeToken strips an optional "Bearer " prefix.
func NormalizeToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
