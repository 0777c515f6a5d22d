package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/jwt"
	"github.com/tidesail/core/internal/pkg/testdb"
)

func TestRegisterHashesPasswordAndSignsToken(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)

	user, token, err := svc.Register(&RegisterDTO{
		Username: "skipper",
		Email:    "skipper@example.com",
		Password: "correct horse",
		Name:     "Skip",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", user.Password)
	assert.Equal(t, models.RoleUser, user.Role)

	claims, err := jwt.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterRejectsTakenUsernameOrEmail(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)

	_, _, err := svc.Register(&RegisterDTO{
		Username: "skipper", Email: "skipper@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	_, _, err = svc.Register(&RegisterDTO{
		Username: "skipper", Email: "other@example.com", Password: "correct horse",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	_, _, err = svc.Register(&RegisterDTO{
		Username: "other", Email: "skipper@example.com", Password: "correct horse",
	})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)

	registered, _, err := svc.Register(&RegisterDTO{
		Username: "skipper", Email: "skipper@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	user, token, err := svc.Login(&LoginDTO{Username: "skipper", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	user, _, err = svc.Login(&LoginDTO{Username: "skipper@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}
