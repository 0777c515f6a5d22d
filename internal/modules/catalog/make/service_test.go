package make

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/testdb"
)

func TestCreateFoldsCase(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)

	m, err := svc.Create(&CreateMakeDTO{Name: "  Beneteau "})
	require.NoError(t, err)
	assert.Equal(t, "beneteau", m.Name)

	_, err = svc.Create(&CreateMakeDTO{Name: "BENETEAU"})
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	db := testdb.Open(t)

	first, created, err := GetOrCreate(db, "Hallberg-Rassy")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := GetOrCreate(db, "hallberg-rassy")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateModeratedAuditsOnlyNewMakes(t *testing.T) {
	db := testdb.Open(t)
	user := models.UserModel{Username: "u", Email: "u@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	m, err := GetOrCreateModerated(db, "Beneteau", user.ID)
	require.NoError(t, err)

	var mods []models.ModerationModel
	require.NoError(t, db.Find(&mods).Error)
	require.Len(t, mods, 1)
	assert.Equal(t, models.TargetMake, mods[0].Target)
	assert.Equal(t, models.VerbCreate, mods[0].Verb)
	require.NotNil(t, mods[0].TargetID)
	assert.Equal(t, m.ID, *mods[0].TargetID)

	_, err = GetOrCreateModerated(db, "beneteau", user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Find(&mods).Error)
	assert.Len(t, mods, 1)
}

func TestImportCSV(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)

	csv := "name\nBeneteau\nCatalina\nbeneteau\n"
	res, err := svc.ImportCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)

	var count int64
	db.Model(&models.MakeModel{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestExportCSV(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db)
	_, err := svc.Create(&CreateMakeDTO{Name: "Catalina"})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, svc.ExportCSV(&sb))
	assert.Equal(t, "name\ncatalina\n", sb.String())
}
