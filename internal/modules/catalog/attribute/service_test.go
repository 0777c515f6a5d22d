package attribute

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/testdb"
	"gorm.io/gorm"
)

func seed(t *testing.T) (*gorm.DB, *Service, *models.UserModel, *models.VesselModel) {
	t.Helper()
	db := testdb.Open(t)
	svc := NewService(db)

	user := models.UserModel{Username: "skip", Email: "skip@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	mk := models.MakeModel{Name: "beneteau"}
	require.NoError(t, db.Create(&mk).Error)
	boat := models.SailboatModel{Name: "oceanis 35", MakeID: mk.ID}
	require.NoError(t, db.Create(&boat).Error)

	vessel := models.VesselModel{
		SailboatID:               boat.ID,
		HullIdentificationNumber: "BEY12345C505",
		Name:                     "Wanderer",
		CreatedByID:              user.ID,
	}
	require.NoError(t, db.Create(&vessel).Error)

	return db, svc, &user, &vessel
}

func createAttr(t *testing.T, db *gorm.DB, name string, inputType models.AttributeInputType, accepts bool, options ...interface{}) *models.AttributeModel {
	t.Helper()
	a := models.AttributeModel{Name: name, InputType: inputType, AcceptsContributions: accepts}
	for _, opt := range options {
		a.Options = append(a.Options, opt)
	}
	require.NoError(t, db.Create(&a).Error)
	return &a
}

func TestCoerceValue(t *testing.T) {
	floatAttr := &models.AttributeModel{Name: "draft", InputType: models.InputTypeFloat}
	v, err := CoerceValue(floatAttr, "10.5")
	require.NoError(t, err)
	assert.Equal(t, 10.5, v)

	_, err = CoerceValue(floatAttr, "deep")
	assert.ErrorIs(t, err, ErrValidation)

	intAttr := &models.AttributeModel{Name: "cabins", InputType: models.InputTypeInteger}
	v, err = CoerceValue(intAttr, "3")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	_, err = CoerceValue(intAttr, 3.5)
	assert.ErrorIs(t, err, ErrValidation)

	optAttr := &models.AttributeModel{
		Name:      "rig",
		InputType: models.InputTypeOptions,
		Options:   models.ValueList{"sloop", "ketch"},
	}
	v, err = CoerceValue(optAttr, "sloop")
	require.NoError(t, err)
	assert.Equal(t, "sloop", v)

	_, err = CoerceValue(optAttr, "yawl")
	assert.ErrorIs(t, err, ErrValidation)

	strAttr := &models.AttributeModel{Name: "hull color", InputType: models.InputTypeString}
	v, err = CoerceValue(strAttr, "blue")
	require.NoError(t, err)
	assert.Equal(t, "blue", v)

	v, err = CoerceValue(strAttr, 7.0)
	require.NoError(t, err)
	assert.Equal(t, "7", v)
}

func TestCreateRejectsUnknownInputType(t *testing.T) {
	db, svc, _, _ := seed(t)

	_, err := svc.Create(&CreateAttributeDTO{Name: "Draft", InputType: "flot"})
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	db.Model(&models.AttributeModel{}).Count(&count)
	assert.Zero(t, count)

	// The same rule holds for CSV rows.
	res, err := svc.ImportCSV(strings.NewReader("name,input_type\nbeam,meters\n"))
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "input_type")
}

func TestUpdateRenameChecksForDuplicate(t *testing.T) {
	db, svc, _, _ := seed(t)
	createAttr(t, db, "draft", models.InputTypeFloat, true)
	beam := createAttr(t, db, "beam", models.InputTypeFloat, true)

	taken := "Draft"
	_, err := svc.Update(beam.ID, &UpdateAttributeDTO{Name: &taken})
	assert.ErrorIs(t, err, ErrNameTaken)

	// Renaming to itself with different casing is not a conflict.
	same := "BEAM"
	a, err := svc.Update(beam.ID, &UpdateAttributeDTO{Name: &same})
	require.NoError(t, err)
	assert.Equal(t, "beam", a.Name)
}

func TestSubmitVesselValueCreatesPool(t *testing.T) {
	db, svc, user, vessel := seed(t)
	attr := createAttr(t, db, "draft", models.InputTypeFloat, true)

	va, err := svc.SubmitVesselValue(user, vessel, attr.ID, "5.5")
	require.NoError(t, err)
	assert.Equal(t, 5.5, models.NormalizeValue(va.Value))

	var pool models.SailboatAttributeModel
	require.NoError(t, db.Where("sailboat_id = ? AND attribute_id = ?", vessel.SailboatID, attr.ID).First(&pool).Error)
	assert.True(t, pool.Values.Contains(5.5))
	assert.Len(t, pool.Values, 1)

	var mod models.ModerationModel
	require.NoError(t, db.First(&mod).Error)
	assert.Equal(t, models.TargetSailboatAttribute, mod.Target)
	assert.Equal(t, models.VerbCreate, mod.Verb)
	assert.Equal(t, models.ModerationUnmoderated, mod.State)
	require.NotNil(t, mod.TriggeredByID)
	assert.Equal(t, va.ID, *mod.TriggeredByID)
}

func TestSubmitVesselValueFoldsIntoPool(t *testing.T) {
	db, svc, user, vessel := seed(t)
	attr := createAttr(t, db, "draft", models.InputTypeFloat, true)

	_, err := svc.SubmitVesselValue(user, vessel, attr.ID, 5.5)
	require.NoError(t, err)
	_, err = svc.SubmitVesselValue(user, vessel, attr.ID, 6)
	require.NoError(t, err)

	var pool models.SailboatAttributeModel
	require.NoError(t, db.Where("sailboat_id = ?", vessel.SailboatID).First(&pool).Error)
	assert.Len(t, pool.Values, 2)
	assert.True(t, pool.Values.Contains(6))

	// Resubmitting a pooled value appends nothing but still audits as
	// an update.
	_, err = svc.SubmitVesselValue(user, vessel, attr.ID, 5.5)
	require.NoError(t, err)

	require.NoError(t, db.Where("sailboat_id = ?", vessel.SailboatID).First(&pool).Error)
	assert.Len(t, pool.Values, 2)

	var mods []models.ModerationModel
	require.NoError(t, db.Order("created_at ASC").Find(&mods).Error)
	require.Len(t, mods, 3)
	assert.Equal(t, models.VerbCreate, mods[0].Verb)
	assert.Equal(t, models.VerbUpdate, mods[1].Verb)
	assert.Equal(t, models.VerbUpdate, mods[2].Verb)
}

func TestSubmitVesselValueRespectsContributionLock(t *testing.T) {
	db, svc, user, vessel := seed(t)
	attr := createAttr(t, db, "keel type", models.InputTypeString, false)

	pool := models.SailboatAttributeModel{
		SailboatID:  vessel.SailboatID,
		AttributeID: attr.ID,
		Values:      models.ValueList{"fin"},
	}
	require.NoError(t, db.Create(&pool).Error)

	_, err := svc.SubmitVesselValue(user, vessel, attr.ID, "wing")
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	db.Model(&models.VesselAttributeModel{}).Count(&count)
	assert.Zero(t, count)

	// A value already in the pool is accepted.
	va, err := svc.SubmitVesselValue(user, vessel, attr.ID, "fin")
	require.NoError(t, err)
	assert.Equal(t, "fin", models.NormalizeValue(va.Value))
}

func TestSubmitVesselValueUpsertsVesselRow(t *testing.T) {
	db, svc, user, vessel := seed(t)
	attr := createAttr(t, db, "draft", models.InputTypeFloat, true)

	_, err := svc.SubmitVesselValue(user, vessel, attr.ID, 5.5)
	require.NoError(t, err)
	_, err = svc.SubmitVesselValue(user, vessel, attr.ID, 6.5)
	require.NoError(t, err)

	var rows []models.VesselAttributeModel
	require.NoError(t, db.Where("vessel_id = ?", vessel.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 6.5, models.NormalizeValue(rows[0].Value))
}
