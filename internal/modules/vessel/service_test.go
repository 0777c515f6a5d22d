package vessel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/access"
	"github.com/tidesail/core/internal/modules/catalog/attribute"
	"github.com/tidesail/core/internal/pkg/testdb"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *Service, *models.UserModel) {
	t.Helper()
	db := testdb.Open(t)
	accessSvc := access.NewService(db, nil)
	svc := NewService(db, attribute.NewService(db), accessSvc, zap.NewNop())

	user := models.UserModel{Username: "owner", Email: "owner@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	return db, svc, &user
}

func TestCreateResolvesMakeAndModelWithAudit(t *testing.T) {
	db, svc, user := setup(t)

	v, err := svc.Create(user, &CreateVesselDTO{
		Make:                     "Beneteau",
		Model:                    "Oceanis 35",
		Name:                     "Wanderer",
		HullIdentificationNumber: "BEY12345C505",
	})
	require.NoError(t, err)

	var mk models.MakeModel
	require.NoError(t, db.First(&mk, "name = ?", "beneteau").Error)
	var boat models.SailboatModel
	require.NoError(t, db.First(&boat, "name = ? AND make_id = ?", "oceanis 35", mk.ID).Error)
	assert.Equal(t, boat.ID, v.SailboatID)

	// One audit record each for the new make and the new sailboat,
	// both pending but not blocking.
	var mods []models.ModerationModel
	require.NoError(t, db.Find(&mods).Error)
	targets := []models.ModerationTarget{mods[0].Target, mods[1].Target}
	assert.ElementsMatch(t, []models.ModerationTarget{models.TargetMake, models.TargetSailboat}, targets)
	for _, m := range mods {
		assert.Equal(t, models.ModerationUnmoderated, m.State)
	}

	// Creator holds all three grants.
	var grants []models.VesselGrant
	require.NoError(t, db.Where("vessel_id = ? AND user_id = ?", v.ID, user.ID).Find(&grants).Error)
	assert.Len(t, grants, 3)
}

func TestCreateReusesExistingCatalogEntries(t *testing.T) {
	db, svc, user := setup(t)

	_, err := svc.Create(user, &CreateVesselDTO{
		Make: "Beneteau", Model: "Oceanis 35",
		Name: "Wanderer", HullIdentificationNumber: "BEY12345C505",
	})
	require.NoError(t, err)

	_, err = svc.Create(user, &CreateVesselDTO{
		Make: "beneteau", Model: "OCEANIS 35",
		Name: "Drifter", HullIdentificationNumber: "BEY67890C606",
	})
	require.NoError(t, err)

	var makes, boats int64
	db.Model(&models.MakeModel{}).Count(&makes)
	db.Model(&models.SailboatModel{}).Count(&boats)
	assert.EqualValues(t, 1, makes)
	assert.EqualValues(t, 1, boats)
}

func TestCreateRejectsDuplicateHIN(t *testing.T) {
	_, svc, user := setup(t)

	_, err := svc.Create(user, &CreateVesselDTO{
		Make: "Beneteau", Model: "Oceanis 35",
		Name: "Wanderer", HullIdentificationNumber: "BEY12345C505",
	})
	require.NoError(t, err)

	_, err = svc.Create(user, &CreateVesselDTO{
		Make: "Beneteau", Model: "Oceanis 35",
		Name: "Other", HullIdentificationNumber: "bey12345c505",
	})
	assert.ErrorIs(t, err, ErrHINTaken)
}

func TestCreateRollsBackOnBadAttribute(t *testing.T) {
	db, svc, user := setup(t)
	attr := models.AttributeModel{Name: "draft", InputType: models.InputTypeFloat, AcceptsContributions: true}
	require.NoError(t, db.Create(&attr).Error)

	_, err := svc.Create(user, &CreateVesselDTO{
		Make: "Beneteau", Model: "Oceanis 35",
		Name: "Wanderer", HullIdentificationNumber: "BEY12345C505",
		Attributes: map[string]interface{}{"draft": "not-a-number"},
	})
	require.Error(t, err)

	var vessels int64
	db.Model(&models.VesselModel{}).Count(&vessels)
	assert.Zero(t, vessels)
}

func TestDetailObfuscatesForStrangers(t *testing.T) {
	_, svc, user := setup(t)
	created, err := svc.Create(user, &CreateVesselDTO{
		Make: "Beneteau", Model: "Oceanis 35",
		Name: "Wanderer", HullIdentificationNumber: "BEY12345C505",
	})
	require.NoError(t, err)

	v, err := svc.GetByID(created.ID)
	require.NoError(t, err)

	// Anonymous caller on a private vessel gets the obfuscated view.
	detail, obfuscated, err := svc.GetDetail(nil, v)
	require.NoError(t, err)
	assert.Nil(t, detail)
	require.NotNil(t, obfuscated)
	assert.True(t, obfuscated.IsObfuscated)
	assert.Equal(t, "Wanderer", obfuscated.Name)
	assert.Equal(t, "beneteau", obfuscated.Make)
	assert.Equal(t, "oceanis 35", obfuscated.Model)

	// Creator sees everything.
	detail, obfuscated, err = svc.GetDetail(user, v)
	require.NoError(t, err)
	assert.Nil(t, obfuscated)
	require.NotNil(t, detail)
	assert.True(t, detail.CanEdit)

	// Public vessels are fully visible to anyone.
	_, err = svc.TogglePrivacy(v)
	require.NoError(t, err)
	detail, obfuscated, err = svc.GetDetail(nil, v)
	require.NoError(t, err)
	assert.Nil(t, obfuscated)
	require.NotNil(t, detail)
}

func TestDeleteRequiresCreatorAndNameConfirmation(t *testing.T) {
	db, svc, user := setup(t)
	created, err := svc.Create(user, &CreateVesselDTO{
		Make: "Beneteau", Model: "Oceanis 35",
		Name: "Wanderer", HullIdentificationNumber: "BEY12345C505",
	})
	require.NoError(t, err)

	other := models.UserModel{Username: "other", Email: "other@example.com", Password: "x"}
	require.NoError(t, db.Create(&other).Error)

	assert.ErrorIs(t, svc.Delete(&other, created, "Wanderer"), ErrNotCreator)
	assert.ErrorIs(t, svc.Delete(user, created, "wanderer"), ErrConfirmName)
	require.NoError(t, svc.Delete(user, created, "Wanderer"))

	var vessels, grants int64
	db.Model(&models.VesselModel{}).Count(&vessels)
	db.Model(&models.VesselGrant{}).Count(&grants)
	assert.Zero(t, vessels)
	assert.Zero(t, grants)
}

func TestDeleteRemovesNotesAndLogEntries(t *testing.T) {
	db, svc, user := setup(t)
	created, err := svc.Create(user, &CreateVesselDTO{
		Make: "Beneteau", Model: "Oceanis 35",
		Name: "Wanderer", HullIdentificationNumber: "BEY12345C505",
	})
	require.NoError(t, err)

	friend := models.UserModel{Username: "friend", Email: "friend@example.com", Password: "x"}
	require.NoError(t, db.Create(&friend).Error)

	note := models.VesselNoteModel{VesselID: created.ID, UserID: user.ID}
	require.NoError(t, db.Create(&note).Error)
	msg := models.NoteMessageModel{VesselNoteID: note.ID, UserID: user.ID, Content: "engine serviced"}
	require.NoError(t, db.Create(&msg).Error)
	require.NoError(t, db.Model(&note).Association("SharedWith").Append(&friend))

	entry := models.LogEntryModel{
		VesselID: created.ID, AuthorID: user.ID,
		Content: "day one", LogTimestamp: time.Now(),
	}
	require.NoError(t, db.Create(&entry).Error)
	loc := models.LogEntryLocationModel{
		LogEntryID: entry.ID, Latitude: 42.36, Longitude: -71.05,
		Type: models.LocationStart, Order: 1,
	}
	require.NoError(t, db.Create(&loc).Error)
	media := models.MediaModel{FileName: "bay.jpg", ObjectKey: "image-bay.jpg", MediaType: models.MediaImage}
	require.NoError(t, db.Create(&media).Error)
	att := models.LogEntryAttachmentModel{
		LogEntryID: entry.ID, MediaID: media.ID,
		Type: models.AttachmentImage, Order: 1,
	}
	require.NoError(t, db.Create(&att).Error)

	require.NoError(t, svc.Delete(user, created, "Wanderer"))

	for table, model := range map[string]interface{}{
		"vessel_notes":          &models.VesselNoteModel{},
		"note_messages":         &models.NoteMessageModel{},
		"log_entries":           &models.LogEntryModel{},
		"log_entry_locations":   &models.LogEntryLocationModel{},
		"log_entry_attachments": &models.LogEntryAttachmentModel{},
	} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, table)
	}
	var shares int64
	require.NoError(t, db.Table("vessel_note_shares").Count(&shares).Error)
	assert.Zero(t, shares)
}

func TestSubmitAttributeRequiresKnownAttribute(t *testing.T) {
	_, svc, user := setup(t)
	created, err := svc.Create(user, &CreateVesselDTO{
		Make: "Beneteau", Model: "Oceanis 35",
		Name: "Wanderer", HullIdentificationNumber: "BEY12345C505",
	})
	require.NoError(t, err)

	_, err = svc.SubmitAttribute(user, created, &SubmitAttributeDTO{Attribute: "nonexistent", Value: 1})
	assert.ErrorIs(t, err, attribute.ErrUnknownAttribute)
}
