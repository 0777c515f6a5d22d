package logbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/modules/access"
	"github.com/tidesail/core/internal/pkg/testdb"
	"gorm.io/gorm"
)

func seed(t *testing.T) (*gorm.DB, *Service, *models.UserModel, *models.VesselModel) {
	t.Helper()
	db := testdb.Open(t)
	accessSvc := access.NewService(db, nil)
	svc := NewService(db, accessSvc)

	skipper := models.UserModel{Username: "skipper", Email: "skipper@example.com", Password: "x"}
	require.NoError(t, db.Create(&skipper).Error)

	mk := models.MakeModel{Name: "beneteau"}
	require.NoError(t, db.Create(&mk).Error)
	boat := models.SailboatModel{Name: "oceanis 35", MakeID: mk.ID}
	require.NoError(t, db.Create(&boat).Error)
	vessel := models.VesselModel{
		SailboatID:               boat.ID,
		HullIdentificationNumber: "BEY12345C505",
		Name:                     "Wanderer",
		CreatedByID:              skipper.ID,
	}
	require.NoError(t, db.Create(&vessel).Error)
	require.NoError(t, accessSvc.Grant(db, vessel.ID, skipper.ID, models.VesselRoleSkipper))

	return db, svc, &skipper, &vessel
}

func floatp(v float64) *float64 { return &v }
func intPtr(v int) *int         { return &v }

func TestRenderMarkdown(t *testing.T) {
	html := RenderMarkdown("# Day one\n\nMotored out of the **marina**.")
	assert.Contains(t, html, "<h1>Day one</h1>")
	assert.Contains(t, html, "<strong>marina</strong>")
}

func TestCreateWithLocationsAndOrdering(t *testing.T) {
	db, svc, skipper, vessel := seed(t)

	entry, err := svc.Create(skipper, vessel.ID, &CreateEntryDTO{
		Title:   "Shakedown sail",
		Content: "Light winds, heading north.",
		Locations: []LocationDTO{
			{Name: "harbor", Latitude: 42.35, Longitude: -71.05, Type: models.LocationStart},
			{Name: "mooring", Latitude: 42.41, Longitude: -70.99, Type: models.LocationAnchorage},
		},
	})
	require.NoError(t, err)

	var locs []models.LogEntryLocationModel
	require.NoError(t, db.Where("log_entry_id = ?", entry.ID).
		Order("`order` ASC").Find(&locs).Error)
	require.Len(t, locs, 2)
	assert.Equal(t, 1, locs[0].Order)
	assert.Equal(t, models.LocationStart, locs[0].Type)
	assert.Equal(t, 2, locs[1].Order)
}

func TestCreateRejectsOutOfRangeLocation(t *testing.T) {
	db, svc, skipper, vessel := seed(t)

	_, err := svc.Create(skipper, vessel.ID, &CreateEntryDTO{
		Content: "bad fix",
		Locations: []LocationDTO{
			{Latitude: 95, Longitude: 0},
		},
	})
	assert.ErrorIs(t, err, ErrValidation)

	// Whole entry rolls back with the bad location.
	var count int64
	db.Model(&models.LogEntryModel{}).Count(&count)
	assert.Zero(t, count)
}

func TestLocationWeatherBounds(t *testing.T) {
	loc := models.LogEntryLocationModel{Latitude: 42, Longitude: -71}
	require.NoError(t, loc.Validate())

	loc.HeadingDegrees = intPtr(360)
	assert.ErrorIs(t, loc.Validate(), models.ErrHeadingRange)

	loc.HeadingDegrees = intPtr(359)
	loc.BarometricPressure = floatp(20)
	assert.ErrorIs(t, loc.Validate(), models.ErrPressureRange)

	loc.BarometricPressure = floatp(29.92)
	assert.NoError(t, loc.Validate())
}

func TestEditGateAuthorOrSkipper(t *testing.T) {
	db, svc, skipper, vessel := seed(t)
	crew := models.UserModel{Username: "crew", Email: "crew@example.com", Password: "x"}
	require.NoError(t, db.Create(&crew).Error)
	stranger := models.UserModel{Username: "stranger", Email: "stranger@example.com", Password: "x"}
	require.NoError(t, db.Create(&stranger).Error)

	created, err := svc.Create(&crew, vessel.ID, &CreateEntryDTO{Content: "watch notes"})
	require.NoError(t, err)
	entry, err := svc.GetByID(created.ID)
	require.NoError(t, err)

	newTitle := "Night watch"
	assert.ErrorIs(t, svc.Update(&stranger, entry, &UpdateEntryDTO{Title: &newTitle}), ErrNotAuthor)

	// The author edits their own entry.
	require.NoError(t, svc.Update(&crew, entry, &UpdateEntryDTO{Title: &newTitle}))
	assert.Equal(t, "Night watch", entry.Title)

	// A vessel skipper can delete any entry on the vessel.
	require.NoError(t, svc.Delete(skipper, entry))

	var count int64
	db.Model(&models.LogEntryModel{}).Count(&count)
	assert.Zero(t, count)
}

func TestListOrdersByLogTimestampDesc(t *testing.T) {
	_, svc, skipper, vessel := seed(t)

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-1 * time.Hour)
	_, err := svc.Create(skipper, vessel.ID, &CreateEntryDTO{Content: "older", LogTimestamp: &old})
	require.NoError(t, err)
	_, err = svc.Create(skipper, vessel.ID, &CreateEntryDTO{Content: "newer", LogTimestamp: &recent})
	require.NoError(t, err)

	views, err := svc.List(vessel.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "newer", views[0].Content)
	assert.Contains(t, views[0].ContentHTML, "<p>newer</p>")
}
