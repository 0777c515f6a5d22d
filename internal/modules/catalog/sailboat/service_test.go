package sailboat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/testdb"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	db := testdb.Open(t)
	return db, NewService(db, zap.NewNop())
}

func TestCreateResolvesDesigners(t *testing.T) {
	db, svc := setup(t)

	boat, problems, err := svc.Create(&CreateSailboatDTO{
		Name:      "Oceanis 35",
		Make:      "Beneteau",
		Designers: "Finot-Conq, Nauta Design",
	})
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Equal(t, "oceanis 35", boat.Name)

	var loaded models.SailboatModel
	require.NoError(t, db.Preload("Designers").First(&loaded, "id = ?", boat.ID).Error)
	require.Len(t, loaded.Designers, 2)

	var names []string
	for _, d := range loaded.Designers {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"finot-conq", "nauta design"}, names)
}

func TestCreateRejectsDuplicatePerMake(t *testing.T) {
	_, svc := setup(t)

	_, _, err := svc.Create(&CreateSailboatDTO{Name: "Oceanis 35", Make: "Beneteau"})
	require.NoError(t, err)

	_, _, err = svc.Create(&CreateSailboatDTO{Name: "OCEANIS 35", Make: "beneteau"})
	assert.ErrorIs(t, err, ErrDuplicate)

	// The same name under another make is fine.
	_, _, err = svc.Create(&CreateSailboatDTO{Name: "Oceanis 35", Make: "Catalina"})
	assert.NoError(t, err)
}

func TestCreateReportsAttributeProblemsWithoutFailing(t *testing.T) {
	db, svc := setup(t)
	require.NoError(t, db.Create(&models.AttributeModel{
		Name: "draft", InputType: models.InputTypeFloat, AcceptsContributions: true,
	}).Error)

	boat, problems, err := svc.Create(&CreateSailboatDTO{
		Name: "Oceanis 35",
		Make: "Beneteau",
		Attributes: map[string]models.ValueList{
			"draft":   {"1.85"},
			"unknown": {"x"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, boat)
	assert.Len(t, problems, 1)

	var pools []models.SailboatAttributeModel
	require.NoError(t, db.Where("sailboat_id = ?", boat.ID).Find(&pools).Error)
	require.Len(t, pools, 1)
	assert.True(t, pools[0].Values.Contains(1.85))
}

func TestReconcilePoolsDiff(t *testing.T) {
	db, svc := setup(t)
	for _, name := range []string{"draft", "beam", "rig"} {
		inputType := models.InputTypeFloat
		if name == "rig" {
			inputType = models.InputTypeString
		}
		require.NoError(t, db.Create(&models.AttributeModel{
			Name: name, InputType: inputType, AcceptsContributions: true,
		}).Error)
	}

	boat, _, err := svc.Create(&CreateSailboatDTO{
		Name: "Oceanis 35", Make: "Beneteau",
		Attributes: map[string]models.ValueList{
			"draft": {"1.85"},
			"beam":  {"3.65"},
		},
	})
	require.NoError(t, err)

	// beam dropped, draft changed, rig added.
	_, problems, err := svc.Update(boat.ID, &UpdateSailboatDTO{
		Attributes: map[string]models.ValueList{
			"draft": {"2.05"},
			"rig":   {"sloop"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, problems)

	var pools []models.SailboatAttributeModel
	require.NoError(t, db.Preload("Attribute").Where("sailboat_id = ?", boat.ID).Find(&pools).Error)
	byName := map[string]models.ValueList{}
	for _, p := range pools {
		byName[p.Attribute.Name] = p.Values
	}
	require.Len(t, byName, 2)
	assert.True(t, byName["draft"].Contains(2.05))
	assert.True(t, byName["rig"].Contains("sloop"))
}

func TestImportCSV(t *testing.T) {
	db, svc := setup(t)

	csvData := "make,name,designers,manufactured_start_year,manufactured_end_year\n" +
		"Beneteau,Oceanis 35,Finot-Conq,2014,2018\n" +
		"Beneteau,oceanis 35,,,\n" +
		"Catalina,Catalina 30,,1972,\n"
	res, err := svc.ImportCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Errors)

	var boat models.SailboatModel
	require.NoError(t, db.Preload("Make").Preload("Designers").
		First(&boat, "name = ?", "oceanis 35").Error)
	assert.Equal(t, "beneteau", boat.Make.Name)
	require.Len(t, boat.Designers, 1)
	require.NotNil(t, boat.ManufacturedStartYear)
	assert.Equal(t, 2014, *boat.ManufacturedStartYear)
}

func TestImportAttributesCSV(t *testing.T) {
	db, svc := setup(t)
	require.NoError(t, db.Create(&models.AttributeModel{
		Name: "draft", InputType: models.InputTypeFloat, AcceptsContributions: true,
	}).Error)
	boat, _, err := svc.Create(&CreateSailboatDTO{Name: "Oceanis 35", Make: "Beneteau"})
	require.NoError(t, err)

	csvData := "make_name,sailboat_name,attribute_name,values\n" +
		"beneteau,oceanis 35,draft,\"1.85,2.05\"\n" +
		"beneteau,missing boat,draft,1.0\n"
	res, err := svc.ImportAttributesCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, res.Errors, 1)

	var pool models.SailboatAttributeModel
	require.NoError(t, db.First(&pool, "sailboat_id = ?", boat.ID).Error)
	assert.Len(t, pool.Values, 2)
	assert.True(t, pool.Values.Contains(1.85))
	assert.True(t, pool.Values.Contains(2.05))
}

func TestDeleteRemovesPoolsAndImages(t *testing.T) {
	db, svc := setup(t)
	require.NoError(t, db.Create(&models.AttributeModel{
		Name: "draft", InputType: models.InputTypeFloat, AcceptsContributions: true,
	}).Error)
	boat, _, err := svc.Create(&CreateSailboatDTO{
		Name: "Oceanis 35", Make: "Beneteau",
		Attributes: map[string]models.ValueList{"draft": {"1.85"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(boat.ID))

	var boats, pools int64
	db.Model(&models.SailboatModel{}).Count(&boats)
	db.Model(&models.SailboatAttributeModel{}).Count(&pools)
	assert.Zero(t, boats)
	assert.Zero(t, pools)
}
