package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestSailboatValidateYearRange(t *testing.T) {
	boat := SailboatModel{Name: "oceanis 35", ManufacturedStartYear: intp(2010), ManufacturedEndYear: intp(2005)}
	assert.ErrorIs(t, boat.Validate(), ErrYearRange)

	boat.ManufacturedEndYear = intp(2015)
	assert.NoError(t, boat.Validate())

	boat.ManufacturedStartYear = intp(1750)
	assert.ErrorIs(t, boat.Validate(), ErrYearTooEarly)
}

func TestVesselValidateHIN(t *testing.T) {
	v := VesselModel{HullIdentificationNumber: "ABC 123"}
	assert.ErrorIs(t, v.Validate(nil), ErrHINFormat)

	v.HullIdentificationNumber = "BEY12345C505"
	require.NoError(t, v.Validate(nil))
}

func TestVesselValidateYearBuiltWindow(t *testing.T) {
	boat := &SailboatModel{ManufacturedStartYear: intp(2000), ManufacturedEndYear: intp(2010)}
	v := VesselModel{HullIdentificationNumber: "HIN1", YearBuilt: intp(1995)}
	assert.ErrorIs(t, v.Validate(boat), ErrYearBeforeModel)

	v.YearBuilt = intp(2012)
	assert.ErrorIs(t, v.Validate(boat), ErrYearAfterModel)

	v.YearBuilt = intp(2005)
	assert.NoError(t, v.Validate(boat))

	v.YearBuilt = intp(time.Now().Year() + 2)
	assert.ErrorIs(t, v.Validate(nil), ErrYearBuiltRange)

	v.YearBuilt = intp(1799)
	assert.ErrorIs(t, v.Validate(nil), ErrYearBuiltRange)
}
