package designer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/testdb"
)

func TestResolveListSplitsAndDeduplicates(t *testing.T) {
	db := testdb.Open(t)

	designers, err := ResolveList(db, "Finot-Conq, Nauta Design,")
	require.NoError(t, err)
	require.Len(t, designers, 2)
	assert.Equal(t, "finot-conq", designers[0].Name)
	assert.Equal(t, "nauta design", designers[1].Name)

	// A second resolve reuses the stored rows.
	again, err := ResolveList(db, "FINOT-CONQ")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, designers[0].ID, again[0].ID)

	var count int64
	db.Model(&models.DesignerModel{}).Count(&count)
	assert.EqualValues(t, 2, count)
}
