package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueListContainsNumericIdentity(t *testing.T) {
	list := ValueList{"deep", 35.0}

	assert.True(t, list.Contains("deep"))
	assert.True(t, list.Contains(35))
	assert.True(t, list.Contains(int64(35)))
	assert.True(t, list.Contains(35.0))
	assert.False(t, list.Contains(36))
	assert.False(t, list.Contains("35"))
}

func TestValueListScanTolerance(t *testing.T) {
	var l ValueList
	require.NoError(t, l.Scan(`["a", 1.5]`))
	assert.Len(t, l, 2)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	require.NoError(t, l.Scan("null"))
	assert.Empty(t, l)

	require.NoError(t, l.Scan(`"single"`))
	assert.Equal(t, ValueList{"single"}, l)

	require.NoError(t, l.Scan([]byte(`[3]`)))
	assert.True(t, l.Contains(3))
}

func TestValueListValueNilIsEmptyArray(t *testing.T) {
	var l ValueList
	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestValueListStrings(t *testing.T) {
	list := ValueList{"sloop", 10.5, 7.0}
	assert.Equal(t, []string{"sloop", "10.5", "7"}, list.Strings())
}
