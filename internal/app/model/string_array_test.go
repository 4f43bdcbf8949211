package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArray_ValueAndScan(t *testing.T) {
	v, err := StringArray{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	var fromString StringArray
	require.NoError(t, fromString.Scan(`["x","y"]`))
	assert.Equal(t, StringArray{"x", "y"}, fromString)

	var fromBytes StringArray
	require.NoError(t, fromBytes.Scan([]byte(`["z"]`)))
	assert.Equal(t, StringArray{"z"}, fromBytes)

	var empty StringArray
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)

	assert.Error(t, empty.Scan(42))
}

func TestStringArray_NilValueIsEmptyArray(t *testing.T) {
	var s StringArray
	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
