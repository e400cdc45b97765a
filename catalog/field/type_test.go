package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	assert.Equal(t, "uuid", TypeUUID.String())
	assert.Equal(t, "invalid", Type(200).String())
	assert.True(t, TypeString.Valid())
	assert.False(t, TypeInvalid.Valid())
	assert.False(t, endTypes.Valid())
	assert.True(t, TypeInt64.Numeric())
	assert.False(t, TypeTime.Numeric())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("Time")
	require.NoError(t, err)
	assert.Equal(t, TypeTime, typ)

	_, err = ParseType("invalid")
	require.Error(t, err)

	var v Type
	require.NoError(t, v.UnmarshalText([]byte("json")))
	assert.Equal(t, TypeJSON, v)
	require.Error(t, v.UnmarshalText([]byte("decimal")))
}
