package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressValue(t *testing.T) {
	var x string

	val := NewAddress(&x, ":8000")

	require.Equal(t, ":8000", val.String())
	require.Equal(t, nil, val.Validate())
	require.Equal(t, false, val.IsEmpty())

	val.Set("localhost:9090")
	require.Equal(t, "localhost:9090", x)
	require.NoError(t, val.Validate())

	val.Set("8050")
	require.Equal(t, ":8050", x)
	require.NoError(t, val.Validate())

	val.Set("localhost:http")
	require.Error(t, val.Validate())

	val.Set("")
	require.NoError(t, val.Validate())
	require.True(t, val.IsEmpty())
}
