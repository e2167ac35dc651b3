package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringValue(t *testing.T) {
	var x string

	val := NewString(&x, "foobar")

	require.Equal(t, "foobar", val.String())
	require.Equal(t, nil, val.Validate())
	require.Equal(t, false, val.IsEmpty())

	x = "foobaz"

	require.Equal(t, "foobaz", val.String())

	val.Set("fooboz")

	require.Equal(t, "fooboz", x)
}

func TestBoolValue(t *testing.T) {
	var x bool

	val := NewBool(&x, false)

	require.Equal(t, "false", val.String())
	require.Equal(t, nil, val.Validate())
	require.Equal(t, true, val.IsEmpty())

	x = true

	require.Equal(t, "true", val.String())
	require.Equal(t, false, val.IsEmpty())

	require.NoError(t, val.Set("false"))
	require.Equal(t, false, x)

	require.Error(t, val.Set("maybe"))
}

func TestIntValue(t *testing.T) {
	var i int

	ivar := NewInt(&i, 11, 1)

	require.Equal(t, "11", ivar.String())
	require.Equal(t, nil, ivar.Validate())
	require.Equal(t, false, ivar.IsEmpty())

	require.NoError(t, ivar.Set(" 77 "))
	require.Equal(t, 77, i)

	require.NoError(t, ivar.Set("0"))
	require.Error(t, ivar.Validate())
	require.Equal(t, true, ivar.IsEmpty())

	require.Error(t, ivar.Set("ten"))
	require.Equal(t, 0, i)
}

func TestRegexpValue(t *testing.T) {
	var x string

	val := NewRegexp(&x, "(?i)google.*drive")

	require.Equal(t, "(?i)google.*drive", val.String())
	require.NoError(t, val.Validate())

	val.Set("google(drive")
	require.Error(t, val.Validate())
}

func TestLogLevelValue(t *testing.T) {
	var x string

	val := NewLogLevel(&x, "info")

	require.NoError(t, val.Validate())

	val.Set(" DEBUG ")
	require.Equal(t, "debug", x)
	require.NoError(t, val.Validate())

	val.Set("verbose")
	require.Error(t, val.Validate())
}
