package vars

import (
	"testing"

	"github.com/datarhei/jsondir/config/value"

	"github.com/stretchr/testify/require"
)

func TestVars(t *testing.T) {
	v1 := Variables{}

	s := ""

	v1.Register(value.NewString(&s, "foobar"), "string", "", nil, "a string", false, false)

	require.Equal(t, "foobar", s)
	x, _ := v1.Get("string")
	require.Equal(t, "foobar", x)

	v := v1.findVariable("string")
	v.value.Set("barfoo")

	require.Equal(t, "barfoo", s)
	x, _ = v1.Get("string")
	require.Equal(t, "barfoo", x)

	v1.Set("string", "foobaz")

	require.Equal(t, "foobaz", s)
	require.Equal(t, SourceFlag, v1.Source("string"))

	v1.SetDefault("string")

	require.Equal(t, "foobar", s)
	require.Equal(t, SourceDefault, v1.Source("string"))

	_, err := v1.Get("unknown")
	require.Error(t, err)
	require.Error(t, v1.Set("unknown", "x"))
}

func TestMergeEnv(t *testing.T) {
	v1 := Variables{}

	s := ""
	n := 0

	v1.Register(value.NewString(&s, "foobar"), "string", "JSONDIR_TEST_STRING", nil, "a string", false, false)
	v1.Register(value.NewInt(&n, 1, 1), "int", "JSONDIR_TEST_INT", []string{"JSONDIR_TEST_INTEGER"}, "an int", false, false)

	t.Setenv("JSONDIR_TEST_STRING", "from env")
	t.Setenv("JSONDIR_TEST_INTEGER", "42")

	v1.Merge()

	require.Equal(t, "from env", s)
	require.Equal(t, 42, n)
	require.Equal(t, SourceEnv, v1.Source("string"))
	require.ElementsMatch(t, []string{"string", "int"}, v1.Overrides())

	levels := []string{}
	v1.Messages(func(level string, v Variable, message string) {
		levels = append(levels, level)
		require.Equal(t, "int", v.Name)
		require.Contains(t, message, "JSONDIR_TEST_INT")
	})

	require.Equal(t, []string{"warn"}, levels)
	require.False(t, v1.HasErrors())
}

func TestMergeKeepsFlags(t *testing.T) {
	v1 := Variables{}

	s := ""

	v1.Register(value.NewString(&s, "foobar"), "string", "JSONDIR_TEST_STRING", nil, "a string", false, false)

	require.NoError(t, v1.Set("string", "from flag"))

	t.Setenv("JSONDIR_TEST_STRING", "from env")

	v1.Merge()

	require.Equal(t, "from flag", s)
	require.Equal(t, SourceFlag, v1.Source("string"))
}

func TestMergeInvalid(t *testing.T) {
	v1 := Variables{}

	b := false

	v1.Register(value.NewBool(&b, false), "bool", "JSONDIR_TEST_BOOL", nil, "a bool", false, false)

	t.Setenv("JSONDIR_TEST_BOOL", "maybe")

	v1.Merge()

	require.True(t, v1.HasErrors())
}

func TestValidate(t *testing.T) {
	v1 := Variables{}

	s := ""
	secret := "password"

	v1.Register(value.NewString(&s, ""), "string", "", nil, "a string", true, false)
	v1.Register(value.NewString(&secret, "password"), "secret", "", nil, "a secret", false, true)

	v1.Validate()

	require.True(t, v1.HasErrors())

	values := map[string]string{}
	v1.Messages(func(level string, v Variable, message string) {
		values[v.Name] = v.Value
		if level == "error" {
			require.Equal(t, "string", v.Name)
			require.Equal(t, "a value is required", message)
		}
	})

	require.Equal(t, "***", values["secret"])

	v1.ResetLogs()
	require.False(t, v1.HasErrors())
}
