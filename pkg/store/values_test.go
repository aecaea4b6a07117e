package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues_SetPreservesOrder(t *testing.T) {
	values := NewValues()
	require.NoError(t, values.Set("B", "2"))
	require.NoError(t, values.Set("A", "1"))
	require.NoError(t, values.Set("C", "3"))

	assert.Equal(t, []string{"B", "A", "C"}, values.Keys())
	assert.Equal(t, 3, values.Len())

	v, ok := values.Get("A")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestValues_SetRejectsDuplicate(t *testing.T) {
	values := NewValues()
	require.NoError(t, values.Set("KEY", "a"))

	err := values.Set("KEY", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")

	// Original value untouched
	v, _ := values.Get("KEY")
	assert.Equal(t, "a", v)
}

func TestValues_EqualIsOrderIndependent(t *testing.T) {
	a := NewValues()
	require.NoError(t, a.Set("X", "1"))
	require.NoError(t, a.Set("Y", "2"))

	b := NewValues()
	require.NoError(t, b.Set("Y", "2"))
	require.NoError(t, b.Set("X", "1"))

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	c := NewValues()
	require.NoError(t, c.Set("X", "1"))
	require.NoError(t, c.Set("Y", "changed"))
	assert.False(t, a.Equal(c))

	d := NewValues()
	require.NoError(t, d.Set("X", "1"))
	assert.False(t, a.Equal(d))
}

func TestValues_StringRedactsContents(t *testing.T) {
	values := NewValues()
	require.NoError(t, values.Set("PASSWORD", "hunter2"))

	assert.NotContains(t, values.String(), "hunter2")
	assert.NotContains(t, values.String(), "PASSWORD")
}

func TestValues_WireRoundTrip(t *testing.T) {
	values := NewValues()
	require.NoError(t, values.Set("DATABASE_URL", "postgres://localhost/app"))
	require.NoError(t, values.Set("QUOTED", `va"lue`))
	require.NoError(t, values.Set("MULTILINE", "line1\nline2"))
	require.NoError(t, values.Set("EMPTY", ""))

	wire, err := values.MarshalWire()
	require.NoError(t, err)

	decoded, err := UnmarshalWire(wire)
	require.NoError(t, err)

	assert.True(t, values.Equal(decoded))
	// Wire form also preserves insertion order
	assert.Equal(t, values.Keys(), decoded.Keys())
}

func TestUnmarshalWire_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "not-json"},
		{"array", `["a","b"]`},
		{"non-string value", `{"KEY": 42}`},
		{"nested object", `{"KEY": {"nested": true}}`},
		{"duplicate key", `{"KEY": "a", "KEY": "b"}`},
		{"truncated", `{"KEY": "a"`},
		{"trailing data", `{"KEY": "a"} extra`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalWire([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalWire_EmptyObject(t *testing.T) {
	values, err := UnmarshalWire([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 0, values.Len())
}
