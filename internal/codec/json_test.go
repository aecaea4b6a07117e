package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_DecodePreservesOrder(t *testing.T) {
	input := `{
  "ZETA": "last-alphabetically",
  "ALPHA": "first-alphabetically",
  "MID": "middle"
}`
	values, err := JSON{}.Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"ZETA", "ALPHA", "MID"}, values.Keys())
}

func TestJSON_DecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		{"array document", `["a"]`, MalformedLine},
		{"numeric value", `{"PORT": 5432}`, MalformedLine},
		{"nested object", `{"DB": {"host": "x"}}`, MalformedLine},
		{"duplicate key", `{"KEY": "a", "KEY": "b"}`, DuplicateKey},
		{"truncated", `{"KEY": "a"`, MalformedLine},
		{"trailing data", `{"KEY": "a"} {"B": "c"}`, MalformedLine},
		{"not json", `KEY=VALUE`, MalformedLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSON{}.Decode([]byte(tt.input))
			require.Error(t, err)

			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.kind, cerr.Kind)
		})
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	original := mustValues(t,
		"B_KEY", "value with spaces",
		"A_KEY", "line1\nline2",
		"QUOTES", `say "hi"`,
		"EMPTY", "",
	)

	encoded := JSON{}.Encode(original)
	decoded, err := JSON{}.Decode(encoded)
	require.NoError(t, err)
	assert.True(t, original.Equal(decoded))
	assert.Equal(t, original.Keys(), decoded.Keys())
}

func TestJSON_EncodeEmpty(t *testing.T) {
	assert.Equal(t, "{}\n", string(JSON{}.Encode(mustValues(t))))
}

func TestRegistry_ForEntry(t *testing.T) {
	reg := NewRegistry()

	c, err := reg.ForEntry("", ".env")
	require.NoError(t, err)
	assert.Equal(t, "dotenv", c.Name())

	c, err = reg.ForEntry("", "config/secrets.json")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	// Explicit tag beats extension
	c, err = reg.ForEntry("dotenv", "secrets.json")
	require.NoError(t, err)
	assert.Equal(t, "dotenv", c.Name())

	_, err = reg.ForEntry("toml", ".env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown codec")
}
