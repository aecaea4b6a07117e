package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Values is an ordered mapping from key to value representing the contents
// of one secret file (or one remote secret). Insertion order is preserved
// for round-tripping file layouts; equality is order-independent, since the
// remote wire form carries no reliable ordering.
//
// Keys are unique. Set rejects duplicates so codec and wire decoding can
// report them instead of silently keeping one side.
type Values struct {
	keys   []string
	lookup map[string]string
}

// NewValues returns an empty mapping.
func NewValues() Values {
	return Values{lookup: map[string]string{}}
}

// Set appends key with value, failing if key is already present.
func (v *Values) Set(key, value string) error {
	if v.lookup == nil {
		v.lookup = map[string]string{}
	}
	if _, dup := v.lookup[key]; dup {
		return fmt.Errorf("duplicate key %q", key)
	}
	v.keys = append(v.keys, key)
	v.lookup[key] = value
	return nil
}

// Get returns the value for key and whether it is present.
func (v Values) Get(key string) (string, bool) {
	value, ok := v.lookup[key]
	return value, ok
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (v Values) Keys() []string {
	keys := make([]string, len(v.keys))
	copy(keys, v.keys)
	return keys
}

// Len returns the number of entries.
func (v Values) Len() int {
	return len(v.keys)
}

// Equal reports order-independent mapping equality.
func (v Values) Equal(other Values) bool {
	if len(v.keys) != len(other.keys) {
		return false
	}
	for key, value := range v.lookup {
		otherValue, ok := other.lookup[key]
		if !ok || otherValue != value {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer without exposing secret material.
func (v Values) String() string {
	return fmt.Sprintf("store.Values(%d keys)", len(v.keys))
}

// MarshalWire encodes the mapping as the canonical remote representation:
// a JSON object with one member per entry, in insertion order. Stored this
// way, secrets remain readable and editable in provider consoles.
func (v Values) MarshalWire() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		valueJSON, err := json.Marshal(v.lookup[key])
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalWire decodes the remote JSON object representation, preserving
// document order and rejecting duplicate keys and non-string members.
func UnmarshalWire(data []byte) (Values, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return Values{}, fmt.Errorf("invalid secret payload: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Values{}, fmt.Errorf("invalid secret payload: expected JSON object, got %v", tok)
	}

	values := NewValues()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Values{}, fmt.Errorf("invalid secret payload: %w", err)
		}
		key := keyTok.(string)

		valueTok, err := dec.Token()
		if err != nil {
			return Values{}, fmt.Errorf("invalid secret payload: %w", err)
		}
		value, ok := valueTok.(string)
		if !ok {
			return Values{}, fmt.Errorf("invalid secret payload: value of %q is not a string", key)
		}

		if err := values.Set(key, value); err != nil {
			return Values{}, fmt.Errorf("invalid secret payload: %w", err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return Values{}, fmt.Errorf("invalid secret payload: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Values{}, fmt.Errorf("invalid secret payload: trailing data after JSON object")
	}
	return values, nil
}
