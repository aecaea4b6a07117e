package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/systmms/secretsync/pkg/store"
)

// JSON reads and writes secret files that are a single flat JSON object
// with string members. Document key order is preserved on decode so the
// round-trip law holds.
type JSON struct{}

// Name implements Codec.
func (JSON) Name() string { return "json" }

// Decode implements Codec.
func (j JSON) Decode(data []byte) (store.Values, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return store.Values{}, &Error{Codec: j.Name(), Kind: MalformedLine, Why: err.Error()}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return store.Values{}, &Error{
			Codec: j.Name(), Kind: MalformedLine,
			Why: "document is not a JSON object",
		}
	}

	values := store.NewValues()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return store.Values{}, &Error{Codec: j.Name(), Kind: MalformedLine, Why: err.Error()}
		}
		key := keyTok.(string)

		valueTok, err := dec.Token()
		if err != nil {
			return store.Values{}, &Error{Codec: j.Name(), Kind: MalformedLine, Key: key, Why: err.Error()}
		}
		value, ok := valueTok.(string)
		if !ok {
			return store.Values{}, &Error{
				Codec: j.Name(), Kind: MalformedLine, Key: key,
				Why: fmt.Sprintf("value is %T, want string", valueTok),
			}
		}

		if _, dup := values.Get(key); dup {
			return store.Values{}, &Error{Codec: j.Name(), Kind: DuplicateKey, Key: key}
		}
		if err := values.Set(key, value); err != nil {
			return store.Values{}, &Error{Codec: j.Name(), Kind: DuplicateKey, Key: key}
		}
	}

	if _, err := dec.Token(); err != nil {
		return store.Values{}, &Error{Codec: j.Name(), Kind: MalformedLine, Why: err.Error()}
	}
	if _, err := dec.Token(); err != io.EOF {
		return store.Values{}, &Error{
			Codec: j.Name(), Kind: MalformedLine,
			Why: "trailing data after JSON object",
		}
	}
	return values, nil
}

// Encode implements Codec.
func (j JSON) Encode(values store.Values) []byte {
	var buf bytes.Buffer
	buf.WriteString("{")
	keys := values.Keys()
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		value, _ := values.Get(key)
		keyJSON, _ := json.Marshal(key)
		valueJSON, _ := json.Marshal(value)
		buf.Write(keyJSON)
		buf.WriteString(": ")
		buf.Write(valueJSON)
	}
	if len(keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

var _ Codec = JSON{}
