// Package codec converts local secret files to and from the ordered
// key-value mapping the sync engine works with.
//
// Two codecs ship today: "dotenv" (the default, KEY=VALUE lines) and "json"
// (a flat JSON object). Codecs are selected per manifest entry, by explicit
// tag or file extension; adding a format means adding a file here and a case
// in the registry, nothing in the engine changes.
package codec

import (
	"fmt"

	"github.com/systmms/secretsync/pkg/store"
)

// Codec parses a local file's raw bytes into a value mapping and serializes
// a mapping back to bytes. Round-trip law: Decode(Encode(v)) == v for any v
// whose keys the format accepts.
type Codec interface {
	// Name returns the codec tag used in manifests, e.g. "dotenv".
	Name() string

	// Decode parses file bytes. Failures are *Error values.
	Decode(data []byte) (store.Values, error)

	// Encode serializes the mapping in iteration order, ending with a
	// single trailing newline.
	Encode(values store.Values) []byte
}

// ErrorKind classifies codec failures.
type ErrorKind string

const (
	// DuplicateKey means the same key appeared twice in one file.
	DuplicateKey ErrorKind = "duplicate key"

	// MalformedLine means a line (or document construct) could not be
	// parsed as a key-value pair.
	MalformedLine ErrorKind = "malformed line"
)

// Error is a decode failure scoped to one file. Line is 1-based and 0 when
// the failure is not tied to a specific line.
type Error struct {
	Codec string
	Kind  ErrorKind
	Line  int
	Key   string
	Why   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Codec, e.Kind)
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key %q)", e.Key)
	}
	if e.Why != "" {
		msg += ": " + e.Why
	}
	return msg
}
