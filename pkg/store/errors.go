package store

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that a requested secret does not exist in the
// backend. Expected on pull against a never-created secret; the engine
// surfaces it as a per-entry failure, not a crash.
type NotFoundError struct {
	Store string
	Name  string
}

func (e NotFoundError) Error() string {
	return "secret not found: " + e.Name + " in " + e.Store
}

// AuthError indicates that authentication or authorization to the backend
// failed. Treated as fatal for the whole run: retrying per entry will not
// help.
type AuthError struct {
	Store   string
	Message string
}

func (e AuthError) Error() string {
	return "authentication failed for " + e.Store + ": " + e.Message
}

// ConflictError indicates a Create lost the creation race: the secret came
// into existence between the caller's existence check and the Create call.
// The push protocol resolves it by retrying once as an update.
type ConflictError struct {
	Store string
	Name  string
}

func (e ConflictError) Error() string {
	return "secret already exists: " + e.Name + " in " + e.Store
}

// TransportError indicates a network-level failure talking to the backend.
// Transient by assumption; the engine retries these with backoff before
// marking the entry failed.
type TransportError struct {
	Store string
	Op    string
	Err   error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("%s %s transport error: %v", e.Store, e.Op, e.Err)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c ConflictError
	return errors.As(err, &c)
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var a AuthError
	return errors.As(err, &a)
}

// IsRetryable reports whether err is worth retrying. Only transport errors
// qualify; auth, not-found and conflict are deterministic.
func IsRetryable(err error) bool {
	var t TransportError
	return errors.As(err, &t)
}
