package store

import "context"

// Store is the capability set every secret store backend implements.
//
// All methods must honor context cancellation. Secret names are
// backend-scoped identifiers; backends may impose their own naming rules
// and should surface violations as descriptive errors, not panics.
type Store interface {
	// Name returns the backend's stable identifier, e.g. "aws" or "gcp".
	// Used in logs, error messages and the backends listing.
	Name() string

	// Exists reports whether the named secret is present.
	// Returns AuthError or TransportError on failure, never NotFoundError.
	Exists(ctx context.Context, name string) (bool, error)

	// Fetch retrieves the secret's value mapping.
	// Returns NotFoundError if the secret does not exist.
	Fetch(ctx context.Context, name string) (Values, error)

	// Create writes a brand-new secret. Metadata (description, tags) is
	// applied here and only here. Returns ConflictError if the secret was
	// created concurrently since the caller's existence check.
	Create(ctx context.Context, name string, values Values, meta Metadata) error

	// Update replaces the value of an existing secret. Metadata is never
	// sent. Returns NotFoundError if the secret vanished since the
	// caller's existence check.
	Update(ctx context.Context, name string, values Values) error

	// Capabilities describes what this backend supports.
	Capabilities() Capabilities
}

// Metadata is creation-time secret metadata. It is write-once: applied by
// Create on first creation and never mutated afterwards.
type Metadata struct {
	Description string
	Tags        map[string]string
}

// IsZero reports whether no metadata was declared.
func (m Metadata) IsZero() bool {
	return m.Description == "" && len(m.Tags) == 0
}

// Capabilities describes the features a backend supports. The engine and
// the backends command use this to warn about declared metadata a backend
// will silently drop.
type Capabilities struct {
	// SupportsMetadata indicates the backend can persist descriptions
	// and tags alongside the secret value.
	SupportsMetadata bool

	// RequiresAuth indicates the backend needs credentials. The keyring
	// backend, for example, does not.
	RequiresAuth bool

	// AuthMethods lists the authentication methods the backend accepts,
	// e.g. "aws-credentials", "iam-role", "managed-identity".
	AuthMethods []string
}
