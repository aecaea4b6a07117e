package stores

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/systmms/secretsync/internal/config"
	"github.com/systmms/secretsync/pkg/store"
)

// defaultKeyringService is the service name keyring items are filed under
// when the manifest does not set one.
const defaultKeyringService = "secret-sync"

// Keyring is the OS keyring backend (macOS Keychain, Linux Secret Service,
// Windows Credential Manager). Writes are native upserts and there is
// nowhere to put metadata, so Create and Update collapse into the same
// Set call.
type Keyring struct {
	service string
}

// NewKeyring creates the OS keyring backend from manifest settings.
func NewKeyring(cfg config.KeyringConfig) *Keyring {
	service := cfg.Service
	if service == "" {
		service = defaultKeyringService
	}
	return &Keyring{service: service}
}

// Name returns the backend identifier.
func (k *Keyring) Name() string {
	return config.ProviderKeyring
}

// Exists reports whether a keyring item is filed under the secret name.
func (k *Keyring) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := keyring.Get(k.service, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return false, nil
		}
		return false, k.classify("describe", name, err)
	}
	return true, nil
}

// Fetch retrieves and decodes the keyring item.
func (k *Keyring) Fetch(ctx context.Context, name string) (store.Values, error) {
	if err := ctx.Err(); err != nil {
		return store.Values{}, err
	}
	payload, err := keyring.Get(k.service, name)
	if err != nil {
		return store.Values{}, k.classify("fetch", name, err)
	}
	return store.UnmarshalWire([]byte(payload))
}

// Create stores the item. Metadata is dropped: the keyring has no place
// for descriptions or tags.
func (k *Keyring) Create(ctx context.Context, name string, values store.Values, _ store.Metadata) error {
	return k.set(ctx, "create", name, values)
}

// Update overwrites the item.
func (k *Keyring) Update(ctx context.Context, name string, values store.Values) error {
	return k.set(ctx, "update", name, values)
}

func (k *Keyring) set(ctx context.Context, op, name string, values store.Values) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}
	if err := keyring.Set(k.service, name, string(payload)); err != nil {
		return k.classify(op, name, err)
	}
	return nil
}

// Capabilities returns the backend capabilities.
func (k *Keyring) Capabilities() store.Capabilities {
	return store.Capabilities{
		SupportsMetadata: false,
		RequiresAuth:     false,
		AuthMethods:      nil,
	}
}

func (k *Keyring) classify(op, name string, err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return store.NotFoundError{Store: k.Name(), Name: name}
	}
	return store.TransportError{Store: k.Name(), Op: op, Err: err}
}

var _ store.Store = (*Keyring)(nil)
