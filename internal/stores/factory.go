package stores

import (
	"strings"

	"github.com/systmms/secretsync/internal/config"
	sserrors "github.com/systmms/secretsync/internal/errors"
	"github.com/systmms/secretsync/pkg/store"
)

// ProviderNames lists the backends the factory can build, in display order.
func ProviderNames() []string {
	return []string{
		config.ProviderAWS,
		config.ProviderAWSSSM,
		config.ProviderGCP,
		config.ProviderAzure,
		config.ProviderKeyring,
		config.ProviderMemory,
	}
}

// FromManifest builds the backend the manifest selects. The memory backend
// exists for tests and dry exploration; it holds nothing across runs.
func FromManifest(m *config.Manifest) (store.Store, error) {
	switch m.Provider() {
	case config.ProviderAWS:
		return NewSecretsManager(m.AWS)
	case config.ProviderAWSSSM:
		return NewParameterStore(m.AWS)
	case config.ProviderGCP:
		return NewGCPSecretManager(m.GCP)
	case config.ProviderAzure:
		return NewKeyVault(m.Azure)
	case config.ProviderKeyring:
		return NewKeyring(m.Keyring), nil
	case config.ProviderMemory:
		return store.NewMemory(), nil
	default:
		return nil, sserrors.ConfigError{
			Field:      "backend.provider",
			Value:      m.Provider(),
			Message:    "unknown backend provider",
			Suggestion: "Use one of: " + strings.Join(ProviderNames(), ", "),
		}
	}
}
