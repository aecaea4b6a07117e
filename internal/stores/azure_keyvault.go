package stores

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/secretsync/internal/config"
	sserrors "github.com/systmms/secretsync/internal/errors"
	"github.com/systmms/secretsync/pkg/store"
)

// KeyVaultAPI defines the Azure Key Vault operations used by the backend.
// This allows for mocking in tests.
type KeyVaultAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
	SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error)
}

// KeyVault is the Azure Key Vault backend. SetSecret is a native upsert,
// so creates and updates both land as new secret versions; metadata tags
// are attached only on the Create path.
type KeyVault struct {
	client KeyVaultAPI
}

// KeyVaultOption is a functional option for configuring the backend.
type KeyVaultOption func(*KeyVault)

// WithKeyVaultClient sets a custom Key Vault client (for testing).
func WithKeyVaultClient(client KeyVaultAPI) KeyVaultOption {
	return func(k *KeyVault) {
		k.client = client
	}
}

// NewKeyVault creates the Azure Key Vault backend from manifest settings.
// With a full service principal configured it authenticates with a client
// secret, otherwise it falls back to the default credential chain
// (environment, managed identity, Azure CLI).
func NewKeyVault(cfg config.AzureConfig, opts ...KeyVaultOption) (*KeyVault, error) {
	k := &KeyVault{}

	for _, opt := range opts {
		opt(k)
	}

	if k.client == nil {
		if cfg.VaultURL == "" {
			return nil, sserrors.ConfigError{
				Field:      "azure.vault_url",
				Message:    "vault_url is required for Azure Key Vault",
				Suggestion: "Provide the Key Vault URL (e.g., https://my-vault.vault.azure.net/)",
			}
		}
		if _, err := url.Parse(cfg.VaultURL); err != nil {
			return nil, sserrors.ConfigError{
				Field:      "azure.vault_url",
				Value:      cfg.VaultURL,
				Message:    "invalid vault_url format",
				Suggestion: "Use format: https://vault-name.vault.azure.net/",
			}
		}

		cred, err := azureCredential(cfg)
		if err != nil {
			return nil, store.AuthError{
				Store:   config.ProviderAzure,
				Message: "failed to create Azure credential: " + err.Error(),
			}
		}

		client, err := azsecrets.NewClient(cfg.VaultURL, cred, nil)
		if err != nil {
			return nil, store.AuthError{
				Store:   config.ProviderAzure,
				Message: "failed to create Key Vault client: " + err.Error(),
			}
		}
		k.client = client
	}

	return k, nil
}

func azureCredential(cfg config.AzureConfig) (azcore.TokenCredential, error) {
	if cfg.ClientSecret != "" {
		if cfg.TenantID == "" || cfg.ClientID == "" {
			return nil, errors.New("tenant_id and client_id are required for service principal authentication")
		}
		return azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	}
	return azidentity.NewDefaultAzureCredential(nil)
}

// Name returns the backend identifier.
func (k *KeyVault) Name() string {
	return config.ProviderAzure
}

// Exists reports whether the secret already exists in the vault.
func (k *KeyVault) Exists(ctx context.Context, name string) (bool, error) {
	_, err := k.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		if isAzureNotFound(err) {
			return false, nil
		}
		return false, k.classify("describe", name, err)
	}
	return true, nil
}

// Fetch retrieves and decodes the secret's latest version.
func (k *KeyVault) Fetch(ctx context.Context, name string) (store.Values, error) {
	result, err := k.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return store.Values{}, k.classify("fetch", name, err)
	}
	if result.Value == nil {
		return store.Values{}, store.TransportError{
			Store: k.Name(),
			Op:    "fetch",
			Err:   errors.New("secret " + name + " has no value"),
		}
	}
	return store.UnmarshalWire([]byte(*result.Value))
}

// Create upserts the secret with its one-time metadata. The description
// travels as a tag since Key Vault secrets have no description field.
// SetSecret cannot distinguish create from overwrite, so a creation race
// lost to another writer re-sends these tags onto the existing secret;
// Update never touches them.
func (k *KeyVault) Create(ctx context.Context, name string, values store.Values, meta store.Metadata) error {
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}
	body := string(payload)

	params := azsecrets.SetSecretParameters{Value: &body}
	tags := map[string]*string{}
	for key, value := range meta.Tags {
		v := value
		tags[key] = &v
	}
	if meta.Description != "" {
		desc := meta.Description
		tags["description"] = &desc
	}
	if len(tags) > 0 {
		params.Tags = tags
	}

	if _, err := k.client.SetSecret(ctx, name, params, nil); err != nil {
		return k.classify("create", name, err)
	}
	return nil
}

// Update writes a new version of the secret without touching tags.
func (k *KeyVault) Update(ctx context.Context, name string, values store.Values) error {
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}
	body := string(payload)

	_, err = k.client.SetSecret(ctx, name, azsecrets.SetSecretParameters{Value: &body}, nil)
	if err != nil {
		return k.classify("update", name, err)
	}
	return nil
}

// Capabilities returns the backend capabilities.
func (k *KeyVault) Capabilities() store.Capabilities {
	return store.Capabilities{
		SupportsMetadata: true,
		RequiresAuth:     true,
		AuthMethods:      []string{"service-principal", "managed-identity", "azure-cli"},
	}
}

// classify maps Key Vault errors onto the shared store error types. The
// SDK wraps HTTP failures in azcore.ResponseError; anything else falls
// back to matching the Key Vault error code in the message.
func (k *KeyVault) classify(op, name string, err error) error {
	switch {
	case isAzureNotFound(err):
		return store.NotFoundError{Store: k.Name(), Name: name}
	case isAzureAuthError(err):
		return store.AuthError{Store: k.Name(), Message: err.Error()}
	default:
		return store.TransportError{Store: k.Name(), Op: op, Err: err}
	}
}

func isAzureNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == 404
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SecretNotFound") || strings.Contains(errStr, "404")
}

func isAzureAuthError(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == 401 || respErr.StatusCode == 403
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "access denied")
}

var _ store.Store = (*KeyVault)(nil)
