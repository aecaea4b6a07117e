// Package config loads and validates the secret-sync manifest.
//
// The manifest is discovered by walking from the working directory upward
// (secret-sync.toml, secret-sync.yaml or secret-sync.json) and maps local
// file paths to remote secret names plus optional creation metadata. Once
// loaded it is immutable; the engine consumes it read-only.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	sserrors "github.com/systmms/secretsync/internal/errors"
)

// Backend provider identifiers accepted in the manifest.
const (
	ProviderAWS     = "aws"
	ProviderAWSSSM  = "aws-ssm"
	ProviderGCP     = "gcp"
	ProviderAzure   = "azure"
	ProviderKeyring = "keyring"
	ProviderMemory  = "memory"
)

// Manifest is the resolved secret-sync configuration.
type Manifest struct {
	Backend BackendConfig        `toml:"backend" yaml:"backend" json:"backend"`
	AWS     AWSConfig            `toml:"aws" yaml:"aws" json:"aws"`
	GCP     GCPConfig            `toml:"gcp" yaml:"gcp" json:"gcp"`
	Azure   AzureConfig          `toml:"azure" yaml:"azure" json:"azure"`
	Keyring KeyringConfig        `toml:"keyring" yaml:"keyring" json:"keyring"`
	Files   map[string]FileEntry `toml:"files" yaml:"files" json:"files"`

	// Dir is the directory holding the manifest file. Relative entry
	// paths resolve against it.
	Dir string `toml:"-" yaml:"-" json:"-"`
}

// BackendConfig selects the secret store backend.
type BackendConfig struct {
	Provider string `toml:"provider" yaml:"provider" json:"provider"`
}

// AWSConfig carries AWS connection overrides for both the Secrets Manager
// and Parameter Store backends.
type AWSConfig struct {
	Profile     string          `toml:"profile" yaml:"profile" json:"profile,omitempty"`
	Region      string          `toml:"region" yaml:"region" json:"region,omitempty"`
	Endpoint    string          `toml:"endpoint" yaml:"endpoint" json:"endpoint,omitempty"`
	Credentials *AWSCredentials `toml:"credentials" yaml:"credentials" json:"credentials,omitempty"`
}

// AWSCredentials are optional static credentials, mainly for LocalStack
// and CI. Redacted in all printed forms.
type AWSCredentials struct {
	AccessKeyID     string `toml:"access_key_id" yaml:"access_key_id" json:"access_key_id"`
	AccessKeySecret string `toml:"access_key_secret" yaml:"access_key_secret" json:"access_key_secret"`
}

// String implements fmt.Stringer with both fields redacted.
func (c AWSCredentials) String() string {
	return "AWSCredentials{access_key_id: [REDACTED], access_key_secret: [REDACTED]}"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (c AWSCredentials) GoString() string { return c.String() }

// GCPConfig carries Google Secret Manager settings.
type GCPConfig struct {
	ProjectID       string `toml:"project_id" yaml:"project_id" json:"project_id,omitempty"`
	CredentialsFile string `toml:"credentials_file" yaml:"credentials_file" json:"credentials_file,omitempty"`
}

// AzureConfig carries Azure Key Vault settings.
type AzureConfig struct {
	VaultURL     string `toml:"vault_url" yaml:"vault_url" json:"vault_url,omitempty"`
	TenantID     string `toml:"tenant_id" yaml:"tenant_id" json:"tenant_id,omitempty"`
	ClientID     string `toml:"client_id" yaml:"client_id" json:"client_id,omitempty"`
	ClientSecret string `toml:"client_secret" yaml:"client_secret" json:"client_secret,omitempty"`
}

// KeyringConfig carries OS keyring settings.
type KeyringConfig struct {
	Service string `toml:"service" yaml:"service" json:"service,omitempty"`
}

// FileEntry declares one local-file-to-remote-secret mapping.
type FileEntry struct {
	Path     string        `toml:"path" yaml:"path" json:"path"`
	Secret   string        `toml:"secret" yaml:"secret" json:"secret"`
	Codec    string        `toml:"codec" yaml:"codec" json:"codec,omitempty"`
	Metadata EntryMetadata `toml:"metadata" yaml:"metadata" json:"metadata,omitempty"`
}

// EntryMetadata is applied only on the first remote creation of the
// entry's secret; it is never sent on updates.
type EntryMetadata struct {
	Description string            `toml:"description" yaml:"description" json:"description,omitempty"`
	Tags        map[string]string `toml:"tags" yaml:"tags" json:"tags,omitempty"`
}

// Provider returns the configured backend, defaulting to AWS.
func (m *Manifest) Provider() string {
	if m.Backend.Provider == "" {
		return ProviderAWS
	}
	return m.Backend.Provider
}

// EntryKeys returns all declared entry keys, sorted for deterministic
// processing and reporting order.
func (m *Manifest) EntryKeys() []string {
	keys := make([]string, 0, len(m.Files))
	for key := range m.Files {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ResolvePath returns the absolute filesystem path for an entry, resolving
// relative paths against the manifest directory.
func (m *Manifest) ResolvePath(entry FileEntry) string {
	if filepath.IsAbs(entry.Path) {
		return entry.Path
	}
	return filepath.Join(m.Dir, entry.Path)
}

// SelectEntries returns the sorted entry keys matching the given exact
// names and glob patterns. With no filters every key matches. A filter
// set that matches nothing while entries exist is an error: silently
// syncing zero files hides typos.
func (m *Manifest) SelectEntries(names, globs []string) ([]string, error) {
	all := m.EntryKeys()
	if len(names) == 0 && len(globs) == 0 {
		return all, nil
	}

	nameSet := map[string]bool{}
	for _, n := range names {
		nameSet[n] = true
	}

	var selected []string
	for _, key := range all {
		if nameSet[key] {
			selected = append(selected, key)
			continue
		}
		for _, glob := range globs {
			ok, err := path.Match(glob, key)
			if err != nil {
				return nil, sserrors.ConfigError{
					Field:      "glob",
					Value:      glob,
					Message:    "invalid glob pattern",
					Suggestion: "Use shell-style patterns like 'app-*' or 'prod?'",
				}
			}
			if ok {
				selected = append(selected, key)
				break
			}
		}
	}

	if len(selected) == 0 && len(all) > 0 {
		return nil, sserrors.UserError{
			Message:    "no manifest entries match the given filters",
			Details:    fmt.Sprintf("filters: files=%v globs=%v", names, globs),
			Suggestion: "Run without filters to see every declared entry key",
		}
	}
	return selected, nil
}

// Load reads, parses and validates a manifest file. The format is chosen
// by extension; files without one are treated as TOML.
func Load(manifestPath string) (*Manifest, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("resolving manifest path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sserrors.ConfigError{
				Field:      "path",
				Value:      manifestPath,
				Message:    "manifest file not found",
				Suggestion: "Run 'secretsync init' to create a starter secret-sync.toml",
			}
		}
		return nil, sserrors.UserError{
			Message:    "Failed to read manifest file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	manifest, raw, err := parse(data, strings.ToLower(filepath.Ext(abs)))
	if err != nil {
		return nil, err
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	manifest.Dir = filepath.Dir(abs)
	return manifest, nil
}

// parse decodes data twice: once into the typed manifest and once into a
// generic document for schema validation.
func parse(data []byte, ext string) (*Manifest, map[string]interface{}, error) {
	var manifest Manifest
	raw := map[string]interface{}{}

	switch ext {
	case ".toml", "":
		if err := toml.Unmarshal(data, &manifest); err != nil {
			return nil, nil, parseError("TOML", err)
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, nil, parseError("TOML", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, nil, parseError("YAML", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, nil, parseError("YAML", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, nil, parseError("JSON", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, nil, parseError("JSON", err)
		}
	default:
		return nil, nil, sserrors.ConfigError{
			Field:      "path",
			Value:      ext,
			Message:    "unsupported manifest file extension",
			Suggestion: "Use secret-sync.toml, secret-sync.yaml or secret-sync.json",
		}
	}

	return &manifest, raw, nil
}

func parseError(format string, err error) error {
	return sserrors.ConfigError{
		Message:    fmt.Sprintf("invalid %s syntax in manifest", format),
		Suggestion: "Check for indentation errors, missing quotes or stray characters: " + err.Error(),
	}
}
