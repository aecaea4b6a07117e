package stores

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/secretsync/internal/config"
	sserrors "github.com/systmms/secretsync/internal/errors"
	"github.com/systmms/secretsync/pkg/store"
)

// GCPSecretManagerAPI defines the Google Secret Manager operations used by
// the backend. This allows for mocking in tests.
type GCPSecretManagerAPI interface {
	GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.SecretVersion, error)
}

// GCPSecretManager is the Google Secret Manager backend. A manifest secret
// name maps to projects/{project}/secrets/{name}, always reading the
// latest version and adding a new version on every write.
type GCPSecretManager struct {
	client    GCPSecretManagerAPI
	projectID string
}

// GCPOption is a functional option for configuring the backend.
type GCPOption func(*GCPSecretManager)

// WithGCPClient sets a custom Secret Manager client (for testing).
func WithGCPClient(client GCPSecretManagerAPI) GCPOption {
	return func(g *GCPSecretManager) {
		g.client = client
	}
}

// NewGCPSecretManager creates the Google Secret Manager backend from
// manifest settings.
func NewGCPSecretManager(cfg config.GCPConfig, opts ...GCPOption) (*GCPSecretManager, error) {
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if projectID == "" {
		return nil, sserrors.ConfigError{
			Field:      "gcp.project_id",
			Message:    "project_id is required for Google Secret Manager",
			Suggestion: "Set gcp.project_id in the manifest or the GOOGLE_CLOUD_PROJECT environment variable",
		}
	}

	g := &GCPSecretManager{projectID: projectID}

	for _, opt := range opts {
		opt(g)
	}

	if g.client == nil {
		var clientOptions []option.ClientOption
		if cfg.CredentialsFile != "" {
			keyPath := cfg.CredentialsFile
			if strings.HasPrefix(keyPath, "~/") {
				home, err := os.UserHomeDir()
				if err != nil {
					return nil, fmt.Errorf("failed to get home directory: %w", err)
				}
				keyPath = filepath.Join(home, keyPath[2:])
			}
			clientOptions = append(clientOptions, option.WithCredentialsFile(keyPath))
		}

		client, err := secretmanager.NewClient(context.Background(), clientOptions...)
		if err != nil {
			return nil, store.AuthError{
				Store:   config.ProviderGCP,
				Message: "failed to create Secret Manager client: " + err.Error(),
			}
		}
		g.client = client
	}

	return g, nil
}

// Name returns the backend identifier.
func (g *GCPSecretManager) Name() string {
	return config.ProviderGCP
}

func (g *GCPSecretManager) secretResource(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", g.projectID, name)
}

// Exists reports whether the secret container already exists.
func (g *GCPSecretManager) Exists(ctx context.Context, name string) (bool, error) {
	_, err := g.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{
		Name: g.secretResource(name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, g.classify("describe", name, err)
	}
	return true, nil
}

// Fetch retrieves and decodes the latest secret version.
func (g *GCPSecretManager) Fetch(ctx context.Context, name string) (store.Values, error) {
	result, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: g.secretResource(name) + "/versions/latest",
	})
	if err != nil {
		return store.Values{}, g.classify("fetch", name, err)
	}
	if result.Payload == nil {
		return store.Values{}, store.TransportError{
			Store: g.Name(),
			Op:    "fetch",
			Err:   errors.New("secret " + name + " has no payload"),
		}
	}
	return store.UnmarshalWire(result.Payload.Data)
}

// Create makes the secret container with its one-time metadata, then adds
// the first version. Tags become labels; the description travels as an
// annotation because Secret Manager has no description field.
func (g *GCPSecretManager) Create(ctx context.Context, name string, values store.Values, meta store.Metadata) error {
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}

	secret := &secretmanagerpb.Secret{
		Replication: &secretmanagerpb.Replication{
			Replication: &secretmanagerpb.Replication_Automatic_{
				Automatic: &secretmanagerpb.Replication_Automatic{},
			},
		},
	}
	if len(meta.Tags) > 0 {
		labels := make(map[string]string, len(meta.Tags))
		for key, value := range meta.Tags {
			labels[strings.ToLower(key)] = strings.ToLower(value)
		}
		secret.Labels = labels
	}
	if meta.Description != "" {
		secret.Annotations = map[string]string{"description": meta.Description}
	}

	_, err = g.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + g.projectID,
		SecretId: name,
		Secret:   secret,
	})
	if err != nil {
		return g.classify("create", name, err)
	}

	_, err = g.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  g.secretResource(name),
		Payload: &secretmanagerpb.SecretPayload{Data: payload},
	})
	if err != nil {
		return g.classify("create", name, err)
	}
	return nil
}

// Update adds a new version to an existing secret.
func (g *GCPSecretManager) Update(ctx context.Context, name string, values store.Values) error {
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}

	_, err = g.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  g.secretResource(name),
		Payload: &secretmanagerpb.SecretPayload{Data: payload},
	})
	if err != nil {
		return g.classify("update", name, err)
	}
	return nil
}

// Capabilities returns the backend capabilities.
func (g *GCPSecretManager) Capabilities() store.Capabilities {
	return store.Capabilities{
		SupportsMetadata: true,
		RequiresAuth:     true,
		AuthMethods:      []string{"application-default-credentials", "service-account-key"},
	}
}

// classify maps gRPC status codes onto the shared store error types.
func (g *GCPSecretManager) classify(op, name string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return store.NotFoundError{Store: g.Name(), Name: name}
	case codes.AlreadyExists:
		return store.ConflictError{Store: g.Name(), Name: name}
	case codes.PermissionDenied, codes.Unauthenticated:
		return store.AuthError{Store: g.Name(), Message: err.Error()}
	default:
		return store.TransportError{Store: g.Name(), Op: op, Err: err}
	}
}

var _ store.Store = (*GCPSecretManager)(nil)
