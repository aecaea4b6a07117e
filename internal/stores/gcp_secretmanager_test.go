package stores_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/secretsync/internal/config"
	"github.com/systmms/secretsync/internal/stores"
	"github.com/systmms/secretsync/pkg/store"
)

// fakeGCPSecrets is an in-memory stand-in for the Secret Manager API,
// keyed by full resource name.
type fakeGCPSecrets struct {
	mu       sync.Mutex
	secrets  map[string]*secretmanagerpb.Secret
	payloads map[string][]byte
}

func newFakeGCPSecrets() *fakeGCPSecrets {
	return &fakeGCPSecrets{
		secrets:  map[string]*secretmanagerpb.Secret{},
		payloads: map[string][]byte{},
	}
}

func (f *fakeGCPSecrets) GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest, _ ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	secret, ok := f.secrets[req.Name]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret not found")
	}
	return secret, nil
}

func (f *fakeGCPSecrets) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	resource := strings.TrimSuffix(req.Name, "/versions/latest")
	payload, ok := f.payloads[resource]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret version not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: payload},
	}, nil
}

func (f *fakeGCPSecrets) CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, _ ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	resource := req.Parent + "/secrets/" + req.SecretId
	if _, ok := f.secrets[resource]; ok {
		return nil, status.Error(codes.AlreadyExists, "secret already exists")
	}
	secret := req.Secret
	if secret == nil {
		secret = &secretmanagerpb.Secret{}
	}
	f.secrets[resource] = secret
	return secret, nil
}

func (f *fakeGCPSecrets) AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.SecretVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secrets[req.Parent]; !ok {
		return nil, status.Error(codes.NotFound, "secret not found")
	}
	f.payloads[req.Parent] = req.Payload.Data
	return &secretmanagerpb.SecretVersion{Name: req.Parent + "/versions/1"}, nil
}

func newTestGCPStore(t *testing.T, fake *fakeGCPSecrets) *stores.GCPSecretManager {
	t.Helper()
	g, err := stores.NewGCPSecretManager(config.GCPConfig{ProjectID: "test-project"}, stores.WithGCPClient(fake))
	require.NoError(t, err)
	return g
}

func TestGCPSecretManagerContract(t *testing.T) {
	var fake *fakeGCPSecrets
	store.RunContractTests(t, store.ContractTest{
		CreateStore: func(t *testing.T) store.Store {
			fake = newFakeGCPSecrets()
			return newTestGCPStore(t, fake)
		},
		SecretName: func(t *testing.T) string { return "app-env" },
		MetadataFor: func(t *testing.T, name string) store.Metadata {
			secret, ok := fake.secrets["projects/test-project/secrets/"+name]
			if !ok {
				t.Fatalf("no secret recorded for %s", name)
			}
			return store.Metadata{
				Description: secret.Annotations["description"],
				Tags:        secret.Labels,
			}
		},
	})
}

func TestGCPSecretManagerRequiresProjectID(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	_, err := stores.NewGCPSecretManager(config.GCPConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_id")
}

func TestGCPSecretManagerCreateSendsMetadata(t *testing.T) {
	t.Parallel()

	fake := newFakeGCPSecrets()
	g := newTestGCPStore(t, fake)

	values := store.NewValues()
	require.NoError(t, values.Set("API_KEY", "k1"))

	meta := store.Metadata{
		Description: "Application environment",
		Tags:        map[string]string{"team": "platform"},
	}
	require.NoError(t, g.Create(context.Background(), "app-env", values, meta))

	secret := fake.secrets["projects/test-project/secrets/app-env"]
	require.NotNil(t, secret)
	assert.Equal(t, map[string]string{"team": "platform"}, secret.Labels)
	assert.Equal(t, "Application environment", secret.Annotations["description"])
}

func TestGCPSecretManagerErrorClassification(t *testing.T) {
	t.Parallel()

	fake := newFakeGCPSecrets()
	g := newTestGCPStore(t, fake)
	ctx := context.Background()

	_, err := g.Fetch(ctx, "missing")
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))

	err = g.Update(ctx, "missing", store.NewValues())
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}
