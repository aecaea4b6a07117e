package stores

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/secretsync/internal/config"
	"github.com/systmms/secretsync/pkg/store"
)

// SecretsManagerAPI defines the AWS Secrets Manager operations used by the
// backend. This allows for mocking in tests.
type SecretsManagerAPI interface {
	DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
}

// SecretsManager is the AWS Secrets Manager backend.
type SecretsManager struct {
	client SecretsManagerAPI
	region string
}

// SecretsManagerOption is a functional option for configuring the backend.
type SecretsManagerOption func(*SecretsManager)

// WithSecretsManagerClient sets a custom client (for testing).
func WithSecretsManagerClient(client SecretsManagerAPI) SecretsManagerOption {
	return func(s *SecretsManager) {
		s.client = client
	}
}

// NewSecretsManager creates the AWS Secrets Manager backend from manifest
// settings. Without a client option it builds a real SDK client using the
// default credential chain plus any profile, region, endpoint or static
// credential overrides from the manifest.
func NewSecretsManager(cfg config.AWSConfig, opts ...SecretsManagerOption) (*SecretsManager, error) {
	s := &SecretsManager{region: cfg.Region}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		awsCfg, err := loadAWSConfig(cfg)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*secretsmanager.Options)
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		s.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	}

	return s, nil
}

// loadAWSConfig builds an aws.Config from manifest overrides. Shared by the
// Secrets Manager and Parameter Store backends.
func loadAWSConfig(cfg config.AWSConfig) (aws.Config, error) {
	var configOpts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Credentials != nil {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Credentials.AccessKeyID, cfg.Credentials.AccessKeySecret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, store.AuthError{
			Store:   config.ProviderAWS,
			Message: "failed to load AWS configuration: " + err.Error(),
		}
	}
	return awsCfg, nil
}

// Name returns the backend identifier.
func (s *SecretsManager) Name() string {
	return config.ProviderAWS
}

// Exists reports whether the secret already exists remotely.
func (s *SecretsManager) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: &name,
	})
	if err != nil {
		if isAWSNotFound(err) {
			return false, nil
		}
		return false, s.classify("describe", name, err)
	}
	return true, nil
}

// Fetch retrieves and decodes the secret's current value.
func (s *SecretsManager) Fetch(ctx context.Context, name string) (store.Values, error) {
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &name,
	})
	if err != nil {
		return store.Values{}, s.classify("fetch", name, err)
	}

	var payload []byte
	switch {
	case result.SecretString != nil:
		payload = []byte(*result.SecretString)
	case result.SecretBinary != nil:
		payload = result.SecretBinary
	default:
		return store.Values{}, store.TransportError{
			Store: s.Name(),
			Op:    "fetch",
			Err:   errors.New("secret " + name + " has no value"),
		}
	}

	return store.UnmarshalWire(payload)
}

// Create stores a brand-new secret with its one-time metadata. A secret
// that already exists surfaces as a ConflictError so the caller can fall
// back to Update.
func (s *SecretsManager) Create(ctx context.Context, name string, values store.Values, meta store.Metadata) error {
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}
	body := string(payload)

	input := &secretsmanager.CreateSecretInput{
		Name:         &name,
		SecretString: &body,
	}
	if meta.Description != "" {
		input.Description = &meta.Description
	}
	for key, value := range meta.Tags {
		k, v := key, value
		input.Tags = append(input.Tags, types.Tag{Key: &k, Value: &v})
	}

	if _, err := s.client.CreateSecret(ctx, input); err != nil {
		return s.classify("create", name, err)
	}
	return nil
}

// Update writes a new version of an existing secret. Metadata is never
// touched on update.
func (s *SecretsManager) Update(ctx context.Context, name string, values store.Values) error {
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}
	body := string(payload)

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     &name,
		SecretString: &body,
	})
	if err != nil {
		return s.classify("update", name, err)
	}
	return nil
}

// Capabilities returns the backend capabilities.
func (s *SecretsManager) Capabilities() store.Capabilities {
	return store.Capabilities{
		SupportsMetadata: true,
		RequiresAuth:     true,
		AuthMethods:      []string{"aws-credentials", "iam-role", "environment-variables"},
	}
}

// classify maps AWS SDK errors onto the shared store error types.
func (s *SecretsManager) classify(op, name string, err error) error {
	switch {
	case isAWSNotFound(err):
		return store.NotFoundError{Store: s.Name(), Name: name}
	case isAWSConflict(err):
		return store.ConflictError{Store: s.Name(), Name: name}
	case isAWSAuthError(err):
		return store.AuthError{Store: s.Name(), Message: err.Error()}
	default:
		return store.TransportError{Store: s.Name(), Op: op, Err: err}
	}
}

func isAWSNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}

func isAWSConflict(err error) bool {
	var exists *types.ResourceExistsException
	return errors.As(err, &exists)
}

func isAWSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "InvalidUserID") ||
		strings.Contains(errStr, "ExpiredToken") ||
		strings.Contains(errStr, "Forbidden")
}

var _ store.Store = (*SecretsManager)(nil)
