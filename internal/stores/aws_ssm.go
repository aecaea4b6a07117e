package stores

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/systmms/secretsync/internal/config"
	"github.com/systmms/secretsync/pkg/store"
)

// SSMAPI defines the AWS SSM Parameter Store operations used by the
// backend. This allows for mocking in tests.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// ParameterStore is the AWS SSM Parameter Store backend. Values are stored
// as SecureString parameters encrypted with the account's default KMS key.
type ParameterStore struct {
	client SSMAPI
}

// ParameterStoreOption is a functional option for configuring the backend.
type ParameterStoreOption func(*ParameterStore)

// WithSSMClient sets a custom SSM client (for testing).
func WithSSMClient(client SSMAPI) ParameterStoreOption {
	return func(p *ParameterStore) {
		p.client = client
	}
}

// NewParameterStore creates the SSM Parameter Store backend from manifest
// settings.
func NewParameterStore(cfg config.AWSConfig, opts ...ParameterStoreOption) (*ParameterStore, error) {
	p := &ParameterStore{}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		awsCfg, err := loadAWSConfig(cfg)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*ssm.Options)
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		p.client = ssm.NewFromConfig(awsCfg, clientOpts...)
	}

	return p, nil
}

// Name returns the backend identifier.
func (p *ParameterStore) Name() string {
	return config.ProviderAWSSSM
}

// Exists reports whether the parameter already exists.
func (p *ParameterStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: aws.Bool(false),
	})
	if err != nil {
		if isSSMNotFound(err) {
			return false, nil
		}
		return false, p.classify("describe", name, err)
	}
	return true, nil
}

// Fetch retrieves and decodes the parameter's current value.
func (p *ParameterStore) Fetch(ctx context.Context, name string) (store.Values, error) {
	result, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return store.Values{}, p.classify("fetch", name, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return store.Values{}, store.TransportError{
			Store: p.Name(),
			Op:    "fetch",
			Err:   errors.New("parameter " + name + " has no value"),
		}
	}
	return store.UnmarshalWire([]byte(*result.Parameter.Value))
}

// Create writes a brand-new parameter. Overwrite is left off so a
// concurrent creation surfaces as a ConflictError instead of a silent
// clobber. SSM only accepts tags on non-overwriting puts, which lines up
// with metadata being create-only.
func (p *ParameterStore) Create(ctx context.Context, name string, values store.Values, meta store.Metadata) error {
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}
	body := string(payload)

	input := &ssm.PutParameterInput{
		Name:      &name,
		Value:     &body,
		Type:      ssmtypes.ParameterTypeSecureString,
		Overwrite: aws.Bool(false),
	}
	if meta.Description != "" {
		input.Description = &meta.Description
	}
	for key, value := range meta.Tags {
		k, v := key, value
		input.Tags = append(input.Tags, ssmtypes.Tag{Key: &k, Value: &v})
	}

	if _, err := p.client.PutParameter(ctx, input); err != nil {
		return p.classify("create", name, err)
	}
	return nil
}

// Update overwrites an existing parameter's value.
func (p *ParameterStore) Update(ctx context.Context, name string, values store.Values) error {
	payload, err := values.MarshalWire()
	if err != nil {
		return err
	}
	body := string(payload)

	_, err = p.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      &name,
		Value:     &body,
		Type:      ssmtypes.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return p.classify("update", name, err)
	}
	return nil
}

// Capabilities returns the backend capabilities.
func (p *ParameterStore) Capabilities() store.Capabilities {
	return store.Capabilities{
		SupportsMetadata: true,
		RequiresAuth:     true,
		AuthMethods:      []string{"aws-credentials", "iam-role", "environment-variables"},
	}
}

func (p *ParameterStore) classify(op, name string, err error) error {
	switch {
	case isSSMNotFound(err):
		return store.NotFoundError{Store: p.Name(), Name: name}
	case isSSMConflict(err):
		return store.ConflictError{Store: p.Name(), Name: name}
	case isAWSAuthError(err):
		return store.AuthError{Store: p.Name(), Message: err.Error()}
	default:
		return store.TransportError{Store: p.Name(), Op: op, Err: err}
	}
}

func isSSMNotFound(err error) bool {
	var notFound *ssmtypes.ParameterNotFound
	return errors.As(err, &notFound)
}

func isSSMConflict(err error) bool {
	var exists *ssmtypes.ParameterAlreadyExists
	return errors.As(err, &exists)
}

var _ store.Store = (*ParameterStore)(nil)
