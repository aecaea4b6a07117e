package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError_Formatting(t *testing.T) {
	err := UserError{
		Message:    "Failed to read secret file",
		Details:    "permission denied",
		Suggestion: "Check file permissions",
	}

	msg := err.Error()
	assert.Contains(t, msg, "Failed to read secret file")
	assert.Contains(t, msg, "Details: permission denied")
	assert.Contains(t, msg, "Try: Check file permissions")
}

func TestUserError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := UserError{Message: "outer", Err: inner}

	assert.True(t, errors.Is(err, inner))
}

func TestUserError_FallsBackToWrapped(t *testing.T) {
	err := UserError{Err: errors.New("only the inner message")}
	assert.Contains(t, err.Error(), "only the inner message")
}

func TestConfigError_Formatting(t *testing.T) {
	err := ConfigError{
		Field:      "backend.provider",
		Value:      "vault",
		Message:    "unsupported provider",
		Suggestion: "Use one of: aws, aws-ssm, gcp, azure, keyring",
	}

	msg := err.Error()
	assert.Contains(t, msg, "field 'backend.provider'")
	assert.Contains(t, msg, "value: vault")
	assert.Contains(t, msg, "unsupported provider")
	assert.Contains(t, msg, "aws, aws-ssm")
}

func TestStoreError_Suggestions(t *testing.T) {
	tests := []struct {
		backend string
		err     string
		expect  string
	}{
		{"aws", "AccessDenied: not allowed", "IAM permissions"},
		{"aws", "operation error: ThrottlingException", "rate limit"},
		{"gcp", "rpc error: code = PermissionDenied", "gcloud auth"},
		{"azure", "GET 403 forbidden", "az login"},
		{"keyring", "secret not found", "push first"},
		{"aws", "dial tcp: connection refused", "Check your network"},
	}

	for _, tt := range tests {
		err := StoreError(tt.backend, "fetch", errors.New(tt.err))
		assert.Contains(t, err.Error(), tt.expect, "%s / %s", tt.backend, tt.err)
		assert.Contains(t, err.Error(), tt.backend+" backend error during fetch")
	}
}
