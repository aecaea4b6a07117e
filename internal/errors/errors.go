// Package errors defines user-facing error types with actionable
// suggestions, plus helpers that attach backend-specific hints.
package errors

import (
	"fmt"
	"strings"
)

// UserError is an error shown to the user with helpful context.
type UserError struct {
	Message    string
	Details    string
	Suggestion string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError is a manifest problem with enough context to fix it.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StoreError wraps a backend failure during one operation with a hint.
func StoreError(backend, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s backend error during %s", backend, operation),
		Suggestion: getStoreSuggestion(backend, err),
		Err:        err,
	}
}

// getStoreSuggestion returns help text keyed on backend and error content.
func getStoreSuggestion(backend string, err error) string {
	errStr := err.Error()

	switch backend {
	case "aws", "aws-ssm":
		if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
			return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
		}
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for secretsmanager:* (or ssm:*) on the secret"
		}
		if strings.Contains(errStr, "not found") {
			return "Verify the secret name and region. List secrets with: 'aws secretsmanager list-secrets'"
		}
		if strings.Contains(errStr, "Throttling") {
			return "AWS rate limit exceeded. Wait a moment and try again"
		}

	case "gcp":
		if strings.Contains(errStr, "PermissionDenied") || strings.Contains(errStr, "Unauthenticated") {
			return "Check Google Cloud authentication: 'gcloud auth application-default login'"
		}
		if strings.Contains(errStr, "not found") {
			return "Verify the secret name and project_id. List secrets with: 'gcloud secrets list'"
		}

	case "azure":
		if strings.Contains(errStr, "authentication") || strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
			return "Check Azure credentials: 'az login' or the configured service principal"
		}
		if strings.Contains(errStr, "not found") {
			return "Verify the secret name and vault_url. List secrets with: 'az keyvault secret list'"
		}

	case "keyring":
		if strings.Contains(errStr, "not found") {
			return "The keyring has no item under that name yet; push first"
		}
		return "Check that a Secret Service daemon (gnome-keyring, KWallet) or OS keychain is available"
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and backend configuration"
	}

	return ""
}
