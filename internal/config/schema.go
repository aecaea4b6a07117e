package config

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	sserrors "github.com/systmms/secretsync/internal/errors"
)

// manifestSchema is the JSON Schema every parsed manifest document must
// satisfy, regardless of which serialization it arrived in.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "backend": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "provider": {
          "type": "string",
          "enum": ["aws", "aws-ssm", "gcp", "azure", "keyring", "memory"]
        }
      }
    },
    "aws": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "profile": {"type": "string"},
        "region": {"type": "string"},
        "endpoint": {"type": "string"},
        "credentials": {
          "type": "object",
          "additionalProperties": false,
          "required": ["access_key_id", "access_key_secret"],
          "properties": {
            "access_key_id": {"type": "string", "minLength": 1},
            "access_key_secret": {"type": "string", "minLength": 1}
          }
        }
      }
    },
    "gcp": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "project_id": {"type": "string"},
        "credentials_file": {"type": "string"}
      }
    },
    "azure": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "vault_url": {"type": "string"},
        "tenant_id": {"type": "string"},
        "client_id": {"type": "string"},
        "client_secret": {"type": "string"}
      }
    },
    "keyring": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "service": {"type": "string"}
      }
    },
    "files": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "required": ["path", "secret"],
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "secret": {"type": "string", "minLength": 1},
          "codec": {"type": "string", "enum": ["dotenv", "json"]},
          "metadata": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "description": {"type": "string"},
              "tags": {
                "type": "object",
                "additionalProperties": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// validateSchema checks the generic parsed document against the manifest
// schema and folds every violation into a single ConfigError.
func validateSchema(raw map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return sserrors.ConfigError{
			Message:    "manifest validation failed: " + err.Error(),
			Suggestion: "Check the manifest structure against the documentation",
		}
	}

	if result.Valid() {
		return nil
	}

	var problems []string
	for _, violation := range result.Errors() {
		problems = append(problems, violation.String())
	}
	return sserrors.ConfigError{
		Message:    "manifest failed validation: " + strings.Join(problems, "; "),
		Suggestion: "Fix the listed fields; see 'secretsync init' output for a valid example",
	}
}
