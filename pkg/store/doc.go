// Package store defines the capability interface and core types for remote
// secret store backends in secretsync.
//
// A Store holds whole secret files as ordered key-value mappings (Values).
// All backends (AWS Secrets Manager, AWS Parameter Store, Google Secret
// Manager, Azure Key Vault, OS keyring) implement the same four operations:
//
//   - Exists reports whether a named secret is present
//   - Fetch retrieves a secret's value mapping
//   - Create writes a brand-new secret, applying creation metadata exactly once
//   - Update replaces the value of an existing secret, never touching metadata
//
// The sync engine depends only on this interface; adding a backend never
// touches sync logic.
//
// # Error Handling
//
// Backends map their SDK errors onto the standard types defined here:
//   - NotFoundError for missing secrets
//   - AuthError for authentication or authorization failures
//   - ConflictError when a Create loses a creation race
//   - TransportError for network-level failures (retryable)
//
// # Threading
//
// Store implementations must be safe for concurrent use; the engine issues
// calls for independent entries in parallel.
package store
