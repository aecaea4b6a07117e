// Package stores provides the remote secret store backends: AWS Secrets
// Manager, AWS SSM Parameter Store, Google Secret Manager, Azure Key Vault
// and the OS keyring. Each backend maps its SDK errors onto the shared
// store error types so the sync engine can classify failures uniformly.
package stores
