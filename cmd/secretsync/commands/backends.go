package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/secretsync/internal/stores"
)

// NewBackendsCommand lists the available secret store backends.
func NewBackendsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available secret store backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(opts.stdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "BACKEND\tDESCRIPTION\tMETADATA\n")
			fmt.Fprintf(w, "-------\t-----------\t--------\n")
			for _, name := range stores.ProviderNames() {
				desc, meta := backendDescription(name)
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, desc, meta)
			}
			return w.Flush()
		},
	}
}

func backendDescription(name string) (description, metadata string) {
	switch name {
	case "aws":
		return "AWS Secrets Manager", "tags + description"
	case "aws-ssm":
		return "AWS SSM Parameter Store (SecureString)", "tags + description"
	case "gcp":
		return "Google Secret Manager", "labels + annotation"
	case "azure":
		return "Azure Key Vault", "tags"
	case "keyring":
		return "OS keyring (Keychain, Secret Service, Credential Manager)", "none"
	case "memory":
		return "In-memory store for testing", "tags + description"
	default:
		return strings.ToUpper(name), "unknown"
	}
}
