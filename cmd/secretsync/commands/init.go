package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	sserrors "github.com/systmms/secretsync/internal/errors"
)

const starterManifest = `# secret-sync manifest: maps local secret files to remote secrets.
# Run 'secretsync push' to upload, 'secretsync pull' to download.

[backend]
# One of: aws, aws-ssm, gcp, azure, keyring
provider = "aws"

[aws]
# region = "us-east-1"
# profile = "default"

# [gcp]
# project_id = "my-project"

# [azure]
# vault_url = "https://my-vault.vault.azure.net/"

[files.app]
path = ".env"
secret = "myapp/dev/env"

[files.app.metadata]
description = "Application environment for myapp"

[files.app.metadata.tags]
managed-by = "secret-sync"
`

// NewInitCommand writes a starter manifest into the working directory.
func NewInitCommand(opts *Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter secret-sync.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.WorkDir
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return err
				}
			}
			target := filepath.Join(dir, "secret-sync.toml")

			if _, err := os.Stat(target); err == nil && !force {
				return sserrors.UserError{
					Message:    fmt.Sprintf("%s already exists", target),
					Suggestion: "Use --force to overwrite it",
				}
			}

			if err := os.WriteFile(target, []byte(starterManifest), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}

			opts.logger().Info("Created %s", target)
			fmt.Fprintf(opts.stdout(), "Edit %s to declare your secret files, then run 'secretsync push'.\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing manifest")

	return cmd
}
