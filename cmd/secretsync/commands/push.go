package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/secretsync/internal/codec"
	"github.com/systmms/secretsync/internal/sync"
)

// NewPushCommand uploads local files to their remote secrets.
func NewPushCommand(opts *Options) *cobra.Command {
	var (
		files  []string
		globs  []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload local files to the remote secret store",
		Long: `Read every declared local file and reconcile the backend with it:
missing secrets are created with their manifest metadata, changed
secrets get a new version, matching secrets are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.loadManifest()
			if err != nil {
				return err
			}
			entries, err := selectEntries(m, files, globs)
			if err != nil {
				return err
			}

			s, err := opts.newStore(m)
			if err != nil {
				return err
			}

			engine := sync.NewEngine(s, codec.NewRegistry(), opts.logger())
			engine.DryRun = dryRun

			outcomes, runErr := engine.Push(cmd.Context(), entries)
			return opts.renderOutcomes(outcomes, runErr)
		},
	}

	cmd.Flags().StringArrayVar(&files, "file", nil, "Sync only this manifest entry (repeatable)")
	cmd.Flags().StringArrayVar(&globs, "glob", nil, "Sync entries matching this pattern (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without touching the backend")

	return cmd
}
