package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/secretsync/internal/codec"
	"github.com/systmms/secretsync/internal/sync"
)

// NewPullCommand downloads remote secrets into their local files.
func NewPullCommand(opts *Options) *cobra.Command {
	var (
		files  []string
		globs  []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download remote secrets into local files",
		Long: `Fetch every declared secret from the configured backend and write it
to its local file. Files are written atomically with owner-only
permissions; a file already matching its remote secret is left alone.`,
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

			outcomes, runErr := engine.Pull(cmd.Context(), entries)
			return opts.renderOutcomes(outcomes, runErr)
		},
	}

	cmd.Flags().StringArrayVar(&files, "file", nil, "Sync only this manifest entry (repeatable)")
	cmd.Flags().StringArrayVar(&globs, "glob", nil, "Sync entries matching this pattern (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing files")

	return cmd
}
