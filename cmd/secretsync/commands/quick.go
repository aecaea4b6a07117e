package commands

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/systmms/secretsync/internal/codec"
	"github.com/systmms/secretsync/internal/config"
	"github.com/systmms/secretsync/internal/sync"
)

// NewQuickPullCommand pulls a single ad-hoc file without a manifest entry.
func NewQuickPullCommand(opts *Options) *cobra.Command {
	var path, secret string

	cmd := &cobra.Command{
		Use:   "quick-pull",
		Short: "Pull one secret into one file without a manifest entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuick(cmd, opts, path, secret, false)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Local file to write")
	cmd.Flags().StringVar(&secret, "secret", "", "Remote secret name")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

// NewQuickPushCommand pushes a single ad-hoc file without a manifest entry.
func NewQuickPushCommand(opts *Options) *cobra.Command {
	var path, secret string

	cmd := &cobra.Command{
		Use:   "quick-push",
		Short: "Push one file to one secret without a manifest entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuick(cmd, opts, path, secret, true)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Local file to read")
	cmd.Flags().StringVar(&secret, "secret", "", "Remote secret name")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

// runQuick syncs one explicit path/secret pair. A manifest is used for
// backend settings when one is discoverable, but not required: without
// one the default backend applies.
func runQuick(cmd *cobra.Command, opts *Options, path, secret string, push bool) error {
	m, err := opts.quickManifest()
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	entries := []sync.Entry{{Key: path, Path: abs, Secret: secret}}

	s, err := opts.newStore(m)
	if err != nil {
		return err
	}
	engine := sync.NewEngine(s, codec.NewRegistry(), opts.logger())

	var outcomes []sync.Outcome
	var runErr error
	if push {
		outcomes, runErr = engine.Push(cmd.Context(), entries)
	} else {
		outcomes, runErr = engine.Pull(cmd.Context(), entries)
	}
	return opts.renderOutcomes(outcomes, runErr)
}

// quickManifest loads the manifest if one exists, else falls back to an
// empty manifest with default backend settings.
func (o *Options) quickManifest() (*config.Manifest, error) {
	m, err := o.loadManifest()
	if err == nil {
		return m, nil
	}
	if errors.Is(err, config.ErrConfigNotFound) {
		fallback := &config.Manifest{}
		o.applyOverrides(fallback)
		return fallback, nil
	}
	return nil, err
}
