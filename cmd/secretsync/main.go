package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/secretsync/cmd/secretsync/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &commands.Options{}

	rootCmd := &cobra.Command{
		Use:   "secretsync",
		Short: "Keep local secret files and remote secret stores in sync",
		Long: `secretsync reconciles local .env-style files with a remote secret
manager. Declare your files once in secret-sync.toml, then push local
changes up or pull the remote state down.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Manifest path (default: discover secret-sync.{toml,yaml,json} upward)")
	rootCmd.PersistentFlags().StringVar(&opts.Format, "format", "human", "Output format: human or json")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "AWS profile override")
	rootCmd.PersistentFlags().StringVar(&opts.Region, "region", "", "AWS region override")

	rootCmd.AddCommand(
		commands.NewInitCommand(opts),
		commands.NewPullCommand(opts),
		commands.NewPushCommand(opts),
		commands.NewQuickPullCommand(opts),
		commands.NewQuickPushCommand(opts),
		commands.NewBackendsCommand(opts),
	)

	return rootCmd.Execute()
}
