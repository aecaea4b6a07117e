package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/systmms/secretsync/internal/config"
	sserrors "github.com/systmms/secretsync/internal/errors"
	"github.com/systmms/secretsync/internal/logging"
	"github.com/systmms/secretsync/internal/report"
	"github.com/systmms/secretsync/internal/stores"
	"github.com/systmms/secretsync/internal/sync"
	"github.com/systmms/secretsync/pkg/store"
)

// Options carries the global flag state and the seams commands share.
// main wires the real implementations; command tests substitute them.
type Options struct {
	ConfigPath string
	Format     string
	NoColor    bool
	Debug      bool
	Profile    string
	Region     string

	Logger *logging.Logger
	Stdout io.Writer

	// NewStore builds the backend for a loaded manifest. Defaults to
	// the stores factory; tests inject memory stores here.
	NewStore func(*config.Manifest) (store.Store, error)

	// WorkDir overrides the discovery start directory (tests).
	WorkDir string
}

func (o *Options) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o *Options) logger() *logging.Logger {
	if o.Logger == nil {
		o.Logger = logging.New(o.Debug, o.NoColor)
	}
	return o.Logger
}

func (o *Options) newStore(m *config.Manifest) (store.Store, error) {
	if o.NewStore != nil {
		return o.NewStore(m)
	}
	return stores.FromManifest(m)
}

// loadManifest loads the manifest from --config, or discovers it by
// walking up from the working directory, then applies the AWS flag
// overrides.
func (o *Options) loadManifest() (*config.Manifest, error) {
	path := o.ConfigPath
	if path == "" {
		var err error
		startDir := o.WorkDir
		if startDir == "" {
			startDir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("determining current directory: %w", err)
			}
		}
		path, err = config.Discover(startDir)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, sserrors.UserError{
					Message:    "No secret-sync manifest found",
					Details:    err.Error(),
					Suggestion: "Run 'secretsync init' to create one, or pass --config",
					Err:        err,
				}
			}
			return nil, err
		}
	}

	m, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	o.applyOverrides(m)
	return m, nil
}

// applyOverrides folds the --profile and --region flags into the AWS
// backend settings, mirroring the environment-switching workflow of the
// original tool.
func (o *Options) applyOverrides(m *config.Manifest) {
	if o.Profile != "" {
		m.AWS.Profile = o.Profile
	}
	if o.Region != "" {
		m.AWS.Region = o.Region
	}
}

// selectEntries resolves the --file and --glob filters into engine entries.
func selectEntries(m *config.Manifest, files, globs []string) ([]sync.Entry, error) {
	keys, err := m.SelectEntries(files, globs)
	if err != nil {
		return nil, err
	}

	entries := make([]sync.Entry, 0, len(keys))
	for _, key := range keys {
		fe := m.Files[key]
		entries = append(entries, sync.Entry{
			Key:    key,
			Path:   m.ResolvePath(fe),
			Secret: fe.Secret,
			Codec:  fe.Codec,
			Metadata: store.Metadata{
				Description: fe.Metadata.Description,
				Tags:        fe.Metadata.Tags,
			},
		})
	}
	return entries, nil
}

// renderOutcomes reports the run and converts failed outcomes into a
// command error so the process exits non-zero.
func (o *Options) renderOutcomes(outcomes []sync.Outcome, runErr error) error {
	format, err := report.ParseFormat(o.Format)
	if err != nil {
		return err
	}

	summary, err := report.New(o.stdout(), o.NoColor).Render(format, outcomes)
	if err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if !summary.OK() {
		return fmt.Errorf("%d of %d entries failed", summary.Failed, summary.Total)
	}
	return nil
}
