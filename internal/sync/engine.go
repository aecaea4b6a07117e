// Package sync reconciles local secret files with their declared remote
// secrets. The engine runs the pull and push protocols over a set of
// manifest entries, processing them concurrently and reporting one Outcome
// per entry; a failing entry never blocks the others.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/systmms/secretsync/internal/codec"
	"github.com/systmms/secretsync/internal/logging"
	"github.com/systmms/secretsync/pkg/store"
)

// Entry is one unit of sync work: a local file path bound to a remote
// secret name. Key is the manifest entry key used in reports.
type Entry struct {
	Key      string
	Path     string
	Secret   string
	Codec    string
	Metadata store.Metadata
}

const (
	defaultMaxConcurrent = 10
	transportRetries     = 2
	retryBaseBackoff     = 100 * time.Millisecond
)

// Engine orchestrates pull and push runs against one backend.
type Engine struct {
	store  store.Store
	codecs *codec.Registry
	logger *logging.Logger

	// DryRun computes outcomes without writing files or mutating the
	// backend.
	DryRun bool

	// MaxConcurrent caps concurrent entries; 1 means sequential.
	MaxConcurrent int

	// backoff is the initial retry delay, doubled per attempt. Tests
	// shrink it.
	backoff time.Duration
}

// NewEngine creates an engine with default concurrency and retry policy.
func NewEngine(s store.Store, codecs *codec.Registry, logger *logging.Logger) *Engine {
	return &Engine{
		store:         s,
		codecs:        codecs,
		logger:        logger,
		MaxConcurrent: defaultMaxConcurrent,
		backoff:       retryBaseBackoff,
	}
}

// Pull downloads every entry's remote secret into its local file.
// Outcomes come back in input order. The returned error is non-nil only
// for run-level failures (authentication); per-entry problems live in the
// outcomes.
func (e *Engine) Pull(ctx context.Context, entries []Entry) ([]Outcome, error) {
	return e.run(ctx, entries, e.pullEntry)
}

// Push uploads every entry's local file to its remote secret.
func (e *Engine) Push(ctx context.Context, entries []Entry) ([]Outcome, error) {
	return e.run(ctx, entries, e.pushEntry)
}

// run fans the entries out over a bounded worker pool and reassembles
// outcomes in input order. An AuthError from any entry flips the aborted
// flag: entries that have not started yet are skipped, because retrying
// per entry cannot fix bad credentials.
func (e *Engine) run(ctx context.Context, entries []Entry, work func(context.Context, Entry) (Outcome, error)) ([]Outcome, error) {
	outcomes := make([]Outcome, len(entries))
	var aborted atomic.Bool
	var authErr error
	var authMu stdsync.Mutex

	process := func(i int, entry Entry) {
		if ctx.Err() != nil {
			outcomes[i] = Outcome{Key: entry.Key, Status: StatusSkipped, Reason: "run cancelled"}
			return
		}
		if aborted.Load() {
			outcomes[i] = Outcome{Key: entry.Key, Status: StatusSkipped, Reason: "run aborted after authentication failure"}
			return
		}

		outcome, err := work(ctx, entry)
		if err != nil && store.IsAuth(err) {
			aborted.Store(true)
			authMu.Lock()
			if authErr == nil {
				authErr = err
			}
			authMu.Unlock()
		}
		outcomes[i] = outcome
	}

	maxConcurrent := e.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	if maxConcurrent == 1 {
		// Sequential mode keeps entry order exact, which also makes
		// the abort-after-auth-failure cutoff deterministic.
		for i, entry := range entries {
			process(i, entry)
		}
	} else {
		semaphore := make(chan struct{}, maxConcurrent)
		var wg stdsync.WaitGroup
		for i, entry := range entries {
			wg.Add(1)
			go func(i int, entry Entry) {
				defer wg.Done()

				semaphore <- struct{}{}
				defer func() { <-semaphore }()

				process(i, entry)
			}(i, entry)
		}
		wg.Wait()
	}

	for _, o := range outcomes {
		switch o.Status {
		case StatusFailed:
			e.logger.Error("%s: %s", o.Key, o.Reason)
		case StatusSkipped:
			e.logger.Warn("%s: skipped (%s)", o.Key, o.Reason)
		default:
			e.logger.Info("%s: %s", o.Key, o.Status)
		}
	}

	return outcomes, authErr
}

// pullEntry implements the pull protocol for one entry.
func (e *Engine) pullEntry(ctx context.Context, entry Entry) (Outcome, error) {
	values, err := e.fetchWithRetry(ctx, entry.Secret)
	if err != nil {
		if store.IsNotFound(err) {
			return Outcome{
				Key:    entry.Key,
				Status: StatusFailed,
				Reason: fmt.Sprintf("remote secret %q does not exist; push first to create it", entry.Secret),
			}, nil
		}
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, err
	}

	c, err := e.codecs.ForEntry(entry.Codec, entry.Path)
	if err != nil {
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, nil
	}
	encoded := c.Encode(values)

	current, readErr := os.ReadFile(entry.Path)
	fileExists := readErr == nil
	if readErr != nil && !os.IsNotExist(readErr) {
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: readErr.Error()}, nil
	}

	if fileExists && bytes.Equal(current, encoded) {
		return Outcome{Key: entry.Key, Status: StatusUnchanged}, nil
	}

	status := StatusUpdated
	if !fileExists {
		status = StatusCreated
	}

	if e.DryRun {
		e.logger.Debug("dry-run: would write %d bytes to %s", len(encoded), entry.Path)
		return Outcome{Key: entry.Key, Status: status}, nil
	}

	if err := writeFileAtomic(entry.Path, encoded); err != nil {
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, nil
	}
	return Outcome{Key: entry.Key, Status: status}, nil
}

// pushEntry implements the push protocol for one entry.
func (e *Engine) pushEntry(ctx context.Context, entry Entry) (Outcome, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Outcome{
				Key:    entry.Key,
				Status: StatusFailed,
				Reason: fmt.Sprintf("local file %s does not exist", entry.Path),
			}, nil
		}
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, nil
	}

	c, err := e.codecs.ForEntry(entry.Codec, entry.Path)
	if err != nil {
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, nil
	}
	values, err := c.Decode(data)
	if err != nil {
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, nil
	}

	exists, err := e.existsWithRetry(ctx, entry.Secret)
	if err != nil {
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, err
	}

	if !exists {
		if e.DryRun {
			e.logger.Debug("dry-run: would create secret %q", entry.Secret)
			return Outcome{Key: entry.Key, Status: StatusCreated}, nil
		}
		err := e.withRetry(ctx, func() error {
			return e.store.Create(ctx, entry.Secret, values, entry.Metadata)
		})
		if err == nil {
			return Outcome{Key: entry.Key, Status: StatusCreated}, nil
		}
		if !store.IsConflict(err) {
			return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, err
		}
		// Lost the creation race; the secret exists now, so update it.
		err = e.withRetry(ctx, func() error {
			return e.store.Update(ctx, entry.Secret, values)
		})
		if err != nil {
			return Outcome{
				Key:    entry.Key,
				Status: StatusFailed,
				Reason: "create race unresolved: " + err.Error(),
			}, err
		}
		return Outcome{Key: entry.Key, Status: StatusUpdated}, nil
	}

	remote, err := e.fetchWithRetry(ctx, entry.Secret)
	if err != nil {
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, err
	}
	if remote.Equal(values) {
		return Outcome{Key: entry.Key, Status: StatusUnchanged}, nil
	}

	if e.DryRun {
		e.logger.Debug("dry-run: would update secret %q", entry.Secret)
		return Outcome{Key: entry.Key, Status: StatusUpdated}, nil
	}

	err = e.withRetry(ctx, func() error {
		return e.store.Update(ctx, entry.Secret, values)
	})
	if err != nil {
		return Outcome{Key: entry.Key, Status: StatusFailed, Reason: err.Error()}, err
	}
	return Outcome{Key: entry.Key, Status: StatusUpdated}, nil
}

func (e *Engine) fetchWithRetry(ctx context.Context, name string) (store.Values, error) {
	var values store.Values
	err := e.withRetry(ctx, func() error {
		var err error
		values, err = e.store.Fetch(ctx, name)
		return err
	})
	return values, err
}

func (e *Engine) existsWithRetry(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := e.withRetry(ctx, func() error {
		var err error
		exists, err = e.store.Exists(ctx, name)
		return err
	})
	return exists, err
}

// withRetry runs op, retrying transport errors with doubling backoff.
// Everything else fails immediately: not-found, conflict and auth errors
// are deterministic.
func (e *Engine) withRetry(ctx context.Context, op func() error) error {
	backoff := e.backoff
	if backoff <= 0 {
		backoff = retryBaseBackoff
	}

	var err error
	for attempt := 0; attempt <= transportRetries; attempt++ {
		if attempt > 0 {
			e.logger.Debug("retrying after transport error (attempt %d): %v", attempt, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return err
			}
			backoff *= 2
		}
		err = op()
		if err == nil || !store.IsRetryable(err) {
			return err
		}
	}
	return err
}
