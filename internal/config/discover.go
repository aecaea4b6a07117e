package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Manifest filenames recognized during discovery, probed in order.
var manifestNames = []string{
	"secret-sync.toml",
	"secret-sync.yaml",
	"secret-sync.json",
}

// ErrConfigNotFound is returned when no manifest exists in the start
// directory or any of its ancestors.
var ErrConfigNotFound = errors.New("no secret-sync manifest found in this directory or any parent")

// Discover walks from startDir upward through parent directories and
// returns the path of the nearest manifest file. Returns ErrConfigNotFound
// when the filesystem root is reached without a hit.
func Discover(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}

	for {
		for _, name := range manifestNames {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err != nil {
				continue
			}
			if info.IsDir() {
				return "", fmt.Errorf("expected %s to be a file, found a directory", candidate)
			}
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}

// DiscoverFromCwd runs Discover from the current working directory.
func DiscoverFromCwd() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determining current directory: %w", err)
	}
	return Discover(cwd)
}
