package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", ".env")
	require.NoError(t, writeFileAtomic(path, []byte("KEY=value\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "KEY=value\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteFileAtomicFailedWriteKeepsExistingFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEY=original\n"), 0o600))

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o700) })

	err := writeFileAtomic(path, []byte("KEY=replacement\n"))
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "KEY=original\n", string(data))
}

func TestWriteFileAtomicFailedDirCreationKeepsConflictingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "secrets")
	require.NoError(t, os.WriteFile(blocker, []byte("KEY=original\n"), 0o600))

	err := writeFileAtomic(filepath.Join(blocker, ".env"), []byte("KEY=new\n"))
	require.Error(t, err)

	data, err := os.ReadFile(blocker)
	require.NoError(t, err)
	assert.Equal(t, "KEY=original\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteFileAtomicReplacesAndLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, writeFileAtomic(path, []byte("KEY=old\n")))
	require.NoError(t, writeFileAtomic(path, []byte("KEY=new\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "KEY=new\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".env", entries[0].Name())
}
