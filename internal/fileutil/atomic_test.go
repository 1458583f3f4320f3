package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/exposure-watch/internal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic_CreatesAndReplaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, fileutil.WriteAtomic(path, []byte("first"), 0o600))
	require.NoError(t, fileutil.WriteAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAtomic_MissingDirectory(t *testing.T) {
	t.Parallel()

	err := fileutil.WriteAtomic(filepath.Join(t.TempDir(), "nope", "out.txt"), []byte("x"), 0o600)
	require.Error(t, err)
}
