package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/hccspart/internal/fs"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0644))

	f, err := fs.Open(path, true)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, int64(4096), f.Size())
	require.Equal(t, path, f.Name())

	_, err = f.WriteAt([]byte("part"), 1024)
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	buf := make([]byte, 4)
	_, err = f.ReadAt(buf, 1024)
	require.NoError(t, err)
	require.Equal(t, "part", string(buf))
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 512), 0644))

	f, err := fs.Open(path, false)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteAt([]byte{1}, 0)
	require.Error(t, err)
}

func TestOpenMissing(t *testing.T) {
	_, err := fs.Open(filepath.Join(t.TempDir(), "missing.img"), false)
	require.ErrorIs(t, err, os.ErrNotExist)
}
