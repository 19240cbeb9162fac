package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ostafen/hccspart/internal/config"
	"github.com/ostafen/hccspart/internal/disk"
	"github.com/stretchr/testify/require"
)

const testLayout = `
geometry: 1038/16/63
reserved: 100MiB
root: 300
swap: 20MiB
partitions:
  - name: usr
    size: 100MiB
  - size: 10MiB
`

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testLayout), 0644))

	l, err := config.Load(path)
	require.NoError(t, err)

	g, ok, err := l.ParseGeometry()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}, g)

	reserved, err := l.ReservedBlocks()
	require.NoError(t, err)
	require.Equal(t, int64(204800), reserved)

	reqs, err := l.Requests()
	require.NoError(t, err)
	require.Equal(t, []disk.Request{
		{Role: disk.RoleRoot, Blocks: 614400},
		{Role: disk.RoleSwap, Blocks: 40960},
		{Role: disk.RoleOther, Name: "usr", Blocks: 204800},
		{Role: disk.RoleOther, Blocks: 20480},
	}, reqs)
}

func TestParseLayoutErrors(t *testing.T) {
	_, err := config.Parse([]byte("unknown: 1\n"))
	require.Error(t, err)

	l, err := config.Parse([]byte("root: lots\n"))
	require.NoError(t, err)
	_, err = l.Requests()
	require.Error(t, err)

	l, err = config.Parse([]byte("geometry: 1038/16\n"))
	require.NoError(t, err)
	_, _, err = l.ParseGeometry()
	require.Error(t, err)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestEmptyLayout(t *testing.T) {
	l, err := config.Parse([]byte("swap: 30\n"))
	require.NoError(t, err)

	_, ok, err := l.ParseGeometry()
	require.NoError(t, err)
	require.False(t, ok)

	reserved, err := l.ReservedBlocks()
	require.NoError(t, err)
	require.Zero(t, reserved)

	reqs, err := l.Requests()
	require.NoError(t, err)
	require.Equal(t, []disk.Request{{Role: disk.RoleSwap, Blocks: 61440}}, reqs)
}

func TestParseEmptyDocument(t *testing.T) {
	l, err := config.Parse(nil)
	require.NoError(t, err)
	require.Equal(t, &config.Layout{}, l)
}
