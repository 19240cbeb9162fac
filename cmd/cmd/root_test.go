package cmd_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ostafen/hccspart/cmd/cmd"
	"github.com/ostafen/hccspart/internal/disk"
	"github.com/ostafen/hccspart/internal/image"
	"github.com/ostafen/hccspart/internal/logger"
	"github.com/ostafen/hccspart/internal/plan"
	"github.com/ostafen/hccspart/internal/review"
	"github.com/stretchr/testify/require"
)

var geometry511 = disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}

func createImage(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, image.CreateTestImage(path, geometry511, 100*1024*1024))
	return path
}

func execute(input string, args ...string) (string, error) {
	root := cmd.NewRootCommand()

	if args == nil {
		args = []string{}
	}

	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()
	return out.String(), err
}

func readTable(t *testing.T, path string) (*disk.Table, error) {
	t.Helper()

	im, err := image.OpenReadOnly(path, logger.Discard())
	require.NoError(t, err)
	defer im.Close()

	return im.ReadTable(geometry511)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{nil, cmd.ExitOK},
		{errors.New("boom"), cmd.ExitFailure},
		{&plan.PlanningError{Msg: "no space", Err: plan.ErrInsufficientSpace}, cmd.ExitPlanning},
		{&review.BlockedError{}, cmd.ExitBlocked},
		{fmt.Errorf("run: %w", review.ErrAborted), cmd.ExitAborted},
	}

	for _, tt := range tests {
		require.Equal(t, tt.code, cmd.ExitCode(tt.err), "%v", tt.err)
	}
}

func TestPartitionDefaults(t *testing.T) {
	path := createImage(t)

	out, err := execute("", "--yes", path)
	require.NoError(t, err)
	require.Contains(t, out, "Proposed RISC iX partition table")

	tbl, err := readTable(t, path)
	require.NoError(t, err)
	require.Len(t, tbl.Entries, 2)
	require.Equal(t, 204, tbl.Location.Cylinder)
	require.Equal(t, int64(40320), tbl.Entries[1].Length)
}

func TestPartitionFlags(t *testing.T) {
	path := createImage(t)

	_, err := execute("y\n", "--root", "200", "--swap", "32MiB", "--part", "usr=50MiB", "--part", "20", path)
	require.NoError(t, err)

	tbl, err := readTable(t, path)
	require.NoError(t, err)
	require.Len(t, tbl.Entries, 4)

	cyl := geometry511.CylinderBlocks()
	require.Equal(t, disk.AlignDown(200*2048, cyl), tbl.Entries[0].Length)
	require.Equal(t, disk.AlignDown(32*2048, cyl), tbl.Entries[1].Length)
	require.Equal(t, "usr", tbl.Entries[2].Name)
	require.Equal(t, "part2", tbl.Entries[3].Name)
}

func TestPartitionLayoutFile(t *testing.T) {
	path := createImage(t)

	layout := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(layout, []byte("root: 300MiB\npartitions:\n  - name: usr\n    size: 100MiB\n"), 0o644))

	_, err := execute("", "--yes", "--layout", layout, "--root", "200MiB", path)
	require.NoError(t, err)

	tbl, err := readTable(t, path)
	require.NoError(t, err)
	require.Len(t, tbl.Entries, 3)
	require.Equal(t, disk.AlignDown(200*2048, geometry511.CylinderBlocks()), tbl.Entries[0].Length)
	require.Equal(t, "usr", tbl.Entries[2].Name)
}

func TestPartitionExitCodes(t *testing.T) {
	t.Run("planning", func(t *testing.T) {
		path := createImage(t)
		_, err := execute("", "--yes", "--root", "1GiB", path)
		require.Equal(t, cmd.ExitPlanning, cmd.ExitCode(err))

		_, err = readTable(t, path)
		require.ErrorIs(t, err, disk.ErrNoTable)
	})

	t.Run("blocked", func(t *testing.T) {
		path := createImage(t)
		_, err := execute("", "--yes", "--root", "32MiB", path)
		require.Equal(t, cmd.ExitBlocked, cmd.ExitCode(err))
	})

	t.Run("aborted", func(t *testing.T) {
		path := createImage(t)
		_, err := execute("n\n", path)
		require.Equal(t, cmd.ExitAborted, cmd.ExitCode(err))

		_, err = readTable(t, path)
		require.ErrorIs(t, err, disk.ErrNoTable)
	})

	t.Run("usage", func(t *testing.T) {
		_, err := execute("")
		require.Equal(t, cmd.ExitFailure, cmd.ExitCode(err))

		_, err = execute("", "--geometry", "1/2", createImage(t))
		require.Equal(t, cmd.ExitFailure, cmd.ExitCode(err))
	})

	t.Run("missing image", func(t *testing.T) {
		_, err := execute("", "--yes", filepath.Join(t.TempDir(), "missing.img"))
		require.Equal(t, cmd.ExitFailure, cmd.ExitCode(err))
	})
}

func TestShow(t *testing.T) {
	path := createImage(t)

	out, err := execute("", "show", path)
	require.NoError(t, err)
	require.Contains(t, out, "IDEDisc4")
	require.Contains(t, out, "No RISC iX partition table found")

	_, err = execute("", "--yes", path)
	require.NoError(t, err)

	out, err = execute("", "show", path)
	require.NoError(t, err)
	require.Contains(t, out, "[RISC iX]")
	require.Contains(t, out, "Root")
	require.Contains(t, out, "Swap")
}

func TestVersion(t *testing.T) {
	out, err := execute("", "version")
	require.NoError(t, err)
	require.Contains(t, out, "hccspart")
}
