package disk_test

import (
	"errors"
	"testing"

	"github.com/ostafen/hccspart/internal/disk"
	"github.com/stretchr/testify/require"
)

func TestGeometryRoundTrip(t *testing.T) {
	geometries := []disk.Geometry{
		{Cylinders: 1, Heads: 1, SectorsPerTrack: 1},
		{Cylinders: 7, Heads: 3, SectorsPerTrack: 5},
		{Cylinders: 12, Heads: 16, SectorsPerTrack: 63},
	}

	for _, g := range geometries {
		var expected int64
		for c := 0; c < g.Cylinders; c++ {
			for h := 0; h < g.Heads; h++ {
				for s := 1; s <= g.SectorsPerTrack; s++ {
					addr := disk.CHS{Cylinder: c, Head: h, Sector: s}

					lba, err := g.ToLBA(addr)
					require.NoError(t, err)
					require.Equal(t, expected, lba, "geometry %s, address %s", g, addr)

					back, err := g.ToCHS(lba)
					require.NoError(t, err)
					require.Equal(t, addr, back)

					expected++
				}
			}
		}
		require.Equal(t, g.Capacity(), expected)
	}
}

func TestGeometryOutOfRange(t *testing.T) {
	g := disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}

	invalid := []disk.CHS{
		{Cylinder: 1038, Head: 0, Sector: 1},
		{Cylinder: -1, Head: 0, Sector: 1},
		{Cylinder: 0, Head: 16, Sector: 1},
		{Cylinder: 0, Head: 0, Sector: 0},
		{Cylinder: 0, Head: 0, Sector: 64},
	}
	for _, addr := range invalid {
		_, err := g.ToLBA(addr)

		var rangeErr *disk.OutOfRangeError
		require.True(t, errors.As(err, &rangeErr), "address %s", addr)
	}

	for _, lba := range []int64{-1, g.Capacity(), g.Capacity() + 100} {
		_, err := g.ToCHS(lba)

		var rangeErr *disk.OutOfRangeError
		require.True(t, errors.As(err, &rangeErr), "block %d", lba)
	}
}

func TestGeometryCapacity(t *testing.T) {
	g := disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}

	require.Equal(t, int64(1008), g.CylinderBlocks())
	require.Equal(t, int64(516096), g.CylinderBytes())
	require.Equal(t, int64(1046304), g.Capacity())

	last, err := g.ToCHS(g.Capacity() - 1)
	require.NoError(t, err)
	require.Equal(t, disk.CHS{Cylinder: 1037, Head: 15, Sector: 63}, last)
}

func TestParseGeometry(t *testing.T) {
	g, err := disk.ParseGeometry(" 1038/16/63 ")
	require.NoError(t, err)
	require.Equal(t, disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}, g)
	require.Equal(t, "1038/16/63", g.String())

	for _, s := range []string{"", "1038/16", "a/16/63", "1038/0/63", "1038/16/-1"} {
		_, err := disk.ParseGeometry(s)
		require.Error(t, err, s)
	}
}
