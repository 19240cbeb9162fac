package disk_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ostafen/hccspart/internal/disk"
	"github.com/stretchr/testify/require"
)

func testDiscRecord(size uint32) disk.DiscRecord {
	rec := disk.DiscRecord{
		Log2SectorSize:  9,
		SectorsPerTrack: 63,
		Heads:           16,
		IDLen:           15,
		Log2BPMB:        10,
		Zones:           12,
		DiscSize:        size,
	}
	copy(rec.Name[:], "IDEDisc4")
	return rec
}

func TestBootBlockRoundTrip(t *testing.T) {
	rec := testDiscRecord(100 * 1024 * 1024)
	hw := [12]byte{1, 2, 3}

	data := disk.NewBootBlock(rec, hw).Bytes()
	require.Len(t, data, disk.BootBlockSize)
	require.Equal(t, disk.Sum8(data[:0x1FF]), data[0x1FF])

	bb, err := disk.ParseBootBlock(data)
	require.NoError(t, err)
	require.Equal(t, rec, bb.DiscRecord)
	require.Equal(t, hw, bb.HWParams)
	require.Empty(t, bb.Defects)
	require.Equal(t, 512, bb.DiscRecord.SectorSize())
	require.Equal(t, "IDEDisc4", bb.DiscRecord.DiscName())

	_, ok := bb.RISCiXCylinder()
	require.False(t, ok)
}

func TestBootBlockDescriptor(t *testing.T) {
	bb := disk.NewBootBlock(testDiscRecord(100*1024*1024), [12]byte{})

	require.NoError(t, bb.SetRISCiXCylinder(204))

	data := bb.Bytes()
	require.Equal(t, byte(1), data[0x1FC])
	require.Equal(t, uint16(408), binary.LittleEndian.Uint16(data[0x1FD:]))

	parsed, err := disk.ParseBootBlock(data)
	require.NoError(t, err)

	cyl, ok := parsed.RISCiXCylinder()
	require.True(t, ok)
	require.Equal(t, 204, cyl)

	var rangeErr *disk.OutOfRangeError
	require.True(t, errors.As(bb.SetRISCiXCylinder(0), &rangeErr))
	require.True(t, errors.As(bb.SetRISCiXCylinder(40000), &rangeErr))
}

func TestBootBlockWithDefects(t *testing.T) {
	data := disk.NewBootBlock(testDiscRecord(64*1024*1024), [12]byte{}).Bytes()

	defects := []uint32{0x1000, 0x2000}
	binary.LittleEndian.PutUint32(data[0:], defects[0])
	binary.LittleEndian.PutUint32(data[4:], defects[1])
	binary.LittleEndian.PutUint32(data[8:], 0x20000000|uint32(disk.DefectChecksum(defects)))
	data[0x1FF] = disk.Sum8(data[:0x1FF])

	bb, err := disk.ParseBootBlock(data)
	require.NoError(t, err)
	require.Equal(t, defects, bb.Defects)
}

func TestBootBlockInvalid(t *testing.T) {
	valid := disk.NewBootBlock(testDiscRecord(64*1024*1024), [12]byte{}).Bytes()

	corrupt := func(f func(b []byte)) []byte {
		b := append([]byte(nil), valid...)
		f(b)
		b[0x1FF] = disk.Sum8(b[:0x1FF])
		return b
	}

	cases := map[string][]byte{
		"short":    valid[:100],
		"zeroed":   make([]byte, disk.BootBlockSize),
		"checksum": append(append([]byte(nil), valid[:0x1FF]...), valid[0x1FF]+1),
		"magic": corrupt(func(b []byte) {
			copy(b[0x1B0:], "Bob!")
		}),
		"defect checksum": corrupt(func(b []byte) {
			binary.LittleEndian.PutUint32(b[0:], 0x20000001)
		}),
		"unterminated": corrupt(func(b []byte) {
			for off := 0; off < 0x1C0; off += 4 {
				binary.LittleEndian.PutUint32(b[off:], 0x1000)
			}
		}),
	}

	for name, data := range cases {
		_, err := disk.ParseBootBlock(data)
		require.ErrorIs(t, err, disk.ErrBadBootBlock, name)
	}
}

func TestDiscRecordGeometry(t *testing.T) {
	rec := testDiscRecord(100 * 1024 * 1024)

	g := rec.Geometry(1038 * 16 * 63 * 512)
	require.Equal(t, disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}, g)
}
