package image

import (
	"os"

	"github.com/ostafen/hccspart/internal/disk"
)

// CreateTestImage writes a sparse IDEFS image with the given geometry and a
// chain of FileCore partitions of the given sizes in bytes.
func CreateTestImage(path string, g disk.Geometry, partSizes ...uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Truncate(g.Capacity() * disk.BlockSize); err != nil {
		return err
	}

	var offset int64
	for i, size := range partSizes {
		rec := disk.DiscRecord{
			Log2SectorSize:  9,
			SectorsPerTrack: uint8(g.SectorsPerTrack),
			Heads:           uint8(g.Heads),
			IDLen:           15,
			Log2BPMB:        10,
			DiscSize:        size,
		}
		copy(rec.Name[:], "IDEDisc"+string(rune('4'+i)))

		bb := disk.NewBootBlock(rec, [12]byte{})
		if _, err := f.WriteAt(bb.Bytes(), offset+disk.BootBlockOffset); err != nil {
			return err
		}
		offset += int64(size)
	}
	return f.Sync()
}
