// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package image

import (
	"errors"
	"fmt"
	"io"

	"github.com/ostafen/hccspart/internal/check"
	"github.com/ostafen/hccspart/internal/disk"
	"github.com/ostafen/hccspart/internal/fs"
	"github.com/ostafen/hccspart/internal/logger"
)

var ErrNoBootBlock = errors.New("no FileCore boot block found")

// Image is an Armstrong-Walker IDEFS disc image opened for partitioning.
type Image struct {
	f          fs.File
	log        *logger.Logger
	Partitions []disk.Partition

	// MBR is set when the first sector holds a PC partition table.
	MBR *disk.MBR
}

// Open opens the image at path for reading and writing.
func Open(path string, log *logger.Logger) (*Image, error) {
	return open(path, true, log)
}

// OpenReadOnly opens the image at path for inspection only. WriteTable fails
// on images opened this way.
func OpenReadOnly(path string, log *logger.Logger) (*Image, error) {
	return open(path, false, log)
}

func open(path string, writable bool, log *logger.Logger) (*Image, error) {
	f, err := fs.Open(path, writable)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %q: %w", path, err)
	}

	im, err := New(f, log)
	if err != nil {
		f.Close()
		return nil, err
	}
	return im, nil
}

// New wraps an already open file and discovers its FileCore partitions.
func New(f fs.File, log *logger.Logger) (*Image, error) {
	partitions, err := DiscoverPartitions(f, f.Size(), log)
	if err != nil {
		return nil, err
	}
	return &Image{
		f:          f,
		log:        log,
		Partitions: partitions,
		MBR:        detectMBR(f, log),
	}, nil
}

func detectMBR(r io.ReaderAt, log *logger.Logger) *disk.MBR {
	sector := make([]byte, disk.BlockSize)
	if _, err := r.ReadAt(sector, 0); err != nil {
		return nil
	}

	mbr, err := disk.ParseMBR(sector)
	if err != nil {
		return nil
	}
	log.Warnf("found a PC partition table with %d entries", len(mbr.Entries))
	return mbr
}

func (im *Image) Close() error {
	return im.f.Close()
}

func (im *Image) Name() string {
	return im.f.Name()
}

func (im *Image) Size() int64 {
	return im.f.Size()
}

// DiscoverPartitions follows the chain of FileCore partitions created by the
// IDEFS partitioning tool. Each partition has a boot block at offset 0xC00 and
// the next one starts where the disc record says the current one ends.
func DiscoverPartitions(r io.ReaderAt, size int64, log *logger.Logger) ([]disk.Partition, error) {
	var partitions []disk.Partition

	var offset int64
	for offset+disk.BootBlockOffset+disk.BootBlockSize <= size {
		buf := make([]byte, disk.BootBlockSize)
		if _, err := r.ReadAt(buf, offset+disk.BootBlockOffset); err != nil {
			return nil, fmt.Errorf("failed to read boot block at 0x%x: %w", offset+disk.BootBlockOffset, err)
		}

		bb, err := disk.ParseBootBlock(buf)
		if err != nil {
			log.Debugf("rejected potential RISC OS partition at 0x%x: %s", offset, err)
			break
		}

		discSize := int64(bb.DiscRecord.DiscSize)
		if discSize < disk.BootBlockOffset+disk.BootBlockSize || offset+discSize > size {
			log.Debugf("rejected RISC OS partition at 0x%x: disc size %d does not fit the image", offset, discSize)
			break
		}

		partitions = append(partitions, disk.Partition{
			Num:       len(partitions),
			Offset:    uint64(offset),
			Size:      uint64(discSize),
			BootBlock: bb,
		})
		offset += discSize
	}
	return partitions, nil
}

// InferGeometry derives the drive geometry from the first disc record, or
// fits the conventional IDE geometry to the image size when there is none.
func (im *Image) InferGeometry() (disk.Geometry, error) {
	if len(im.Partitions) == 0 {
		g := disk.Geometry{
			Heads:           check.ConventionalHeads,
			SectorsPerTrack: check.ConventionalSectors,
		}
		g.Cylinders = int(im.Size() / g.CylinderBytes())
		if err := g.Validate(); err != nil {
			return disk.Geometry{}, fmt.Errorf("image is too small (%d bytes): %w", im.Size(), err)
		}
		return g, nil
	}

	rec := im.Partitions[0].BootBlock.DiscRecord
	if rec.SectorSize() != disk.BlockSize {
		return disk.Geometry{}, fmt.Errorf("unsupported sector size %d in disc record", rec.SectorSize())
	}

	g := rec.Geometry(im.Size())
	if err := g.Validate(); err != nil {
		return disk.Geometry{}, fmt.Errorf("disc record of %q: %w", rec.DiscName(), err)
	}
	return g, nil
}

// InferReserved returns the end of the region owned by RISC OS and the
// partition table, in blocks.
func (im *Image) InferReserved(g disk.Geometry) (int64, error) {
	if len(im.Partitions) == 0 {
		return 0, ErrNoBootBlock
	}

	cyl := g.CylinderBlocks()

	first := im.Partitions[0]
	if tableCyl, ok := first.BootBlock.RISCiXCylinder(); ok {
		return int64(tableCyl+1) * cyl, nil
	}

	// The table goes in the first whole cylinder after the RISC OS partition.
	riscos := disk.AlignUp(int64(first.End()), g.CylinderBytes()) / disk.BlockSize
	return riscos + cyl, nil
}

// ReadTable reads the RISC iX table linked from the first boot block.
func (im *Image) ReadTable(g disk.Geometry) (*disk.Table, error) {
	if len(im.Partitions) == 0 {
		return nil, fmt.Errorf("%w: %w", disk.ErrNoTable, ErrNoBootBlock)
	}

	first := im.Partitions[0]
	cyl, ok := first.BootBlock.RISCiXCylinder()
	if !ok {
		return nil, disk.ErrNoTable
	}

	buf := make([]byte, disk.TableSize)
	off := disk.TableOffset(g, cyl)
	if _, err := im.f.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("failed to read partition table at 0x%x: %w", off, err)
	}
	return disk.UnmarshalTable(buf, g, cyl)
}

// converted returns the FileCore partitions after the first one that reach
// into the area handed over to RISC iX.
func (im *Image) converted(t *disk.Table) []disk.Partition {
	var out []disk.Partition
	for _, p := range im.Partitions[min(1, len(im.Partitions)):] {
		if int64(p.End()) > t.Location.Block*disk.BlockSize {
			out = append(out, p)
		}
	}
	return out
}

// Check reports problems specific to this image.
func (im *Image) Check(t *disk.Table, g disk.Geometry) check.Report {
	var report check.Report

	if im.MBR != nil {
		report = append(report, check.Finding{
			Severity: check.Error,
			Check:    "foreign",
			Message: fmt.Sprintf("the image carries a PC partition table (%s); it is not an IDEFS disc",
				im.MBR.Entries[0]),
		})
	}

	if len(im.Partitions) == 0 {
		report = append(report, check.Finding{
			Severity: check.Error,
			Check:    "boot-block",
			Message:  "no FileCore boot block found; the driver will not find the table. Partition the disc with !IDEMgr first",
		})
	} else {
		first := im.Partitions[0]
		if t.Location.Block*disk.BlockSize < int64(first.End()) {
			report = append(report, check.Finding{
				Severity: check.Error,
				Check:    "location",
				Message: fmt.Sprintf("table at byte 0x%x lies inside RISC OS partition %q ending at 0x%x",
					t.Location.Block*disk.BlockSize, first.BootBlock.DiscRecord.DiscName(), first.End()),
			})
		}
	}

	if imgBlocks := im.Size() / disk.BlockSize; g.Capacity() > imgBlocks {
		report = append(report, check.Finding{
			Severity: check.Error,
			Check:    "geometry",
			Message: fmt.Sprintf("geometry %s describes %d blocks but the image only holds %d; reduce the cylinder count",
				g, g.Capacity(), imgBlocks),
		})
	}

	for _, p := range im.converted(t) {
		report = append(report, check.Finding{
			Severity: check.Warning,
			Check:    "erase",
			Message: fmt.Sprintf("RISC OS partition %q at 0x%x will be erased and used for RISC iX",
				p.BootBlock.DiscRecord.DiscName(), p.Offset),
		})
	}
	return report
}

type write struct {
	off  int64
	data []byte
	what string
}

func (w write) overlaps(o write) bool {
	return w.off < o.off+int64(len(o.data)) && o.off < w.off+int64(len(w.data))
}

// WriteTable writes t to the image and links it from the first boot block.
//
// Nothing is written unless every region has been encoded. Boot blocks of
// converted partitions are erased first, since one may share bytes with the
// table. The descriptor goes last so that it never points at a table that
// was not written.
func (im *Image) WriteTable(t *disk.Table, g disk.Geometry) error {
	data, err := disk.MarshalTable(t, g)
	if err != nil {
		return err
	}

	var writes []write
	for _, p := range im.converted(t) {
		writes = append(writes, write{
			off:  int64(p.Offset) + disk.BootBlockOffset,
			data: make([]byte, disk.BootBlockSize),
			what: fmt.Sprintf("boot block of %q", p.BootBlock.DiscRecord.DiscName()),
		})
	}

	table := write{
		off:  disk.TableOffset(g, t.Location.Cylinder),
		data: data,
		what: "partition table",
	}
	writes = append(writes, table)

	var bb *disk.BootBlock
	if len(im.Partitions) > 0 {
		first := im.Partitions[0]

		patched := *first.BootBlock
		if err := patched.SetRISCiXCylinder(t.Location.Cylinder); err != nil {
			return err
		}
		bb = &patched

		desc := write{
			off:  int64(first.Offset) + disk.BootBlockOffset,
			data: bb.Bytes(),
			what: "RISC iX descriptor",
		}
		if desc.overlaps(table) {
			return fmt.Errorf("%s at 0x%x would overwrite the %s at 0x%x", desc.what, desc.off, table.what, table.off)
		}
		writes = append(writes, desc)
	} else {
		im.log.Warn("no FileCore boot block: writing the table without a descriptor")
	}

	for _, w := range writes {
		im.log.Debugf("writing %s (%d bytes) at 0x%x", w.what, len(w.data), w.off)

		if _, err := im.f.WriteAt(w.data, w.off); err != nil {
			return fmt.Errorf("failed to write %s at 0x%x: %w", w.what, w.off, err)
		}
	}

	if err := im.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %q: %w", im.Name(), err)
	}

	if bb != nil {
		im.Partitions[0].BootBlock = bb
	}
	return nil
}
