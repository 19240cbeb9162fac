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
package disk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/ostafen/hccspart/pkg/util/format"
)

const (
	BootBlockOffset = 0xC00 // Offset of the boot block from the start of a FileCore partition
	BootBlockSize   = 0x200

	discRecordOffset = 0x1C0
	descriptorOffset = 0x1FC // RISC iX descriptor: flag byte + uint16 cylinder
	checksumOffset   = 0x1FF

	defectListEnd   = 0x20000000
	hwParamsSize    = 16
	maxDescCylinder = 0xFFFF / 2
)

// HWParamsMagic starts the Armstrong-Walker IDEFS hardware parameter block.
var HWParamsMagic = [4]byte{'A', 'n', 'd', 'y'}

var ErrBadBootBlock = errors.New("invalid FileCore boot block")

// DiscRecord is the FileCore disc record stored at 0x1C0 of the boot block.
type DiscRecord struct {
	Log2SectorSize  uint8    // 0x00
	SectorsPerTrack uint8    // 0x01
	Heads           uint8    // 0x02
	Density         uint8    // 0x03
	IDLen           uint8    // 0x04
	Log2BPMB        uint8    // 0x05 Bytes per map bit
	Skew            uint8    // 0x06
	BootOption      uint8    // 0x07
	LowSector       uint8    // 0x08
	Zones           uint8    // 0x09
	ZoneSpare       uint16   // 0x0A
	Root            uint32   // 0x0C
	DiscSize        uint32   // 0x10 Size of the partition in bytes
	Cycle           uint16   // 0x14
	Name            [10]byte // 0x16
	DiscType        uint32   // 0x20
	Reserved        [24]byte // 0x24
}

func (r *DiscRecord) SectorSize() int {
	return 1 << r.Log2SectorSize
}

func (r *DiscRecord) DiscName() string {
	return strings.TrimRight(string(r.Name[:]), "\x00 ")
}

// Geometry returns the drive geometry implied by the disc record for a disk
// of the given size in bytes.
func (r *DiscRecord) Geometry(diskSize int64) Geometry {
	g := Geometry{
		Heads:           int(r.Heads),
		SectorsPerTrack: int(r.SectorsPerTrack),
	}
	if cyl := g.CylinderBytes(); cyl > 0 {
		g.Cylinders = int(diskSize / cyl)
	}
	return g
}

// BootBlock is the 512-byte FileCore boot block found at offset 0xC00 of an
// IDEFS partition.
type BootBlock struct {
	raw        [BootBlockSize]byte
	Defects    []uint32
	HWParams   [hwParamsSize - 4]byte
	DiscRecord DiscRecord
}

// ParseBootBlock decodes and verifies a boot block.
func ParseBootBlock(data []byte) (*BootBlock, error) {
	if len(data) != BootBlockSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrBadBootBlock, BootBlockSize, len(data))
	}

	if sum := Sum8(data[:checksumOffset]); sum != data[checksumOffset] {
		return nil, fmt.Errorf("%w: bad checksum (0x%02X, should be 0x%02X)", ErrBadBootBlock, data[checksumOffset], sum)
	}

	b := &BootBlock{}
	copy(b.raw[:], data)

	terminated := false
	for off := 0; off < discRecordOffset; off += 4 {
		word := binary.LittleEndian.Uint32(data[off:])
		if word&0xFFFFFF00 != defectListEnd {
			b.Defects = append(b.Defects, word)
			continue
		}
		if byte(word) != DefectChecksum(b.Defects) {
			return nil, fmt.Errorf("%w: bad defect list checksum", ErrBadBootBlock)
		}
		terminated = off+4 <= discRecordOffset-hwParamsSize
		break
	}
	if !terminated {
		return nil, fmt.Errorf("%w: invalid defect list", ErrBadBootBlock)
	}

	hw := data[discRecordOffset-hwParamsSize : discRecordOffset]
	if !bytes.Equal(hw[:4], HWParamsMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic number in hardware parameters (%q, should be %q)",
			ErrBadBootBlock, hw[:4], HWParamsMagic[:])
	}
	copy(b.HWParams[:], hw[4:])

	err := binary.Read(bytes.NewReader(data[discRecordOffset:descriptorOffset]), binary.LittleEndian, &b.DiscRecord)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadBootBlock, err)
	}
	return b, nil
}

// NewBootBlock builds a boot block with an empty defect list.
func NewBootBlock(rec DiscRecord, hwParams [hwParamsSize - 4]byte) *BootBlock {
	b := &BootBlock{
		HWParams:   hwParams,
		DiscRecord: rec,
	}

	binary.LittleEndian.PutUint32(b.raw[0:], defectListEnd|uint32(DefectChecksum(nil)))

	hw := b.raw[discRecordOffset-hwParamsSize : discRecordOffset]
	copy(hw, HWParamsMagic[:])
	copy(hw[4:], hwParams[:])

	var buf bytes.Buffer
	// bytes.Buffer writes never fail
	_ = binary.Write(&buf, binary.LittleEndian, &rec)
	copy(b.raw[discRecordOffset:descriptorOffset], buf.Bytes())

	b.raw[checksumOffset] = Sum8(b.raw[:checksumOffset])
	return b
}

// RISCiXCylinder returns the cylinder of the RISC iX partition table linked
// from this boot block, if any.
func (b *BootBlock) RISCiXCylinder() (int, bool) {
	if b.raw[descriptorOffset] == 0 {
		return 0, false
	}
	// The descriptor counts cylinders of 256-byte sectors.
	return int(binary.LittleEndian.Uint16(b.raw[descriptorOffset+1:])) / 2, true
}

// SetRISCiXCylinder links the boot block to a RISC iX table at cyl.
func (b *BootBlock) SetRISCiXCylinder(cyl int) error {
	if cyl <= 0 || cyl > maxDescCylinder {
		return &OutOfRangeError{Field: "descriptor cylinder", Value: int64(cyl), Min: 1, Max: maxDescCylinder}
	}
	b.raw[descriptorOffset] = 1
	binary.LittleEndian.PutUint16(b.raw[descriptorOffset+1:], uint16(cyl*2))
	b.raw[checksumOffset] = Sum8(b.raw[:checksumOffset])
	return nil
}

// Bytes returns the encoded boot block, checksum included.
func (b *BootBlock) Bytes() []byte {
	out := make([]byte, BootBlockSize)
	copy(out, b.raw[:])
	return out
}

func (b *BootBlock) String() string {
	s := fmt.Sprintf("--- FileCore Boot Block ---\n"+
		"Disc Name: %s\n"+
		"Sector Size: %d\n"+
		"Sectors/Track: %d\n"+
		"Heads: %d\n"+
		"Disc Size: %d bytes (%s)\n"+
		"Defects: %d",
		b.DiscRecord.DiscName(),
		b.DiscRecord.SectorSize(),
		b.DiscRecord.SectorsPerTrack,
		b.DiscRecord.Heads,
		b.DiscRecord.DiscSize, format.FormatBytes(int64(b.DiscRecord.DiscSize)),
		len(b.Defects))

	if cyl, ok := b.RISCiXCylinder(); ok {
		s += fmt.Sprintf("\nRISC iX Table: cylinder %d", cyl)
	}
	return s
}
