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
	"encoding/binary"
	"fmt"
)

const (
	mbrEntriesOffset   = 0x1BE
	mbrEntrySize       = 16
	mbrSignatureOffset = 0x1FE
	mbrSignature       = 0xAA55
)

// MBREntry is one of the four primary entries of a PC partition table.
type MBREntry struct {
	BootIndicator uint8
	Type          uint8
	StartLBA      uint32
	TotalSectors  uint32
}

func (e MBREntry) String() string {
	return fmt.Sprintf("type 0x%02X, start %d, %d sectors", e.Type, e.StartLBA, e.TotalSectors)
}

// MBR is the PC partition table found in the first sector of a disc.
// FileCore discs leave this sector unused, so a valid one means the image
// belongs to another system.
type MBR struct {
	Entries []MBREntry
}

// ParseMBR parses the first sector of a disc. It fails unless the sector
// carries the 0xAA55 signature and at least one sane, non-empty entry.
func ParseMBR(data []byte) (*MBR, error) {
	if len(data) != BlockSize {
		return nil, fmt.Errorf("input data slice size mismatch: expected %d bytes, got %d bytes", BlockSize, len(data))
	}

	if sig := binary.LittleEndian.Uint16(data[mbrSignatureOffset:]); sig != mbrSignature {
		return nil, fmt.Errorf("invalid MBR signature: expected 0x%04X, got 0x%04X", mbrSignature, sig)
	}

	var mbr MBR
	for i := 0; i < 4; i++ {
		raw := data[mbrEntriesOffset+i*mbrEntrySize:]

		e := MBREntry{
			BootIndicator: raw[0x00],
			Type:          raw[0x04],
			StartLBA:      binary.LittleEndian.Uint32(raw[0x08:]),
			TotalSectors:  binary.LittleEndian.Uint32(raw[0x0C:]),
		}
		if e.Type == 0 || e.TotalSectors == 0 {
			continue
		}
		if e.BootIndicator != 0 && e.BootIndicator != 0x80 {
			return nil, fmt.Errorf("entry %d has invalid boot indicator 0x%02X", i, e.BootIndicator)
		}
		mbr.Entries = append(mbr.Entries, e)
	}

	if len(mbr.Entries) == 0 {
		return nil, fmt.Errorf("MBR has no partitions")
	}
	return &mbr, nil
}
