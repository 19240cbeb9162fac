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
)

const (
	TableMagic     = 0x70617274 // 'part'
	BadBlockMagic  = 0x42616421 // 'bad!'
	MaxEntries     = 16
	MaxNameLen     = 15
	TableSize      = 2 * tableSectorSize
	TableBlocks    = TableSize / BlockSize
	recordSize     = 28
	recordFlagUsed = 1

	tableSectorSize = 512
)

var ErrNoTable = errors.New("no RISC iX partition table")

// record is one on-disk partition entry. Start and length are counted in
// cylinders of 256-byte sectors, twice the number of 512-byte cylinders.
type record struct {
	Start  uint32
	Length uint32
	Flags  uint32
	Name   [16]byte
}

// TableOffset returns the absolute byte offset of a table stored at cyl.
func TableOffset(g Geometry, cyl int) int64 {
	return int64(cyl) * g.CylinderBytes()
}

// MarshalTable encodes t into the 1024-byte structure scanned by the RISC iX
// IDE driver: the partition table sector followed by an empty bad block table.
func MarshalTable(t *Table, g Geometry) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(t.Entries) > MaxEntries {
		return nil, fmt.Errorf("too many partitions: %d (max %d)", len(t.Entries), MaxEntries)
	}

	cyl := g.CylinderBlocks()

	var buf bytes.Buffer
	buf.Grow(TableSize)

	// bytes.Buffer writes never fail
	_ = binary.Write(&buf, binary.LittleEndian, uint32(TableMagic))

	for _, e := range t.Entries {
		if e.Start%cyl != 0 || e.Length%cyl != 0 {
			return nil, fmt.Errorf("partition %d (%s) is not cylinder aligned", e.Index, e.Name)
		}
		if e.Length <= 0 {
			return nil, fmt.Errorf("partition %d (%s) is empty", e.Index, e.Name)
		}

		start, length := 2*(e.Start/cyl), 2*(e.Length/cyl)
		if start > 0xFFFFFFFF || length > 0xFFFFFFFF {
			return nil, fmt.Errorf("partition %d (%s) does not fit the record fields", e.Index, e.Name)
		}

		name, err := recordName(e)
		if err != nil {
			return nil, err
		}

		_ = binary.Write(&buf, binary.LittleEndian, &record{
			Start:  uint32(start),
			Length: uint32(length),
			Flags:  recordFlagUsed,
			Name:   name,
		})
	}
	buf.Write(make([]byte, tableSectorSize-buf.Len()))

	_ = binary.Write(&buf, binary.LittleEndian, uint32(BadBlockMagic))
	buf.Write(make([]byte, TableSize-buf.Len()))

	return buf.Bytes(), nil
}

func recordName(e Entry) ([16]byte, error) {
	var name [16]byte

	s := e.Name
	if s == "" {
		s = e.Role.DefaultName()
	}
	if len(s) > MaxNameLen {
		return name, fmt.Errorf("partition name %q is longer than %d bytes", s, MaxNameLen)
	}
	for _, c := range []byte(s) {
		if c < 0x20 || c > 0x7E {
			return name, fmt.Errorf("partition name %q is not printable ASCII", s)
		}
	}
	copy(name[:], s)
	return name, nil
}

// UnmarshalTable decodes a table previously read from cylinder cyl.
// It returns ErrNoTable if data does not start with the table magic.
func UnmarshalTable(data []byte, g Geometry, cyl int) (*Table, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(data) < tableSectorSize {
		return nil, fmt.Errorf("short partition table: %d bytes", len(data))
	}

	if magic := binary.LittleEndian.Uint32(data); magic != TableMagic {
		return nil, fmt.Errorf("%w (magic 0x%08X, should be 0x%08X)", ErrNoTable, magic, uint32(TableMagic))
	}

	cylBlocks := g.CylinderBlocks()
	t := &Table{
		Location: Location{
			Cylinder: cyl,
			Block:    int64(cyl) * cylBlocks,
		},
		Reserved: int64(cyl+1) * cylBlocks,
	}

	r := bytes.NewReader(data[4 : 4+MaxEntries*recordSize])
	for i := 0; i < MaxEntries; i++ {
		var rec record
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
		if rec.Start == 0 || rec.Length == 0 {
			break
		}

		if rec.Start%2 != 0 || rec.Length%2 != 0 {
			return nil, fmt.Errorf("partition %d: start %d and length %d must be whole cylinders (even driver units)",
				i, rec.Start, rec.Length)
		}

		name := strings.TrimRight(string(rec.Name[:]), "\x00")
		role := roleFromName(name)
		t.Entries = append(t.Entries, Entry{
			Index:   i,
			Name:    name,
			Role:    role,
			Start:   int64(rec.Start/2) * cylBlocks,
			Length:  int64(rec.Length/2) * cylBlocks,
			Limited: role.Limited(),
		})
	}
	return t, nil
}

func roleFromName(name string) Role {
	switch name {
	case RoleRoot.DefaultName():
		return RoleRoot
	case RoleSwap.DefaultName():
		return RoleSwap
	}
	return RoleOther
}
