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
	"fmt"
	"strconv"
	"strings"
)

// BlockSize is the size in bytes of a logical block. The IDE driver only
// deals with 512-byte sectors.
const BlockSize = 512

// Geometry describes a drive in cylinder/head/sector terms.
type Geometry struct {
	Cylinders       int
	Heads           int
	SectorsPerTrack int
}

// CHS is a cylinder/head/sector address. Sector numbering starts at 1.
type CHS struct {
	Cylinder int
	Head     int
	Sector   int
}

func (c CHS) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Cylinder, c.Head, c.Sector)
}

// OutOfRangeError is returned when an address does not fit the declared geometry.
type OutOfRangeError struct {
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

func (g Geometry) Validate() error {
	if g.Cylinders <= 0 || g.Heads <= 0 || g.SectorsPerTrack <= 0 {
		return fmt.Errorf("invalid geometry %s: all values must be positive", g)
	}
	return nil
}

// CylinderBlocks returns the number of blocks in one cylinder.
func (g Geometry) CylinderBlocks() int64 {
	return int64(g.Heads) * int64(g.SectorsPerTrack)
}

// CylinderBytes returns the size in bytes of one cylinder.
func (g Geometry) CylinderBytes() int64 {
	return g.CylinderBlocks() * BlockSize
}

// Capacity returns the total number of blocks addressable with g.
func (g Geometry) Capacity() int64 {
	return int64(g.Cylinders) * g.CylinderBlocks()
}

func (g Geometry) String() string {
	return fmt.Sprintf("%d/%d/%d", g.Cylinders, g.Heads, g.SectorsPerTrack)
}

// ToLBA converts a CHS address into a zero based block index.
//
// LBA = (C × heads + H) × sectors + (S - 1)
func (g Geometry) ToLBA(addr CHS) (int64, error) {
	if addr.Cylinder < 0 || addr.Cylinder >= g.Cylinders {
		return 0, &OutOfRangeError{Field: "cylinder", Value: int64(addr.Cylinder), Min: 0, Max: int64(g.Cylinders) - 1}
	}
	if addr.Head < 0 || addr.Head >= g.Heads {
		return 0, &OutOfRangeError{Field: "head", Value: int64(addr.Head), Min: 0, Max: int64(g.Heads) - 1}
	}
	if addr.Sector < 1 || addr.Sector > g.SectorsPerTrack {
		return 0, &OutOfRangeError{Field: "sector", Value: int64(addr.Sector), Min: 1, Max: int64(g.SectorsPerTrack)}
	}

	track := int64(addr.Cylinder)*int64(g.Heads) + int64(addr.Head)
	return track*int64(g.SectorsPerTrack) + int64(addr.Sector-1), nil
}

// ToCHS converts a zero based block index into a CHS address.
func (g Geometry) ToCHS(lba int64) (CHS, error) {
	if lba < 0 || lba >= g.Capacity() {
		return CHS{}, &OutOfRangeError{Field: "block", Value: lba, Min: 0, Max: g.Capacity() - 1}
	}

	spt := int64(g.SectorsPerTrack)
	track := lba / spt
	return CHS{
		Cylinder: int(track / int64(g.Heads)),
		Head:     int(track % int64(g.Heads)),
		Sector:   int(lba%spt) + 1,
	}, nil
}

// ParseGeometry parses a geometry in the form "cylinders/heads/sectors".
func ParseGeometry(s string) (Geometry, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Geometry{}, fmt.Errorf("invalid geometry %q: expected cylinders/heads/sectors", s)
	}

	var values [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Geometry{}, fmt.Errorf("invalid geometry %q: %w", s, err)
		}
		values[i] = v
	}

	g := Geometry{
		Cylinders:       values[0],
		Heads:           values[1],
		SectorsPerTrack: values[2],
	}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}
