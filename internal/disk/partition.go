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

import "fmt"

// Role identifies what a RISC iX partition is used for.
type Role uint8

const (
	RoleRoot Role = iota
	RoleSwap
	RoleOther
)

func (r Role) String() string {
	switch r {
	case RoleRoot:
		return "root"
	case RoleSwap:
		return "swap"
	case RoleOther:
		return "other"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Rank gives the table position class of a role. Entries are stored in
// non-decreasing rank order: root first, swap second, then everything else.
func (r Role) Rank() int {
	switch r {
	case RoleRoot:
		return 0
	case RoleSwap:
		return 1
	default:
		return 2
	}
}

// Limited reports whether partitions with this role must end below the
// 512MB boundary addressable by the RISC iX filesystem driver.
func (r Role) Limited() bool {
	return r == RoleRoot
}

// DefaultName returns the name written into the on-disk record for roles
// with a fixed name.
func (r Role) DefaultName() string {
	switch r {
	case RoleRoot:
		return "Root"
	case RoleSwap:
		return "Swap"
	}
	return ""
}

// Request asks the planner for one partition. Blocks == 0 means the
// planner chooses the size.
type Request struct {
	Role   Role
	Name   string
	Blocks int64
}

// Entry is one planned or decoded RISC iX partition.
type Entry struct {
	Index   int
	Name    string
	Role    Role
	Start   int64 // first block
	Length  int64 // length in blocks
	Limited bool  // subject to the 512MB addressing limit
}

// End returns the first block after the entry.
func (e Entry) End() int64 {
	return e.Start + e.Length
}

func (e Entry) Bytes() int64 {
	return e.Length * BlockSize
}

// Location is where the partition table itself lives on disk.
type Location struct {
	Cylinder int
	Block    int64
}

// Table is a RISC iX partition table.
type Table struct {
	Location Location
	// Reserved is the first block after the region reserved for the RISC OS
	// partition and the table.
	Reserved int64
	Entries  []Entry
}

// Entry returns the first entry with the given role.
func (t *Table) Entry(role Role) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Role == role {
			return e, true
		}
	}
	return Entry{}, false
}

// End returns the first block after the last entry.
func (t *Table) End() int64 {
	var end int64
	for _, e := range t.Entries {
		end = max(end, e.End())
	}
	return end
}

// Partition is a FileCore (RISC OS) partition found on an IDEFS image.
type Partition struct {
	Num       int
	Offset    uint64 // Offset in bytes from the start of the disk
	Size      uint64 // Size in bytes of the partition
	BootBlock *BootBlock
}

func (p *Partition) End() uint64 {
	return p.Offset + p.Size
}
