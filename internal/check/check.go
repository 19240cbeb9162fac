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
package check

import (
	"fmt"

	"github.com/ostafen/hccspart/internal/disk"
)

const (
	// LimitBlocks is the 512MB boundary beyond which the RISC iX filesystem
	// driver cannot address blocks.
	LimitBlocks = 512 * 1024 * 1024 / disk.BlockSize

	// MinRootBlocks is the smallest root partition that can hold a RISC iX
	// installation (64MB).
	MinRootBlocks = 64 * 1024 * 1024 / disk.BlockSize

	// Virtual geometry presented by the HCCS IDE driver.
	ConventionalHeads   = 16
	ConventionalSectors = 63
)

type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Finding is a problem detected in a partition table.
type Finding struct {
	Severity Severity
	Check    string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Check, f.Message)
}

type Report []Finding

func (r Report) HasErrors() bool {
	for _, f := range r {
		if f.Severity == Error {
			return true
		}
	}
	return false
}

func (r Report) Errors() Report {
	return r.filter(Error)
}

func (r Report) Warnings() Report {
	return r.filter(Warning)
}

func (r Report) filter(s Severity) Report {
	var out Report
	for _, f := range r {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

type validator struct {
	t      *disk.Table
	g      disk.Geometry
	report Report
}

func (v *validator) add(s Severity, check, format string, args ...any) {
	v.report = append(v.report, Finding{
		Severity: s,
		Check:    check,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validate checks t against g and the constraints of the RISC iX driver.
func Validate(t *disk.Table, g disk.Geometry) Report {
	v := &validator{t: t, g: g}

	if err := g.Validate(); err != nil {
		v.add(Error, "geometry", "%s", err)
		return v.report
	}

	v.checkEntries()
	v.checkOrder()
	v.checkAlignment()
	v.checkOverlap()
	v.checkCapacity()
	v.checkLimit()
	v.checkRootSize()
	v.checkLocation()
	v.checkGeometry()
	v.checkUnused()
	return v.report
}

func (v *validator) checkEntries() {
	switch n := len(v.t.Entries); {
	case n == 0:
		v.add(Error, "entries", "the table has no partitions")
	case n > disk.MaxEntries:
		v.add(Error, "entries", "the table has %d partitions, the driver reads at most %d", n, disk.MaxEntries)
	}

	for _, e := range v.t.Entries {
		if e.Length <= 0 {
			v.add(Error, "entries", "partition %d (%s) is empty", e.Index, e.Name)
		}
	}
}

// checkOrder verifies the role slots expected by the driver: one root first,
// one swap second, everything else afterwards.
func (v *validator) checkOrder() {
	counts := map[disk.Role]int{}
	for i, e := range v.t.Entries {
		counts[e.Role]++
		if i > 0 && e.Role.Rank() < v.t.Entries[i-1].Role.Rank() {
			v.add(Error, "order", "partition %d (%s) must come before partition %d (%s)",
				e.Index, e.Role, v.t.Entries[i-1].Index, v.t.Entries[i-1].Role)
		}
	}

	for _, role := range []disk.Role{disk.RoleRoot, disk.RoleSwap} {
		switch counts[role] {
		case 0:
			v.add(Error, "order", "the table has no %s partition", role)
		case 1:
		default:
			v.add(Error, "order", "the table has %d %s partitions", counts[role], role)
		}
	}
}

func (v *validator) checkAlignment() {
	cyl := v.g.CylinderBlocks()
	for _, e := range v.t.Entries {
		if e.Start%cyl != 0 || e.Length%cyl != 0 {
			v.add(Error, "align", "partition %d (%s) is not aligned to %d-block cylinders", e.Index, e.Name, cyl)
		}
	}
}

func (v *validator) checkOverlap() {
	entries := v.t.Entries
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.Start < b.End() && b.Start < a.End() {
				v.add(Error, "overlap", "partition %d (%s) [%d, %d) overlaps partition %d (%s) [%d, %d)",
					a.Index, a.Name, a.Start, a.End(), b.Index, b.Name, b.Start, b.End())
			}
		}
	}
}

func (v *validator) checkCapacity() {
	capacity := v.g.Capacity()
	for _, e := range v.t.Entries {
		if e.Start < 0 || e.End() > capacity {
			v.add(Error, "capacity", "partition %d (%s) ends at block %d, beyond the disk capacity of %d blocks",
				e.Index, e.Name, e.End(), capacity)
		}
		if e.Start < v.t.Reserved {
			v.add(Error, "reserved", "partition %d (%s) starts at block %d, inside the reserved region ending at block %d",
				e.Index, e.Name, e.Start, v.t.Reserved)
		}
	}
}

func (v *validator) checkLimit() {
	for _, e := range v.t.Entries {
		if e.End() <= LimitBlocks {
			continue
		}
		if e.Limited {
			v.add(Error, "limit", "%s partition ends at block %d, beyond the 512MB boundary (block %d) addressable by the filesystem driver; reduce it by %d blocks%s",
				e.Role, e.End(), LimitBlocks, e.End()-LimitBlocks, v.fitHint(e))
		} else {
			v.add(Warning, "limit", "partition %d (%s) crosses the 512MB boundary; this is fine for %s partitions",
				e.Index, e.Name, e.Role)
		}
	}
}

// fitHint suggests the largest size, in whole MB, that keeps e below the
// 512MB boundary once rounded to cylinders.
func (v *validator) fitHint(e disk.Entry) string {
	fit := disk.AlignDown(LimitBlocks-e.Start, v.g.CylinderBlocks())
	if fit <= 0 {
		return "; it starts past the boundary"
	}
	mb := fit * disk.BlockSize / (1024 * 1024)
	return fmt.Sprintf(" (a %s size of at most %dMB fits, e.g. --%s %d)", e.Role, mb, e.Role, mb)
}

func (v *validator) checkRootSize() {
	root, ok := v.t.Entry(disk.RoleRoot)
	if ok && root.Length > 0 && root.Length < MinRootBlocks {
		v.add(Error, "root-size", "root partition (%d blocks) is too small for a viable installation (at least %d blocks)",
			root.Length, int64(MinRootBlocks))
	}
}

// checkLocation recomputes where the driver will look for the table and
// makes sure nothing else lives there.
func (v *validator) checkLocation() {
	loc := v.t.Location
	cyl := v.g.CylinderBlocks()

	if loc.Cylinder < 0 || loc.Cylinder >= v.g.Cylinders {
		v.add(Error, "location", "table cylinder %d is outside the disk (%d cylinders)", loc.Cylinder, v.g.Cylinders)
		return
	}

	expected := int64(loc.Cylinder) * cyl
	if loc.Block != expected {
		v.add(Error, "location", "table at block %d does not start cylinder %d (block %d); the declared geometry %s does not match the image layout",
			loc.Block, loc.Cylinder, expected, v.g)
	}

	end := expected + disk.TableBlocks
	if end > v.t.Reserved {
		v.add(Error, "location", "table at blocks [%d, %d) is outside the reserved region ending at block %d",
			expected, end, v.t.Reserved)
	}
	if expected*disk.BlockSize < disk.BootBlockOffset+disk.BootBlockSize {
		v.add(Error, "location", "table at block %d overwrites the FileCore boot block", expected)
	}
	if len(v.t.Entries) > 0 && end > v.t.Entries[0].Start {
		v.add(Error, "location", "table at blocks [%d, %d) collides with partition 0 starting at block %d; check the drive geometry",
			expected, end, v.t.Entries[0].Start)
	}
}

func (v *validator) checkGeometry() {
	if v.g.Heads != ConventionalHeads || v.g.SectorsPerTrack != ConventionalSectors {
		v.add(Warning, "geometry", "geometry %s differs from the %d heads / %d sectors expected by the IDE driver; reconfigure the emulated drive to use them",
			v.g, ConventionalHeads, ConventionalSectors)
	}
}

func (v *validator) checkUnused() {
	if len(v.t.Entries) == 0 {
		return
	}
	if unused := v.g.Capacity() - v.t.End(); unused >= v.g.CylinderBlocks() {
		v.add(Warning, "unused", "%d blocks (%.2fMB) unused at end of disc",
			unused, float64(unused*disk.BlockSize)/(1024*1024))
	}
}
