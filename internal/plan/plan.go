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
package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ostafen/hccspart/internal/disk"
)

// DefaultSwapBlocks is the swap size used when none is requested (20MB).
const DefaultSwapBlocks = 20 * 1024 * 1024 / disk.BlockSize

var ErrInsufficientSpace = errors.New("insufficient space")

// PlanningError reports a request list that cannot be turned into a table.
type PlanningError struct {
	Msg       string
	Shortfall int64 // blocks missing, when the failure is about space
	Err       error
}

func (e *PlanningError) Error() string {
	if e.Shortfall > 0 {
		return fmt.Sprintf("%s (short by %d blocks, %s)", e.Msg, e.Shortfall, mib(e.Shortfall))
	}
	return e.Msg
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

func errorf(format string, args ...any) error {
	return &PlanningError{Msg: fmt.Sprintf(format, args...)}
}

func insufficient(shortfall int64, format string, args ...any) error {
	return &PlanningError{
		Msg:       fmt.Sprintf(format, args...),
		Shortfall: shortfall,
		Err:       ErrInsufficientSpace,
	}
}

// Input holds everything the planner needs.
type Input struct {
	Geometry disk.Geometry
	// Reserved is the number of blocks at the start of the disk owned by
	// the RISC OS partition and the partition table. The table occupies
	// the last cylinder of the region.
	Reserved int64
	Requests []disk.Request
}

// Normalize adds the implicit root and swap requests and sorts requests by
// role rank, keeping the relative order of additional partitions.
func Normalize(reqs []disk.Request) ([]disk.Request, error) {
	var hasRoot, hasSwap bool

	out := make([]disk.Request, 0, len(reqs)+2)
	for _, r := range reqs {
		switch r.Role {
		case disk.RoleRoot:
			if hasRoot {
				return nil, errorf("more than one root partition requested")
			}
			hasRoot = true
		case disk.RoleSwap:
			if hasSwap {
				return nil, errorf("more than one swap partition requested")
			}
			hasSwap = true
		}
		out = append(out, r)
	}

	if !hasRoot {
		out = append(out, disk.Request{Role: disk.RoleRoot})
	}
	if !hasSwap {
		out = append(out, disk.Request{Role: disk.RoleSwap})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Role.Rank() < out[j].Role.Rank()
	})

	n := 0
	for i := range out {
		if out[i].Role != disk.RoleOther {
			out[i].Name = out[i].Role.DefaultName()
			continue
		}
		n++
		if out[i].Name == "" {
			out[i].Name = fmt.Sprintf("part%d", n)
		}
	}
	return out, nil
}

func checkName(r disk.Request) error {
	if len(r.Name) > disk.MaxNameLen {
		return errorf("partition name %q is longer than %d characters", r.Name, disk.MaxNameLen)
	}
	for _, c := range []byte(r.Name) {
		if c < 0x20 || c > 0x7E {
			return errorf("partition name %q must be printable ASCII", r.Name)
		}
	}
	if r.Role == disk.RoleOther {
		for _, reserved := range []disk.Role{disk.RoleRoot, disk.RoleSwap} {
			if strings.EqualFold(r.Name, reserved.DefaultName()) {
				return errorf("partition name %q is reserved for the %s partition", r.Name, reserved)
			}
		}
	}
	return nil
}

// Plan lays out the requested partitions after the reserved region.
//
// Partitions are whole cylinders, laid out back to back in role rank order.
// The root partition takes whatever space the other partitions leave unless
// it has an explicit size.
func Plan(in Input) (*disk.Table, error) {
	g := in.Geometry
	if err := g.Validate(); err != nil {
		return nil, &PlanningError{Msg: err.Error(), Err: err}
	}

	reqs, err := Normalize(in.Requests)
	if err != nil {
		return nil, err
	}
	if len(reqs) > disk.MaxEntries {
		return nil, errorf("%d partitions requested, the table holds at most %d", len(reqs), disk.MaxEntries)
	}

	cyl := g.CylinderBlocks()
	capacity := g.Capacity()

	if in.Reserved < 1 {
		return nil, errorf("reserved region must cover at least the partition table cylinder")
	}
	start := disk.AlignUp(in.Reserved, cyl)
	if start >= capacity {
		return nil, insufficient(start-capacity+cyl,
			"reserved region (%d blocks) leaves no space on a %d block disk", start, capacity)
	}
	available := capacity - start

	sizes := make([]int64, len(reqs))
	rootIdx := -1
	var fixed int64
	for i, r := range reqs {
		if err := checkName(r); err != nil {
			return nil, err
		}
		if r.Blocks < 0 {
			return nil, errorf("partition %s has a negative size", r.Name)
		}

		blocks := r.Blocks
		if r.Role == disk.RoleSwap && blocks == 0 {
			blocks = DefaultSwapBlocks
		}
		if r.Role == disk.RoleRoot && blocks == 0 {
			rootIdx = i
			continue
		}
		if r.Role == disk.RoleOther && blocks == 0 {
			return nil, errorf("partition %s needs an explicit size", r.Name)
		}

		sizes[i] = disk.AlignDown(blocks, cyl)
		if sizes[i] == 0 {
			return nil, errorf("partition %s (%d blocks) is smaller than one cylinder (%d blocks)", r.Name, blocks, cyl)
		}
		fixed += sizes[i]
	}

	if rootIdx >= 0 {
		if fixed >= available {
			return nil, insufficient(fixed-available+cyl,
				"requested partitions (%s) leave no space for root in %s available",
				mib(fixed), mib(available))
		}
		sizes[rootIdx] = available - fixed
	}

	t := &disk.Table{
		Location: disk.Location{
			Cylinder: int(start/cyl) - 1,
			Block:    start - cyl,
		},
		Reserved: start,
		Entries:  make([]disk.Entry, 0, len(reqs)),
	}

	next := start
	for i, r := range reqs {
		if remaining := capacity - next; sizes[i] > remaining {
			return nil, insufficient(sizes[i]-remaining,
				"partition %s (%s) does not fit in the remaining %s", r.Name, mib(sizes[i]), mib(remaining))
		}

		t.Entries = append(t.Entries, disk.Entry{
			Index:   i,
			Name:    r.Name,
			Role:    r.Role,
			Start:   next,
			Length:  sizes[i],
			Limited: r.Role.Limited(),
		})
		next += sizes[i]
	}
	return t, nil
}

func mib(blocks int64) string {
	return fmt.Sprintf("%.2fMB", float64(blocks*disk.BlockSize)/(1024*1024))
}
