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
package review

import (
	"fmt"
	"io"

	"github.com/ostafen/hccspart/internal/check"
	"github.com/ostafen/hccspart/internal/disk"
	"github.com/ostafen/hccspart/pkg/table"
	"github.com/ostafen/hccspart/pkg/util/format"
)

func chs(g disk.Geometry, lba int64) string {
	addr, err := g.ToCHS(lba)
	if err != nil {
		return "-"
	}
	return addr.String()
}

// RenderTable prints a RISC iX partition table with block and CHS extents.
func RenderTable(w io.Writer, t *disk.Table, g disk.Geometry) error {
	fmt.Fprintf(w, "Partition table at cylinder %d (block %d), reserved region ends at block %d\n",
		t.Location.Cylinder, t.Location.Block, t.Reserved)

	tb := table.New("#", "NAME", "ROLE", "START", "LENGTH", "END", "START C/H/S", "END C/H/S", "SIZE")
	for _, e := range t.Entries {
		tb.Append(
			e.Index,
			e.Name,
			e.Role,
			e.Start,
			e.Length,
			e.End()-1,
			chs(g, e.Start),
			chs(g, e.End()-1),
			format.FormatBytes(e.Bytes()),
		)
	}
	if err := tb.Render(w); err != nil {
		return err
	}

	if unused := g.Capacity() - t.End(); unused > 0 && len(t.Entries) > 0 {
		fmt.Fprintf(w, "%s unused at end of disc\n", format.FormatBytes(unused*disk.BlockSize))
	}
	return nil
}

// RenderPartitions prints the FileCore partitions found on an image followed
// by the space after them.
func RenderPartitions(w io.Writer, partitions []disk.Partition, imageSize int64) error {
	tb := table.New("NAME", "OFFSET", "SIZE", "RISC IX CYL.")
	for _, p := range partitions {
		riscix := "-"
		if cyl, ok := p.BootBlock.RISCiXCylinder(); ok {
			riscix = fmt.Sprint(cyl)
		}
		tb.Append(
			p.BootBlock.DiscRecord.DiscName(),
			fmt.Sprintf("%x", p.Offset),
			format.FormatBytes(int64(p.Size)),
			riscix,
		)
	}

	var unusedStart uint64
	if n := len(partitions); n > 0 {
		unusedStart = partitions[n-1].End()
	}

	if rest := imageSize - int64(unusedStart); rest > 0 {
		name := "[unused]"
		if n := len(partitions); n > 0 {
			if _, ok := partitions[n-1].BootBlock.RISCiXCylinder(); ok {
				name = "[RISC iX]"
			}
		}
		tb.Append(name, fmt.Sprintf("%x", unusedStart), format.FormatBytes(rest), "-")
	}
	return tb.Render(w)
}

// RenderReport prints validation findings, errors first.
func RenderReport(w io.Writer, r check.Report) {
	for _, f := range r.Errors() {
		fmt.Fprintln(w, f)
	}
	for _, f := range r.Warnings() {
		fmt.Fprintln(w, f)
	}
}
