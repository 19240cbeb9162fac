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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ostafen/hccspart/internal/check"
	"github.com/ostafen/hccspart/internal/disk"
	"github.com/ostafen/hccspart/internal/logger"
	"github.com/ostafen/hccspart/internal/plan"
)

type State int

const (
	Loaded State = iota
	Planned
	Validated
	AwaitingConfirmation
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Planned:
		return "planned"
	case Validated:
		return "validated"
	case AwaitingConfirmation:
		return "awaiting confirmation"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

var ErrAborted = errors.New("aborted by operator, nothing written")

// BlockedError is returned when validation errors were not overridden.
type BlockedError struct {
	Findings check.Report
}

func (e *BlockedError) Error() string {
	errs := e.Findings.Errors()
	if len(errs) == 0 {
		return "partition table rejected"
	}
	msg := fmt.Sprintf("partition table failed validation: %s", errs[0].Message)
	if len(errs) > 1 {
		msg += fmt.Sprintf(" (and %d more errors)", len(errs)-1)
	}
	return msg
}

// Target is the disk the workflow reads from and commits to.
type Target interface {
	ReadTable(g disk.Geometry) (*disk.Table, error)
	Check(t *disk.Table, g disk.Geometry) check.Report
	WriteTable(t *disk.Table, g disk.Geometry) error
}

type Options struct {
	Geometry disk.Geometry
	Reserved int64
	Requests []disk.Request

	AssumeYes bool // write without asking for confirmation
	Force     bool // proceed despite validation errors
}

// Workflow plans, validates and, after confirmation, writes a partition table.
type Workflow struct {
	target Target
	opts   Options
	in     *bufio.Reader
	out    io.Writer
	log    *logger.Logger

	state  State
	table  *disk.Table
	report check.Report
}

func New(target Target, opts Options, in io.Reader, out io.Writer, log *logger.Logger) *Workflow {
	return &Workflow{
		target: target,
		opts:   opts,
		in:     bufio.NewReader(in),
		out:    out,
		log:    log,
	}
}

func (w *Workflow) State() State {
	return w.state
}

// Table returns the planned table, if planning succeeded.
func (w *Workflow) Table() *disk.Table {
	return w.table
}

func (w *Workflow) Report() check.Report {
	return w.report
}

func (w *Workflow) abort(err error) error {
	w.state = Aborted
	return err
}

func (w *Workflow) Run() error {
	g := w.opts.Geometry

	if err := w.load(g); err != nil {
		return w.abort(err)
	}

	t, err := plan.Plan(plan.Input{
		Geometry: g,
		Reserved: w.opts.Reserved,
		Requests: w.opts.Requests,
	})
	if err != nil {
		return w.abort(err)
	}
	w.table = t
	w.state = Planned

	w.report = append(check.Validate(t, g), w.target.Check(t, g)...)
	w.state = Validated

	RenderReport(w.out, w.report)
	if w.report.HasErrors() && !w.override() {
		return w.abort(&BlockedError{Findings: w.report})
	}

	w.state = AwaitingConfirmation

	fmt.Fprintln(w.out, "Proposed RISC iX partition table:")
	if err := RenderTable(w.out, t, g); err != nil {
		return w.abort(err)
	}

	if !w.confirm() {
		return w.abort(ErrAborted)
	}

	if err := w.target.WriteTable(t, g); err != nil {
		return w.abort(fmt.Errorf("write failed, the image may be partially updated: %w", err))
	}
	w.state = Committed

	w.log.Infof("RISC iX partition table written at cylinder %d", t.Location.Cylinder)
	return nil
}

func (w *Workflow) load(g disk.Geometry) error {
	w.state = Loaded

	existing, err := w.target.ReadTable(g)
	if errors.Is(err, disk.ErrNoTable) {
		w.log.Infof("No existing RISC iX partition table found")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w.out, "Existing RISC iX partition table (will be replaced):")
	return RenderTable(w.out, existing, g)
}

func (w *Workflow) override() bool {
	n := len(w.report.Errors())
	if w.opts.Force {
		w.log.Warnf("overriding %d validation errors", n)
		return true
	}
	if w.opts.AssumeYes {
		return false
	}

	fmt.Fprintf(w.out, "The partition table has %d errors. Type 'override' to write it anyway: ", n)
	line, ok := w.readLine()
	return ok && line == "override"
}

func (w *Workflow) confirm() bool {
	if w.opts.AssumeYes {
		return true
	}

	fmt.Fprint(w.out, "OK to write to disc? [y/N] ")
	line, ok := w.readLine()
	if !ok {
		return false
	}

	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	}
	return false
}

func (w *Workflow) readLine() (string, bool) {
	line, err := w.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(w.out)
		return "", false
	}
	return strings.TrimSpace(line), true
}
