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
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ostafen/hccspart/internal/config"
	"github.com/ostafen/hccspart/internal/disk"
	"github.com/ostafen/hccspart/internal/env"
	"github.com/ostafen/hccspart/internal/image"
	"github.com/ostafen/hccspart/internal/logger"
	"github.com/ostafen/hccspart/internal/plan"
	"github.com/ostafen/hccspart/internal/review"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitPlanning = 2
	ExitBlocked  = 3
	ExitAborted  = 4
)

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	var (
		planErr *plan.PlanningError
		blocked *review.BlockedError
	)

	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &planErr):
		return ExitPlanning
	case errors.As(err, &blocked):
		return ExitBlocked
	case errors.Is(err, review.ErrAborted):
		return ExitAborted
	default:
		return ExitFailure
	}
}

func Execute() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          env.AppName + " [flags] <image>",
		Short:        env.AppName + " - write a RISC iX partition table to an IDE disc image",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunPartition,
	}

	flags := rootCmd.Flags()
	flags.String("root", "", "size of the root partition (default: all remaining space)")
	flags.String("swap", "20MiB", "size of the swap partition")
	flags.StringArray("part", nil, "additional partition as [NAME=]SIZE, can be repeated")
	flags.Var(&geometryValue{}, "geometry", "drive geometry as cylinders/heads/sectors (default: inferred from the image)")
	flags.String("reserved", "", "space reserved for RISC OS and the partition table (default: inferred from the image)")
	flags.String("layout", "", "YAML file describing the partition layout")
	flags.BoolP("yes", "y", false, "write without asking for confirmation")
	flags.Bool("force", false, "write even if validation reports errors")

	rootCmd.PersistentFlags().String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(DefineShowCommand(), DefineVersionCommand())

	return rootCmd
}

// geometryValue is a pflag.Value holding a C/H/S geometry.
type geometryValue struct {
	g disk.Geometry
}

var _ pflag.Value = (*geometryValue)(nil)

func (v *geometryValue) String() string {
	if v.g == (disk.Geometry{}) {
		return ""
	}
	return v.g.String()
}

func (v *geometryValue) Set(s string) error {
	g, err := disk.ParseGeometry(s)
	if err != nil {
		return err
	}
	v.g = g
	return nil
}

func (v *geometryValue) Type() string {
	return "C/H/S"
}

func newLogger(cmd *cobra.Command) *logger.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.New(cmd.ErrOrStderr(), logger.ParseLevel(level))
}

func RunPartition(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	im, err := image.Open(args[0], log)
	if err != nil {
		return err
	}
	defer im.Close()

	opts, err := parseOptions(cmd, im, log)
	if err != nil {
		return err
	}

	if !opts.AssumeYes && !isTerminal(cmd) {
		log.Warn("standard input is not a terminal, reading the confirmation from it")
	}

	w := review.New(im, opts, cmd.InOrStdin(), cmd.OutOrStdout(), log)
	return w.Run()
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func parseOptions(cmd *cobra.Command, im *image.Image, log *logger.Logger) (review.Options, error) {
	flags := cmd.Flags()

	layout := &config.Layout{}
	if path, _ := flags.GetString("layout"); path != "" {
		l, err := config.Load(path)
		if err != nil {
			return review.Options{}, err
		}
		layout = l
	}

	g, err := resolveGeometry(flags, layout, im, log)
	if err != nil {
		return review.Options{}, err
	}

	reserved, err := resolveReserved(flags, layout, im, g)
	if err != nil {
		return review.Options{}, err
	}

	reqs, err := resolveRequests(flags, layout)
	if err != nil {
		return review.Options{}, err
	}

	assumeYes, _ := flags.GetBool("yes")
	force, _ := flags.GetBool("force")

	return review.Options{
		Geometry:  g,
		Reserved:  reserved,
		Requests:  reqs,
		AssumeYes: assumeYes,
		Force:     force,
	}, nil
}

func resolveGeometry(flags *pflag.FlagSet, layout *config.Layout, im *image.Image, log *logger.Logger) (disk.Geometry, error) {
	if f := flags.Lookup("geometry"); f.Changed {
		g := f.Value.(*geometryValue).g
		log.Infof("Using geometry %s from the command line", g)
		return g, nil
	}

	g, ok, err := layout.ParseGeometry()
	if err != nil {
		return disk.Geometry{}, fmt.Errorf("layout geometry: %w", err)
	}
	if ok {
		log.Infof("Using geometry %s from the layout file", g)
		return g, nil
	}

	g, err = im.InferGeometry()
	if err != nil {
		return disk.Geometry{}, fmt.Errorf("cannot infer the drive geometry, use --geometry: %w", err)
	}
	log.Infof("Inferred geometry %s", g)
	return g, nil
}

func resolveReserved(flags *pflag.FlagSet, layout *config.Layout, im *image.Image, g disk.Geometry) (int64, error) {
	if flags.Changed("reserved") {
		s, _ := flags.GetString("reserved")
		blocks, err := config.SizeBlocks(s)
		if err != nil {
			return 0, fmt.Errorf("invalid --reserved: %w", err)
		}
		return blocks, nil
	}

	blocks, err := layout.ReservedBlocks()
	if err != nil {
		return 0, fmt.Errorf("layout reserved: %w", err)
	}
	if blocks > 0 {
		return blocks, nil
	}

	blocks, err = im.InferReserved(g)
	if err != nil {
		return 0, fmt.Errorf("cannot infer the reserved region, use --reserved: %w", err)
	}
	return blocks, nil
}

// resolveRequests merges the layout file with the command line. Flags set
// explicitly replace the corresponding layout entries.
func resolveRequests(flags *pflag.FlagSet, layout *config.Layout) ([]disk.Request, error) {
	fromLayout, err := layout.Requests()
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	var root, swap []disk.Request
	var others []disk.Request
	for _, r := range fromLayout {
		switch r.Role {
		case disk.RoleRoot:
			root = append(root, r)
		case disk.RoleSwap:
			swap = append(swap, r)
		default:
			others = append(others, r)
		}
	}

	if flags.Changed("root") {
		r, err := roleFlag(flags, "root", disk.RoleRoot)
		if err != nil {
			return nil, err
		}
		root = []disk.Request{r}
	}
	if flags.Changed("swap") {
		r, err := roleFlag(flags, "swap", disk.RoleSwap)
		if err != nil {
			return nil, err
		}
		swap = []disk.Request{r}
	}
	if flags.Changed("part") {
		parts, _ := flags.GetStringArray("part")
		others = others[:0]
		for _, p := range parts {
			r, err := parsePart(p)
			if err != nil {
				return nil, err
			}
			others = append(others, r)
		}
	}

	reqs := append(root, swap...)
	return append(reqs, others...), nil
}

func roleFlag(flags *pflag.FlagSet, name string, role disk.Role) (disk.Request, error) {
	s, _ := flags.GetString(name)
	blocks, err := config.SizeBlocks(s)
	if err != nil {
		return disk.Request{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return disk.Request{Role: role, Blocks: blocks}, nil
}

// parsePart parses a --part value of the form [NAME=]SIZE.
func parsePart(s string) (disk.Request, error) {
	name, size, found := strings.Cut(s, "=")
	if !found {
		name, size = "", s
	}

	blocks, err := config.SizeBlocks(size)
	if err != nil {
		return disk.Request{}, fmt.Errorf("invalid --part %q: %w", s, err)
	}
	return disk.Request{Role: disk.RoleOther, Name: name, Blocks: blocks}, nil
}
