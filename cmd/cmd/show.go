package cmd

import (
	"errors"
	"fmt"

	"github.com/ostafen/hccspart/internal/check"
	"github.com/ostafen/hccspart/internal/disk"
	"github.com/ostafen/hccspart/internal/image"
	"github.com/ostafen/hccspart/internal/review"
	"github.com/spf13/cobra"
)

func DefineShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "show <image>",
		Short:        "Show the FileCore partitions and the RISC iX partition table of an image",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunShow,
	}

	cmd.Flags().Var(&geometryValue{}, "geometry", "drive geometry as cylinders/heads/sectors (default: inferred from the image)")

	return cmd
}

func RunShow(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	out := cmd.OutOrStdout()

	im, err := image.OpenReadOnly(args[0], log)
	if err != nil {
		return err
	}
	defer im.Close()

	fmt.Fprintf(out, "Image %s (%d bytes)\n", im.Name(), im.Size())
	if err := review.RenderPartitions(out, im.Partitions, im.Size()); err != nil {
		return err
	}
	if im.MBR != nil {
		fmt.Fprintf(out, "PC partition table found: %s\n", im.MBR.Entries[0])
	}

	var g disk.Geometry
	if f := cmd.Flags().Lookup("geometry"); f.Changed {
		g = f.Value.(*geometryValue).g
	} else if g, err = im.InferGeometry(); err != nil {
		return fmt.Errorf("cannot infer the drive geometry, use --geometry: %w", err)
	}
	fmt.Fprintf(out, "Geometry %s\n\n", g)

	t, err := im.ReadTable(g)
	if errors.Is(err, disk.ErrNoTable) {
		fmt.Fprintln(out, "No RISC iX partition table found")
		return nil
	}
	if err != nil {
		return err
	}

	if err := review.RenderTable(out, t, g); err != nil {
		return err
	}
	review.RenderReport(out, append(check.Validate(t, g), im.Check(t, g)...))
	return nil
}
