package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ostafen/hccspart/internal/disk"
	"github.com/ostafen/hccspart/pkg/util/format"
)

// Layout is a partition layout read from a YAML file. Sizes use the same
// syntax as the command line flags.
type Layout struct {
	Geometry   string      `yaml:"geometry"`
	Reserved   string      `yaml:"reserved"`
	Root       string      `yaml:"root"`
	Swap       string      `yaml:"swap"`
	Partitions []Partition `yaml:"partitions"`
}

type Partition struct {
	Name string `yaml:"name"`
	Size string `yaml:"size"`
}

func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return l, nil
}

func Parse(data []byte) (*Layout, error) {
	var l Layout

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &l, nil
}

// ParseGeometry returns the layout geometry, if any.
func (l *Layout) ParseGeometry() (disk.Geometry, bool, error) {
	if l.Geometry == "" {
		return disk.Geometry{}, false, nil
	}
	g, err := disk.ParseGeometry(l.Geometry)
	return g, err == nil, err
}

// ReservedBlocks returns the size of the reserved region, or 0 if unset.
func (l *Layout) ReservedBlocks() (int64, error) {
	if l.Reserved == "" {
		return 0, nil
	}
	return SizeBlocks(l.Reserved)
}

// Requests converts the layout into planner requests.
func (l *Layout) Requests() ([]disk.Request, error) {
	var reqs []disk.Request

	for _, r := range []struct {
		role disk.Role
		size string
	}{
		{disk.RoleRoot, l.Root},
		{disk.RoleSwap, l.Swap},
	} {
		if r.size == "" {
			continue
		}
		blocks, err := SizeBlocks(r.size)
		if err != nil {
			return nil, fmt.Errorf("%s size: %w", r.role, err)
		}
		reqs = append(reqs, disk.Request{Role: r.role, Blocks: blocks})
	}

	for i, p := range l.Partitions {
		blocks, err := SizeBlocks(p.Size)
		if err != nil {
			return nil, fmt.Errorf("partition %d size: %w", i, err)
		}
		reqs = append(reqs, disk.Request{Role: disk.RoleOther, Name: p.Name, Blocks: blocks})
	}
	return reqs, nil
}

// SizeBlocks parses a size and converts it into whole 512-byte blocks.
func SizeBlocks(s string) (int64, error) {
	n, err := format.ParseSize(s)
	if err != nil {
		return 0, err
	}
	if n < disk.BlockSize {
		return 0, fmt.Errorf("size %q is smaller than one block", s)
	}
	return n / disk.BlockSize, nil
}
