package check_test

import (
	"testing"

	"github.com/ostafen/hccspart/internal/check"
	"github.com/ostafen/hccspart/internal/disk"
	"github.com/ostafen/hccspart/internal/plan"
	"github.com/stretchr/testify/require"
)

func planTable(t *testing.T, g disk.Geometry, reservedCyls int64, reqs ...disk.Request) *disk.Table {
	t.Helper()

	table, err := plan.Plan(plan.Input{
		Geometry: g,
		Reserved: reservedCyls * g.CylinderBlocks(),
		Requests: reqs,
	})
	require.NoError(t, err)
	return table
}

func checks(r check.Report) map[string]check.Severity {
	m := map[string]check.Severity{}
	for _, f := range r {
		m[f.Check] = max(m[f.Check], f.Severity)
	}
	return m
}

func TestValidateCleanTable(t *testing.T) {
	g := disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}

	report := check.Validate(planTable(t, g, 205), g)
	require.Empty(t, report)
	require.False(t, report.HasErrors())
}

func TestValidateRootBeyondLimit(t *testing.T) {
	g := disk.Geometry{Cylinders: 2000, Heads: 16, SectorsPerTrack: 63}

	report := check.Validate(planTable(t, g, 205), g)
	require.True(t, report.HasErrors())

	var limitErrors, limitWarnings int
	for _, f := range report {
		if f.Check != "limit" {
			continue
		}
		if f.Severity == check.Error {
			limitErrors++
		} else {
			limitWarnings++
		}
	}
	require.Equal(t, 1, limitErrors)
	require.Equal(t, 1, limitWarnings)
}

func TestValidateLimitSuggestsFittingSize(t *testing.T) {
	g := disk.Geometry{Cylinders: 2000, Heads: 16, SectorsPerTrack: 63}

	report := check.Validate(planTable(t, g, 205), g)
	require.True(t, report.HasErrors())

	// 835 cylinders fit between block 206640 and the boundary: 410.97MB
	msg := report.Errors()[0].Message
	require.Contains(t, msg, "at most 410MB fits")
	require.Contains(t, msg, "--root 410")

	table := planTable(t, g, 205, disk.Request{Role: disk.RoleRoot, Blocks: 410 * 2048})
	require.False(t, check.Validate(table, g).HasErrors())
}

func TestValidateOtherPartitionBeyondLimitIsWarning(t *testing.T) {
	g := disk.Geometry{Cylinders: 2000, Heads: 16, SectorsPerTrack: 63}
	cyl := g.CylinderBlocks()

	table := planTable(t, g, 205,
		disk.Request{Role: disk.RoleRoot, Blocks: 500 * cyl},
		disk.Request{Role: disk.RoleOther, Name: "usr", Blocks: 1200 * cyl},
	)

	report := check.Validate(table, g)
	require.False(t, report.HasErrors(), "%v", report)
	require.Equal(t, check.Warning, checks(report)["limit"])
	require.Equal(t, check.Warning, checks(report)["unused"])
}

func TestValidateStructuralErrors(t *testing.T) {
	g := disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}
	cyl := g.CylinderBlocks()

	cases := map[string]func(tb *disk.Table){
		"overlap": func(tb *disk.Table) {
			tb.Entries[1].Start -= cyl
		},
		"capacity": func(tb *disk.Table) {
			tb.Entries[1].Length += cyl
		},
		"align": func(tb *disk.Table) {
			tb.Entries[1].Length -= 1
		},
		"order": func(tb *disk.Table) {
			tb.Entries[0], tb.Entries[1] = tb.Entries[1], tb.Entries[0]
		},
		"root-size": func(tb *disk.Table) {
			tb.Entries[0].Length = 10 * cyl
		},
		"location": func(tb *disk.Table) {
			tb.Location.Block += 3
		},
		"reserved": func(tb *disk.Table) {
			tb.Reserved += cyl
		},
		"entries": func(tb *disk.Table) {
			tb.Entries = nil
		},
	}

	for name, corrupt := range cases {
		table := planTable(t, g, 205)
		corrupt(table)

		report := check.Validate(table, g)
		require.True(t, report.HasErrors(), name)
		require.Equal(t, check.Error, checks(report)[name], "%s: %v", name, report)
	}
}

func TestValidateTableCollidesWithRoot(t *testing.T) {
	g := disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}
	cyl := g.CylinderBlocks()

	table := planTable(t, g, 205)
	table.Location = disk.Location{Cylinder: 205, Block: 205 * cyl}

	report := check.Validate(table, g)
	require.Equal(t, check.Error, checks(report)["location"])
}

func TestValidateTableOverBootBlock(t *testing.T) {
	g := disk.Geometry{Cylinders: 1038, Heads: 16, SectorsPerTrack: 63}

	table := planTable(t, g, 1)
	require.Equal(t, 0, table.Location.Cylinder)

	report := check.Validate(table, g)
	require.Equal(t, check.Error, checks(report)["location"])
}

func TestValidateGeometryWarning(t *testing.T) {
	g := disk.Geometry{Cylinders: 2000, Heads: 8, SectorsPerTrack: 32}

	report := check.Validate(planTable(t, g, 300), g)
	require.False(t, report.HasErrors(), "%v", report)
	require.Len(t, report.Warnings(), 1)
	require.Equal(t, "geometry", report.Warnings()[0].Check)
	require.Empty(t, report.Errors())
}
