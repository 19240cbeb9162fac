package table

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table collects rows of text and renders them as aligned columns.
type Table struct {
	indent  string
	headers []string
	rows    [][]string
}

func New(headers ...string) *Table {
	return &Table{
		indent:  "    ",
		headers: headers,
	}
}

// Append adds a row. Values are formatted with %v; missing columns are left
// blank.
func (t *Table) Append(values ...any) {
	row := make([]string, len(t.headers))
	for i, v := range values {
		if i >= len(row) {
			break
		}
		row[i] = fmt.Sprint(v)
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s%s\n", t.indent, strings.Join(t.headers, "\t"))
	for _, row := range t.rows {
		fmt.Fprintf(tw, "%s%s\n", t.indent, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
