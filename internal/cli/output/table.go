package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by list results that render as a table.
type TableRenderer interface {
	// Headers returns the column headers.
	Headers() []string
	// Rows returns one slice of cells per row.
	Rows() [][]string
}

// newPlainTable builds a borderless left-aligned table in the style
// shared by every list command.
func newPlainTable(w io.Writer, columnSep string, formatHeaders bool) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(formatHeaders)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("")
	t.SetColumnSeparator(columnSep)
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetBorder(false)
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)
	return t
}

// PrintTable renders data with upper-cased column headers.
func PrintTable(w io.Writer, data TableRenderer) error {
	t := newPlainTable(w, "", true)
	t.SetHeader(data.Headers())
	for _, row := range data.Rows() {
		t.Append(row)
	}
	t.Render()
	return nil
}

// SimpleTable renders key/value pairs without a header row.
func SimpleTable(w io.Writer, pairs [][2]string) error {
	t := newPlainTable(w, ":", false)
	for _, pair := range pairs {
		t.Append([]string{pair[0], pair[1]})
	}
	t.Render()
	return nil
}
