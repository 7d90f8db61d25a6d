package results

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render draws the table as text, column names are kept as they are.
func (t Table) Render(style table.Style) string {
	w := table.NewWriter()
	style.Format.Header = text.FormatDefault
	w.SetStyle(style)

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	w.AppendHeader(header)
	for _, row := range t.Rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		w.AppendRow(r)
	}
	return w.Render()
}
