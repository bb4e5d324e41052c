package output

import (
	"io"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/pal/query"
)

const defaultTitle = "<No Title Set>"

// TableExporter renders the result as a terminal table
type TableExporter struct {
	title  string
	style  Settings
	writer io.Writer
}

// NewTableExporter creates a table exporter. Supported settings are title and
// a style object with border (bool) and row_line (bool).
func NewTableExporter(settings Settings) *TableExporter {
	return &TableExporter{
		title:  settings.String("title", defaultTitle),
		style:  settings.Map("style"),
		writer: os.Stdout,
	}
}

// SetOutput sets the output writer
func (t *TableExporter) SetOutput(w io.Writer) {
	t.writer = w
}

// Export renders the table with the title as its caption
func (t *TableExporter) Export(table query.Table) error {
	columns := table.Columns.Names()

	tw := tablewriter.NewWriter(t.writer)
	tw.SetHeader(columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorder(t.style.Bool("border", true))
	tw.SetRowLine(t.style.Bool("row_line", false))
	tw.SetCaption(true, t.title)

	for _, row := range table.Rows {
		tw.Append(textRecord(row, len(columns)))
	}

	tw.Render()
	return nil
}
