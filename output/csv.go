package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vegasq/pal/internal/logger"
	"github.com/vegasq/pal/query"
)

const defaultFileName = "pal"

// CSVExporter writes the table to <output_dir>/<file_name>.csv
type CSVExporter struct {
	outputDir string
	fileName  string
	writer    io.Writer
}

// NewCSVExporter creates a CSV exporter from the output_dir and file_name settings
func NewCSVExporter(settings Settings) *CSVExporter {
	return &CSVExporter{
		outputDir: settings.String("output_dir", "."),
		fileName:  settings.String("file_name", defaultFileName),
	}
}

// SetOutput sends the CSV to w instead of a file
func (c *CSVExporter) SetOutput(w io.Writer) {
	c.writer = w
}

// Path is the file the exporter writes when no writer was set
func (c *CSVExporter) Path() string {
	return filepath.Join(c.outputDir, c.fileName+".csv")
}

// Export writes a header of column names in index order followed by the rows
func (c *CSVExporter) Export(table query.Table) error {
	if c.writer != nil {
		return c.write(c.writer, table)
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(c.Path())
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := c.write(f, table); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	logger.Info("wrote csv export", "path", c.Path(), "rows", len(table.Rows))
	return nil
}

func (c *CSVExporter) write(w io.Writer, table query.Table) error {
	csvWriter := csv.NewWriter(w)

	columns := table.Columns.Names()
	if err := csvWriter.Write(columns); err != nil {
		return err
	}

	for _, row := range table.Rows {
		record := textRecord(row, len(columns))
		for i := range record {
			record[i] = sanitizeCell(record[i])
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// sanitizeCell guards against CSV injection: text starting with a character
// that spreadsheet applications treat as a formula is prefixed with a quote.
// Plain negative numbers pass through untouched.
func sanitizeCell(val string) string {
	if val == "" {
		return val
	}
	switch val[0] {
	case '=', '+', '-', '@', '\t', '\r', '\n', '|':
		if val[0] == '-' {
			if _, err := strconv.ParseFloat(val, 64); err == nil {
				return val
			}
		}
		return "'" + strings.ReplaceAll(val, "'", "''")
	}
	return val
}
