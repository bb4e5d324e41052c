package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vegasq/pal/query"
)

// JSONExporter writes rows as JSON Lines, one object per row keyed by column name.
// It writes to stdout unless a file_name setting is given.
type JSONExporter struct {
	outputDir string
	fileName  string
	writer    io.Writer
}

// NewJSONExporter creates a JSON Lines exporter
func NewJSONExporter(settings Settings) *JSONExporter {
	return &JSONExporter{
		outputDir: settings.String("output_dir", "."),
		fileName:  settings.String("file_name", ""),
		writer:    os.Stdout,
	}
}

// SetOutput sets the output writer
func (j *JSONExporter) SetOutput(w io.Writer) {
	j.writer = w
	j.fileName = ""
}

// Export writes the table as JSON Lines
func (j *JSONExporter) Export(table query.Table) error {
	if j.fileName == "" {
		return j.write(j.writer, table)
	}

	if err := os.MkdirAll(j.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(j.outputDir, j.fileName+".jsonl"))
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := j.write(f, table); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (j *JSONExporter) write(w io.Writer, table query.Table) error {
	columns := table.Columns.Names()
	encoder := json.NewEncoder(w)
	for _, row := range table.Rows {
		obj := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i < len(row) {
				obj[col] = row[i]
			} else {
				obj[col] = nil
			}
		}
		if err := encoder.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}
