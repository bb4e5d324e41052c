package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/pal/query"
)

// ParquetReader streams a parquet file as text rows.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type ParquetReader struct {
	file   *os.File
	pqFile *parquet.File
	rows   *parquet.Reader
	header []string
}

// NewParquetReader opens the parquet file at path. The header is the list of
// top-level schema fields in schema order.
func NewParquetReader(path string) (*ParquetReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	fields := pqFile.Schema().Fields()
	header := make([]string, len(fields))
	for i, field := range fields {
		header[i] = field.Name()
	}

	return &ParquetReader{
		file:   file,
		pqFile: pqFile,
		rows:   parquet.NewReader(pqFile),
		header: header,
	}, nil
}

// Header returns the top-level column names
func (r *ParquetReader) Header() []string {
	return r.header
}

// Read returns the next row with every cell rendered as text
func (r *ParquetReader) Read() (query.Row, error) {
	values := make(map[string]interface{})
	if err := r.rows.Read(&values); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	row := make(query.Row, len(r.header))
	for i, name := range r.header {
		row[i] = cellText(values[name])
	}
	return row, nil
}

// Schema returns the parquet file schema
func (r *ParquetReader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// NumRows returns the row count recorded in the file metadata
func (r *ParquetReader) NumRows() int64 {
	return r.pqFile.NumRows()
}

// Close closes the row reader and the file. It is safe to call Close multiple times.
func (r *ParquetReader) Close() error {
	if r.rows != nil {
		_ = r.rows.Close()
		r.rows = nil
	}
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// cellText renders a decoded parquet value the way it would appear in a CSV export.
// Nested groups, lists and maps become JSON so the json operators can query them.
func cellText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case map[string]interface{}, []interface{}:
		return oj.JSON(val, &ojg.Options{Sort: true})
	default:
		return query.FormatValue(val)
	}
}
