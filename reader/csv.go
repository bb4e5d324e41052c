package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/vegasq/pal/query"
)

const utf8BOM = "\ufeff"

// CSVReader streams a comma separated file, optionally gzip or zstd compressed.
// The first record is the header.
type CSVReader struct {
	file    *os.File
	decoder io.Closer
	csv     *csv.Reader
	header  []string
}

// NewCSVReader opens path and reads its header record
func NewCSVReader(path string, format Format) (*CSVReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &CSVReader{file: file}

	var stream io.Reader = file
	switch format {
	case FormatCSVGzip:
		gz, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		r.decoder, stream = gz, gz
	case FormatCSVZstd:
		zr, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		rc := zr.IOReadCloser()
		r.decoder, stream = rc, rc
	}

	r.csv = csv.NewReader(stream)
	// rows shorter than the header are kept; missing cells surface at extraction
	r.csv.FieldsPerRecord = -1
	r.csv.ReuseRecord = false

	header, err := r.csv.Read()
	if err != nil {
		_ = r.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: file has no header row", path)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	r.header = header

	return r, nil
}

// Header returns the column names of the file
func (r *CSVReader) Header() []string {
	return r.header
}

// Read returns the next data row
func (r *CSVReader) Read() (query.Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read row: %w", err)
	}
	return query.Row(record), nil
}

// Close releases the decoder and the file. It is safe to call more than once.
func (r *CSVReader) Close() error {
	if r.decoder != nil {
		_ = r.decoder.Close()
		r.decoder = nil
	}
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
