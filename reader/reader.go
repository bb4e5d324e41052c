package reader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vegasq/pal/query"
)

// Format identifies how a source file is decoded
type Format string

const (
	FormatCSV     Format = "csv"
	FormatCSVGzip Format = "csv.gz"
	FormatCSVZstd Format = "csv.zst"
	FormatParquet Format = "parquet"
)

// ErrUnsupportedFormat is returned for files whose extension no source handles
var ErrUnsupportedFormat = errors.New("unsupported source format")

// maxFiles bounds how many files a set of patterns may expand to
const maxFiles = 1000

// Source streams the rows of one file. Header is available right after Open;
// Read returns io.EOF once the rows are exhausted.
type Source interface {
	Header() []string
	Read() (query.Row, error)
	Close() error
}

// DetectFormat picks the decoder for a path from its extension
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".csv.gz"):
		return FormatCSVGzip, nil
	case strings.HasSuffix(name, ".csv.zst"), strings.HasSuffix(name, ".csv.zstd"):
		return FormatCSVZstd, nil
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(name, ".parquet"):
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Open opens a source file and reads its header
func Open(path string) (Source, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatParquet:
		return NewParquetReader(path)
	default:
		return NewCSVReader(path, format)
	}
}

// ReadAll loads a whole source file into memory
func ReadAll(path string) ([]string, []query.Row, error) {
	src, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = src.Close() }()

	var rows []query.Row
	for {
		row, err := src.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	return src.Header(), rows, nil
}

// Expand resolves a list of paths and glob patterns into files.
//
// Plain paths are kept as given, in order. Patterns are expanded with
// filepath.Glob and their matches are sorted. A pattern matching nothing is an
// error, as is a file listed twice.
func Expand(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches := []string{pattern}
		if strings.ContainsAny(pattern, "*?[") {
			var err error
			matches, err = filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern: %w", err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match pattern: %s", pattern)
			}
			sort.Strings(matches)
		}

		for _, match := range matches {
			if seen[match] {
				return nil, fmt.Errorf("source listed more than once: %s", match)
			}
			seen[match] = true
			files = append(files, match)
		}
	}

	if len(files) > maxFiles {
		return nil, fmt.Errorf("sources matched too many files (%d), maximum is %d", len(files), maxFiles)
	}

	return files, nil
}
