package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/vegasq/pal/query"
	"github.com/vegasq/pal/reader"
)

// ErrHeaderMismatch is returned when a later source file does not carry the
// columns of the first one
var ErrHeaderMismatch = errors.New("source header mismatch")

// Candidates accumulates the rows that passed the filter across all source files
type Candidates struct {
	Header    []string
	Columns   query.ColumnIndex
	Rows      []query.Row
	TotalRows int
	FileRows  map[string]int
}

// Size returns the number of candidate rows
func (c *Candidates) Size() int {
	return len(c.Rows)
}

// Collect reads every source in order and keeps the rows the filter accepts.
// The first file's header defines the column index; later files must carry
// the same set of columns and are reordered to match it.
func Collect(ctx context.Context, sources []string, filter *query.Filter, log *slog.Logger) (*Candidates, error) {
	c := &Candidates{FileRows: make(map[string]int, len(sources))}

	for i, path := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info("opening file", "file", path, "index", i)
		if err := c.collectFile(ctx, path, filter); err != nil {
			return nil, err
		}
		log.Debug("file processed", "file", path, "rows", c.FileRows[path], "candidates", len(c.Rows))
	}

	log.Info("process completed", "candidates", len(c.Rows), "rows", c.TotalRows)
	return c, nil
}

func (c *Candidates) collectFile(ctx context.Context, path string, filter *query.Filter) error {
	src, err := reader.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	var order []int
	if c.Columns == nil {
		c.Header = append([]string(nil), src.Header()...)
		c.Columns = query.NewColumnIndex(c.Header)
	} else {
		order, err = reorder(c.Header, src.Header())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		row, err := src.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		c.TotalRows++
		c.FileRows[path]++

		if order != nil {
			row = permute(row, order)
		}

		keep, err := filter.Test(row, c.Columns)
		if err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if keep {
			c.Rows = append(c.Rows, row)
		}
	}
}

// reorder maps the positions of want onto got. It returns nil when both
// headers are identical.
func reorder(want, got []string) ([]int, error) {
	if equalHeaders(want, got) {
		return nil, nil
	}

	a := append([]string(nil), want...)
	b := append([]string(nil), got...)
	sort.Strings(a)
	sort.Strings(b)
	if !equalHeaders(a, b) {
		return nil, fmt.Errorf("%w: expected [%s], got [%s]", ErrHeaderMismatch,
			strings.Join(want, ","), strings.Join(got, ","))
	}

	positions := query.NewColumnIndex(got)
	order := make([]int, len(want))
	for i, name := range want {
		order[i] = positions[name]
	}
	return order, nil
}

func permute(row query.Row, order []int) query.Row {
	out := make(query.Row, len(order))
	for i, from := range order {
		if from < len(row) {
			out[i] = row[from]
		}
	}
	return out
}

func equalHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
