package pipeline

import (
	"log/slog"

	"github.com/vegasq/pal/internal/cast"
	"github.com/vegasq/pal/query"
)

// MissingValue stands in for cells past the end of a short row
const MissingValue = "<Missing>"

// Extract projects the candidate rows onto the requested properties and casts
// each cell by its column definition. An empty property list selects every
// column in header order. Unknown properties are skipped with a warning.
//
// Cells that fail to cast keep their text; the returned map counts the
// failures per column.
func Extract(c *Candidates, properties []string, defs cast.Definitions, log *slog.Logger) (query.Table, map[string]int) {
	log.Info("extracting properties", "candidates", c.Size())

	if len(properties) == 0 {
		properties = c.Header
	}

	var names []string
	var positions []int
	for _, property := range properties {
		idx, ok := c.Columns.Lookup(property)
		if !ok {
			log.Warn("property not found in column headers", "property", property)
			continue
		}
		names = append(names, property)
		positions = append(positions, idx)
	}

	failures := make(map[string]int)
	rows := make([]query.Record, 0, len(c.Rows))
	for _, row := range c.Rows {
		rec := make(query.Record, len(positions))
		for i, idx := range positions {
			if idx >= len(row) {
				rec[i] = MissingValue
				continue
			}

			value, err := defs.Cast(names[i], row[idx])
			if err != nil {
				failures[names[i]]++
				value = row[idx]
			}
			rec[i] = value
		}
		rows = append(rows, rec)
	}

	for column, n := range failures {
		log.Warn("values kept as text, cast failed", "column", column, "data_type", string(defs[column]), "count", n)
	}

	return query.Table{Columns: query.NewColumnIndex(names), Rows: rows}, failures
}
