// Package cast converts extracted text cells into typed values according to
// per-column data type definitions.
package cast

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DataType names the type a column is cast to
type DataType string

const (
	String   DataType = "string"
	Decimal  DataType = "decimal"
	Integer  DataType = "integer"
	Date     DataType = "date"
	DateTime DataType = "date_time"
)

var validTypes = map[DataType]bool{String: true, Decimal: true, Integer: true, Date: true, DateTime: true}

// ErrInvalidDataType is returned for data type names no caster handles
var ErrInvalidDataType = errors.New("invalid data type")

// ErrCast is returned when a cell cannot be converted to its declared type
var ErrCast = errors.New("cannot cast value")

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Definitions maps a column name to its declared data type
type Definitions map[string]DataType

// ParseDefinitions reads a column definition object. Each entry is either a
// type name or an object carrying a data_type key; a null or empty type leaves
// the column uncast.
func ParseDefinitions(raw map[string]interface{}) (Definitions, error) {
	defs := make(Definitions, len(raw))
	for column, entry := range raw {
		var name string
		switch v := entry.(type) {
		case nil:
			continue
		case string:
			name = v
		case map[string]interface{}:
			if dt, ok := v["data_type"].(string); ok {
				name = dt
			} else if v["data_type"] != nil {
				return nil, fmt.Errorf("column %q: data_type must be a string", column)
			}
		default:
			return nil, fmt.Errorf("column %q: definition must be a type name or an object", column)
		}

		if name == "" {
			continue
		}
		dt := DataType(strings.ToLower(strings.TrimSpace(name)))
		if !validTypes[dt] {
			return nil, fmt.Errorf("column %q: %w %q, valid types are %v", column, ErrInvalidDataType, name, Types())
		}
		defs[column] = dt
	}
	return defs, nil
}

// Types returns the supported data type names, sorted
func Types() []string {
	names := make([]string, 0, len(validTypes))
	for t := range validTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// Merge returns the union of d and overrides, overrides winning
func (d Definitions) Merge(overrides Definitions) Definitions {
	out := make(Definitions, len(d)+len(overrides))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Cast converts the cell of a column. Columns without a definition keep their text.
func (d Definitions) Cast(column, value string) (interface{}, error) {
	dt, ok := d[column]
	if !ok {
		return value, nil
	}
	return Value(dt, value)
}

// Value converts text to the given data type
func Value(dt DataType, value string) (interface{}, error) {
	trimmed := strings.TrimSpace(value)

	switch dt {
	case String:
		return value, nil
	case Decimal:
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w %q to %s", ErrCast, value, dt)
		}
		return d, nil
	case Integer:
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i, nil
		}
		// "12.7" truncates towards zero
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w %q to %s", ErrCast, value, dt)
		}
		return d.IntPart(), nil
	case Date:
		t, err := parseTime(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w %q to %s", ErrCast, value, dt)
		}
		y, m, day := t.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
	case DateTime:
		t, err := parseTime(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w %q to %s", ErrCast, value, dt)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrInvalidDataType, dt)
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
