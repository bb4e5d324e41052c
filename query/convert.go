package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order when a cell or literal is read as a date
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z0700",
	"01/02/2006",
}

// parseDate parses a date or timestamp string and truncates it to its calendar day (UTC)
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date: %s", s)
}

// parseNumber parses a text cell as a finite float. NaN and infinities are
// not numbers here.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// literalText renders a decoded rule literal as text
func literalText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toFloat64 converts a record cell to float64 for arithmetic. Text that does
// not parse counts as zero.
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case decimal.Decimal:
		return val.InexactFloat64()
	case time.Time:
		return float64(val.Unix())
	case string:
		f, _ := parseNumber(val)
		return f
	default:
		f, _ := parseNumber(FormatValue(val))
		return f
	}
}

// isNumeric reports whether a record cell can take part in a numeric comparison
func isNumeric(v interface{}) bool {
	switch val := v.(type) {
	case float64, float32, int, int32, int64, decimal.Decimal:
		return true
	case string:
		_, ok := parseNumber(val)
		return ok
	default:
		return false
	}
}

// FormatValue renders a record cell as text. Group keys and exporters share it.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// compareValues orders two record cells: -1, 0 or +1.
// Cells rank by class first (nil, numbers, times, text) and then compare
// within their class, so mixed columns still sort in a total order.
func compareValues(a, b interface{}) int {
	ca, cb := valueClass(a), valueClass(b)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}

	switch ca {
	case classNil:
		return 0
	case classNumber:
		x, y := toFloat64(a), toFloat64(b)
		switch {
		case math.IsNaN(x) || math.IsNaN(y):
			// NaN sorts below every other number
			return compareBool(!math.IsNaN(x), !math.IsNaN(y))
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case classTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(FormatValue(a), FormatValue(b))
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

const (
	classNil = iota
	classNumber
	classTime
	classText
)

func valueClass(v interface{}) int {
	if v == nil {
		return classNil
	}
	if _, ok := v.(time.Time); ok {
		return classTime
	}
	if isNumeric(v) {
		return classNumber
	}
	return classText
}

// numbersEqual compares two floats with a relative epsilon
func numbersEqual(left, right float64) bool {
	const epsilon = 1e-9
	diff := math.Abs(left - right)
	threshold := epsilon * math.Max(1.0, math.Max(math.Abs(left), math.Abs(right)))
	return diff < threshold
}
