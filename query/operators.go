package query

import (
	"sort"
	"strings"
)

// operatorFunc tests a raw cell against a rule literal
type operatorFunc func(cell string, value interface{}) bool

// operatorTables holds the operators defined for each field type
var operatorTables = map[FieldType]map[string]operatorFunc{
	TypeString: stringOperators(),
	TypeNumber: orderedOperators(numberOperand),
	TypeDate:   orderedOperators(dateOperand),
	TypeJSON:   jsonOperators(),
}

// ValidOperators returns the sorted operator names defined for a type
func ValidOperators(t FieldType) []string {
	ops := operatorTables[t]
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidTypes returns the sorted rule types
func ValidTypes() []string {
	names := make([]string, 0, len(operatorTables))
	for t := range operatorTables {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

func stringOperators() map[string]operatorFunc {
	return map[string]operatorFunc{
		"equal":           func(x string, y interface{}) bool { return x == literalText(y) },
		"not_equal":       func(x string, y interface{}) bool { return x != literalText(y) },
		"begins_with":     func(x string, y interface{}) bool { return strings.HasPrefix(x, literalText(y)) },
		"not_begins_with": func(x string, y interface{}) bool { return !strings.HasPrefix(x, literalText(y)) },
		"ends_with":       func(x string, y interface{}) bool { return strings.HasSuffix(x, literalText(y)) },
		"not_ends_with":   func(x string, y interface{}) bool { return !strings.HasSuffix(x, literalText(y)) },
		"contains":        func(x string, y interface{}) bool { return strings.Contains(x, literalText(y)) },
		"not_contains":    func(x string, y interface{}) bool { return !strings.Contains(x, literalText(y)) },
		"is_empty":        func(x string, _ interface{}) bool { return len(x) == 0 },
		"is_not_empty":    func(x string, _ interface{}) bool { return len(x) != 0 },
	}
}

// operand converts text into a comparable float (a number, or a day for dates)
type operand func(s string) (float64, bool)

func numberOperand(s string) (float64, bool) {
	return parseNumber(s)
}

func dateOperand(s string) (float64, bool) {
	t, err := parseDate(s)
	if err != nil {
		return 0, false
	}
	return float64(t.Unix()), true
}

// orderedOperators builds the number/date operator table on top of a conversion
func orderedOperators(conv operand) map[string]operatorFunc {
	cmp := func(test func(x, y float64) bool) operatorFunc {
		return func(cell string, value interface{}) bool {
			if _, isRange := value.([]interface{}); isRange {
				return false
			}
			x, ok := conv(cell)
			if !ok {
				return false
			}
			y, ok := conv(literalText(value))
			if !ok {
				return false
			}
			return test(x, y)
		}
	}

	between := func(negate bool) operatorFunc {
		return func(cell string, value interface{}) bool {
			bounds, ok := value.([]interface{})
			if !ok || len(bounds) != 2 {
				return false
			}
			lo, ok := conv(literalText(bounds[0]))
			if !ok {
				return false
			}
			hi, ok := conv(literalText(bounds[1]))
			if !ok {
				return false
			}
			x, ok := conv(cell)
			if !ok {
				return false
			}
			in := lo <= x && x <= hi
			if negate {
				return !in
			}
			return in
		}
	}

	return map[string]operatorFunc{
		"equal":            cmp(numbersEqual),
		"not_equal":        cmp(func(x, y float64) bool { return !numbersEqual(x, y) }),
		"less":             cmp(func(x, y float64) bool { return x < y }),
		"less_or_equal":    cmp(func(x, y float64) bool { return x <= y }),
		"greater":          cmp(func(x, y float64) bool { return x > y }),
		"greater_or_equal": cmp(func(x, y float64) bool { return x >= y }),
		"between":          between(false),
		"not_between":      between(true),
	}
}
