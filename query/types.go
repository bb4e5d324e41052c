package query

import (
	"fmt"
	"sort"
)

// Row is one source record, every cell as text
type Row []string

// Record is an extracted row. Cells start out as text and may carry typed
// values (decimal.Decimal, int64, time.Time) once column casting ran.
type Record []interface{}

// ColumnIndex maps a column name to its zero-based position
type ColumnIndex map[string]int

// NewColumnIndex builds a column index from a header row.
// When a name repeats, the first position wins.
func NewColumnIndex(header []string) ColumnIndex {
	cols := make(ColumnIndex, len(header))
	for i, name := range header {
		if _, exists := cols[name]; exists {
			continue
		}
		cols[name] = i
	}
	return cols
}

// Lookup returns the position of a column
func (c ColumnIndex) Lookup(name string) (int, bool) {
	idx, ok := c[name]
	return idx, ok
}

// Require returns the position of a column or an error naming the valid columns
func (c ColumnIndex) Require(name string) (int, error) {
	idx, ok := c[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q, valid columns are %v", ErrMissingColumn, name, c.Names())
	}
	return idx, nil
}

// Names returns the column names ordered by position
func (c ColumnIndex) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if c[names[i]] != c[names[j]] {
			return c[names[i]] < c[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// Clone returns an independent copy of the index
func (c ColumnIndex) Clone() ColumnIndex {
	out := make(ColumnIndex, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Table is a row set together with the column index describing it
type Table struct {
	Columns ColumnIndex
	Rows    []Record
}

// FieldType selects the conversion and operator table of an operator rule
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeDate   FieldType = "date"
	TypeJSON   FieldType = "json"
)

// Condition combines the children of a group rule
type Condition string

const (
	ConditionAnd Condition = "AND"
	ConditionOr  Condition = "OR"
)

// Rule is a node of a rule tree
type Rule interface {
	Evaluate(ctx *EvaluationContext) (bool, error)
}

// GroupRule combines child rules with AND or OR
type GroupRule struct {
	Condition Condition
	Rules     []Rule
}

// OperatorRule compares one field against a literal
type OperatorRule struct {
	Field    string
	Type     FieldType
	Operator string
	Value    interface{} // string, float64, bool, []interface{} or map[string]interface{}
}

// EvaluationContext pairs a row with the index used to address its cells
type EvaluationContext struct {
	Row     Row
	Columns ColumnIndex
}

// NewEvaluationContext creates a context for one row
func NewEvaluationContext(row Row, columns ColumnIndex) *EvaluationContext {
	return &EvaluationContext{Row: row, Columns: columns}
}

// Value looks up a field by name. The boolean is false when the column is
// unknown or the row is too short to hold it.
func (e *EvaluationContext) Value(field string) (string, bool) {
	idx, ok := e.Columns[field]
	if !ok || idx < 0 || idx >= len(e.Row) {
		return "", false
	}
	return e.Row[idx], true
}
