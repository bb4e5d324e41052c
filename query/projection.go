package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ProjectionType names a projection strategy
type ProjectionType string

const (
	ProjectionSum      ProjectionType = "sum"
	ProjectionAverage  ProjectionType = "average"
	ProjectionDistinct ProjectionType = "distinct"
	ProjectionMin      ProjectionType = "min"
	ProjectionMax      ProjectionType = "max"
	ProjectionCount    ProjectionType = "count"
	ProjectionDefault  ProjectionType = "default"
)

// sumPrecision is the number of decimal places sums are rounded to
const sumPrecision = 8

// Projection reduces grouped rows into a new table
type Projection interface {
	Type() ProjectionType
	Property() string
	// Processable reports whether both the type and the target property are set
	Processable() bool
	Project(groupBy []string, groups *Groups, columns ColumnIndex) (Table, error)
}

// ProjectionFactory creates a projection for a target property
type ProjectionFactory func(property string) Projection

var projections = map[ProjectionType]ProjectionFactory{
	ProjectionSum:      func(p string) Projection { return &sumProjection{base{ProjectionSum, p}} },
	ProjectionAverage:  func(p string) Projection { return &averageProjection{base{ProjectionAverage, p}} },
	ProjectionDistinct: func(p string) Projection { return &distinctProjection{base{ProjectionDistinct, p}} },
	ProjectionCount:    func(p string) Projection { return &countProjection{base{ProjectionCount, p}} },
	ProjectionMin: func(p string) Projection {
		return &extremumProjection{base{ProjectionMin, p}, func(candidate, current float64) bool { return candidate < current }}
	},
	ProjectionMax: func(p string) Projection {
		return &extremumProjection{base{ProjectionMax, p}, func(candidate, current float64) bool { return candidate > current }}
	},
	ProjectionDefault: func(p string) Projection { return &defaultProjection{base{ProjectionDefault, p}} },
}

// RegisterProjection adds or replaces a projection strategy
func RegisterProjection(t ProjectionType, factory ProjectionFactory) {
	projections[ProjectionType(strings.ToLower(string(t)))] = factory
}

// ProjectionTypes returns the registered projection tags, sorted
func ProjectionTypes() []string {
	names := make([]string, 0, len(projections))
	for t := range projections {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// NewProjection resolves a projection tag. An empty tag selects the default projection.
func NewProjection(t ProjectionType, property string) (Projection, error) {
	name := ProjectionType(strings.ToLower(strings.TrimSpace(string(t))))
	if name == "" {
		name = ProjectionDefault
	}

	factory, ok := projections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q, valid projections are %v", ErrUnknownProjection, t, ProjectionTypes())
	}
	return factory(property), nil
}

type base struct {
	kind     ProjectionType
	property string
}

func (b base) Type() ProjectionType { return b.kind }
func (b base) Property() string     { return b.property }
func (b base) Processable() bool    { return b.kind != "" && b.property != "" }

// groupHeader copies the group-by cells of a group's first row
func groupHeader(groupBy []string, first Record, columns ColumnIndex) Record {
	row := make(Record, 0, len(groupBy)+1)
	for _, col := range groupBy {
		row = append(row, cellAt(first, columns[col]))
	}
	return row
}

// groupColumns builds the group-by columns followed by one aggregate column
func groupColumns(groupBy []string, aggregate string) ColumnIndex {
	cols := make(ColumnIndex, len(groupBy)+1)
	for i, col := range groupBy {
		cols[col] = i
	}
	cols[aggregate] = len(groupBy)
	return cols
}

// roundedSum adds the property across a group's rows and rounds the total.
// A total that overflowed to an infinity is returned as is.
func roundedSum(rows []Record, idx int) float64 {
	sum := 0.0
	for _, row := range rows {
		sum += toFloat64(cellAt(row, idx))
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return sum
	}
	return decimal.NewFromFloat(sum).Round(sumPrecision).InexactFloat64()
}

type sumProjection struct{ base }

func (p *sumProjection) Project(groupBy []string, groups *Groups, columns ColumnIndex) (Table, error) {
	idx, err := columns.Require(p.property)
	if err != nil {
		return Table{}, err
	}

	rows := make([]Record, 0, groups.Len())
	for _, group := range groups.All() {
		row := groupHeader(groupBy, group.Rows[0], columns)
		rows = append(rows, append(row, roundedSum(group.Rows, idx)))
	}

	return Table{Columns: groupColumns(groupBy, "sum_"+p.property), Rows: rows}, nil
}

type averageProjection struct{ base }

func (p *averageProjection) Project(groupBy []string, groups *Groups, columns ColumnIndex) (Table, error) {
	idx, err := columns.Require(p.property)
	if err != nil {
		return Table{}, err
	}

	rows := make([]Record, 0, groups.Len())
	for _, group := range groups.All() {
		row := groupHeader(groupBy, group.Rows[0], columns)
		avg := roundedSum(group.Rows, idx) / float64(len(group.Rows))
		rows = append(rows, append(row, avg))
	}

	return Table{Columns: groupColumns(groupBy, "average_"+p.property), Rows: rows}, nil
}

type distinctProjection struct{ base }

func (p *distinctProjection) Project(_ []string, groups *Groups, columns ColumnIndex) (Table, error) {
	idx, err := columns.Require(p.property)
	if err != nil {
		return Table{}, err
	}

	seen := make(map[string]bool)
	rows := make([]Record, 0)
	for _, group := range groups.All() {
		for _, entry := range group.Rows {
			value := cellAt(entry, idx)
			key := FormatValue(value)
			if seen[key] {
				continue
			}
			seen[key] = true
			rows = append(rows, Record{value})
		}
	}

	return Table{Columns: ColumnIndex{"distinct_" + p.property: 0}, Rows: rows}, nil
}

type countProjection struct{ base }

func (p *countProjection) Project(_ []string, groups *Groups, columns ColumnIndex) (Table, error) {
	idx, err := columns.Require(p.property)
	if err != nil {
		return Table{}, err
	}

	var order []string
	values := make(map[string]interface{})
	counts := make(map[string]int)
	for _, group := range groups.All() {
		for _, entry := range group.Rows {
			value := cellAt(entry, idx)
			key := FormatValue(value)
			if _, exists := counts[key]; !exists {
				order = append(order, key)
				values[key] = value
			}
			counts[key]++
		}
	}

	rows := make([]Record, 0, len(order))
	for _, key := range order {
		rows = append(rows, Record{values[key], counts[key]})
	}

	return Table{Columns: ColumnIndex{p.property: 0, "count_" + p.property: 1}, Rows: rows}, nil
}

// extremumProjection keeps, per group, the row whose property is extremal.
// The first row seeds the extremum and is only replaced on a strict improvement.
type extremumProjection struct {
	base
	better func(candidate, current float64) bool
}

func (p *extremumProjection) Project(_ []string, groups *Groups, columns ColumnIndex) (Table, error) {
	idx, err := columns.Require(p.property)
	if err != nil {
		return Table{}, err
	}

	rows := make([]Record, 0, groups.Len())
	for _, group := range groups.All() {
		kept := group.Rows[0]
		current := toFloat64(cellAt(kept, idx))
		for _, entry := range group.Rows[1:] {
			value := toFloat64(cellAt(entry, idx))
			if p.better(value, current) {
				kept, current = entry, value
			}
		}
		rows = append(rows, kept)
	}

	return Table{Columns: columns.Clone(), Rows: rows}, nil
}

// defaultProjection passes the grouped rows through, group by group.
// The result is one flat row list: rows of the same group stay adjacent but
// group boundaries are not kept.
type defaultProjection struct{ base }

func (p *defaultProjection) Project(_ []string, groups *Groups, columns ColumnIndex) (Table, error) {
	rows := make([]Record, 0, groups.Size())
	for _, group := range groups.All() {
		rows = append(rows, group.Rows...)
	}
	return Table{Columns: columns.Clone(), Rows: rows}, nil
}
