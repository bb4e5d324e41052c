package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vegasq/pal/internal/logger"
)

// groupKeySeparator joins the group-by cells of a row into its group key
const groupKeySeparator = "."

// Group is the set of rows sharing one group key
type Group struct {
	Key  string
	Rows []Record
}

// Groups keeps groups in first-seen order
type Groups struct {
	order []*Group
	index map[string]*Group
}

func newGroups() *Groups {
	return &Groups{index: make(map[string]*Group)}
}

func (g *Groups) add(key string, row Record) {
	if group, exists := g.index[key]; exists {
		group.Rows = append(group.Rows, row)
		return
	}
	group := &Group{Key: key, Rows: []Record{row}}
	g.index[key] = group
	g.order = append(g.order, group)
}

// All returns the groups in insertion order
func (g *Groups) All() []*Group {
	return g.order
}

// Get returns the group for a key
func (g *Groups) Get(key string) (*Group, bool) {
	group, ok := g.index[key]
	return group, ok
}

// Len returns the number of groups
func (g *Groups) Len() int {
	return len(g.order)
}

// Size returns the number of rows across all groups
func (g *Groups) Size() int {
	n := 0
	for _, group := range g.order {
		n += len(group.Rows)
	}
	return n
}

// GroupBy partitions rows by the values of the group-by columns.
// Every group-by column is resolved before any row is touched.
func GroupBy(rows []Record, columns ColumnIndex, groupBy []string) (*Groups, error) {
	positions := make([]int, len(groupBy))
	for i, col := range groupBy {
		idx, err := columns.Require(col)
		if err != nil {
			return nil, fmt.Errorf("GROUP BY: %w", err)
		}
		positions[i] = idx
	}

	groups := newGroups()
	for _, row := range rows {
		groups.add(computeGroupKey(row, positions), row)
	}

	return groups, nil
}

// computeGroupKey joins a row's group-by cells with the key separator
func computeGroupKey(row Record, positions []int) string {
	var keyBuilder strings.Builder
	for i, idx := range positions {
		if i > 0 {
			keyBuilder.WriteString(groupKeySeparator)
		}
		if idx < len(row) {
			keyBuilder.WriteString(FormatValue(row[idx]))
		}
	}
	return keyBuilder.String()
}

// ProjectionSpec is the declarative form of a projection
type ProjectionSpec struct {
	Type     string `json:"type" yaml:"type"`
	Property string `json:"property" yaml:"property"`
}

// ActionsSpec is the declarative group/projection/sort document
type ActionsSpec struct {
	GroupBy    []string        `json:"group_by" yaml:"group_by"`
	SortBy     string          `json:"sort_by" yaml:"sort_by"`
	Projection *ProjectionSpec `json:"projection" yaml:"projection"`
}

// Actions regroups candidate rows, projects them and optionally sorts the result
type Actions struct {
	GroupBy    []string
	SortBy     string
	Projection Projection
}

// NewActions resolves an actions document. The projection strategy is looked
// up here so unknown tags fail before any row is read.
func NewActions(spec ActionsSpec) (*Actions, error) {
	var projType, property string
	if spec.Projection != nil {
		projType, property = spec.Projection.Type, spec.Projection.Property
	}

	projection, err := NewProjection(ProjectionType(projType), property)
	if err != nil {
		return nil, err
	}

	return &Actions{
		GroupBy:    spec.GroupBy,
		SortBy:     spec.SortBy,
		Projection: projection,
	}, nil
}

// Processable reports whether the actions should run at all
func (a *Actions) Processable() bool {
	return a != nil && a.GroupBy != nil
}

// Process groups the table, applies the projection and sorts the result.
// When the projection is not processable the input table is returned unchanged
// after grouping validated the group-by columns.
func (a *Actions) Process(table Table) (Table, error) {
	logger.Info("performing grouping", "group_by", a.GroupBy, "rows", len(table.Rows))

	groups, err := GroupBy(table.Rows, table.Columns, a.GroupBy)
	if err != nil {
		return Table{}, err
	}

	if a.Projection == nil || !a.Projection.Processable() {
		logger.Debug("projection not processable, passing rows through", "groups", groups.Len())
		return table, nil
	}

	logger.Info("performing projection", "type", a.Projection.Type(), "property", a.Projection.Property(), "groups", groups.Len())
	result, err := a.Projection.Project(a.GroupBy, groups, table.Columns)
	if err != nil {
		return Table{}, fmt.Errorf("projection %s: %w", a.Projection.Type(), err)
	}

	if a.SortBy != "" {
		result, err = ApplySortBy(result, a.SortBy)
		if err != nil {
			return Table{}, err
		}
	}

	return result, nil
}

// ApplySortBy sorts rows ascending by one column and then reverses the whole
// sequence, so the observable order is descending.
func ApplySortBy(table Table, column string) (Table, error) {
	idx, err := table.Columns.Require(column)
	if err != nil {
		return Table{}, fmt.Errorf("SORT BY: %w", err)
	}

	// Create a copy to avoid modifying the original slice
	sorted := make([]Record, len(table.Rows))
	copy(sorted, table.Rows)

	sort.SliceStable(sorted, func(i, j int) bool {
		return compareValues(cellAt(sorted[i], idx), cellAt(sorted[j], idx)) < 0
	})

	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}

	return Table{Columns: table.Columns, Rows: sorted}, nil
}

func cellAt(row Record, idx int) interface{} {
	if idx < len(row) {
		return row[idx]
	}
	return nil
}
