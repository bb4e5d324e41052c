package query

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// sampleGroups builds {"abc": [["abc",1],["abc",2]], "def": [["def",5],["def",5]]}
// plus an optional third group whose rows tie on the property.
func sampleGroups(t *testing.T, withTie bool) (*Groups, ColumnIndex) {
	t.Helper()

	columns := ColumnIndex{"name": 0, "value": 1, "tag": 2}
	rows := []Record{
		{"abc", 1, "a1"},
		{"abc", 2, "a2"},
		{"def", 5, "d1"},
		{"def", 5, "d2"},
	}
	if withTie {
		rows = append(rows, Record{"ghi", 7, "first"}, Record{"ghi", 3, "low"}, Record{"ghi", 7, "second"}, Record{"ghi", 3, "low-again"})
	}

	groups, err := GroupBy(rows, columns, []string{"name"})
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}
	return groups, columns
}

func project(t *testing.T, typ ProjectionType, property string, groups *Groups, columns ColumnIndex) Table {
	t.Helper()

	p, err := NewProjection(typ, property)
	if err != nil {
		t.Fatalf("NewProjection() error = %v", err)
	}
	out, err := p.Project([]string{"name"}, groups, columns)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	return out
}

func TestSumProjection(t *testing.T) {
	groups, columns := sampleGroups(t, false)
	got := project(t, ProjectionSum, "value", groups, columns)

	want := Table{
		Columns: ColumnIndex{"name": 0, "sum_value": 1},
		Rows:    []Record{{"abc", 3.0}, {"def", 10.0}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Project() = %+v, want %+v", got, want)
	}
}

func TestSumProjection_Rounding(t *testing.T) {
	columns := ColumnIndex{"k": 0, "v": 1}
	groups, err := GroupBy([]Record{{"x", "0.1"}, {"x", "0.2"}, {"y", "0.123456789"}}, columns, []string{"k"})
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}

	p, _ := NewProjection(ProjectionSum, "v")
	got, err := p.Project([]string{"k"}, groups, columns)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	if got.Rows[0][1] != 0.3 {
		t.Errorf("sum of 0.1 and 0.2 = %v, want 0.3", got.Rows[0][1])
	}
	if got.Rows[1][1] != 0.12345679 {
		t.Errorf("sum rounded to 8 places = %v, want 0.12345679", got.Rows[1][1])
	}
}

func TestSumProjection_NonFinite(t *testing.T) {
	tests := []struct {
		name string
		rows []Record
		want float64
	}{
		{"NaN cell counts as zero", []Record{{"a", "1"}, {"a", "NaN"}}, 1},
		{"inf cell counts as zero", []Record{{"a", "inf"}}, 0},
		{"overflowing total stays infinite", []Record{{"a", "1e308"}, {"a", "1e308"}}, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := projectNonFinite(t, ProjectionSum, tt.rows)
			if got != tt.want {
				t.Errorf("sum = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAverageProjection_NonFinite(t *testing.T) {
	tests := []struct {
		name string
		rows []Record
		want float64
	}{
		{"NaN cell counts as zero", []Record{{"a", "1"}, {"a", "NaN"}}, 0.5},
		{"inf cell counts as zero", []Record{{"a", "inf"}}, 0},
		{"overflowing total stays infinite", []Record{{"a", "1e308"}, {"a", "1e308"}}, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := projectNonFinite(t, ProjectionAverage, tt.rows)
			if got != tt.want {
				t.Errorf("average = %v, want %v", got, tt.want)
			}
		})
	}
}

// projectNonFinite runs a grouped projection through Actions and returns the single aggregate
func projectNonFinite(t *testing.T, typ ProjectionType, rows []Record) float64 {
	t.Helper()

	actions, err := NewActions(ActionsSpec{
		GroupBy:    []string{"k"},
		Projection: &ProjectionSpec{Type: string(typ), Property: "v"},
	})
	if err != nil {
		t.Fatalf("NewActions() error = %v", err)
	}
	out, err := actions.Process(Table{Columns: ColumnIndex{"k": 0, "v": 1}, Rows: rows})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("Process() rows = %v, want one group", out.Rows)
	}
	value, ok := out.Rows[0][1].(float64)
	if !ok {
		t.Fatalf("aggregate = %T, want float64", out.Rows[0][1])
	}
	return value
}

func TestAverageProjection(t *testing.T) {
	groups, columns := sampleGroups(t, false)
	got := project(t, ProjectionAverage, "value", groups, columns)

	want := Table{
		Columns: ColumnIndex{"name": 0, "average_value": 1},
		Rows:    []Record{{"abc", 1.5}, {"def", 5.0}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Project() = %+v, want %+v", got, want)
	}
}

func TestMaxProjection(t *testing.T) {
	groups, columns := sampleGroups(t, true)
	got := project(t, ProjectionMax, "value", groups, columns)

	if !reflect.DeepEqual(got.Columns, columns) {
		t.Errorf("Columns = %v, want original %v", got.Columns, columns)
	}

	want := []Record{
		{"abc", 2, "a2"},
		{"def", 5, "d1"},
		{"ghi", 7, "first"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %v, want %v", got.Rows, want)
	}
}

func TestMinProjection(t *testing.T) {
	groups, columns := sampleGroups(t, true)
	got := project(t, ProjectionMin, "value", groups, columns)

	want := []Record{
		{"abc", 1, "a1"},
		{"def", 5, "d1"},
		{"ghi", 3, "low"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %v, want %v", got.Rows, want)
	}
}

func TestCountProjection(t *testing.T) {
	groups, columns := sampleGroups(t, false)

	// group_by is ignored: the counts span every group
	got := project(t, ProjectionCount, "value", groups, columns)

	want := Table{
		Columns: ColumnIndex{"value": 0, "count_value": 1},
		Rows:    []Record{{1, 1}, {2, 1}, {5, 2}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Project() = %+v, want %+v", got, want)
	}
}

func TestDistinctProjection(t *testing.T) {
	columns := ColumnIndex{"g": 0, "service": 1}
	groups, err := GroupBy([]Record{
		{"1", "ec2"},
		{"2", "s3"},
		{"1", "s3"},
		{"3", "lambda"},
		{"2", "ec2"},
	}, columns, []string{"g"})
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}

	p, _ := NewProjection(ProjectionDistinct, "service")
	got, err := p.Project([]string{"g"}, groups, columns)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	want := Table{
		Columns: ColumnIndex{"distinct_service": 0},
		// groups visit 1 -> {ec2, s3}, 2 -> {s3, ec2}, 3 -> {lambda}
		Rows: []Record{{"ec2"}, {"s3"}, {"lambda"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Project() = %+v, want %+v", got, want)
	}
}

func TestDefaultProjection(t *testing.T) {
	columns := ColumnIndex{"g": 0, "v": 1}
	groups, err := GroupBy([]Record{{"a", 1}, {"b", 2}, {"a", 3}}, columns, []string{"g"})
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}

	p, _ := NewProjection(ProjectionDefault, "v")
	got, err := p.Project([]string{"g"}, groups, columns)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	want := Table{
		Columns: columns,
		Rows:    []Record{{"a", 1}, {"a", 3}, {"b", 2}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Project() = %+v, want %+v", got, want)
	}
}

func TestProjection_MissingProperty(t *testing.T) {
	groups, columns := sampleGroups(t, false)

	for _, typ := range []ProjectionType{ProjectionSum, ProjectionAverage, ProjectionDistinct, ProjectionCount, ProjectionMin, ProjectionMax} {
		t.Run(string(typ), func(t *testing.T) {
			p, err := NewProjection(typ, "missing")
			if err != nil {
				t.Fatalf("NewProjection() error = %v", err)
			}
			if _, err := p.Project([]string{"name"}, groups, columns); !errors.Is(err, ErrMissingColumn) {
				t.Errorf("Project() error = %v, want ErrMissingColumn", err)
			}
		})
	}
}

func TestNewProjection_Registry(t *testing.T) {
	if _, err := NewProjection("median", "v"); !errors.Is(err, ErrUnknownProjection) {
		t.Errorf("NewProjection(median) error = %v, want ErrUnknownProjection", err)
	}

	p, err := NewProjection("", "v")
	if err != nil {
		t.Fatalf("NewProjection(\"\") error = %v", err)
	}
	if p.Type() != ProjectionDefault {
		t.Errorf("empty tag resolved to %v, want default", p.Type())
	}

	RegisterProjection("first", func(property string) Projection {
		return &defaultProjection{base{"first", property}}
	})
	defer delete(projections, "first")

	p, err = NewProjection("FIRST", "v")
	if err != nil {
		t.Fatalf("NewProjection(FIRST) error = %v", err)
	}
	if p.Type() != "first" || p.Property() != "v" {
		t.Errorf("custom projection = %v/%v", p.Type(), p.Property())
	}
}
