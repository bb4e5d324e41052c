package query

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestApplySortBy(t *testing.T) {
	tests := []struct {
		name   string
		rows   []Record
		column string
		want   []Record
	}{
		{
			name:   "numbers come out descending",
			rows:   []Record{{"x", 1.0}, {"y", 3.0}, {"z", 2.0}},
			column: "v",
			want:   []Record{{"y", 3.0}, {"z", 2.0}, {"x", 1.0}},
		},
		{
			name:   "numeric text compares numerically",
			rows:   []Record{{"x", "9"}, {"y", "10"}, {"z", "100"}},
			column: "v",
			want:   []Record{{"z", "100"}, {"y", "10"}, {"x", "9"}},
		},
		{
			name:   "text compares lexically",
			rows:   []Record{{"b", 0}, {"c", 0}, {"a", 0}},
			column: "k",
			want:   []Record{{"c", 0}, {"b", 0}, {"a", 0}},
		},
		{
			name:   "text ranks above numbers",
			rows:   []Record{{"x", "9"}, {"y", "10"}, {"z", "5a"}, {"w", "<Missing>"}},
			column: "v",
			want:   []Record{{"w", "<Missing>"}, {"z", "5a"}, {"y", "10"}, {"x", "9"}},
		},
		{
			name:   "ties come out in reverse insertion order",
			rows:   []Record{{"first", 1.0}, {"second", 1.0}, {"third", 0.5}},
			column: "v",
			want:   []Record{{"second", 1.0}, {"first", 1.0}, {"third", 0.5}},
		},
		{
			name: "decimals",
			rows: []Record{
				{"x", decimal.RequireFromString("1.10")},
				{"y", decimal.RequireFromString("1.01")},
			},
			column: "v",
			want: []Record{
				{"x", decimal.RequireFromString("1.10")},
				{"y", decimal.RequireFromString("1.01")},
			},
		},
		{
			name: "times",
			rows: []Record{
				{"x", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
				{"y", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
			},
			column: "v",
			want: []Record{
				{"y", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
				{"x", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name:   "empty",
			rows:   []Record{},
			column: "v",
			want:   []Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Table{Columns: ColumnIndex{"k": 0, "v": 1}, Rows: tt.rows}
			got, err := ApplySortBy(table, tt.column)
			if err != nil {
				t.Fatalf("ApplySortBy() error = %v", err)
			}
			if !reflect.DeepEqual(got.Rows, tt.want) {
				t.Errorf("ApplySortBy() = %v, want %v", got.Rows, tt.want)
			}
		})
	}
}

func TestApplySortBy_DoesNotMutateInput(t *testing.T) {
	rows := []Record{{"x", 1.0}, {"y", 2.0}}
	_, err := ApplySortBy(Table{Columns: ColumnIndex{"k": 0, "v": 1}, Rows: rows}, "v")
	if err != nil {
		t.Fatalf("ApplySortBy() error = %v", err)
	}
	if rows[0][0] != "x" {
		t.Errorf("input rows were reordered: %v", rows)
	}
}

func TestApplySortBy_MissingColumn(t *testing.T) {
	_, err := ApplySortBy(Table{Columns: ColumnIndex{"k": 0}}, "v")
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("ApplySortBy() error = %v, want ErrMissingColumn", err)
	}
}

func TestActions_SortAfterSum(t *testing.T) {
	actions, err := NewActions(ActionsSpec{
		GroupBy:    []string{"g"},
		SortBy:     "sum_v",
		Projection: &ProjectionSpec{Type: "sum", Property: "v"},
	})
	if err != nil {
		t.Fatalf("NewActions() error = %v", err)
	}

	got, err := actions.Process(Table{
		Columns: ColumnIndex{"g": 0, "v": 1},
		Rows: []Record{
			{"x", "1"},
			{"y", "2"},
			{"z", "2"},
			{"y", "1"},
		},
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []Record{{"y", 3.0}, {"z", 2.0}, {"x", 1.0}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Process() rows = %v, want %v", got.Rows, want)
	}
}

func TestActions_SortResolvesAgainstProjectedColumns(t *testing.T) {
	actions, err := NewActions(ActionsSpec{
		GroupBy:    []string{"g"},
		SortBy:     "v",
		Projection: &ProjectionSpec{Type: "sum", Property: "v"},
	})
	if err != nil {
		t.Fatalf("NewActions() error = %v", err)
	}

	// "v" exists before projection but not after it
	_, err = actions.Process(Table{Columns: ColumnIndex{"g": 0, "v": 1}, Rows: []Record{{"x", "1"}}})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Process() error = %v, want ErrMissingColumn", err)
	}
}

func TestCompareValues_TotalOrder(t *testing.T) {
	values := []interface{}{
		nil,
		"9", "10", "5a", "<Missing>", "",
		1.5, int64(3), decimal.RequireFromString("2.25"), math.NaN(), math.Inf(1),
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	for _, a := range values {
		if got := compareValues(a, a); got != 0 {
			t.Errorf("compareValues(%v, %v) = %d, want 0", a, a, got)
		}
		for _, b := range values {
			if compareValues(a, b) != -compareValues(b, a) {
				t.Errorf("compareValues(%v, %v) is not antisymmetric", a, b)
			}
			for _, c := range values {
				if compareValues(a, b) < 0 && compareValues(b, c) < 0 && compareValues(a, c) >= 0 {
					t.Errorf("compareValues not transitive over %v < %v < %v", a, b, c)
				}
			}
		}
	}
}
