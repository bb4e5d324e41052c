package reader

import (
	"path/filepath"
	"testing"
)

func TestColumns_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.csv")
	writeFile(t, path, []byte(sampleCSV))

	infos, err := Columns(path)
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}

	want := []string{"service", "region", "cost"}
	if len(infos) != len(want) {
		t.Fatalf("Columns() returned %d columns, want %d", len(infos), len(want))
	}
	for i, name := range want {
		if infos[i].Name != name || infos[i].Position != i || infos[i].Type != "STRING" {
			t.Errorf("column %d = %+v, want %s STRING", i, infos[i], name)
		}
	}
}

func TestColumns_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.parquet")
	writeParquet(t, path, []costRow{{Service: "ec2", Usage: 1, Cost: 2}})

	infos, err := Columns(path)
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}

	tests := []struct {
		name     string
		typ      string
		physical string
		optional bool
	}{
		{name: "service", typ: "STRING", physical: "BYTE_ARRAY"},
		{name: "usage", typ: "NUMBER", physical: "INT64"},
		{name: "cost", typ: "NUMBER", physical: "DOUBLE"},
		{name: "note", typ: "STRING", physical: "BYTE_ARRAY", optional: true},
	}

	if len(infos) != len(tests) {
		t.Fatalf("Columns() returned %d columns, want %d", len(infos), len(tests))
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := infos[i]
			if got.Name != tt.name {
				t.Errorf("Name = %q, want %q", got.Name, tt.name)
			}
			if got.Type != tt.typ {
				t.Errorf("Type = %q, want %q", got.Type, tt.typ)
			}
			if got.PhysicalType != tt.physical {
				t.Errorf("PhysicalType = %q, want %q", got.PhysicalType, tt.physical)
			}
			if got.Optional != tt.optional {
				t.Errorf("Optional = %v, want %v", got.Optional, tt.optional)
			}
		})
	}
}

func TestColumns_Unsupported(t *testing.T) {
	if _, err := Columns("costs.txt"); err == nil {
		t.Error("Columns() expected error, got nil")
	}
}
