package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableExporter_Export(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		contains []string
	}{
		{
			name:     "default title",
			settings: Settings{},
			contains: []string{"service", "sum_cost", "ec2", "12.5", "0.25", defaultTitle},
		},
		{
			name:     "custom title",
			settings: Settings{"title": "Monthly costs"},
			contains: []string{"Monthly costs"},
		},
		{
			name:     "borderless",
			settings: Settings{"style": map[string]interface{}{"border": false}},
			contains: []string{"ec2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exp := NewTableExporter(tt.settings)
			exp.SetOutput(&buf)

			if err := exp.Export(sampleTable()); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestTableExporter_HeadersKeepCase(t *testing.T) {
	var buf bytes.Buffer
	exp := NewTableExporter(Settings{})
	exp.SetOutput(&buf)

	if err := exp.Export(sampleTable()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if strings.Contains(buf.String(), "SUM COST") {
		t.Errorf("header was reformatted:\n%s", buf.String())
	}
}
