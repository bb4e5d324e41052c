package reader

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ColumnInfo describes one column of a source file
type ColumnInfo struct {
	Position     int    `json:"position"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	PhysicalType string `json:"physical_type,omitempty"`
	LogicalType  string `json:"logical_type,omitempty"`
	Optional     bool   `json:"optional"`
	Repeated     bool   `json:"repeated"`
}

// Columns lists the columns a source file would expose to a runbook.
// CSV files only carry names, so every column is reported as STRING.
func Columns(path string) ([]ColumnInfo, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if format != FormatParquet {
		r, err := NewCSVReader(path, format)
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()

		infos := make([]ColumnInfo, len(r.Header()))
		for i, name := range r.Header() {
			infos[i] = ColumnInfo{Position: i, Name: name, Type: "STRING", Optional: true}
		}
		return infos, nil
	}

	r, err := NewParquetReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = r.Close() }()

	fields := r.Schema().Fields()
	infos := make([]ColumnInfo, len(fields))
	for i, field := range fields {
		infos[i] = ColumnInfo{
			Position:     i,
			Name:         field.Name(),
			Type:         friendlyType(field),
			PhysicalType: physicalType(field),
			LogicalType:  logicalType(field),
			Optional:     field.Optional(),
			Repeated:     field.Repeated(),
		}
	}
	return infos, nil
}

var physicalNames = map[parquet.Kind]string{
	parquet.Boolean:           "BOOLEAN",
	parquet.Int32:             "INT32",
	parquet.Int64:             "INT64",
	parquet.Int96:             "INT96",
	parquet.Float:             "FLOAT",
	parquet.Double:            "DOUBLE",
	parquet.ByteArray:         "BYTE_ARRAY",
	parquet.FixedLenByteArray: "FIXED_LEN_BYTE_ARRAY",
}

func physicalType(field parquet.Field) string {
	if !field.Leaf() {
		return "GROUP"
	}
	if name, ok := physicalNames[field.Type().Kind()]; ok {
		return name
	}
	return "UNKNOWN"
}

func logicalType(field parquet.Field) string {
	if !field.Leaf() || field.Type().LogicalType() == nil {
		return ""
	}
	return field.Type().LogicalType().String()
}

// friendlyType maps the parquet types onto the column types a runbook can
// filter on. Nested columns are rendered as JSON documents by the reader.
func friendlyType(field parquet.Field) string {
	if !field.Leaf() || field.Repeated() {
		return "JSON"
	}

	// logical type strings carry parameters, e.g. TIMESTAMP(isAdjustedToUTC=true,unit=MILLIS)
	lt := logicalType(field)
	switch {
	case lt == "":
	case strings.HasPrefix(lt, "DATE"), strings.HasPrefix(lt, "TIME"):
		return "DATE"
	case strings.HasPrefix(lt, "DECIMAL"), strings.HasPrefix(lt, "INT"):
		return "NUMBER"
	default:
		return "STRING"
	}

	switch field.Type().Kind() {
	case parquet.Int32, parquet.Int64, parquet.Int96, parquet.Float, parquet.Double:
		return "NUMBER"
	case parquet.Boolean:
		return "BOOLEAN"
	default:
		return "STRING"
	}
}
