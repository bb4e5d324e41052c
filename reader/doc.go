// Package reader opens the source files a runbook is evaluated against.
//
// Supported formats are picked by extension:
//
//	.csv        comma separated, first record is the header
//	.csv.gz     gzip compressed CSV
//	.csv.zst    zstd compressed CSV
//	.parquet    Apache Parquet, header is the list of top-level fields
//
// Every format streams rows of text cells through the Source interface:
//
//	src, err := reader.Open("cur-2024-01.csv.gz")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	cols := query.NewColumnIndex(src.Header())
//	for {
//	    row, err := src.Read()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    ...
//	}
//
// Parquet values are rendered as text: timestamps as RFC3339, nested groups,
// lists and maps as JSON documents.
//
// Expand resolves paths and glob patterns into an ordered file list and
// Columns reports the columns of a file for runbook authoring.
package reader
