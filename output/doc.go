// Package output exports result tables.
//
// Built-in exporters, selected by name in a runbook's export types:
//   - csv: header row plus one line per row, written to <output_dir>/<file_name>.csv
//   - json: JSON Lines, one object per row, to stdout or <output_dir>/<file_name>.jsonl
//   - table: terminal table with the runbook title as caption
//
// Further exporters are added with Register and resolved with New:
//
//	exp, err := output.New("csv", output.Settings{"output_dir": "out"})
//	if err != nil {
//	    return err
//	}
//	if err := output.Run("csv", exp, table); err != nil {
//	    return err
//	}
//
// Run skips exporters when the table has no rows.
package output
