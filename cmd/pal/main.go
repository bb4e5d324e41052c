// Command pal filters, aggregates and exports billing/usage files as
// declared by a runbook.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vegasq/pal/internal/cast"
	"github.com/vegasq/pal/internal/config"
	"github.com/vegasq/pal/internal/logger"
	"github.com/vegasq/pal/internal/pipeline"
	"github.com/vegasq/pal/internal/runbook"
	"github.com/vegasq/pal/output"
	"github.com/vegasq/pal/query"
	"github.com/vegasq/pal/reader"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

// Build information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and maps the outcome to an exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

func exitCode(err error) int {
	var schemaErr *runbook.SchemaError
	switch {
	case errors.Is(err, config.ErrInvalidConfig), errors.As(err, &schemaErr):
		return ExitValidationError
	case errors.Is(err, runbook.ErrInvalidRunbook),
		errors.Is(err, query.ErrMalformedRule),
		errors.Is(err, query.ErrInvalidCondition),
		errors.Is(err, query.ErrUnknownProjection),
		errors.Is(err, cast.ErrInvalidDataType):
		return ExitParseError
	default:
		return ExitRuntimeError
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:   "pal",
		Short: "pal - filter, aggregate and export billing files with runbooks",
		Long: `pal evaluates a runbook against one or more CSV or Parquet files.

A runbook declares which rows to keep (filters), how columns are typed
(column_overrides), how the kept rows are grouped and projected (actions)
and where the result is written (export types).

Examples:
  # Run a runbook over a month of CUR files
  pal run -t runbooks/ec2.json -s "cur/2024-01-*.csv.gz" -o reports

  # Check a runbook without reading any data
  pal validate -t runbooks/ec2.yaml

  # List the columns of a source file
  pal columns cur/2024-01-01.parquet`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Setup(logLevel, logFormat)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")

	root.AddCommand(newRunCmd(stdout, &logLevel, &logFormat))
	root.AddCommand(newValidateCmd(stdout))
	root.AddCommand(newColumnsCmd(stdout))
	root.AddCommand(newVersionCmd(stdout))
	return root
}

func newRunCmd(stdout io.Writer, logLevel, logFormat *string) *cobra.Command {
	cfg := config.Config{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a runbook over source files",
		Long: `Run a runbook over one or more source files.

Source files may be given several times and may be glob patterns. All
sources must share the same columns.

Exit codes:
  0 - Run completed
  1 - Validation errors (flags, files, runbook schema)
  2 - Parse errors (runbook syntax, rules, projections)
  3 - Runtime errors`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.LogLevel, cfg.LogFormat = *logLevel, *logFormat

			p, err := pipeline.Load(cfg)
			if err != nil {
				return err
			}

			result, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Run %s completed: %d rows read, %d candidates, %d result rows in %s\n",
				result.RunID, result.TotalRows, result.Candidates, len(result.Table.Rows), result.Duration.Round(time.Millisecond))
			printCastFailures(stdout, result.CastFailures)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.TemplateFile, "template", "t", "", "Runbook file (JSON or YAML)")
	cmd.Flags().StringArrayVarP(&cfg.SourceFiles, "source", "s", nil, "Source file or glob pattern (repeatable)")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output-dir", "o", ".", "Default output directory for file exporters")
	return cmd
}

func printCastFailures(w io.Writer, failures map[string]int) {
	if len(failures) == 0 {
		return
	}
	columns := make([]string, 0, len(failures))
	for col := range failures {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		fmt.Fprintf(w, "  %d values of %s could not be cast and were kept as text\n", failures[col], col)
	}
}

func newValidateCmd(stdout io.Writer) *cobra.Command {
	var template string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a runbook",
		Long: `Validate a runbook against the schema and build its filters,
actions and exporters without reading any source file.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if template == "" {
				return fmt.Errorf("%w: missing property: template file [-t]", config.ErrInvalidConfig)
			}

			rb, err := runbook.Load(template)
			if err != nil {
				return err
			}
			if _, err := rb.Exporters(""); err != nil {
				return err
			}

			fmt.Fprintf(stdout, "✓ Runbook is valid: %s\n", template)
			if rb.Metadata.Name != "" {
				fmt.Fprintf(stdout, "  Name: %s\n", rb.Metadata.Name)
			}
			fmt.Fprintf(stdout, "  Handler: %s\n", rb.Handler)
			fmt.Fprintf(stdout, "  Typed columns: %d\n", len(rb.Columns))
			if rb.Actions.Processable() {
				fmt.Fprintf(stdout, "  Group by: %v, projection: %s\n", rb.Actions.GroupBy, rb.Actions.Projection.Type())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "Runbook file (JSON or YAML)")
	return cmd
}

func newColumnsCmd(stdout io.Writer) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "columns <file>",
		Short: "List the columns of a source file",
		Long: `List the columns of a CSV or Parquet file. For glob patterns the
first matching file is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			files, err := reader.Expand(args[:1])
			if err != nil {
				return err
			}
			if len(files) > 1 {
				logger.Info("showing columns of first match", "file", files[0], "matched", len(files))
			}

			infos, err := reader.Columns(files[0])
			if err != nil {
				return err
			}

			exp, err := output.New(format, nil)
			if err != nil {
				return err
			}
			exp.SetOutput(stdout)
			return exp.Export(columnsTable(infos))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv, json")
	return cmd
}

func columnsTable(infos []reader.ColumnInfo) query.Table {
	table := query.Table{
		Columns: query.NewColumnIndex([]string{"position", "name", "type", "physical_type", "logical_type", "optional", "repeated"}),
		Rows:    make([]query.Record, len(infos)),
	}
	for i, info := range infos {
		table.Rows[i] = query.Record{info.Position, info.Name, info.Type, info.PhysicalType, info.LogicalType, info.Optional, info.Repeated}
	}
	return table
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "pal %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}
