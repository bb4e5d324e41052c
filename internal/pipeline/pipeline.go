// Package pipeline runs a runbook against source files: read, filter,
// extract, aggregate and export.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vegasq/pal/internal/config"
	"github.com/vegasq/pal/internal/logger"
	"github.com/vegasq/pal/internal/runbook"
	"github.com/vegasq/pal/output"
	"github.com/vegasq/pal/query"
)

// Pipeline is one prepared run. Everything that can be rejected up front
// (runbook, exporters, sources) is resolved by New.
type Pipeline struct {
	RunID     string
	runbook   *runbook.Runbook
	sources   []string
	exporters []runbook.NamedExporter
	log       *slog.Logger
}

// Result summarises a completed run
type Result struct {
	RunID        string
	Sources      []string
	TotalRows    int
	Candidates   int
	CastFailures map[string]int
	Table        query.Table
	Duration     time.Duration
}

// New prepares a run of rb over sources
func New(rb *runbook.Runbook, sources []string, outputDir string) (*Pipeline, error) {
	exporters, err := rb.Exporters(outputDir)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	return &Pipeline{
		RunID:     runID,
		runbook:   rb,
		sources:   sources,
		exporters: exporters,
		log:       logger.WithRun(runID),
	}, nil
}

// Load validates cfg, loads its runbook and prepares the run
func Load(cfg config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rb, err := runbook.Load(cfg.TemplateFile)
	if err != nil {
		return nil, err
	}

	sources, err := cfg.Sources()
	if err != nil {
		return nil, err
	}

	return New(rb, sources, cfg.OutputDir)
}

// Exporters returns the exporters the run writes to
func (p *Pipeline) Exporters() []runbook.NamedExporter {
	return p.exporters
}

// Run executes the pipeline and returns the exported table
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	p.log.Info("beginning execution of runbook",
		"runbook", p.runbook.Metadata.Name, "handler", string(p.runbook.Handler), "sources", len(p.sources))

	candidates, err := Collect(ctx, p.sources, p.runbook.Filter, p.log.With("stage", "collect"))
	if err != nil {
		return nil, err
	}

	table, failures := Extract(candidates, p.runbook.Export.Properties, p.runbook.Columns, p.log.With("stage", "extract"))

	if p.runbook.Actions.Processable() {
		p.log.Info("actions have been defined, aggregating", "group_by", p.runbook.Actions.GroupBy)
		table, err = p.runbook.Actions.Process(table)
		if err != nil {
			return nil, fmt.Errorf("actions: %w", err)
		}
	}

	for _, ne := range p.exporters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := output.Run(ne.Name, ne.Exporter, table); err != nil {
			return nil, err
		}
	}

	result := &Result{
		RunID:        p.RunID,
		Sources:      p.sources,
		TotalRows:    candidates.TotalRows,
		Candidates:   candidates.Size(),
		CastFailures: failures,
		Table:        table,
		Duration:     time.Since(start),
	}
	p.log.Info("run completed", "rows", result.TotalRows, "candidates", result.Candidates,
		"result_rows", len(table.Rows), "duration", result.Duration)

	return result, nil
}
