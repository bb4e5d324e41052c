// Package runbook loads runbook documents: the JSON or YAML templates that
// declare which rows to keep, how to type and aggregate them and where the
// result goes.
package runbook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vegasq/pal/internal/cast"
	"github.com/vegasq/pal/output"
	"github.com/vegasq/pal/query"
)

// ErrInvalidRunbook marks documents that cannot be decoded or do not match the schema
var ErrInvalidRunbook = errors.New("invalid runbook")

// Metadata describes a runbook
type Metadata struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Version     interface{} `json:"version" yaml:"version"`
	Handler     string      `json:"handler" yaml:"handler"`
}

// ExportType selects one exporter and its settings
type ExportType struct {
	Name     string                 `json:"name" yaml:"name"`
	Settings map[string]interface{} `json:"settings" yaml:"settings"`
}

// ExportSpec is the export section of a runbook
type ExportSpec struct {
	Types      []ExportType       `json:"types" yaml:"types"`
	Properties []string           `json:"properties" yaml:"properties"`
	Actions    *query.ActionsSpec `json:"actions" yaml:"actions"`
}

// Document is the decoded runbook file
type Document struct {
	Metadata        Metadata               `json:"metadata" yaml:"metadata"`
	Filters         map[string]interface{} `json:"filters" yaml:"filters"`
	ColumnOverrides map[string]interface{} `json:"column_overrides" yaml:"column_overrides"`
	Export          ExportSpec             `json:"export" yaml:"export"`
}

// Runbook is a validated document with its filter, actions and column
// definitions resolved.
type Runbook struct {
	Document

	Handler Handler
	Filter  *query.Filter
	Actions *query.Actions
	Columns cast.Definitions
}

// Load reads and builds the runbook at path. Files ending in .yaml or .yml
// are decoded as YAML, anything else as JSON.
func Load(path string) (*Runbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runbook: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	rb, err := Parse(data, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rb, nil
}

// Parse decodes, validates and builds a runbook document
func Parse(data []byte, isYAML bool) (*Runbook, error) {
	normalized, err := normalize(data, isYAML)
	if err != nil {
		return nil, err
	}

	instance, err := decodeInstance(normalized)
	if err != nil {
		return nil, err
	}
	if err := Validate(instance); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRunbook, err)
	}

	return Build(doc)
}

// normalize turns a YAML document into JSON so both formats validate and
// decode the same way
func normalize(data []byte, isYAML bool) ([]byte, error) {
	if !isYAML {
		return data, nil
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRunbook, err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml document cannot be represented as JSON: %v", ErrInvalidRunbook, err)
	}
	return out, nil
}

func decodeInstance(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidRunbook)
	}

	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRunbook, err)
	}
	if _, ok := instance.(map[string]interface{}); !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrInvalidRunbook, instance)
	}
	return instance, nil
}

// Build resolves the handler, filter, actions and column definitions of a
// document. Export type names are checked against the exporter registry.
func Build(doc Document) (*Runbook, error) {
	handler, err := ParseHandler(doc.Metadata.Handler)
	if err != nil {
		return nil, err
	}

	defaults, err := handler.Definitions()
	if err != nil {
		return nil, err
	}
	overrides, err := cast.ParseDefinitions(doc.ColumnOverrides)
	if err != nil {
		return nil, fmt.Errorf("%w: column_overrides: %v", ErrInvalidRunbook, err)
	}

	filter, err := query.NewFilter(doc.Filters)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	rb := &Runbook{
		Document: doc,
		Handler:  handler,
		Filter:   filter,
		Columns:  defaults.Merge(overrides),
	}

	if doc.Export.Actions != nil {
		rb.Actions, err = query.NewActions(*doc.Export.Actions)
		if err != nil {
			return nil, fmt.Errorf("export.actions: %w", err)
		}
	}

	known := make(map[string]bool)
	for _, name := range output.Names() {
		known[name] = true
	}
	for i, t := range doc.Export.Types {
		if !known[strings.ToLower(strings.TrimSpace(t.Name))] {
			return nil, fmt.Errorf("%w: export.types[%d]: unknown exporter %q, valid exporters are %v",
				ErrInvalidRunbook, i, t.Name, output.Names())
		}
	}

	return rb, nil
}

// NamedExporter pairs an exporter with the name it was configured under
type NamedExporter struct {
	Name     string
	Exporter output.Exporter
}

// Exporters builds the configured exporters. outputDir fills in output_dir
// for exporters whose settings leave it out.
func (r *Runbook) Exporters(outputDir string) ([]NamedExporter, error) {
	exporters := make([]NamedExporter, 0, len(r.Export.Types))
	for _, t := range r.Export.Types {
		settings := output.Settings{}
		for k, v := range t.Settings {
			settings[k] = v
		}
		if _, ok := settings["output_dir"]; !ok && outputDir != "" {
			settings["output_dir"] = outputDir
		}

		exp, err := output.New(t.Name, settings)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, NamedExporter{Name: t.Name, Exporter: exp})
	}
	return exporters, nil
}
