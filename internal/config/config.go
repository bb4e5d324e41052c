// Package config holds the settings of one pal run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vegasq/pal/reader"
)

// ErrInvalidConfig marks every configuration problem
var ErrInvalidConfig = errors.New("invalid request")

// Config is the run configuration, filled from command line flags
type Config struct {
	// SourceFiles are paths or glob patterns of the billing/source files
	SourceFiles []string
	// TemplateFile is the runbook to execute
	TemplateFile string
	// OutputDir is the default output_dir of file exporters
	OutputDir string
	LogLevel  string
	LogFormat string
}

// Validate reports every problem at once. Glob patterns are expanded and each
// resolved source must be a readable file of a supported format.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TemplateFile) == "" {
		errs = append(errs, errors.New("missing property: template file [-t]"))
	} else if err := checkFile(c.TemplateFile); err != nil {
		errs = append(errs, fmt.Errorf("template file: %w", err))
	}

	if len(c.SourceFiles) == 0 {
		errs = append(errs, errors.New("missing property: input file [-s]"))
	} else {
		files, err := reader.Expand(c.SourceFiles)
		if err != nil {
			errs = append(errs, fmt.Errorf("source files: %w", err))
		}
		for _, f := range files {
			if err := checkFile(f); err != nil {
				errs = append(errs, fmt.Errorf("source file: %w", err))
				continue
			}
			if _, err := reader.DetectFormat(f); err != nil {
				errs = append(errs, err)
			}
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q, valid formats are [json text]", c.LogFormat))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Sources returns the expanded list of source files
func (c *Config) Sources() ([]string, error) {
	return reader.Expand(c.SourceFiles)
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file not found: %s", path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
