package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/vegasq/pal/internal/logger"
	"github.com/vegasq/pal/query"
)

// ErrUnknownExporter is returned by New for names nothing registered
var ErrUnknownExporter = errors.New("unknown exporter")

// Exporter writes a result table to its destination.
//
// Implementers must provide Export to write the table and SetOutput to
// redirect the destination to an arbitrary writer.
type Exporter interface {
	// Export writes the table in the exporter's format
	Export(table query.Table) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Settings is the free-form settings object of one runbook export type
type Settings map[string]interface{}

// String returns a string setting or def when the key is absent or empty
func (s Settings) String(key, def string) string {
	if v, ok := s[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Bool returns a boolean setting or def when the key is absent
func (s Settings) Bool(key string, def bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return def
}

// Map returns a nested settings object, empty when absent
func (s Settings) Map(key string) Settings {
	if v, ok := s[key].(map[string]interface{}); ok {
		return Settings(v)
	}
	return Settings{}
}

// Factory builds an exporter from its settings
type Factory func(settings Settings) (Exporter, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"csv":   func(s Settings) (Exporter, error) { return NewCSVExporter(s), nil },
		"json":  func(s Settings) (Exporter, error) { return NewJSONExporter(s), nil },
		"table": func(s Settings) (Exporter, error) { return NewTableExporter(s), nil },
	}
)

// Register adds or replaces an exporter under a case-insensitive name
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Names returns the registered exporter names, sorted
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the exporter registered under name
func New(name string, settings Settings) (Exporter, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q, valid exporters are %v", ErrUnknownExporter, name, Names())
	}
	if settings == nil {
		settings = Settings{}
	}

	exp, err := factory(settings)
	if err != nil {
		return nil, fmt.Errorf("exporter %s: %w", name, err)
	}
	return exp, nil
}

// Run exports a table unless it has no rows, in which case a warning is logged
// and the exporter is skipped.
func Run(name string, exp Exporter, table query.Table) error {
	if len(table.Rows) == 0 {
		logger.Warn("no results were found, will not export", "exporter", name)
		return nil
	}

	logger.Info("exporting results", "exporter", name, "rows", len(table.Rows))
	if err := exp.Export(table); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	return nil
}

// textRecord renders one row against the header width. Cells past the end of
// a short row render empty.
func textRecord(row query.Record, width int) []string {
	record := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		record[i] = query.FormatValue(row[i])
	}
	return record
}
