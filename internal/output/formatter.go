// Package output renders simulation results as console text, CSV, JSON or HTML.
package output

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/finsim/household-projector/internal/simulation"
)

// ErrUnsupportedFormat is returned for format names with no registered formatter.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Formatter defines a pluggable output formatter that returns a byte slice.
// Implementations should be pure (no side effects besides deterministic formatting).
type Formatter interface {
	Format(result *simulation.Result) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
	// Extension is the file extension used when the output is written to disk.
	Extension() string
}

// FormatterFunc adapter to allow ordinary functions to act as a Formatter.
type FormatterFunc struct {
	ID  string
	Ext string
	F   func(*simulation.Result) ([]byte, error)
}

func (ff FormatterFunc) Format(r *simulation.Result) ([]byte, error) { return ff.F(r) }
func (ff FormatterFunc) Name() string                                { return ff.ID }
func (ff FormatterFunc) Extension() string                           { return ff.Ext }

// WriteFormatted runs a formatter and writes its output to path. An empty path
// selects a timestamped file name with the formatter's extension.
func WriteFormatted(f Formatter, result *simulation.Result, path string) (string, error) {
	data, err := f.Format(result)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = fmt.Sprintf("projection_%s.%s", time.Now().Format("20060102_150405"), f.Extension())
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// builtInFormatters stores available formatters.
var builtInFormatters = []Formatter{
	ConsoleFormatter{},
	ConsoleVerboseFormatter{},
	CSVFormatter{},
	CSVAttributionExporter{},
	SummaryCSVFormatter{},
	HTMLFormatter{},
	JSONFormatter{},
}

// GetFormatterByName fetches a registered formatter, resolving aliases.
func GetFormatterByName(name string) Formatter {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f
		}
	}
	return nil
}

// aliasMap provides user-friendly synonyms for format names.
var aliasMap = map[string]string{
	"text":         "console",
	"verbose":      "console-verbose",
	"csv-years":    "csv",
	"attributions": "csv-attributions",
	"runs":         "csv-summary",
	"montecarlo":   "csv-summary",
	"html-report":  "html",
	"json-pretty":  "json",
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// AvailableFormatterNames returns the canonical formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases returns the supported alias keys.
func AvailableFormatAliases() []string {
	keys := make([]string, 0, len(aliasMap))
	for k := range aliasMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
