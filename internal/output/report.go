package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/finsim/household-projector/internal/simulation"
)

// GenerateReport formats result and writes it to path (a timestamped file when
// path is empty). It returns the written file name.
func GenerateReport(result *simulation.Result, format, path string) (string, error) {
	f, err := lookup(format)
	if err != nil {
		return "", err
	}
	return WriteFormatted(f, result, path)
}

// Render formats result and writes it to w.
func Render(w io.Writer, result *simulation.Result, format string) error {
	f, err := lookup(format)
	if err != nil {
		return err
	}
	data, err := f.Format(result)
	if err != nil {
		return fmt.Errorf("format %s: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

func lookup(format string) (Formatter, error) {
	if f := GetFormatterByName(format); f != nil {
		return f, nil
	}
	hint := ""
	if s := closestFormat(format); s != "" {
		hint = fmt.Sprintf(" Did you mean %q?", s)
	}
	// enrich error with available formatters and aliases
	return nil, fmt.Errorf("%w: %q.%s Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format, hint,
		strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
}

// closestFormat returns the registered name or alias nearest to name, or ""
// when nothing is within a third of its length.
func closestFormat(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	best, bestDist := "", len(name)/3+1
	for _, candidate := range append(AvailableFormatterNames(), AvailableFormatAliases()...) {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
