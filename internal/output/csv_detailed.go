package output

import (
	"bytes"
	"encoding/csv"
	"sort"

	"github.com/finsim/household-projector/internal/simulation"
)

// CSVAttributionExporter lists where every attributed amount came from:
// one line per year, metric and source, averaged over runs.
type CSVAttributionExporter struct{}

func (c CSVAttributionExporter) Name() string      { return "csv-attributions" }
func (c CSVAttributionExporter) Extension() string { return "csv" }

func (c CSVAttributionExporter) Format(result *simulation.Result) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"Age", "Year", "Currency", "Metric", "Source", "Amount"}); err != nil {
		return nil, err
	}
	rows := result.Average()
	for i := range rows {
		r := &rows[i]
		metrics := make([]string, 0, len(r.Attributions))
		for m := range r.Attributions {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			sources := r.Attributions[m]
			names := make([]string, 0, len(sources))
			for s := range sources {
				names = append(names, s)
			}
			sort.Strings(names)
			for _, s := range names {
				line := []string{intToString(r.Age), intToString(r.Year), r.Currency, m, s, sources[s].StringFixed(2)}
				if err := w.Write(line); err != nil {
					return nil, err
				}
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
