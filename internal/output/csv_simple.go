package output

import (
	"bytes"
	"encoding/csv"
	"sort"

	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/simulation"
)

// CSVFormatter writes one line per simulated year with the per-run average of
// every data row column. Investment columns are the union over all years.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string      { return "csv" }
func (c CSVFormatter) Extension() string { return "csv" }

func (c CSVFormatter) Format(result *simulation.Result) ([]byte, error) {
	rows := result.Average()
	fixed := (&domain.DataRow{}).Fields()
	keys := investmentKeys(rows)

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Age", "Year", "Country", "Currency"}
	for _, f := range fixed {
		header = append(header, f.Name)
	}
	for _, k := range keys {
		header = append(header, "Investment:"+k)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range rows {
		r := &rows[i]
		line := []string{intToString(r.Age), intToString(r.Year), r.Country, r.Currency}
		for _, f := range r.Fields()[:len(fixed)] {
			line = append(line, f.Value.StringFixed(2))
		}
		for _, k := range keys {
			line = append(line, r.Investments[k].StringFixed(2))
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func investmentKeys(rows []domain.DataRow) []string {
	seen := map[string]bool{}
	var keys []string
	for i := range rows {
		for k := range rows[i].Investments {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
