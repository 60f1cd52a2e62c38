package output

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/finsim/household-projector/internal/simulation"
)

// SummaryCSVFormatter exports aggregate run statistics followed by one line
// per run.
type SummaryCSVFormatter struct{}

func (m SummaryCSVFormatter) Name() string      { return "csv-summary" }
func (m SummaryCSVFormatter) Extension() string { return "csv" }

func (m SummaryCSVFormatter) Format(result *simulation.Result) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{"Metric", "Value", "Description"}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	s := Summarize(result)
	summaryData := [][]string{
		{"Scenario", s.Scenario, "Scenario name"},
		{"Number of Simulations", intToString(s.Runs), "Total number of runs"},
		{"Success Rate", FormatPercentage(s.SuccessRate), "Percentage of runs that never failed"},
		{"First Failure Age", intToString(s.FirstFailure), "Earliest failure age over all runs (0 when none failed)"},
		{"10th Percentile Worth", s.Percentiles.P10.StringFixed(0), "10th percentile of ending net worth"},
		{"25th Percentile Worth", s.Percentiles.P25.StringFixed(0), "25th percentile of ending net worth"},
		{"Median Worth", s.Percentiles.P50.StringFixed(0), "Median ending net worth"},
		{"75th Percentile Worth", s.Percentiles.P75.StringFixed(0), "75th percentile of ending net worth"},
		{"90th Percentile Worth", s.Percentiles.P90.StringFixed(0), "90th percentile of ending net worth"},
		{"FX Cache Hits", intToString(result.FXStats.Hits), "Conversions served from the FX cache"},
	}
	for _, row := range summaryData {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write data row: %w", err)
		}
	}

	if err := writer.Write([]string{"Run", "Success", "FailedAt", "EndingWorth"}); err != nil {
		return nil, fmt.Errorf("failed to write runs header: %w", err)
	}
	for _, run := range result.RunSummaries {
		row := []string{intToString(run.Run), boolToString(run.Success), intToString(run.FailedAt), run.Worth.StringFixed(2)}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write run row: %w", err)
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}
