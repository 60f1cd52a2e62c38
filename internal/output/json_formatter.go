package output

import (
	"github.com/finsim/household-projector/internal/currency"
	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/simulation"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// JSONFormatter serializes the averaged projection and run statistics as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string      { return "json" }
func (j JSONFormatter) Extension() string { return "json" }

type jsonReport struct {
	ID           string                      `json:"id"`
	Scenario     string                      `json:"scenario"`
	Runs         int                         `json:"runs"`
	SuccessRate  decimal.Decimal             `json:"success_rate"`
	FirstFailure int                         `json:"first_failure,omitempty"`
	Percentiles  simulation.PercentileRanges `json:"ending_worth_percentiles"`
	Assumptions  []string                    `json:"assumptions,omitempty"`
	Years        []domain.DataRow            `json:"years"`
	RunSummaries []simulation.RunSummary     `json:"run_summaries"`
	FXStats      currency.CacheStats         `json:"fx_stats"`
}

func (j JSONFormatter) Format(result *simulation.Result) ([]byte, error) {
	s := Summarize(result)
	report := jsonReport{
		ID:           result.ID,
		Scenario:     result.Scenario,
		Runs:         s.Runs,
		SuccessRate:  s.SuccessRate,
		FirstFailure: s.FirstFailure,
		Percentiles:  s.Percentiles,
		Assumptions:  result.Assumptions,
		Years:        result.Average(),
		RunSummaries: result.RunSummaries,
		FXStats:      result.FXStats,
	}
	return json.MarshalIndent(report, "", "  ")
}
