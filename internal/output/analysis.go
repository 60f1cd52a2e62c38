package output

import (
	"github.com/finsim/household-projector/internal/simulation"
	"github.com/shopspring/decimal"
)

// Summary condenses a result into the headline numbers shown by every report.
// Worth figures are per-run averages in the currency of the year they refer to;
// the peak is ranked by present value.
type Summary struct {
	Scenario     string
	Runs         int
	SuccessRate  decimal.Decimal
	FirstFailure int
	FinalAge     int
	FinalWorth   decimal.Decimal
	FinalWorthPV decimal.Decimal
	Currency     string
	PeakAge      int
	PeakWorth    decimal.Decimal
	PeakCurrency string
	Percentiles  simulation.PercentileRanges
}

// Summarize extracts the headline numbers of a result.
func Summarize(result *simulation.Result) Summary {
	s := Summary{
		Scenario:     result.Scenario,
		Runs:         len(result.RunSummaries),
		SuccessRate:  result.SuccessRate(),
		FirstFailure: result.FirstFailure(),
		Percentiles:  result.WorthPercentiles(),
	}
	rows := result.Average()
	peak := 0
	for i := range rows {
		if rows[i].WorthPV.GreaterThan(rows[peak].WorthPV) {
			peak = i
		}
	}
	if n := len(rows); n > 0 {
		last := rows[n-1]
		s.FinalAge, s.FinalWorth, s.FinalWorthPV, s.Currency = last.Age, last.Worth, last.WorthPV, last.Currency
		s.PeakAge, s.PeakWorth, s.PeakCurrency = rows[peak].Age, rows[peak].Worth, rows[peak].Currency
	}
	return s
}
