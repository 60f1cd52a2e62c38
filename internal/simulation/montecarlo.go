package simulation

import (
	"sort"

	"github.com/finsim/household-projector/internal/currency"
	"github.com/finsim/household-projector/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunSummary is the outcome of a single run.
type RunSummary struct {
	Run      int             `json:"run"`
	Success  bool            `json:"success"`
	FailedAt int             `json:"failed_at,omitempty"`
	Worth    decimal.Decimal `json:"ending_worth"`
}

// PercentileRanges summarises ending net worth across runs.
type PercentileRanges struct {
	P10 decimal.Decimal `json:"p10"`
	P25 decimal.Decimal `json:"p25"`
	P50 decimal.Decimal `json:"p50"`
	P75 decimal.Decimal `json:"p75"`
	P90 decimal.Decimal `json:"p90"`
}

// Result aggregates the runs of a simulation. Rows hold per-year sums over
// all runs; use Average for the per-run mean.
type Result struct {
	ID           string              `json:"id"`
	Scenario     string              `json:"scenario"`
	Runs         int                 `json:"runs"`
	Rows         []domain.DataRow    `json:"rows"`
	RunSummaries []RunSummary        `json:"run_summaries"`
	FXStats      currency.CacheStats `json:"fx_stats"`
	// Assumptions are human readable notes rendered by report formatters.
	Assumptions []string `json:"assumptions,omitempty"`
}

func newResult(scenario string, runs int) *Result {
	return &Result{
		ID:       uuid.NewString(),
		Scenario: scenario,
		Runs:     runs,
	}
}

// add sums a finished run's rows into the result.
func (r *Result) add(sc *SimulationContext) {
	rows := sc.Rows()
	for i := range rows {
		if i >= len(r.Rows) {
			r.Rows = append(r.Rows, domain.DataRow{})
		}
		r.Rows[i].Accumulate(&rows[i])
	}
	summary := RunSummary{Run: sc.Run, Success: sc.Success}
	if !sc.Success {
		summary.FailedAt = sc.FailedAt
	}
	if len(rows) > 0 {
		summary.Worth = rows[len(rows)-1].Worth
	}
	r.RunSummaries = append(r.RunSummaries, summary)
}

// Average returns the rows divided by the number of runs.
func (r *Result) Average() []domain.DataRow {
	out := make([]domain.DataRow, len(r.Rows))
	for i := range r.Rows {
		out[i] = r.Rows[i].Scaled(len(r.RunSummaries))
	}
	return out
}

// Successes counts the runs that never failed.
func (r *Result) Successes() int {
	n := 0
	for _, s := range r.RunSummaries {
		if s.Success {
			n++
		}
	}
	return n
}

// SuccessRate is the fraction of successful runs.
func (r *Result) SuccessRate() decimal.Decimal {
	if len(r.RunSummaries) == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(r.Successes())).Div(decimal.NewFromInt(int64(len(r.RunSummaries))))
}

// Success reports whether every run succeeded.
func (r *Result) Success() bool { return r.Successes() == len(r.RunSummaries) }

// FirstFailure returns the earliest failure age over all runs, or 0.
func (r *Result) FirstFailure() int {
	first := 0
	for _, s := range r.RunSummaries {
		if !s.Success && (first == 0 || s.FailedAt < first) {
			first = s.FailedAt
		}
	}
	return first
}

// WorthPercentiles ranks the runs' ending net worth.
func (r *Result) WorthPercentiles() PercentileRanges {
	n := len(r.RunSummaries)
	if n == 0 {
		return PercentileRanges{}
	}
	worth := make([]decimal.Decimal, n)
	for i, s := range r.RunSummaries {
		worth[i] = s.Worth
	}
	sort.Slice(worth, func(i, j int) bool { return worth[i].LessThan(worth[j]) })
	return PercentileRanges{
		P10: worth[n/10],
		P25: worth[n/4],
		P50: worth[n/2],
		P75: worth[3*n/4],
		P90: worth[9*n/10],
	}
}
