package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/finsim/household-projector/internal/simulation"
)

// ConsoleFormatter prints a headline summary and a per-year table.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string      { return "console" }
func (c ConsoleFormatter) Extension() string { return "txt" }

func (c ConsoleFormatter) Format(result *simulation.Result) ([]byte, error) {
	var buf bytes.Buffer
	writeSummary(&buf, result)

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Age\tYear\tCountry\tNet Income\tExpenses\tTax\tCash\tWorth\t")
	rows := result.Average()
	for i := range rows {
		r := &rows[i]
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Age, r.Year, r.Country,
			FormatMoney(r.NetIncome, r.Currency),
			FormatMoney(r.Expenses, r.Currency),
			FormatMoney(r.Tax, r.Currency),
			FormatMoney(r.Cash, r.Currency),
			FormatMoney(r.Worth, r.Currency),
		)
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummary(buf *bytes.Buffer, result *simulation.Result) {
	s := Summarize(result)
	fmt.Fprintln(buf, "HOUSEHOLD PROJECTION SUMMARY")
	fmt.Fprintln(buf, "================================")
	if s.Scenario != "" {
		fmt.Fprintf(buf, "Scenario:     %s\n", s.Scenario)
	}
	fmt.Fprintf(buf, "Runs:         %d\n", s.Runs)
	fmt.Fprintf(buf, "Success rate: %s\n", FormatPercentage(s.SuccessRate))
	if s.FirstFailure > 0 {
		fmt.Fprintf(buf, "First failure at age %d\n", s.FirstFailure)
	}
	if s.FinalAge > 0 {
		fmt.Fprintf(buf, "Final worth:  %s at age %d (%s in today's money)\n",
			FormatMoney(s.FinalWorth, s.Currency), s.FinalAge, FormatMoney(s.FinalWorthPV, s.Currency))
		fmt.Fprintf(buf, "Peak worth:   %s at age %d\n", FormatMoney(s.PeakWorth, s.PeakCurrency), s.PeakAge)
	}
	if s.Runs > 1 {
		fmt.Fprintf(buf, "Ending worth P10/P50/P90: %s / %s / %s\n",
			s.Percentiles.P10.StringFixed(0), s.Percentiles.P50.StringFixed(0), s.Percentiles.P90.StringFixed(0))
	}
	fmt.Fprintln(buf)
}
