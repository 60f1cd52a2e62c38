package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/simulation"
	"github.com/shopspring/decimal"
)

// ConsoleVerboseFormatter renders the year-by-year breakdown of every income
// source, outflow, balance and attribution.
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string      { return "console-verbose" }
func (c ConsoleVerboseFormatter) Extension() string { return "txt" }

func (c ConsoleVerboseFormatter) Format(result *simulation.Result) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, strings.Repeat("=", 80))
	fmt.Fprintln(&buf, "DETAILED HOUSEHOLD PROJECTION")
	fmt.Fprintln(&buf, strings.Repeat("=", 80))
	fmt.Fprintln(&buf)
	if len(result.Assumptions) > 0 {
		fmt.Fprintln(&buf, "KEY ASSUMPTIONS:")
		for _, a := range result.Assumptions {
			fmt.Fprintf(&buf, "• %s\n", a)
		}
		fmt.Fprintln(&buf)
	}
	writeSummary(&buf, result)

	rows := result.Average()
	for i := range rows {
		writeYear(&buf, &rows[i])
	}
	return buf.Bytes(), nil
}

func writeYear(buf *bytes.Buffer, r *domain.DataRow) {
	cur := r.Currency
	fmt.Fprintf(buf, "AGE %d (%d), resident in %s\n", r.Age, r.Year, strings.ToUpper(r.Country))
	fmt.Fprintln(buf, strings.Repeat("-", 50))

	income := []struct {
		label string
		value decimal.Decimal
	}{
		{"Salaries", r.IncomeSalaries},
		{"RSUs", r.IncomeRSUs},
		{"Rentals", r.IncomeRentals},
		{"Defined benefit", r.IncomeDefinedBenefit},
		{"Tax free", r.IncomeTaxFree},
		{"Private pension", r.IncomePrivatePension},
		{"State pension", r.IncomeStatePension},
		{"Cash drawn", r.IncomeCash},
		{"Investments sold", r.IncomeInvestments},
		{"Real estate sales", r.RealEstateSales},
	}
	for _, in := range income {
		if !in.value.IsZero() {
			fmt.Fprintf(buf, "  %-20s %s\n", in.label+":", FormatMoney(in.value, cur))
		}
	}
	fmt.Fprintf(buf, "  %-20s %s\n", "Expenses:", FormatMoney(r.Expenses, cur))
	fmt.Fprintf(buf, "  %-20s %s\n", "Tax:", FormatMoney(r.Tax, cur))
	if !r.PensionContribution.IsZero() {
		fmt.Fprintf(buf, "  %-20s %s\n", "Pension saved:", FormatMoney(r.PensionContribution, cur))
	}
	fmt.Fprintf(buf, "  %-20s %s\n", "Net income:", FormatMoney(r.NetIncome, cur))
	fmt.Fprintf(buf, "  %-20s cash %s, pension %s, property %s, investments %s\n", "Balances:",
		FormatMoney(r.Cash, cur), FormatMoney(r.PensionFund, cur),
		FormatMoney(r.RealEstateCapital, cur), FormatMoney(r.InvestmentCapital, cur))
	fmt.Fprintf(buf, "  %-20s %s (%s today)\n", "Net worth:", FormatMoney(r.Worth, cur), FormatMoney(r.WorthPV, cur))

	if len(r.Withdrawals) > 0 {
		fmt.Fprintln(buf, "  Withdrawals:")
		for _, k := range sortedNames(r.Withdrawals) {
			fmt.Fprintf(buf, "    %-18s %s\n", k, FormatMoney(r.Withdrawals[k], cur))
		}
	}
	metrics := make([]string, 0, len(r.Attributions))
	for m := range r.Attributions {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)
	for _, m := range metrics {
		fmt.Fprintf(buf, "  %s by source:\n", m)
		for _, s := range sortedNames(r.Attributions[m]) {
			fmt.Fprintf(buf, "    %-30s %s\n", s, FormatMoney(r.Attributions[m][s], cur))
		}
	}
	fmt.Fprintln(buf)
}

func sortedNames(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
