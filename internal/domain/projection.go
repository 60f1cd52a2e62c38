package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DataRow is the aggregate record of one simulated year. Monetary fields are
// expressed in the residence currency of that year; PV fields are deflated by
// cumulative residence inflation since the simulation start.
type DataRow struct {
	Age      int    `json:"age"`
	Year     int    `json:"year"`
	Country  string `json:"country"`
	Currency string `json:"currency"`

	// Income Sources
	IncomeSalaries       decimal.Decimal `json:"income_salaries"`
	IncomeRSUs           decimal.Decimal `json:"income_rsus"`
	IncomeRentals        decimal.Decimal `json:"income_rentals"`
	IncomeDefinedBenefit decimal.Decimal `json:"income_defined_benefit"`
	IncomeTaxFree        decimal.Decimal `json:"income_tax_free"`
	IncomePrivatePension decimal.Decimal `json:"income_private_pension"`
	IncomeStatePension   decimal.Decimal `json:"income_state_pension"`
	IncomeCash           decimal.Decimal `json:"income_cash"`
	IncomeInvestments    decimal.Decimal `json:"income_investments"`
	RealEstateSales      decimal.Decimal `json:"real_estate_sales"`

	// Outflows
	Expenses            decimal.Decimal `json:"expenses"`
	Tax                 decimal.Decimal `json:"tax"`
	PensionContribution decimal.Decimal `json:"pension_contribution"`
	NetIncome           decimal.Decimal `json:"net_income"`

	// Balances (end of year)
	Cash              decimal.Decimal            `json:"cash"`
	PensionFund       decimal.Decimal            `json:"pension_fund"`
	RealEstateCapital decimal.Decimal            `json:"real_estate_capital"`
	InvestmentCapital decimal.Decimal            `json:"investment_capital"`
	Worth             decimal.Decimal            `json:"worth"`
	Investments       map[string]decimal.Decimal `json:"investments,omitempty"`
	Withdrawals       map[string]decimal.Decimal `json:"withdrawals,omitempty"`

	// Present values
	CashPV      decimal.Decimal `json:"cash_pv"`
	NetIncomePV decimal.Decimal `json:"net_income_pv"`
	ExpensesPV  decimal.Decimal `json:"expenses_pv"`
	WorthPV     decimal.Decimal `json:"worth_pv"`

	// Attributions maps a metric to its human readable sources.
	Attributions map[string]map[string]decimal.Decimal `json:"attributions,omitempty"`
}

// Field is one named numeric column of a DataRow.
type Field struct {
	Name  string
	Value decimal.Decimal
}

// Fields returns the fixed numeric columns of the row in reporting order,
// followed by per-investment capital columns sorted by key.
func (r *DataRow) Fields() []Field {
	fields := []Field{
		{"IncomeSalaries", r.IncomeSalaries},
		{"IncomeRSUs", r.IncomeRSUs},
		{"IncomeRentals", r.IncomeRentals},
		{"IncomeDefinedBenefit", r.IncomeDefinedBenefit},
		{"IncomeTaxFree", r.IncomeTaxFree},
		{"IncomePrivatePension", r.IncomePrivatePension},
		{"IncomeStatePension", r.IncomeStatePension},
		{"IncomeCash", r.IncomeCash},
		{"IncomeInvestments", r.IncomeInvestments},
		{"RealEstateSales", r.RealEstateSales},
		{"Expenses", r.Expenses},
		{"Tax", r.Tax},
		{"PensionContribution", r.PensionContribution},
		{"NetIncome", r.NetIncome},
		{"Cash", r.Cash},
		{"PensionFund", r.PensionFund},
		{"RealEstateCapital", r.RealEstateCapital},
		{"InvestmentCapital", r.InvestmentCapital},
		{"Worth", r.Worth},
		{"CashPV", r.CashPV},
		{"NetIncomePV", r.NetIncomePV},
		{"ExpensesPV", r.ExpensesPV},
		{"WorthPV", r.WorthPV},
	}
	for _, k := range sortedKeys(r.Investments) {
		fields = append(fields, Field{"Investment:" + k, r.Investments[k]})
	}
	return fields
}

// Accumulate adds the numeric content of other into r. Ages, years and tags
// are taken from other when r is still empty.
func (r *DataRow) Accumulate(other *DataRow) {
	if r.Age == 0 {
		r.Age, r.Year, r.Country, r.Currency = other.Age, other.Year, other.Country, other.Currency
	}
	r.IncomeSalaries = r.IncomeSalaries.Add(other.IncomeSalaries)
	r.IncomeRSUs = r.IncomeRSUs.Add(other.IncomeRSUs)
	r.IncomeRentals = r.IncomeRentals.Add(other.IncomeRentals)
	r.IncomeDefinedBenefit = r.IncomeDefinedBenefit.Add(other.IncomeDefinedBenefit)
	r.IncomeTaxFree = r.IncomeTaxFree.Add(other.IncomeTaxFree)
	r.IncomePrivatePension = r.IncomePrivatePension.Add(other.IncomePrivatePension)
	r.IncomeStatePension = r.IncomeStatePension.Add(other.IncomeStatePension)
	r.IncomeCash = r.IncomeCash.Add(other.IncomeCash)
	r.IncomeInvestments = r.IncomeInvestments.Add(other.IncomeInvestments)
	r.RealEstateSales = r.RealEstateSales.Add(other.RealEstateSales)
	r.Expenses = r.Expenses.Add(other.Expenses)
	r.Tax = r.Tax.Add(other.Tax)
	r.PensionContribution = r.PensionContribution.Add(other.PensionContribution)
	r.NetIncome = r.NetIncome.Add(other.NetIncome)
	r.Cash = r.Cash.Add(other.Cash)
	r.PensionFund = r.PensionFund.Add(other.PensionFund)
	r.RealEstateCapital = r.RealEstateCapital.Add(other.RealEstateCapital)
	r.InvestmentCapital = r.InvestmentCapital.Add(other.InvestmentCapital)
	r.Worth = r.Worth.Add(other.Worth)
	r.CashPV = r.CashPV.Add(other.CashPV)
	r.NetIncomePV = r.NetIncomePV.Add(other.NetIncomePV)
	r.ExpensesPV = r.ExpensesPV.Add(other.ExpensesPV)
	r.WorthPV = r.WorthPV.Add(other.WorthPV)
	r.Investments = addMaps(r.Investments, other.Investments)
	r.Withdrawals = addMaps(r.Withdrawals, other.Withdrawals)
	for metric, sources := range other.Attributions {
		if r.Attributions == nil {
			r.Attributions = map[string]map[string]decimal.Decimal{}
		}
		r.Attributions[metric] = addMaps(r.Attributions[metric], sources)
	}
}

// Scaled returns a copy of r with every numeric field divided by n.
func (r *DataRow) Scaled(n int) DataRow {
	out := DataRow{Age: r.Age, Year: r.Year, Country: r.Country, Currency: r.Currency}
	if n <= 0 {
		return out
	}
	div := decimal.NewFromInt(int64(n))
	scale := func(d decimal.Decimal) decimal.Decimal { return d.Div(div) }
	out.IncomeSalaries = scale(r.IncomeSalaries)
	out.IncomeRSUs = scale(r.IncomeRSUs)
	out.IncomeRentals = scale(r.IncomeRentals)
	out.IncomeDefinedBenefit = scale(r.IncomeDefinedBenefit)
	out.IncomeTaxFree = scale(r.IncomeTaxFree)
	out.IncomePrivatePension = scale(r.IncomePrivatePension)
	out.IncomeStatePension = scale(r.IncomeStatePension)
	out.IncomeCash = scale(r.IncomeCash)
	out.IncomeInvestments = scale(r.IncomeInvestments)
	out.RealEstateSales = scale(r.RealEstateSales)
	out.Expenses = scale(r.Expenses)
	out.Tax = scale(r.Tax)
	out.PensionContribution = scale(r.PensionContribution)
	out.NetIncome = scale(r.NetIncome)
	out.Cash = scale(r.Cash)
	out.PensionFund = scale(r.PensionFund)
	out.RealEstateCapital = scale(r.RealEstateCapital)
	out.InvestmentCapital = scale(r.InvestmentCapital)
	out.Worth = scale(r.Worth)
	out.CashPV = scale(r.CashPV)
	out.NetIncomePV = scale(r.NetIncomePV)
	out.ExpensesPV = scale(r.ExpensesPV)
	out.WorthPV = scale(r.WorthPV)
	out.Investments = scaleMap(r.Investments, div)
	out.Withdrawals = scaleMap(r.Withdrawals, div)
	if len(r.Attributions) > 0 {
		out.Attributions = make(map[string]map[string]decimal.Decimal, len(r.Attributions))
		for metric, sources := range r.Attributions {
			out.Attributions[metric] = scaleMap(sources, div)
		}
	}
	return out
}

// TotalIncome returns the gross inflows recorded for the year.
func (r *DataRow) TotalIncome() decimal.Decimal {
	return r.IncomeSalaries.Add(r.IncomeRSUs).Add(r.IncomeRentals).
		Add(r.IncomeDefinedBenefit).Add(r.IncomeTaxFree).
		Add(r.IncomePrivatePension).Add(r.IncomeStatePension).
		Add(r.IncomeCash).Add(r.IncomeInvestments)
}

func addMaps(dst, src map[string]decimal.Decimal) map[string]decimal.Decimal {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]decimal.Decimal, len(src))
	}
	for k, v := range src {
		dst[k] = dst[k].Add(v)
	}
	return dst
}

func scaleMap(src map[string]decimal.Decimal, div decimal.Decimal) map[string]decimal.Decimal {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(src))
	for k, v := range src {
		out[k] = v.Div(div)
	}
	return out
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
