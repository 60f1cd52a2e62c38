package simulation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/finsim/household-projector/internal/asset"
	"github.com/finsim/household-projector/internal/attribution"
	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/economic"
	"github.com/finsim/household-projector/internal/tax"
	"github.com/finsim/household-projector/internal/taxrules"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func ratePtr(v float64) *decimal.Decimal {
	r := decimal.NewFromFloat(v)
	return &r
}

func assertDec(t *testing.T, expected int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(expected)), "expected %d, got %s %v", expected, got.String(), fmt.Sprint(msgAndArgs...))
}

func testRules() *taxrules.Registry {
	return taxrules.NewRegistry(
		&taxrules.RuleSet{
			Country:  "ie",
			Currency: "EUR",
			InvestmentTypes: []taxrules.InvestmentType{
				{Key: "index", Label: "Index fund", Growth: decimal.NewFromFloat(0.05), Volatility: decimal.NewFromFloat(0.15)},
			},
		},
		&taxrules.RuleSet{Country: "ar", Currency: "ARS", PensionSystem: taxrules.PensionStateOnly},
		&taxrules.RuleSet{Country: "us", Currency: "USD"},
	)
}

func testEconomy() *economic.Provider {
	return economic.NewProvider(
		economic.CountryData{Country: "ie", Currency: "EUR", FXPerUSD: decimal.NewFromFloat(0.5), PPPPerUSD: dec(1), BaseYear: 2025},
		economic.CountryData{Country: "ar", Currency: "ARS", FXPerUSD: dec(50), PPPPerUSD: dec(20), BaseYear: 2025},
		economic.CountryData{Country: "us", Currency: "USD", FXPerUSD: dec(1), PPPPerUSD: dec(1), BaseYear: 2025},
	)
}

func baseScenario() *domain.Scenario {
	return &domain.Scenario{
		Name:           "test",
		StartCountry:   "ie",
		StartYear:      2025,
		StartingAge:    30,
		TargetAge:      31,
		RetirementAge:  65,
		EmergencyStash: dec(1_000_000),
		Priorities:     domain.DrawdownPriorities{Cash: 1, Pension: 2},
		Economy:        domain.EconomySettings{Mode: domain.EconomyDeterministic},
	}
}

type recordingLogger struct {
	warnings []string
	errors   []string
}

func (l *recordingLogger) Debugf(string, ...any) {}
func (l *recordingLogger) Infof(string, ...any)  {}
func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func TestSalaryReachesCash(t *testing.T) {
	scn := baseScenario()
	scn.InitialSavings = dec(10000)
	scn.Events = []domain.Event{{Kind: domain.KindSalary, ID: "job", Amount: dec(20000), FromAge: 30, ToAge: 40}}

	result, err := New(scn, testRules(), nil, Options{}).Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	first := result.Rows[0]
	assert.Equal(t, 30, first.Age)
	assert.Equal(t, 2025, first.Year)
	assert.Equal(t, "ie", first.Country)
	assert.Equal(t, "EUR", first.Currency)
	assertDec(t, 20000, first.IncomeSalaries)
	assertDec(t, 0, first.Tax)
	assertDec(t, 0, first.PensionContribution)
	assertDec(t, 30000, first.Cash)
	assertDec(t, 30000, first.Worth)

	second := result.Rows[1]
	assert.Equal(t, 31, second.Age)
	assert.Equal(t, 2026, second.Year)
	assertDec(t, 50000, second.Cash)
	assert.True(t, result.Success())
	assert.Equal(t, 0, result.FirstFailure())
}

func TestPensionContributionAndTax(t *testing.T) {
	rules := taxrules.NewRegistry(&taxrules.RuleSet{
		Country:  "ie",
		Currency: "EUR",
		IncomeTax: []taxrules.TaxBracket{
			{Min: dec(0), Max: dec(40000), Rate: decimal.NewFromFloat(0.20)},
			{Min: dec(40000), Rate: decimal.NewFromFloat(0.40)},
		},
		PersonalCredit:     dec(2000),
		SocialContribution: decimal.NewFromFloat(0.04),
		Pension: taxrules.PensionRules{
			ContributionAgeBands: []taxrules.AgeBand{{MinAge: 0, Rate: decimal.NewFromFloat(0.20)}},
		},
	})
	scn := baseScenario()
	scn.TargetAge = 30
	scn.PensionContributions = map[string]decimal.Decimal{"ie": decimal.NewFromFloat(0.5)}
	scn.Events = []domain.Event{{
		Kind: domain.KindSalary, ID: "job", Amount: dec(50000), FromAge: 30, ToAge: 40,
		Match: ratePtr(0.05),
	}}

	result, err := New(scn, rules, nil, Options{}).Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	row := result.Rows[0]

	// 10% employee, 5% employer on 50000.
	assertDec(t, 7500, row.PensionContribution)
	assertDec(t, 7500, row.PensionFund)
	// Bracket tax 10000 on 45000, less 2000 credit, plus 2000 social.
	assertDec(t, 10000, row.Tax)
	assertDec(t, 35000, row.NetIncome)
	assertDec(t, 35000, row.Cash)
	assertDec(t, 7500, row.Attributions["pensionContribution"]["job"])
}

func TestPensionCapSharedAcrossSalaries(t *testing.T) {
	rules := taxrules.NewRegistry(&taxrules.RuleSet{
		Country:  "ie",
		Currency: "EUR",
		Pension: taxrules.PensionRules{
			ContributionAgeBands: []taxrules.AgeBand{{MinAge: 0, Rate: decimal.NewFromFloat(0.20)}},
			AnnualCap:            dec(115000),
		},
	})
	scn := baseScenario()
	scn.TargetAge = 30
	scn.PensionContributions = map[string]decimal.Decimal{"ie": dec(1)}
	scn.Events = []domain.Event{
		{Kind: domain.KindSalary, ID: "day-job", Amount: dec(100000), FromAge: 30, ToAge: 40},
		{Kind: domain.KindSalary, ID: "consulting", Amount: dec(100000), FromAge: 30, ToAge: 40},
	}

	result, err := New(scn, rules, nil, Options{}).Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	row := result.Rows[0]

	// 20% of the 115000 cap, not of each salary.
	assertDec(t, 23000, row.PensionContribution)
	assertDec(t, 23000, row.PensionFund)
	assertDec(t, 20000, row.Attributions["pensionContribution"]["day-job"])
	assertDec(t, 3000, row.Attributions["pensionContribution"]["consulting"])
}

func TestRelocationConvertsCashAndSalary(t *testing.T) {
	scn := baseScenario()
	scn.TargetAge = 31
	scn.PensionContributions = map[string]decimal.Decimal{"ie": dec(0), "ar": dec(0)}
	scn.Allocations = map[string]map[string]decimal.Decimal{"ie": {}, "ar": {}}
	scn.Events = []domain.Event{
		{Kind: domain.KindSalary, ID: "remote", Amount: dec(10000), FromAge: 30, ToAge: 40, Currency: "EUR", LinkedCountry: "ie"},
		{Kind: domain.KindRelocation, ID: "move", FromAge: 31, ToAge: 31, Destination: "ar"},
	}

	logger := &recordingLogger{}
	sim := New(scn, testRules(), testEconomy(), Options{})
	sim.SetLogger(logger)
	result, err := sim.Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	before, after := result.Rows[0], result.Rows[1]
	assert.Equal(t, "ie", before.Country)
	assertDec(t, 10000, before.Cash)

	assert.Equal(t, "ar", after.Country)
	assert.Equal(t, "ARS", after.Currency)
	// EUR -> ARS at 100.
	assertDec(t, 1_000_000, after.IncomeSalaries)
	assertDec(t, 2_000_000, after.Cash)
	assert.Empty(t, logger.errors)
	assert.True(t, result.FXStats.Entries > 0)
}

func TestRelocationWithOverlappingSalaries(t *testing.T) {
	scn := baseScenario()
	scn.TargetAge = 31
	scn.PensionContributions = map[string]decimal.Decimal{"ie": dec(0), "ar": dec(0)}
	scn.Allocations = map[string]map[string]decimal.Decimal{"ie": {}, "ar": {}}
	scn.Events = []domain.Event{
		{Kind: domain.KindSalary, ID: "remote", Amount: dec(10000), FromAge: 30, ToAge: 40, Currency: "EUR", LinkedCountry: "ie"},
		{Kind: domain.KindSalary, ID: "local", Amount: dec(500000), FromAge: 31, ToAge: 40, Currency: "ARS", LinkedCountry: "ar"},
		{Kind: domain.KindRelocation, ID: "move", Amount: dec(1000), FromAge: 31, ToAge: 31, Destination: "ar"},
	}

	result, err := New(scn, testRules(), testEconomy(), Options{}).Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	before, after := result.Rows[0], result.Rows[1]
	assertDec(t, 10000, before.Cash)

	// 10000 EUR at 100 ARS/EUR plus 500000 ARS.
	assertDec(t, 1_500_000, after.IncomeSalaries)
	assertDec(t, 1_000_000, after.Attributions["incomeSalaries"]["remote"])
	// The move costs 1000 EUR, charged in ARS.
	assertDec(t, 100_000, after.Expenses)
	assertDec(t, 100_000, after.Attributions["expenses"]["Relocation to ar"])
	// Converted cash plus net income; the conversion adds nothing else.
	assertDec(t, 2_400_000, after.Cash)
	assertDec(t, 2_400_000, after.Worth)
	assert.True(t, result.Success())
}

func TestUnmappedCurrencyFailsYear(t *testing.T) {
	scn := baseScenario()
	scn.Events = []domain.Event{
		{Kind: domain.KindSalaryNoPension, ID: "job", Amount: dec(20000), FromAge: 30, ToAge: 31},
		{Kind: domain.KindExpense, ID: "london-rent", Amount: dec(500), FromAge: 31, ToAge: 31, Currency: "GBP"},
	}

	logger := &recordingLogger{}
	sim := New(scn, testRules(), testEconomy(), Options{})
	sim.SetLogger(logger)
	result, err := sim.Run()
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	assert.False(t, result.Success())
	assert.Equal(t, 31, result.FirstFailure())
	assert.Equal(t, 31, result.RunSummaries[0].FailedAt)
	require.NotEmpty(t, logger.errors)
	assert.Contains(t, logger.errors[0], "currency not mapped")

	// The failed year is recorded, and none of its flows are applied.
	failed := result.Rows[1]
	assert.Equal(t, 31, failed.Age)
	assertDec(t, 0, failed.IncomeSalaries)
	assertDec(t, 0, failed.Expenses)
	assertDec(t, 20000, failed.Cash)
}

func TestBucketDeclaresEachEntryOnce(t *testing.T) {
	scn := baseScenario()
	scn.TargetAge = 30
	scn.Events = []domain.Event{
		{Kind: domain.KindSalaryNoPension, ID: "a", Amount: dec(1000), FromAge: 30, ToAge: 30, Currency: "USD", LinkedCountry: "us"},
		{Kind: domain.KindSalaryNoPension, ID: "b", Amount: dec(3000), FromAge: 30, ToAge: 30, Currency: "USD", LinkedCountry: "us"},
		{Kind: domain.KindExpense, ID: "rent", Amount: dec(400), FromAge: 30, ToAge: 30, Currency: "USD", LinkedCountry: "us"},
	}
	fake := &fakeTax{}
	opts := Options{TaxEngine: func(*taxrules.Registry) tax.Engine { return fake }}

	result, err := New(scn, testRules(), testEconomy(), opts).Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	require.Len(t, fake.salaries, 2)
	assertDec(t, 500, fake.salaries[0].Amount())
	assertDec(t, 1500, fake.salaries[1].Amount())
	assert.Equal(t, "EUR", fake.salaries[0].Currency)

	row := result.Rows[0]
	assertDec(t, 2000, row.IncomeSalaries)
	assertDec(t, 200, row.Expenses)
	assertDec(t, 200, row.Attributions["expenses"]["rent"])
}

func TestLiquidationFailure(t *testing.T) {
	scn := baseScenario()
	scn.StartingAge = 60
	scn.TargetAge = 62
	scn.InitialSavings = dec(10000)
	scn.Events = []domain.Event{{Kind: domain.KindExpense, ID: "living", Amount: dec(50000), FromAge: 60, ToAge: 62}}

	logger := &recordingLogger{}
	sim := New(scn, testRules(), nil, Options{})
	sim.SetLogger(logger)
	result, err := sim.Run()
	require.NoError(t, err)

	require.Len(t, result.Rows, 3)
	assert.False(t, result.Success())
	assert.Equal(t, 60, result.FirstFailure())
	assert.Equal(t, 60, result.RunSummaries[0].FailedAt)
	assertDec(t, 10000, result.Rows[0].Withdrawals["cash"])
	assertDec(t, -40000, result.Rows[0].Cash)
	require.NotEmpty(t, logger.errors)
	assert.Contains(t, logger.errors[0], "insufficient funds")
}

func TestWithdrawalIterationBound(t *testing.T) {
	scn := baseScenario()
	scn.StartingAge = 65
	scn.TargetAge = 65
	scn.RetirementAge = 60
	scn.InitialPension = dec(1_000_000)
	scn.Priorities = domain.DrawdownPriorities{Pension: 1}
	scn.Events = []domain.Event{{Kind: domain.KindExpense, ID: "living", Amount: dec(1000), FromAge: 65, ToAge: 65}}

	// Declared pension income never improves the net position, so every
	// draw leaves the need unchanged.
	opts := Options{TaxEngine: func(*taxrules.Registry) tax.Engine {
		return &fakeTax{clone: &fakeTax{net: dec(1_000_000_000)}}
	}}
	logger := &recordingLogger{}
	sim := New(scn, testRules(), nil, opts)
	sim.SetLogger(logger)
	result, err := sim.Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	require.NotEmpty(t, logger.warnings)
	assert.Contains(t, logger.warnings[0], fmt.Sprintf("after %d iterations", MaxWithdrawalIterations))
	assert.False(t, result.Success())
	assert.Equal(t, 65, result.FirstFailure())
	assertDec(t, 1_000_000, result.Rows[0].Withdrawals["pension_ie"])
}

func TestPropertyPurchaseWithMortgage(t *testing.T) {
	scn := baseScenario()
	scn.TargetAge = 30
	scn.InitialSavings = dec(200000)
	scn.Events = []domain.Event{
		{Kind: domain.KindPurchase, ID: "home", Amount: dec(100000), FromAge: 30, ToAge: 50},
		{Kind: domain.KindMortgage, ID: "home", Amount: dec(10000), FromAge: 30, ToAge: 40},
	}

	result, err := New(scn, testRules(), nil, Options{}).Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	row := result.Rows[0]

	assertDec(t, 10000, row.Expenses)
	assertDec(t, 90000, row.Cash)
	// Value 200000 less the 90000 still owed.
	assertDec(t, 110000, row.RealEstateCapital)
	assertDec(t, 200000, row.Worth)
	assertDec(t, 100000, row.Attributions["realEstatePurchases"]["Purchase of home"])
}

func TestPropertySaleFundsCash(t *testing.T) {
	scn := baseScenario()
	scn.TargetAge = 32
	scn.InitialSavings = dec(100000)
	scn.Events = []domain.Event{
		{Kind: domain.KindPurchase, ID: "flat", Amount: dec(80000), FromAge: 30, ToAge: 32, Rate: ratePtr(0.10)},
	}

	result, err := New(scn, testRules(), nil, Options{}).Run()
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	assertDec(t, 20000, result.Rows[0].Cash)
	assertDec(t, 80000, result.Rows[0].RealEstateCapital)
	assertDec(t, 88000, result.Rows[1].RealEstateCapital)

	sold := result.Rows[2]
	assertDec(t, 96800, sold.RealEstateSales)
	assertDec(t, 0, sold.RealEstateCapital)
	assertDec(t, 116800, sold.Cash)
}

func TestSurplusInvestedAboveStash(t *testing.T) {
	scn := baseScenario()
	scn.TargetAge = 30
	scn.EmergencyStash = dec(5000)
	scn.Allocations = map[string]map[string]decimal.Decimal{"ie": {"index": dec(1)}}
	scn.Events = []domain.Event{{Kind: domain.KindSalaryNoPension, ID: "job", Amount: dec(20000), FromAge: 30, ToAge: 30}}

	result, err := New(scn, testRules(), nil, Options{}).Run()
	require.NoError(t, err)
	row := result.Rows[0]

	assertDec(t, 5000, row.Cash)
	assertDec(t, 15000, row.InvestmentCapital)
	assertDec(t, 15000, row.Investments["index_ie"])
	assertDec(t, 20000, row.Worth)
}

func TestMixRebalancing(t *testing.T) {
	scn := baseScenario()
	sim := New(scn, testRules(), nil, Options{})
	require.NoError(t, sim.Initialize())
	sc, err := sim.newContext(0, 1)
	require.NoError(t, err)
	sc.Primary().Age = 30

	mix := &domain.MixConfig{
		Type:            domain.MixFixed,
		Primary:         domain.Profile{Growth: decimal.NewFromFloat(0.07), Volatility: decimal.NewFromFloat(0.15)},
		Secondary:       domain.Profile{Growth: decimal.NewFromFloat(0.03), Volatility: decimal.NewFromFloat(0.05)},
		StartPrimaryPct: decimal.NewFromFloat(0.6),
	}
	entry := sc.investment("index_ie")
	require.NotNil(t, entry)
	fund := entry.Asset

	require.NoError(t, sim.buyWithMix(sc, fund, nil, mix, 30, dec(1000)))
	assertDec(t, 600, fund.ProfileValue(mix.Primary))
	assertDec(t, 400, fund.ProfileValue(mix.Secondary))

	// A drift inside the tolerance is left alone.
	require.NoError(t, fund.Buy(money.NewMoneyFromDecimal(decimal.NewFromFloat(0.5), "EUR", "ie"), &mix.Primary))
	_, err = sim.rebalanceMix(sc, fund, nil, mix, 30, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, fund.ProfileValue(mix.Primary).Equal(decimal.NewFromFloat(600.5)))

	require.NoError(t, fund.Buy(money.NewMoneyFromDecimal(decimal.NewFromFloat(399.5), "EUR", "ie"), &mix.Primary))
	_, err = sim.rebalanceMix(sc, fund, nil, mix, 30, decimal.Zero)
	require.NoError(t, err)
	assertDec(t, 840, fund.ProfileValue(mix.Primary))
	assertDec(t, 560, fund.ProfileValue(mix.Secondary))
	assertDec(t, 1400, fund.Capital().Amount())
}

func TestPensionRebalancingDeclaresNoGains(t *testing.T) {
	mix := domain.MixConfig{
		Type:            domain.MixFixed,
		Primary:         domain.Profile{Growth: decimal.NewFromFloat(0.07), Volatility: decimal.NewFromFloat(0.15)},
		Secondary:       domain.Profile{Growth: decimal.NewFromFloat(0.03), Volatility: decimal.NewFromFloat(0.05)},
		StartPrimaryPct: decimal.NewFromFloat(0.5),
	}
	scn := baseScenario()
	scn.Mix = map[string]domain.MixConfig{"pension_ie": mix}
	fake := &fakeTax{}
	sim := New(scn, testRules(), nil, Options{TaxEngine: func(*taxrules.Registry) tax.Engine { return fake }})
	require.NoError(t, sim.Initialize())
	sc, err := sim.newContext(0, 1)
	require.NoError(t, err)
	sc.Primary().Age = 30

	pot := sim.pot(sc, sc.Primary(), "ie")
	require.NoError(t, pot.Buy(money.NewMoney(1000, "EUR", "ie"), &mix.Primary))
	entry := sc.investment("index_ie")
	require.NotNil(t, entry)
	entry.Mix = &mix
	require.NoError(t, entry.Asset.Buy(money.NewMoney(1000, "EUR", "ie"), &mix.Primary))

	market := asset.NewDeterministicMarket()
	pot.AddYear(market)
	entry.Asset.AddYear(market)
	require.NoError(t, sim.rebalanceAll(sc))

	assertDec(t, 535, pot.ProfileValue(mix.Primary))
	assertDec(t, 535, pot.ProfileValue(mix.Secondary))
	assertDec(t, 535, entry.Asset.ProfileValue(mix.Secondary))
	// Only the fund's sale is declared: 535 sold against a 500 basis.
	require.Len(t, fake.gains, 1)
	assertDec(t, 35, fake.gains[0].Amount())
}

func TestMonteCarloSumsRuns(t *testing.T) {
	scn := baseScenario()
	scn.TargetAge = 32
	scn.InitialSavings = dec(1000)
	scn.Events = []domain.Event{{Kind: domain.KindSalaryNoPension, ID: "job", Amount: dec(100), FromAge: 30, ToAge: 40}}

	single, err := New(scn, testRules(), nil, Options{Runs: 1}).Run()
	require.NoError(t, err)
	triple, err := New(scn, testRules(), nil, Options{Runs: 3}).Run()
	require.NoError(t, err)

	require.Len(t, triple.Rows, len(single.Rows))
	assert.Equal(t, 3, triple.Runs)
	assert.Len(t, triple.RunSummaries, 3)
	for i := range single.Rows {
		assert.True(t, triple.Rows[i].Cash.Equal(single.Rows[i].Cash.Mul(dec(3))), "row %d", i)
		assert.True(t, triple.Average()[i].Cash.Equal(single.Rows[i].Cash), "row %d", i)
	}
	assert.True(t, triple.SuccessRate().Equal(dec(1)))
	assert.NotEqual(t, single.ID, triple.ID)
}

func TestMonteCarloDeterministicWithSeed(t *testing.T) {
	defer SetSeedFunc(seedFunc)
	SetSeedFunc(func() int64 { return 42 })

	scn := baseScenario()
	scn.TargetAge = 35
	scn.Economy = domain.EconomySettings{Mode: domain.EconomyMonteCarlo, Runs: 4}
	scn.InitialInvestments = map[string]decimal.Decimal{"index": dec(10000)}

	run := func() []string {
		result, err := New(scn, testRules(), nil, Options{}).Run()
		require.NoError(t, err)
		out := make([]string, len(result.Rows))
		for i, r := range result.Rows {
			out[i] = r.InvestmentCapital.String()
		}
		return out
	}
	first := run()
	assert.Equal(t, first, run())

	result, err := New(scn, testRules(), nil, Options{Seed: 7}).Run()
	require.NoError(t, err)
	assert.Equal(t, 4, result.Runs)
	percentiles := result.WorthPercentiles()
	assert.True(t, percentiles.P10.LessThanOrEqual(percentiles.P90))
}

func TestWorthIsSumOfBalances(t *testing.T) {
	scn := baseScenario()
	scn.TargetAge = 33
	scn.InitialSavings = dec(20000)
	scn.InitialPension = dec(5000)
	scn.InitialInvestments = map[string]decimal.Decimal{"index": dec(3000)}
	scn.PensionGrowth = decimal.NewFromFloat(0.04)

	result, err := New(scn, testRules(), nil, Options{}).Run()
	require.NoError(t, err)
	for _, row := range result.Rows {
		sum := row.Cash.Add(row.PensionFund).Add(row.RealEstateCapital).Add(row.InvestmentCapital)
		assert.True(t, row.Worth.Equal(sum), "age %d", row.Age)
		assert.True(t, row.WorthPV.Equal(row.Worth), "no inflation, age %d", row.Age)
	}
	assertDec(t, 5000, result.Rows[0].PensionFund)
	assert.True(t, result.Rows[1].PensionFund.Equal(decimal.NewFromInt(5200)))
}

func TestInitializeRejectsBadScenarios(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Scenario)
	}{
		{"unknown start", func(s *domain.Scenario) { s.StartCountry = "xx" }},
		{"empty start", func(s *domain.Scenario) { s.StartCountry = "" }},
		{"target before start", func(s *domain.Scenario) { s.TargetAge = 20 }},
		{"relocation without allocations", func(s *domain.Scenario) {
			s.Events = []domain.Event{{Kind: domain.KindRelocation, FromAge: 31, ToAge: 31, Destination: "ar"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scn := baseScenario()
			tt.mutate(scn)
			_, err := New(scn, testRules(), nil, Options{}).Run()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestBackfillEvents(t *testing.T) {
	scn := baseScenario()
	scn.PensionContributions = map[string]decimal.Decimal{"ie": dec(0), "ar": dec(0)}
	scn.Allocations = map[string]map[string]decimal.Decimal{"ie": {}, "ar": {}}
	scn.Events = []domain.Event{
		{Kind: domain.KindExpense, Amount: dec(1), FromAge: 30, ToAge: 30},
		{Kind: domain.KindRelocation, ID: "move", FromAge: 35, ToAge: 35, Destination: "ar"},
		{Kind: domain.KindExpense, ID: "later", Amount: dec(1), FromAge: 40, ToAge: 41},
		{Kind: domain.KindRental, ID: "usd", Amount: dec(1), FromAge: 40, ToAge: 41, Currency: "usd"},
	}
	sim := New(scn, testRules(), testEconomy(), Options{})
	require.NoError(t, sim.Initialize())

	evs := sim.events
	assert.True(t, strings.HasPrefix(evs[0].ID, "e-"))
	assert.Equal(t, "ie", evs[0].LinkedCountry)
	assert.Equal(t, "EUR", evs[0].Currency)
	assert.Equal(t, "ie", evs[1].LinkedCountry)
	assert.Equal(t, "ar", evs[2].LinkedCountry)
	assert.Equal(t, "ARS", evs[2].Currency)
	assert.Equal(t, "us", evs[3].LinkedCountry)
	assert.Equal(t, "USD", evs[3].Currency)
	// The scenario itself is left untouched.
	assert.Empty(t, scn.Events[0].ID)
}

// fakeTax is a tax engine that records salary declarations and reports a
// fixed net income.
type fakeTax struct {
	country  string
	currency string
	net      decimal.Decimal
	salaries []money.Money
	gains    []money.Money
	clone    *fakeTax
}

func (f *fakeTax) Reset(_ []tax.Person, _ *attribution.Manager, country string, _ int) error {
	f.country = country
	f.currency = map[string]string{"ie": "EUR", "ar": "ARS", "us": "USD"}[country]
	f.salaries = f.salaries[:0:0]
	f.gains = f.gains[:0:0]
	return nil
}
func (f *fakeTax) Country() string  { return f.country }
func (f *fakeTax) Currency() string { return f.currency }
func (f *fakeTax) DeclareSalaryIncome(amount, _ money.Money, _ int, _ string) {
	f.salaries = append(f.salaries, amount)
}
func (f *fakeTax) DeclareOtherIncome(money.Money, string)               {}
func (f *fakeTax) DeclareNonEUSharesIncome(money.Money, string)         {}
func (f *fakeTax) DeclarePrivatePensionIncome(money.Money, int, string) {}
func (f *fakeTax) DeclareStatePensionIncome(money.Money, string)        {}
func (f *fakeTax) DeclareInvestmentGains(gain money.Money, _ string) {
	f.gains = append(f.gains, gain)
}
func (f *fakeTax) NetIncome() decimal.Decimal {
	net := f.net
	for _, s := range f.salaries {
		net = net.Add(s.Amount())
	}
	return net
}
func (f *fakeTax) TotalTax() decimal.Decimal { return decimal.Zero }
func (f *fakeTax) RecordAttributions()       {}
func (f *fakeTax) Clone() tax.Engine {
	if f.clone != nil {
		return f.clone
	}
	c := *f
	c.salaries = append([]money.Money(nil), f.salaries...)
	return &c
}
