// Package simulation runs the yearly household projection: event flows,
// relocations, pension income, withdrawals and rebalancing.
package simulation

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/finsim/household-projector/internal/asset"
	"github.com/finsim/household-projector/internal/attribution"
	"github.com/finsim/household-projector/internal/currency"
	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/economic"
	"github.com/finsim/household-projector/internal/logging"
	"github.com/finsim/household-projector/internal/tax"
	"github.com/finsim/household-projector/internal/taxrules"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrConfiguration marks scenario problems found before any year is simulated.
var ErrConfiguration = errors.New("invalid simulation configuration")

// Options tunes a simulator.
type Options struct {
	// Runs overrides the scenario's run count when positive.
	Runs int
	// Seed fixes the Monte Carlo seed; zero draws one from seedFunc.
	Seed int64
	// TaxEngine builds the tax engine of each run; defaults to the Taxman.
	TaxEngine func(*taxrules.Registry) tax.Engine
}

// Simulator projects one scenario. It owns the FX cache shared by all runs of
// a simulation. A Simulator must not be used from several goroutines at once.
type Simulator struct {
	scenario  *domain.Scenario
	rules     *taxrules.Registry
	econ      *economic.Provider
	resolver  *currency.Resolver
	cache     *currency.FXCache
	logger    logging.Logger
	opts      Options
	events    []domain.Event
	startYear int
}

// New creates a simulator for scenario.
func New(scenario *domain.Scenario, rules *taxrules.Registry, econ *economic.Provider, opts Options) *Simulator {
	cache := currency.NewFXCache()
	if opts.TaxEngine == nil {
		opts.TaxEngine = func(r *taxrules.Registry) tax.Engine { return tax.NewTaxman(r) }
	}
	return &Simulator{
		scenario: scenario,
		rules:    rules,
		econ:     econ,
		resolver: currency.NewResolver(rules, econ, cache),
		cache:    cache,
		logger:   logging.NopLogger{},
		opts:     opts,
	}
}

// SetLogger sets the logger used by the simulator and its resolver.
func (s *Simulator) SetLogger(l logging.Logger) {
	s.logger = logging.OrNop(l)
	s.resolver.SetLogger(s.logger)
}

// Resolver exposes the currency resolver.
func (s *Simulator) Resolver() *currency.Resolver { return s.resolver }

// Initialize validates the scenario's jurisdictions, resets the FX cache and
// back-fills missing event currencies and countries. Run calls it.
func (s *Simulator) Initialize() error {
	scn := s.scenario
	start, err := currency.NormalizeCountry(scn.StartCountry)
	if err != nil {
		return fmt.Errorf("%w: start country: %v", ErrConfiguration, err)
	}
	scn.StartCountry = start

	countries := scn.Countries()
	for _, c := range countries {
		if _, ok := s.resolver.CurrencyForCountry(c); !ok {
			return fmt.Errorf("%w: no tax rules with a currency for %q", ErrConfiguration, c)
		}
	}
	if scn.HasRelocation() {
		for _, c := range countries {
			if _, ok := scn.Allocations[c]; !ok {
				return fmt.Errorf("%w: relocation enabled but no allocations for %q", ErrConfiguration, c)
			}
			if _, ok := scn.PensionContributions[c]; !ok {
				return fmt.Errorf("%w: relocation enabled but no pension contribution for %q", ErrConfiguration, c)
			}
		}
	}
	if scn.TargetAge < scn.StartingAge {
		return fmt.Errorf("%w: target age %d before starting age %d", ErrConfiguration, scn.TargetAge, scn.StartingAge)
	}

	s.resolver.Reset()
	s.startYear = scn.StartYear
	if s.startYear == 0 {
		s.startYear = nowFunc().Year()
	}
	s.events = s.backfillEvents()
	return nil
}

// backfillEvents copies the scenario events, filling missing IDs, linked
// countries and currencies from the residence timeline.
func (s *Simulator) backfillEvents() []domain.Event {
	events := append([]domain.Event(nil), s.scenario.Events...)

	type move struct {
		age     int
		country string
	}
	var moves []move
	for _, ev := range events {
		if ev.Kind == domain.KindRelocation {
			moves = append(moves, move{ev.FromAge, ev.Destination})
		}
	}
	sort.SliceStable(moves, func(i, j int) bool { return moves[i].age < moves[j].age })
	residenceAt := func(age int) string {
		country := s.scenario.StartCountry
		for _, m := range moves {
			if m.age > age {
				break
			}
			country = m.country
		}
		return country
	}

	for i := range events {
		ev := &events[i]
		if ev.ID == "" {
			ev.ID = strings.ToLower(string(ev.Kind)) + "-" + uuid.NewString()[:8]
		}
		home := residenceAt(ev.FromAge)
		if ev.Kind == domain.KindRelocation {
			home = residenceAt(ev.FromAge - 1)
		}
		if ev.LinkedCountry == "" {
			if ev.Currency != "" {
				ev.LinkedCountry, _ = s.resolver.FindCountryForCurrency(ev.Currency, home)
			} else {
				ev.LinkedCountry = home
			}
		}
		ev.LinkedCountry = strings.ToLower(ev.LinkedCountry)
		if ev.Currency == "" {
			ev.Currency, _ = s.resolver.CurrencyForCountry(ev.LinkedCountry)
		}
		ev.Currency = strings.ToUpper(ev.Currency)
	}
	return events
}

// Run executes every run of the simulation sequentially and sums their rows.
func (s *Simulator) Run() (*Result, error) {
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	runs := s.opts.Runs
	if runs <= 0 {
		runs = s.scenario.RunCount()
	}
	seed := s.opts.Seed
	if seed == 0 {
		seed = seedFunc()
	}

	result := newResult(s.scenario.Name, runs)
	for run := 0; run < runs; run++ {
		sc, err := s.newContext(run, seed)
		if err != nil {
			return nil, err
		}
		if err := s.runOnce(sc); err != nil {
			return nil, err
		}
		result.add(sc)
	}
	result.FXStats = s.cache.Stats()
	s.logger.Debugf("fx cache: %d entries, %d hits, %d misses, %d failures",
		result.FXStats.Entries, result.FXStats.Hits, result.FXStats.Misses, result.FXStats.Failures)
	return result, nil
}

func (s *Simulator) runOnce(sc *SimulationContext) error {
	for sc.Age() < s.scenario.TargetAge {
		if err := s.simulateYear(sc); err != nil {
			return err
		}
	}
	return nil
}

// newContext builds the fresh per-run state: persons, pots, investments and cash.
func (s *Simulator) newContext(run int, seed int64) (*SimulationContext, error) {
	scn := s.scenario
	start := scn.StartCountry
	startCur, _ := s.resolver.CurrencyForCountry(start)

	sc := &SimulationContext{
		Run:                run,
		Year:               s.startYear - 1,
		Period:             -1,
		Country:            start,
		Currency:           startCur,
		Cash:               money.NewMoneyFromDecimal(scn.InitialSavings, startCur, start),
		EmergencyStash:     money.NewMoneyFromDecimal(scn.EmergencyStash, startCur, start),
		InflationOverrides: make(map[string]decimal.Decimal),
		Success:            true,
		properties:         make(map[string]*asset.Property),
		tax:                s.opts.TaxEngine(s.rules),
		attr:               attribution.NewManager(),
		market:             asset.NewDeterministicMarket(),
		deflator:           decimal.NewFromInt(1),
		year:               newYearTotals(),
	}
	if scn.Economy.Mode == domain.EconomyMonteCarlo {
		sc.market = asset.NewStochasticMarket(rand.New(rand.NewSource(seed + int64(run))))
	}

	sc.persons = append(sc.persons, &Person{
		Index: 0, Age: scn.StartingAge - 1, RetirementAge: scn.RetirementAge,
		Phase: PhaseGrowth, Pots: make(map[string]*asset.Pension),
	})
	if scn.Partner != nil {
		sc.persons = append(sc.persons, &Person{
			Index: 1, Age: scn.Partner.StartingAge - 1, RetirementAge: scn.Partner.RetirementAge,
			Phase: PhaseGrowth, Pots: make(map[string]*asset.Pension),
		})
	}

	s.buildInvestments(sc)
	if err := sc.tax.Reset(sc.taxPersons(), sc.attr, start, s.startYear); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if scn.InitialPension.IsPositive() {
		pot := s.pot(sc, sc.Primary(), start)
		if err := s.contribute(sc, sc.Primary(), pot, start, scn.InitialPension); err != nil {
			return nil, fmt.Errorf("initial pension: %w", err)
		}
	}
	keys := make([]string, 0, len(scn.InitialInvestments))
	for k := range scn.InitialInvestments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := s.resolveInvestment(sc, k, start)
		if entry == nil {
			return nil, fmt.Errorf("%w: unknown initial investment %q", ErrConfiguration, k)
		}
		amount := scn.InitialInvestments[k]
		native, err := s.resolver.ConvertCurrencyAmount(amount, startCur, start, entry.BaseCurrency, entry.AssetCountry, s.startYear, true)
		if err != nil {
			return nil, fmt.Errorf("initial investment %s: %w", k, err)
		}
		if err := s.invest(sc, entry, native, sc.Primary().Age+1); err != nil {
			return nil, fmt.Errorf("initial investment %s: %w", k, err)
		}
	}
	return sc, nil
}

// buildInvestments creates one entry per investment type of every country the
// scenario may live in.
func (s *Simulator) buildInvestments(sc *SimulationContext) {
	for _, country := range s.scenario.Countries() {
		set, ok := s.rules.Get(country)
		if !ok {
			continue
		}
		for _, it := range set.ResolvedInvestmentTypes() {
			if sc.investment(it.Key) != nil {
				continue
			}
			entry := &InvestmentEntry{
				Key:          it.Key,
				BaseKey:      strings.TrimSuffix(it.Key, "_"+set.CountryCode()),
				Label:        it.Label,
				Asset:        asset.NewEquity(it.Label, it.BaseCurrency, it.AssetCountry, it.Growth, it.Volatility),
				BaseCurrency: it.BaseCurrency,
				AssetCountry: it.AssetCountry,
				NonEUShares:  it.Treatment == taxrules.TreatmentNonEUShares,
				Exempt:       it.Treatment == taxrules.TreatmentExempt,
			}
			if mix, ok := s.scenario.Mix[entry.Key]; ok {
				entry.Mix = &mix
			} else if mix, ok := s.scenario.Mix[entry.BaseKey]; ok {
				entry.Mix = &mix
			}
			sc.investments = append(sc.investments, entry)
		}
	}
}

// resolveInvestment finds an entry by exact key or by base key in country.
func (s *Simulator) resolveInvestment(sc *SimulationContext, key, country string) *InvestmentEntry {
	if e := sc.investment(key); e != nil {
		return e
	}
	return sc.investment(taxrules.ResolveInvestmentKey(key, country))
}

// pot returns the person's pension pot in country, creating it on first use.
func (s *Simulator) pot(sc *SimulationContext, p *Person, country string) *asset.Pension {
	if pot, ok := p.Pots[country]; ok {
		return pot
	}
	cur, _ := s.resolver.CurrencyForCountry(country)
	pot := asset.NewPension(cur, country, s.scenario.PensionGrowth, s.scenario.PensionVolatility)
	p.Pots[country] = pot
	return pot
}

// simulateYear advances one year. Recoverable failures mark the run as failed
// and end the year early; a row is still recorded. Only infrastructure errors
// are returned.
func (s *Simulator) simulateYear(sc *SimulationContext) error {
	sc.beginYear()
	for _, p := range sc.persons {
		p.AddYear()
	}
	if err := sc.tax.Reset(sc.taxPersons(), sc.attr, sc.Country, sc.Year); err != nil {
		return err
	}
	if sc.Period > 0 {
		s.growAssets(sc)
		sc.deflator = sc.deflator.Mul(decimal.NewFromInt(1).Add(s.inflation(sc, sc.Country)))
	}

	steps := []func(*SimulationContext) error{
		s.relocationPass,
		s.pensionIncome,
		s.salePass,
		s.mainPass,
		s.handleInvestments,
	}
	for _, step := range steps {
		if err := step(sc); err != nil {
			if errors.Is(err, currency.ErrProviderNotReady) {
				return err
			}
			s.fail(sc, err)
			break
		}
	}
	sc.rows = append(sc.rows, s.record(sc))
	return nil
}

// fail marks the run as failed at the current age; the first failure wins.
func (s *Simulator) fail(sc *SimulationContext, err error) {
	if sc.Success {
		sc.Success = false
		sc.FailedAt = sc.Age()
	}
	s.logger.Errorf("run %d: year %d failed at age %d: %v", sc.Run, sc.Year, sc.Age(), err)
}

// growAssets applies one year of returns, honouring stock-market overrides.
func (s *Simulator) growAssets(sc *SimulationContext) {
	var override *decimal.Decimal
	for i := range s.events {
		ev := &s.events[i]
		if ev.Kind == domain.KindStockOverride && ev.InScope(sc.Age()) && ev.Rate != nil {
			override = ev.Rate
		}
	}
	sc.market.SetOverride(override)
	for _, e := range sc.investments {
		e.Asset.AddYear(sc.market)
	}
	for _, p := range sc.persons {
		for _, pot := range p.Pots {
			pot.AddYear(sc.market)
		}
	}
	for _, id := range sc.sortedPropertyIDs() {
		sc.properties[id].AddYear()
	}
}

// inflation resolves a country's effective inflation: explicit override, rule
// set, economic data, then the scenario default.
func (s *Simulator) inflation(sc *SimulationContext, country string) decimal.Decimal {
	if r, ok := sc.InflationOverrides[country]; ok {
		return r
	}
	if set, ok := s.rules.Get(country); ok && !set.InflationRate().IsZero() {
		return set.InflationRate()
	}
	if s.econ.Ready() {
		if r, ok := s.econ.InflationRate(country); ok {
			return r
		}
	}
	return s.scenario.Economy.Inflation
}

// inflate grows an amount expressed in today's money by rate for the years elapsed.
func inflate(amount, rate decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 || rate.IsZero() {
		return amount
	}
	factor := decimal.NewFromInt(1).Add(rate)
	out := amount
	for i := 0; i < years; i++ {
		out = out.Mul(factor)
	}
	return out.Round(8)
}

// toResidence converts a tagged value into residence money for reporting; it
// never fails.
func (s *Simulator) toResidence(sc *SimulationContext, m money.Money) decimal.Decimal {
	v, err := s.resolver.ConvertCurrencyAmount(m.Amount(), m.Currency, m.Country, sc.Currency, sc.Country, sc.Year, false)
	if err != nil {
		return m.Amount()
	}
	return v
}

// record builds the data row of the year.
func (s *Simulator) record(sc *SimulationContext) domain.DataRow {
	y := &sc.year
	sc.tax.RecordAttributions()

	row := domain.DataRow{
		Age:                  sc.Age(),
		Year:                 sc.Year,
		Country:              sc.Country,
		Currency:             sc.Currency,
		IncomeSalaries:       y.incomeSalaries,
		IncomeRSUs:           y.incomeRSUs,
		IncomeRentals:        y.incomeRentals,
		IncomeDefinedBenefit: y.incomeDefinedBenefit,
		IncomeTaxFree:        y.incomeTaxFree,
		IncomePrivatePension: y.incomePrivatePension,
		IncomeStatePension:   y.incomeStatePension,
		IncomeCash:           y.incomeCash,
		IncomeInvestments:    y.incomeInvestments,
		RealEstateSales:      y.realEstateSales,
		Expenses:             y.expenses,
		Tax:                  sc.tax.TotalTax(),
		PensionContribution:  y.pensionContribution,
		NetIncome:            s.netIncome(sc),
		Cash:                 sc.Cash.Amount(),
		Investments:          make(map[string]decimal.Decimal),
		Attributions:         sc.attr.Snapshot(),
	}
	for k, v := range y.withdrawals {
		if row.Withdrawals == nil {
			row.Withdrawals = make(map[string]decimal.Decimal)
		}
		row.Withdrawals[k] = v
	}
	for _, p := range sc.persons {
		for _, c := range p.PotCountries() {
			row.PensionFund = row.PensionFund.Add(s.toResidence(sc, p.Pots[c].Capital()))
		}
	}
	for _, id := range sc.sortedPropertyIDs() {
		if prop := sc.properties[id]; !prop.Sold() {
			row.RealEstateCapital = row.RealEstateCapital.Add(s.toResidence(sc, prop.Capital()))
		}
	}
	for _, e := range sc.investments {
		v := s.toResidence(sc, e.Asset.Capital())
		row.Investments[e.Key] = v
		row.InvestmentCapital = row.InvestmentCapital.Add(v)
	}
	row.Worth = row.Cash.Add(row.PensionFund).Add(row.RealEstateCapital).Add(row.InvestmentCapital)

	row.CashPV = row.Cash.Div(sc.deflator)
	row.NetIncomePV = row.NetIncome.Div(sc.deflator)
	row.ExpensesPV = row.Expenses.Div(sc.deflator)
	row.WorthPV = row.Worth.Div(sc.deflator)
	return row
}
