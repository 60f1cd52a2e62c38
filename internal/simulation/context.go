package simulation

import (
	"sort"

	"github.com/finsim/household-projector/internal/asset"
	"github.com/finsim/household-projector/internal/attribution"
	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/tax"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
)

// Phase is the working status of a person.
type Phase string

const (
	PhaseGrowth  Phase = "growth"
	PhaseRetired Phase = "retired"
)

// Person is a household member with per-country pension pots.
type Person struct {
	Index         int
	Age           int
	RetirementAge int
	Phase         Phase
	Pots          map[string]*asset.Pension
}

// AddYear advances the person by one year and updates the phase.
func (p *Person) AddYear() {
	p.Age++
	if p.RetirementAge > 0 && p.Age >= p.RetirementAge {
		p.Phase = PhaseRetired
	}
}

// Retired reports whether the person has entered drawdown.
func (p *Person) Retired() bool { return p.Phase == PhaseRetired }

// PotCountries returns the countries the person holds pots in, sorted.
func (p *Person) PotCountries() []string {
	out := make([]string, 0, len(p.Pots))
	for c := range p.Pots {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// InvestmentEntry is one investable product available to the household.
type InvestmentEntry struct {
	Key          string
	BaseKey      string
	Label        string
	Asset        *asset.Equity
	BaseCurrency string
	AssetCountry string
	Mix          *domain.MixConfig
	NonEUShares  bool
	Exempt       bool
}

// yearTotals are the yearly accumulators, all in residence currency.
type yearTotals struct {
	incomeSalaries       decimal.Decimal
	incomeRSUs           decimal.Decimal
	incomeRentals        decimal.Decimal
	incomeDefinedBenefit decimal.Decimal
	incomeTaxFree        decimal.Decimal
	incomePrivatePension decimal.Decimal
	incomeStatePension   decimal.Decimal
	incomeCash           decimal.Decimal
	incomeInvestments    decimal.Decimal
	realEstateSales      decimal.Decimal
	expenses             decimal.Decimal
	pensionContribution  decimal.Decimal
	purchaseShortfall    decimal.Decimal

	// untaxed income reaches cash without passing through the tax engine.
	untaxed decimal.Decimal
	// taxedProceeds is the part of incomeInvestments already counted as
	// declared income by the tax engine.
	taxedProceeds decimal.Decimal
	withdrawals   map[string]decimal.Decimal
	declared      map[string]bool
	// pensionableUsed is the salary already counted against the annual
	// contribution cap, keyed by "person/country".
	pensionableUsed map[string]decimal.Decimal
}

func newYearTotals() yearTotals {
	return yearTotals{
		withdrawals:     make(map[string]decimal.Decimal),
		declared:        make(map[string]bool),
		pensionableUsed: make(map[string]decimal.Decimal),
	}
}

// SimulationContext carries all mutable state of one run. Every component
// receives it explicitly; nothing is kept in package state.
type SimulationContext struct {
	Run    int
	Year   int
	Period int

	Country  string
	Currency string

	Cash           money.Money
	EmergencyStash money.Money
	// InflationOverrides replaces the modelled inflation of a country.
	InflationOverrides map[string]decimal.Decimal

	Success  bool
	FailedAt int

	persons     []*Person
	investments []*InvestmentEntry
	properties  map[string]*asset.Property
	tax         tax.Engine
	attr        *attribution.Manager
	market      *asset.Market
	deflator    decimal.Decimal

	year yearTotals
	rows []domain.DataRow
}

// Primary returns the main person, whose age drives the simulation.
func (sc *SimulationContext) Primary() *Person { return sc.persons[0] }

// Age returns the primary person's age.
func (sc *SimulationContext) Age() int { return sc.Primary().Age }

// Person returns the person at index, or the primary person when absent.
func (sc *SimulationContext) Person(index int) *Person {
	if index >= 0 && index < len(sc.persons) {
		return sc.persons[index]
	}
	return sc.Primary()
}

// Residence tags an amount with the current residence currency and country.
func (sc *SimulationContext) Residence(amount decimal.Decimal) money.Money {
	return money.NewMoneyFromDecimal(amount, sc.Currency, sc.Country)
}

// Rows returns the data rows recorded so far.
func (sc *SimulationContext) Rows() []domain.DataRow { return sc.rows }

// Investments returns the investment entries of the run.
func (sc *SimulationContext) Investments() []*InvestmentEntry { return sc.investments }

func (sc *SimulationContext) beginYear() {
	sc.Year++
	sc.Period++
	sc.year = newYearTotals()
	sc.attr.Reset()
	for _, e := range sc.investments {
		e.Asset.ResetYearlyStats()
	}
	for _, p := range sc.persons {
		for _, pot := range p.Pots {
			pot.ResetYearlyStats()
		}
	}
}

func (sc *SimulationContext) taxPersons() []tax.Person {
	out := make([]tax.Person, len(sc.persons))
	for i, p := range sc.persons {
		out[i] = tax.Person{Index: p.Index, Age: p.Age}
	}
	return out
}

func (sc *SimulationContext) investment(key string) *InvestmentEntry {
	for _, e := range sc.investments {
		if e.Key == key {
			return e
		}
	}
	return nil
}

func (sc *SimulationContext) sortedPropertyIDs() []string {
	ids := make([]string, 0, len(sc.properties))
	for id := range sc.properties {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
