package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EconomyMode selects deterministic growth or stochastic returns.
type EconomyMode string

const (
	EconomyDeterministic EconomyMode = "deterministic"
	EconomyMonteCarlo    EconomyMode = "montecarlo"
)

// Scenario is a complete household projection request.
type Scenario struct {
	Name          string `yaml:"name" json:"name"`
	StartCountry  string `yaml:"start_country" json:"start_country"`
	StartYear     int    `yaml:"start_year" json:"start_year"`
	StartingAge   int    `yaml:"starting_age" json:"starting_age"`
	TargetAge     int    `yaml:"target_age" json:"target_age"`
	RetirementAge int    `yaml:"retirement_age" json:"retirement_age"`
	// Partner is optional; partner salaries (SI2/SI2np) require it.
	Partner *PartnerDetails `yaml:"partner,omitempty" json:"partner,omitempty"`

	InitialSavings     decimal.Decimal            `yaml:"initial_savings" json:"initial_savings"`
	EmergencyStash     decimal.Decimal            `yaml:"emergency_stash" json:"emergency_stash"`
	InitialPension     decimal.Decimal            `yaml:"initial_pension" json:"initial_pension"`
	InitialInvestments map[string]decimal.Decimal `yaml:"initial_investments" json:"initial_investments"`
	StatePension       decimal.Decimal            `yaml:"state_pension" json:"state_pension"` // annual, start-country money
	PensionGrowth      decimal.Decimal            `yaml:"pension_growth" json:"pension_growth"`
	PensionVolatility  decimal.Decimal            `yaml:"pension_volatility" json:"pension_volatility"`

	// PensionContributions is the share of the age-banded maximum contributed, per country.
	PensionContributions map[string]decimal.Decimal `yaml:"pension_contributions" json:"pension_contributions"`
	// Allocations splits invested surplus between investment keys, per residence country.
	Allocations map[string]map[string]decimal.Decimal `yaml:"allocations" json:"allocations"`
	Priorities  DrawdownPriorities                    `yaml:"priorities" json:"priorities"`
	// Mix holds mix configurations keyed by investment key or "pension_<country>".
	Mix map[string]MixConfig `yaml:"mix" json:"mix"`

	Economy EconomySettings `yaml:"economy" json:"economy"`
	Events  []Event         `yaml:"events" json:"events"`
}

// PartnerDetails describes the optional second person.
type PartnerDetails struct {
	StartingAge   int `yaml:"starting_age" json:"starting_age"`
	RetirementAge int `yaml:"retirement_age" json:"retirement_age"`
}

// EconomySettings holds economic assumptions for a scenario.
type EconomySettings struct {
	Mode EconomyMode `yaml:"mode" json:"mode"`
	Runs int         `yaml:"runs" json:"runs"`
	// Inflation is used for countries without a rule set or economic data.
	Inflation decimal.Decimal `yaml:"inflation" json:"inflation"`
}

// DrawdownPriorities ranks funding sources; 0 leaves a source unused.
type DrawdownPriorities struct {
	Cash        int            `yaml:"cash" json:"cash"`
	Pension     int            `yaml:"pension" json:"pension"`
	Investments map[string]int `yaml:"investments" json:"investments"`
}

// Ranks returns the distinct non-zero ranks in ascending order.
func (p DrawdownPriorities) Ranks() []int {
	seen := map[int]bool{}
	add := func(r int) {
		if r > 0 {
			seen[r] = true
		}
	}
	add(p.Cash)
	add(p.Pension)
	for _, r := range p.Investments {
		add(r)
	}
	ranks := make([]int, 0, len(seen))
	for r := range seen {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	return ranks
}

// RelocationCountries returns destination countries in event order, without duplicates.
func (s *Scenario) RelocationCountries() []string {
	var out []string
	seen := map[string]bool{}
	for _, ev := range s.Events {
		if ev.Kind == KindRelocation && !seen[ev.Destination] {
			seen[ev.Destination] = true
			out = append(out, ev.Destination)
		}
	}
	return out
}

// Countries returns the start country followed by all relocation destinations.
func (s *Scenario) Countries() []string {
	out := []string{s.StartCountry}
	for _, c := range s.RelocationCountries() {
		if c != s.StartCountry {
			out = append(out, c)
		}
	}
	return out
}

// HasRelocation reports whether any relocation event is declared.
func (s *Scenario) HasRelocation() bool {
	return len(s.RelocationCountries()) > 0
}

// RunCount returns the number of runs implied by the economy mode.
func (s *Scenario) RunCount() int {
	if s.Economy.Mode == EconomyMonteCarlo && s.Economy.Runs > 1 {
		return s.Economy.Runs
	}
	return 1
}
