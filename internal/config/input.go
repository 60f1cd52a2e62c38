package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/taxrules"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is wrapped by every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// InputParser handles parsing of scenario files
type InputParser struct {
	// Rules, when set, lets validation check that every country has a rule set.
	Rules *taxrules.Registry
}

// NewInputParser creates a new input parser
func NewInputParser(rules *taxrules.Registry) *InputParser {
	return &InputParser{Rules: rules}
}

// LoadFromFile loads and validates a scenario from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates scenario YAML.
func (ip *InputParser) Parse(data []byte) (*domain.Scenario, error) {
	var scenario domain.Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.StartCountry = strings.ToLower(strings.TrimSpace(scenario.StartCountry))

	if err := ip.ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}
	return &scenario, nil
}

// ValidateScenario validates a loaded scenario
func (ip *InputParser) ValidateScenario(s *domain.Scenario) error {
	if s.StartCountry == "" {
		return fmt.Errorf("%w: start country is required", ErrInvalidScenario)
	}
	if err := ip.validateAges(s); err != nil {
		return err
	}
	if err := ip.validateEconomy(&s.Economy); err != nil {
		return err
	}

	for _, c := range s.Countries() {
		if ip.Rules == nil {
			break
		}
		set, ok := ip.Rules.Get(c)
		if !ok {
			return fmt.Errorf("%w: no tax rules for country %q", ErrInvalidScenario, c)
		}
		if !knownCurrency(set.CurrencyCode()) {
			return fmt.Errorf("%w: rules for %q use unknown currency %q", ErrInvalidScenario, c, set.CurrencyCode())
		}
	}

	if s.HasRelocation() {
		for _, c := range s.Countries() {
			if _, ok := s.Allocations[c]; !ok {
				return fmt.Errorf("%w: relocation enabled but no allocations for %q", ErrInvalidScenario, c)
			}
			if _, ok := s.PensionContributions[c]; !ok {
				return fmt.Errorf("%w: relocation enabled but no pension contribution for %q", ErrInvalidScenario, c)
			}
		}
	}
	for country, shares := range s.Allocations {
		if err := validateShares(country, shares); err != nil {
			return err
		}
	}
	for key, mix := range s.Mix {
		if err := validateMix(key, mix); err != nil {
			return err
		}
	}

	for i := range s.Events {
		if err := ip.validateEvent(s, &s.Events[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAges checks the household's age ordering
func (ip *InputParser) validateAges(s *domain.Scenario) error {
	if s.StartingAge <= 0 {
		return fmt.Errorf("%w: starting age must be positive", ErrInvalidScenario)
	}
	if s.TargetAge < s.StartingAge {
		return fmt.Errorf("%w: target age %d before starting age %d", ErrInvalidScenario, s.TargetAge, s.StartingAge)
	}
	if s.RetirementAge < 0 {
		return fmt.Errorf("%w: retirement age cannot be negative", ErrInvalidScenario)
	}
	if p := s.Partner; p != nil && p.StartingAge <= 0 {
		return fmt.Errorf("%w: partner starting age must be positive", ErrInvalidScenario)
	}
	if s.InitialSavings.IsNegative() || s.EmergencyStash.IsNegative() || s.InitialPension.IsNegative() {
		return fmt.Errorf("%w: starting balances cannot be negative", ErrInvalidScenario)
	}
	return nil
}

func (ip *InputParser) validateEconomy(e *domain.EconomySettings) error {
	switch e.Mode {
	case "", domain.EconomyDeterministic, domain.EconomyMonteCarlo:
	default:
		return fmt.Errorf("%w: unknown economy mode %q", ErrInvalidScenario, e.Mode)
	}
	if e.Runs < 0 {
		return fmt.Errorf("%w: runs cannot be negative", ErrInvalidScenario)
	}
	return nil
}

// validateEvent validates a single event
func (ip *InputParser) validateEvent(s *domain.Scenario, ev *domain.Event) error {
	name := ev.ID
	if name == "" {
		name = ev.Code()
	}
	if ev.Amount.IsNegative() {
		return fmt.Errorf("%w: event %s: amount cannot be negative", ErrInvalidScenario, name)
	}
	if ev.ToAge < ev.FromAge {
		return fmt.Errorf("%w: event %s: to_age %d before from_age %d", ErrInvalidScenario, name, ev.ToAge, ev.FromAge)
	}
	if ev.Currency != "" && !knownCurrency(ev.Currency) {
		return fmt.Errorf("%w: event %s: unknown currency %q", ErrInvalidScenario, name, ev.Currency)
	}
	if ev.Kind.PersonIndex() == 1 && s.Partner == nil {
		return fmt.Errorf("%w: event %s: partner salary without a partner", ErrInvalidScenario, name)
	}
	switch ev.Kind {
	case domain.KindPurchase, domain.KindMortgage:
		if ev.ID == "" {
			return fmt.Errorf("%w: %s event needs an id linking property and mortgage", ErrInvalidScenario, ev.Code())
		}
	case domain.KindRelocation:
		if ev.FromAge < s.StartingAge || ev.FromAge > s.TargetAge {
			return fmt.Errorf("%w: event %s: relocation at %d outside the projection", ErrInvalidScenario, name, ev.FromAge)
		}
	}
	if ev.Match != nil && (ev.Match.IsNegative() || ev.Match.GreaterThan(decimal.NewFromInt(1))) {
		return fmt.Errorf("%w: event %s: match must be between 0 and 1", ErrInvalidScenario, name)
	}
	return nil
}

var shareTolerance = decimal.NewFromFloat(0.0001)

func validateShares(country string, shares map[string]decimal.Decimal) error {
	total := decimal.Zero
	for key, share := range shares {
		if share.IsNegative() {
			return fmt.Errorf("%w: allocation %s/%s is negative", ErrInvalidScenario, country, key)
		}
		total = total.Add(share)
	}
	if total.GreaterThan(decimal.NewFromInt(1).Add(shareTolerance)) {
		return fmt.Errorf("%w: allocations for %s sum to %s", ErrInvalidScenario, country, total)
	}
	return nil
}

func validateMix(key string, mix domain.MixConfig) error {
	one := decimal.NewFromInt(1)
	for _, pct := range []decimal.Decimal{mix.StartPrimaryPct, mix.EndPrimaryPct} {
		if pct.IsNegative() || pct.GreaterThan(one) {
			return fmt.Errorf("%w: mix %s: primary share %s out of range", ErrInvalidScenario, key, pct)
		}
	}
	switch mix.Type {
	case "", domain.MixFixed:
	case domain.MixGlidePath:
		if mix.EndAge <= mix.StartAge {
			return fmt.Errorf("%w: mix %s: glide path ends before it starts", ErrInvalidScenario, key)
		}
	default:
		return fmt.Errorf("%w: mix %s: unknown type %q", ErrInvalidScenario, key, mix.Type)
	}
	return nil
}

func knownCurrency(code string) bool {
	return gomoney.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}
