package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// EventKind identifies the closed set of user-declared financial events.
type EventKind string

const (
	KindSalary                 EventKind = "SI"    // salary, pensionable
	KindSalaryNoPension        EventKind = "SInp"  // salary, no pension contribution
	KindPartnerSalary          EventKind = "SI2"   // partner salary, pensionable
	KindPartnerSalaryNoPension EventKind = "SI2np" // partner salary, no pension contribution
	KindRSU                    EventKind = "UI"    // restricted stock units
	KindRental                 EventKind = "RI"    // rental income
	KindDefinedBenefit         EventKind = "DBI"   // defined-benefit pension income
	KindTaxFree                EventKind = "FI"    // tax-free income
	KindExpense                EventKind = "E"
	KindMortgage               EventKind = "M"
	KindPurchase               EventKind = "R" // real estate purchase, sold at ToAge
	KindStockOverride          EventKind = "SM"
	KindRelocation             EventKind = "MV" // written as MV-xx in scenario files
	KindNoOp                   EventKind = "NOP"
)

var knownKinds = map[EventKind]bool{
	KindSalary: true, KindSalaryNoPension: true, KindPartnerSalary: true, KindPartnerSalaryNoPension: true,
	KindRSU: true, KindRental: true, KindDefinedBenefit: true, KindTaxFree: true, KindExpense: true,
	KindMortgage: true, KindPurchase: true, KindStockOverride: true, KindRelocation: true, KindNoOp: true,
}

// ParseEventKind parses a short event code. Relocations carry their destination
// in the code ("MV-ar"), which is returned separately.
func ParseEventKind(code string) (EventKind, string, error) {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(strings.ToUpper(code), "MV-") {
		dest := strings.ToLower(strings.TrimSpace(code[3:]))
		if dest == "" {
			return "", "", fmt.Errorf("relocation event %q has no destination", code)
		}
		return KindRelocation, dest, nil
	}
	kind := EventKind(code)
	if !knownKinds[kind] {
		return "", "", fmt.Errorf("unknown event type %q", code)
	}
	return kind, "", nil
}

// IsSalary reports whether the kind is one of the salary variants.
func (k EventKind) IsSalary() bool {
	switch k {
	case KindSalary, KindSalaryNoPension, KindPartnerSalary, KindPartnerSalaryNoPension:
		return true
	}
	return false
}

// Pensionable reports whether salary events of this kind carry pension contributions.
func (k EventKind) Pensionable() bool {
	return k == KindSalary || k == KindPartnerSalary
}

// PersonIndex returns 1 for partner salaries and 0 otherwise.
func (k EventKind) PersonIndex() int {
	if k == KindPartnerSalary || k == KindPartnerSalaryNoPension {
		return 1
	}
	return 0
}

// Event is a user-declared financial event active between FromAge and ToAge
// of the primary person. Amounts are expressed in today's money of the event's
// currency and inflated as the simulation advances.
type Event struct {
	Kind          EventKind        `yaml:"type" json:"type"`
	ID            string           `yaml:"id" json:"id"`
	Amount        decimal.Decimal  `yaml:"amount" json:"amount"`
	FromAge       int              `yaml:"from_age" json:"from_age"`
	ToAge         int              `yaml:"to_age" json:"to_age"`
	Rate          *decimal.Decimal `yaml:"rate,omitempty" json:"rate,omitempty"`
	Currency      string           `yaml:"currency,omitempty" json:"currency,omitempty"`
	LinkedCountry string           `yaml:"linked_country,omitempty" json:"linked_country,omitempty"`
	Match         *decimal.Decimal `yaml:"match,omitempty" json:"match,omitempty"`
	// Destination is the target country of a relocation.
	Destination string `yaml:"-" json:"destination,omitempty"`
}

// UnmarshalYAML implements custom YAML unmarshaling for Event
func (e *Event) UnmarshalYAML(value *yaml.Node) error {
	type Alias struct {
		Type          string  `yaml:"type"`
		ID            string  `yaml:"id"`
		Amount        string  `yaml:"amount"`
		FromAge       int     `yaml:"from_age"`
		ToAge         int     `yaml:"to_age"`
		Rate          *string `yaml:"rate,omitempty"`
		Currency      string  `yaml:"currency,omitempty"`
		LinkedCountry string  `yaml:"linked_country,omitempty"`
		Match         *string `yaml:"match,omitempty"`
	}

	var aux Alias
	if err := value.Decode(&aux); err != nil {
		return err
	}

	kind, dest, err := ParseEventKind(aux.Type)
	if err != nil {
		return err
	}
	e.Kind = kind
	e.Destination = dest
	e.ID = aux.ID
	e.FromAge = aux.FromAge
	e.ToAge = aux.ToAge
	e.Currency = aux.Currency
	e.LinkedCountry = aux.LinkedCountry

	e.Amount = decimal.Zero
	if aux.Amount != "" {
		if e.Amount, err = decimal.NewFromString(aux.Amount); err != nil {
			return fmt.Errorf("event %s: invalid amount: %w", aux.ID, err)
		}
	}
	if aux.Rate != nil {
		val, err := decimal.NewFromString(*aux.Rate)
		if err != nil {
			return fmt.Errorf("event %s: invalid rate: %w", aux.ID, err)
		}
		e.Rate = &val
	}
	if aux.Match != nil {
		val, err := decimal.NewFromString(*aux.Match)
		if err != nil {
			return fmt.Errorf("event %s: invalid match: %w", aux.ID, err)
		}
		e.Match = &val
	}
	return nil
}

// InScope reports whether the event applies at the given age.
func (e *Event) InScope(age int) bool {
	return e.FromAge <= age && age <= e.ToAge
}

// Code returns the short code used in scenario files.
func (e *Event) Code() string {
	if e.Kind == KindRelocation {
		return "MV-" + e.Destination
	}
	return string(e.Kind)
}
