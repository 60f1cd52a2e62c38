// Package tax computes a household's yearly tax position from declared income.
package tax

import (
	"github.com/finsim/household-projector/internal/attribution"
	"github.com/finsim/household-projector/pkg/decimal"
	shop "github.com/shopspring/decimal"
)

// Person is the tax-relevant view of a household member.
type Person struct {
	Index int
	Age   int
}

// Engine is the yearly tax calculator the simulation declares flows to.
// Every declared amount must carry the residence currency and country set by
// Reset; mixing tags panics like any other Money arithmetic.
type Engine interface {
	Reset(persons []Person, attr *attribution.Manager, country string, year int) error
	Country() string
	Currency() string

	DeclareSalaryIncome(amount, contribution decimal.Money, person int, source string)
	DeclareOtherIncome(amount decimal.Money, source string)
	DeclareNonEUSharesIncome(amount decimal.Money, source string)
	DeclarePrivatePensionIncome(amount decimal.Money, person int, source string)
	DeclareStatePensionIncome(amount decimal.Money, source string)
	DeclareInvestmentGains(gain decimal.Money, source string)

	// NetIncome is declared gross income less pension contributions and all taxes.
	NetIncome() shop.Decimal
	TotalTax() shop.Decimal
	// RecordAttributions writes the tax breakdown of the year to the attribution manager.
	RecordAttributions()
	Clone() Engine
}
