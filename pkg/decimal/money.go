package decimal

import (
	"errors"
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrTagMismatch is reported when two Money values with different currency or
// country tags are combined.
var ErrTagMismatch = errors.New("money tag mismatch")

// Money represents a monetary amount tagged with the currency it is denominated
// in and the country whose jurisdiction it belongs to.
//
// Arithmetic between two Money values is only defined when both tags match.
// Combining mismatched values is a programming error and panics; use Compatible
// to test beforehand.
type Money struct {
	decimal.Decimal
	Currency string
	Country  string
}

// NewMoney creates a new Money instance from a float64
func NewMoney(value float64, currency, country string) Money {
	return Money{Decimal: decimal.NewFromFloat(value), Currency: currency, Country: country}
}

// NewMoneyFromDecimal creates a new Money instance from a decimal.Decimal
func NewMoneyFromDecimal(d decimal.Decimal, currency, country string) Money {
	return Money{Decimal: d, Currency: currency, Country: country}
}

// NewMoneyFromString creates a new Money instance from a string
func NewMoneyFromString(value, currency, country string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d, Currency: currency, Country: country}, nil
}

// Zero returns a zero amount carrying the given tags.
func Zero(currency, country string) Money {
	return Money{Decimal: decimal.Zero, Currency: currency, Country: country}
}

// Amount returns the untagged amount.
func (m Money) Amount() decimal.Decimal { return m.Decimal }

// SameTag reports whether both values share currency and country.
func (m Money) SameTag(other Money) bool {
	return m.Currency == other.Currency && m.Country == other.Country
}

// Compatible returns an error wrapping ErrTagMismatch when the tags differ.
func (m Money) Compatible(other Money) error {
	if !m.SameTag(other) {
		return fmt.Errorf("%w: %s/%s vs %s/%s", ErrTagMismatch, m.Currency, m.Country, other.Currency, other.Country)
	}
	return nil
}

func (m Money) mustMatch(other Money) {
	if err := m.Compatible(other); err != nil {
		panic(err)
	}
}

// WithAmount returns a value with the same tags and a new amount.
func (m Money) WithAmount(d decimal.Decimal) Money {
	return Money{Decimal: d, Currency: m.Currency, Country: m.Country}
}

// Retag converts the amount with a multiplicative rate into another currency and country.
func (m Money) Retag(rate decimal.Decimal, currency, country string) Money {
	return Money{Decimal: m.Decimal.Mul(rate), Currency: currency, Country: country}
}

// Round rounds the money amount to cents using banker's rounding
func (m Money) Round() Money {
	return m.WithAmount(m.Decimal.Round(2))
}

// Add adds another Money amount
func (m Money) Add(other Money) Money {
	m.mustMatch(other)
	return m.WithAmount(m.Decimal.Add(other.Decimal))
}

// Sub subtracts another Money amount
func (m Money) Sub(other Money) Money {
	m.mustMatch(other)
	return m.WithAmount(m.Decimal.Sub(other.Decimal))
}

// Mul multiplies by a decimal factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return m.WithAmount(m.Decimal.Mul(factor))
}

// Div divides by a decimal factor
func (m Money) Div(factor decimal.Decimal) Money {
	return m.WithAmount(m.Decimal.Div(factor))
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return m.WithAmount(m.Decimal.Neg())
}

// Cmp compares two amounts of the same tag and returns -1, 0 or +1.
// It shadows the embedded decimal comparison so the tag is always checked.
func (m Money) Cmp(other Money) int {
	m.mustMatch(other)
	return m.Decimal.Cmp(other.Decimal)
}

// GreaterThan checks if this amount is greater than another
func (m Money) GreaterThan(other Money) bool {
	m.mustMatch(other)
	return m.Decimal.GreaterThan(other.Decimal)
}

// GreaterThanOrEqual checks if this amount is greater than or equal to another
func (m Money) GreaterThanOrEqual(other Money) bool {
	m.mustMatch(other)
	return m.Decimal.GreaterThanOrEqual(other.Decimal)
}

// LessThan checks if this amount is less than another
func (m Money) LessThan(other Money) bool {
	m.mustMatch(other)
	return m.Decimal.LessThan(other.Decimal)
}

// LessThanOrEqual checks if this amount is less than or equal to another
func (m Money) LessThanOrEqual(other Money) bool {
	m.mustMatch(other)
	return m.Decimal.LessThanOrEqual(other.Decimal)
}

// Equal checks if this amount equals another
func (m Money) Equal(other Money) bool {
	return m.SameTag(other) && m.Decimal.Equal(other.Decimal)
}

// Min returns the minimum of two Money amounts
func Min(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the maximum of two Money amounts
func Max(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// String returns the amount with two decimals followed by the currency code.
func (m Money) String() string {
	if m.Currency == "" {
		return m.Decimal.StringFixed(2)
	}
	return m.Decimal.StringFixed(2) + " " + m.Currency
}

// Format renders the amount with the currency's own symbol and fraction digits.
// Unknown currency codes fall back to String.
func (m Money) Format() string {
	return FormatAmount(m.Decimal, m.Currency)
}

// FormatAmount formats a bare amount in the given ISO currency.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// KnownCurrency reports whether code is an ISO 4217 currency.
func KnownCurrency(code string) bool {
	return gomoney.GetCurrency(code) != nil
}
