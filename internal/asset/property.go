package asset

import (
	"errors"

	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
)

// ErrPropertySold is returned when a sold property is sold again.
var ErrPropertySold = errors.New("property already sold")

// Mortgage is an annuity loan secured on a property.
type Mortgage struct {
	Balance decimal.Decimal
	Rate    decimal.Decimal
	Payment decimal.Decimal
	Term    int
	Paid    int
}

// Property is a real-estate holding with an optional mortgage.
type Property struct {
	ID           string
	currency     string
	country      string
	price        decimal.Decimal
	value        decimal.Decimal
	appreciation decimal.Decimal
	mortgage     *Mortgage
	sold         bool
}

// NewProperty creates a property bought for the given amount.
func NewProperty(id string, price money.Money, appreciation decimal.Decimal) *Property {
	return &Property{
		ID:           id,
		currency:     price.Currency,
		country:      price.Country,
		price:        price.Amount(),
		value:        price.Amount(),
		appreciation: appreciation,
	}
}

// Currency returns the denomination of the property.
func (p *Property) Currency() string { return p.currency }

// Country returns the jurisdiction of the property.
func (p *Property) Country() string { return p.country }

// AttachMortgage finances part of the property with an annuity loan whose
// principal is implied by the annual payment, rate and term. The principal is
// added to the property's price and value.
func (p *Property) AttachMortgage(payment, rate decimal.Decimal, years int) {
	if years <= 0 || !payment.IsPositive() {
		return
	}
	principal := payment.Mul(decimal.NewFromInt(int64(years)))
	if rate.IsPositive() {
		discount := decimal.NewFromInt(1).Div(decimal.NewFromInt(1).Add(rate).Pow(decimal.NewFromInt(int64(years))))
		principal = payment.Mul(decimal.NewFromInt(1).Sub(discount)).Div(rate)
	}
	principal = principal.Round(2)
	p.mortgage = &Mortgage{Balance: principal, Rate: rate, Payment: payment, Term: years}
	p.price = p.price.Add(principal)
	p.value = p.value.Add(principal)
}

// Mortgage returns the attached loan, if any.
func (p *Property) Mortgage() *Mortgage { return p.mortgage }

// PayMortgage applies one annual payment and returns the amount paid.
func (p *Property) PayMortgage() decimal.Decimal {
	m := p.mortgage
	if m == nil || p.sold || m.Paid >= m.Term || !m.Balance.IsPositive() {
		return decimal.Zero
	}
	interest := m.Balance.Mul(m.Rate)
	paid := decimal.Min(m.Payment, m.Balance.Add(interest))
	m.Balance = decimal.Max(m.Balance.Add(interest).Sub(paid), decimal.Zero).Round(2)
	m.Paid++
	return paid
}

// Value returns the market value of the property.
func (p *Property) Value() money.Money {
	return money.NewMoneyFromDecimal(p.value, p.currency, p.country)
}

// Capital returns the owner's equity: value less outstanding mortgage.
func (p *Property) Capital() money.Money {
	equity := p.value
	if p.mortgage != nil {
		equity = equity.Sub(p.mortgage.Balance)
	}
	return money.NewMoneyFromDecimal(equity, p.currency, p.country)
}

// AddYear appreciates the property.
func (p *Property) AddYear() {
	if p.sold {
		return
	}
	p.value = p.value.Mul(decimal.NewFromInt(1).Add(p.appreciation)).Round(2)
}

// Sell disposes of the property and repays the mortgage. Proceeds are the
// owner's equity; the gain is measured against the purchase price.
func (p *Property) Sell() (Sale, error) {
	if p.sold {
		return Sale{}, ErrPropertySold
	}
	sale := Sale{
		Proceeds: p.Capital(),
		Gain:     p.Value().WithAmount(p.value.Sub(p.price)),
	}
	p.sold = true
	p.value = decimal.Zero
	if p.mortgage != nil {
		p.mortgage.Balance = decimal.Zero
	}
	return sale, nil
}

// Sold reports whether the property has been sold.
func (p *Property) Sold() bool { return p.sold }
