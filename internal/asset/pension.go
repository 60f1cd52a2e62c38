package asset

import (
	"github.com/finsim/household-projector/internal/domain"
	"github.com/shopspring/decimal"
)

// Pension is a tax-sheltered pot owned by one person in one country. Sales
// inside the pot never produce taxable gains; withdrawals are taxed as pension
// income by the caller.
type Pension struct {
	*Equity
	LumpSumTaken bool
}

// NewPension creates an empty pot for country.
func NewPension(currency, country string, growth, volatility decimal.Decimal) *Pension {
	return &Pension{Equity: NewEquity("Pension ("+country+")", currency, country, growth, volatility)}
}

// Sheltered is always true for pensions.
func (p *Pension) Sheltered() bool { return true }

// Sell withdraws amount from the pot, oldest lots first.
func (p *Pension) Sell(amount decimal.Decimal) (Sale, error) {
	sale, err := p.Equity.Sell(amount)
	return shelter(sale), err
}

// SellProfile withdraws amount from lots matching the profile.
func (p *Pension) SellProfile(amount decimal.Decimal, prof domain.Profile) (Sale, error) {
	sale, err := p.Equity.SellProfile(amount, prof)
	return shelter(sale), err
}

// SellAll empties the pot.
func (p *Pension) SellAll() (Sale, error) {
	return p.Sell(p.Capital().Amount())
}

// SimulateSellAll reports full withdrawal proceeds; no gain is ever taxable.
func (p *Pension) SimulateSellAll() Sale {
	return shelter(p.Equity.SimulateSellAll())
}

// TakeLumpSum withdraws rate of the pot once; later calls return a zero sale.
func (p *Pension) TakeLumpSum(rate decimal.Decimal) (Sale, error) {
	if p.LumpSumTaken {
		return shelter(Sale{Proceeds: p.Capital().WithAmount(decimal.Zero)}), nil
	}
	p.LumpSumTaken = true
	return p.Sell(p.Capital().Amount().Mul(rate))
}

// Clone returns an independent copy.
func (p *Pension) Clone() *Pension {
	return &Pension{Equity: p.Equity.Clone(), LumpSumTaken: p.LumpSumTaken}
}

func shelter(s Sale) Sale {
	s.Gain = s.Proceeds.WithAmount(decimal.Zero)
	return s
}
