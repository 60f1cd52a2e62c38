// Package asset implements the capital-bearing objects of a household:
// investment funds, pension pots and real estate.
package asset

import (
	"errors"
	"fmt"

	"github.com/finsim/household-projector/internal/domain"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
)

// ErrInsufficientCapital is returned when a sale asks for more than is held.
var ErrInsufficientCapital = errors.New("insufficient capital")

// sellTolerance absorbs rounding when a caller sells "everything" it observed.
var sellTolerance = decimal.NewFromFloat(1e-6)

// Sale is the outcome of a disposal, in the asset's own currency and country.
type Sale struct {
	Proceeds money.Money
	Gain     money.Money
}

// YearStats tracks an asset's activity in the current year.
type YearStats struct {
	Bought decimal.Decimal
	Sold   decimal.Decimal
	Gains  decimal.Decimal
}

// Holding is one purchase lot tagged with the profile it was bought under.
type Holding struct {
	Principal  decimal.Decimal
	Value      decimal.Decimal
	Growth     decimal.Decimal
	Volatility decimal.Decimal
}

// Profile returns the growth/volatility tag of the lot.
func (h Holding) Profile() domain.Profile {
	return domain.Profile{Growth: h.Growth, Volatility: h.Volatility}
}

// Asset is the capability set the simulation relies on.
type Asset interface {
	Buy(amount money.Money, profile *domain.Profile) error
	Sell(amount decimal.Decimal) (Sale, error)
	Capital() money.Money
	AddYear(m *Market)
	ResetYearlyStats()
	SimulateSellAll() Sale
}

// Mixable is an asset whose holdings can be split between two profiles.
type Mixable interface {
	Asset
	ProfileValue(p domain.Profile) decimal.Decimal
	SellProfile(amount decimal.Decimal, p domain.Profile) (Sale, error)
	// Sheltered reports whether disposals inside the asset are tax-free.
	Sheltered() bool
}

// Equity is a fund of lots sold first-in first-out.
type Equity struct {
	Name       string
	currency   string
	country    string
	growth     decimal.Decimal
	volatility decimal.Decimal
	holdings   []Holding
	stats      YearStats
}

// NewEquity creates an empty fund denominated in currency and held in country.
func NewEquity(name, currency, country string, growth, volatility decimal.Decimal) *Equity {
	return &Equity{
		Name:       name,
		currency:   currency,
		country:    country,
		growth:     growth,
		volatility: volatility,
	}
}

// Currency returns the denomination of the fund.
func (e *Equity) Currency() string { return e.currency }

// Country returns the jurisdiction of the fund.
func (e *Equity) Country() string { return e.country }

// DefaultProfile is the growth/volatility used when a buy names no profile.
func (e *Equity) DefaultProfile() domain.Profile {
	return domain.Profile{Growth: e.growth, Volatility: e.volatility}
}

// Sheltered is false for ordinary funds.
func (e *Equity) Sheltered() bool { return false }

// Buy adds a lot. The amount must carry the fund's own tag.
func (e *Equity) Buy(amount money.Money, profile *domain.Profile) error {
	if err := e.Capital().Compatible(amount); err != nil {
		return fmt.Errorf("buy %s: %w", e.Name, err)
	}
	if !amount.IsPositive() {
		return nil
	}
	p := e.DefaultProfile()
	if profile != nil {
		p = *profile
	}
	e.holdings = append(e.holdings, Holding{
		Principal:  amount.Amount(),
		Value:      amount.Amount(),
		Growth:     p.Growth,
		Volatility: p.Volatility,
	})
	e.stats.Bought = e.stats.Bought.Add(amount.Amount())
	return nil
}

// Capital returns the market value of all lots.
func (e *Equity) Capital() money.Money {
	total := decimal.Zero
	for _, h := range e.holdings {
		total = total.Add(h.Value)
	}
	return money.NewMoneyFromDecimal(total, e.currency, e.country)
}

// CostBasis returns the remaining principal of all lots.
func (e *Equity) CostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, h := range e.holdings {
		total = total.Add(h.Principal)
	}
	return total
}

// ProfileValue sums the lots whose tag matches p.
func (e *Equity) ProfileValue(p domain.Profile) decimal.Decimal {
	total := decimal.Zero
	for _, h := range e.holdings {
		if p.Matches(h.Growth, h.Volatility) {
			total = total.Add(h.Value)
		}
	}
	return total
}

// Sell disposes of amount of value, oldest lots first.
func (e *Equity) Sell(amount decimal.Decimal) (Sale, error) {
	return e.sellWhere(amount, func(Holding) bool { return true })
}

// SellProfile disposes of amount from lots matching p only.
func (e *Equity) SellProfile(amount decimal.Decimal, p domain.Profile) (Sale, error) {
	return e.sellWhere(amount, func(h Holding) bool { return p.Matches(h.Growth, h.Volatility) })
}

// SellAll liquidates the fund.
func (e *Equity) SellAll() (Sale, error) {
	return e.Sell(e.Capital().Amount())
}

func (e *Equity) sellWhere(amount decimal.Decimal, match func(Holding) bool) (Sale, error) {
	sale := Sale{Proceeds: money.Zero(e.currency, e.country), Gain: money.Zero(e.currency, e.country)}
	if !amount.IsPositive() {
		return sale, nil
	}

	available := decimal.Zero
	for _, h := range e.holdings {
		if match(h) {
			available = available.Add(h.Value)
		}
	}
	if amount.GreaterThan(available) {
		if amount.Sub(available).GreaterThan(sellTolerance) {
			return sale, fmt.Errorf("%w: %s holds %s, asked %s", ErrInsufficientCapital, e.Name, available.StringFixed(2), amount.StringFixed(2))
		}
		amount = available
	}

	remaining := amount
	gain := decimal.Zero
	kept := e.holdings[:0]
	for _, h := range e.holdings {
		if remaining.IsPositive() && match(h) && h.Value.IsPositive() {
			take := decimal.Min(remaining, h.Value)
			basis := h.Principal.Mul(take).Div(h.Value)
			gain = gain.Add(take.Sub(basis))
			h.Value = h.Value.Sub(take)
			h.Principal = h.Principal.Sub(basis)
			remaining = remaining.Sub(take)
		}
		if h.Value.IsPositive() {
			kept = append(kept, h)
		}
	}
	e.holdings = kept

	e.stats.Sold = e.stats.Sold.Add(amount)
	e.stats.Gains = e.stats.Gains.Add(gain)
	sale.Proceeds = sale.Proceeds.WithAmount(amount)
	sale.Gain = sale.Gain.WithAmount(gain)
	return sale, nil
}

// SimulateSellAll reports what a full liquidation would yield without selling.
func (e *Equity) SimulateSellAll() Sale {
	capital := e.Capital()
	return Sale{Proceeds: capital, Gain: capital.WithAmount(capital.Amount().Sub(e.CostBasis()))}
}

// AddYear applies one year of market returns to every lot. Lots sharing a
// profile share a single draw.
func (e *Equity) AddYear(m *Market) {
	one := decimal.NewFromInt(1)
	returns := make(map[string]decimal.Decimal)
	for i := range e.holdings {
		h := &e.holdings[i]
		key := h.Growth.String() + "/" + h.Volatility.String()
		r, ok := returns[key]
		if !ok {
			r = m.Return(h.Growth, h.Volatility)
			returns[key] = r
		}
		h.Value = h.Value.Mul(one.Add(r)).Round(8)
	}
}

// ResetYearlyStats clears the yearly counters.
func (e *Equity) ResetYearlyStats() { e.stats = YearStats{} }

// Stats returns the yearly counters.
func (e *Equity) Stats() YearStats { return e.stats }

// Holdings returns a copy of the lots.
func (e *Equity) Holdings() []Holding {
	return append([]Holding(nil), e.holdings...)
}

// Clone returns an independent copy.
func (e *Equity) Clone() *Equity {
	c := *e
	c.holdings = e.Holdings()
	return &c
}
