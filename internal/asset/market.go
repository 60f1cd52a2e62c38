package asset

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
)

// Market produces the yearly return applied to holdings. Deterministic markets
// return the expected growth; stochastic markets draw from a normal distribution
// with the holding's volatility.
type Market struct {
	rng        *rand.Rand
	stochastic bool
	override   *decimal.Decimal
}

// NewDeterministicMarket returns a market that always yields expected growth.
func NewDeterministicMarket() *Market {
	return &Market{}
}

// NewStochasticMarket returns a market drawing returns from rng.
func NewStochasticMarket(rng *rand.Rand) *Market {
	return &Market{rng: rng, stochastic: true}
}

// SetOverride forces every return to rate until cleared with nil.
func (m *Market) SetOverride(rate *decimal.Decimal) {
	m.override = rate
}

// Stochastic reports whether returns are random.
func (m *Market) Stochastic() bool { return m.stochastic }

// Return gives the yearly return for a holding with the given growth and volatility.
func (m *Market) Return(growth, volatility decimal.Decimal) decimal.Decimal {
	if m == nil {
		return growth
	}
	if m.override != nil {
		return *m.override
	}
	if !m.stochastic || m.rng == nil || volatility.IsZero() {
		return growth
	}
	z := boxMullerTransform(m.uniform(), m.rng.Float64())
	r := growth.Add(decimal.NewFromFloat(z).Mul(volatility))
	// A holding cannot lose more than its full value in a year.
	if r.LessThan(decimal.NewFromInt(-1)) {
		return decimal.NewFromInt(-1)
	}
	return r
}

// uniform returns a draw in (0,1]; log(0) would be infinite.
func (m *Market) uniform() float64 {
	return 1 - m.rng.Float64()
}

// boxMullerTransform converts two uniform draws to a standard normal draw.
func boxMullerTransform(u1, u2 float64) float64 {
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
