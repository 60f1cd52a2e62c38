package asset

import (
	"math/rand"
	"testing"

	"github.com/finsim/household-projector/internal/domain"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func eur(v float64) money.Money { return money.NewMoney(v, "EUR", "ie") }

func TestEquityBuyRejectsForeignTag(t *testing.T) {
	e := NewEquity("Index funds", "EUR", "ie", d(0.07), d(0.15))
	err := e.Buy(money.NewMoney(100, "USD", "us"), nil)
	assert.ErrorIs(t, err, money.ErrTagMismatch)
	assert.True(t, e.Capital().IsZero())
}

func TestEquitySellConservesValue(t *testing.T) {
	e := NewEquity("Index funds", "EUR", "ie", d(0.10), decimal.Zero)
	require.NoError(t, e.Buy(eur(1000), nil))
	e.AddYear(NewDeterministicMarket())
	require.NoError(t, e.Buy(eur(500), nil))

	amounts := []float64{0.01, 250, 1000.5, 349.49}
	for _, a := range amounts {
		before := e.Capital()
		sale, err := e.Sell(d(a))
		require.NoError(t, err)
		after := e.Capital()
		assert.True(t, before.Amount().Equal(after.Amount().Add(sale.Proceeds.Amount())),
			"sold %v: before %s after %s proceeds %s", a, before, after, sale.Proceeds)
	}
	assert.True(t, e.Capital().IsZero())

	_, err := e.Sell(d(1))
	assert.ErrorIs(t, err, ErrInsufficientCapital)
}

func TestEquityFIFOGains(t *testing.T) {
	e := NewEquity("Index funds", "EUR", "ie", d(0.10), decimal.Zero)
	require.NoError(t, e.Buy(eur(1000), nil))
	e.AddYear(NewDeterministicMarket()) // first lot worth 1100
	require.NoError(t, e.Buy(eur(1000), nil))

	sale, err := e.Sell(d(1100))
	require.NoError(t, err)
	assert.True(t, sale.Gain.Amount().Equal(d(100)), sale.Gain.String())
	assert.Equal(t, "EUR", sale.Gain.Currency)

	sim := e.SimulateSellAll()
	assert.True(t, sim.Proceeds.Amount().Equal(d(1000)))
	assert.True(t, sim.Gain.Amount().IsZero())
	assert.True(t, e.Capital().Amount().Equal(d(1000)), "simulation does not sell")
}

func TestEquityProfiles(t *testing.T) {
	growth := domain.Profile{Growth: d(0.08), Volatility: d(0.2)}
	safe := domain.Profile{Growth: d(0.02), Volatility: d(0.01)}

	e := NewEquity("Mixed", "EUR", "ie", d(0.05), d(0.1))
	require.NoError(t, e.Buy(eur(600), &growth))
	require.NoError(t, e.Buy(eur(400), &safe))
	require.NoError(t, e.Buy(eur(50), nil))

	assert.True(t, e.ProfileValue(growth).Equal(d(600)))
	assert.True(t, e.ProfileValue(safe).Equal(d(400)))

	_, err := e.SellProfile(d(100), growth)
	require.NoError(t, err)
	assert.True(t, e.ProfileValue(growth).Equal(d(500)))
	assert.True(t, e.ProfileValue(safe).Equal(d(400)))

	_, err = e.SellProfile(d(401), safe)
	assert.ErrorIs(t, err, ErrInsufficientCapital)
}

func TestMarketReturns(t *testing.T) {
	det := NewDeterministicMarket()
	assert.True(t, det.Return(d(0.07), d(0.2)).Equal(d(0.07)))

	override := d(-0.3)
	det.SetOverride(&override)
	assert.True(t, det.Return(d(0.07), d(0.2)).Equal(override))
	det.SetOverride(nil)

	a := NewStochasticMarket(rand.New(rand.NewSource(42)))
	b := NewStochasticMarket(rand.New(rand.NewSource(42)))
	for i := 0; i < 20; i++ {
		ra := a.Return(d(0.07), d(0.5))
		assert.True(t, ra.Equal(b.Return(d(0.07), d(0.5))), "same seed, same draws")
		assert.True(t, ra.GreaterThanOrEqual(d(-1)))
	}
	assert.True(t, a.Return(d(0.07), decimal.Zero).Equal(d(0.07)))
}

func TestEquityLotsOfOneProfileShareReturn(t *testing.T) {
	e := NewEquity("Index funds", "EUR", "ie", d(0.07), d(0.3))
	require.NoError(t, e.Buy(eur(1000), nil))
	require.NoError(t, e.Buy(eur(1000), nil))
	safe := domain.Profile{Growth: d(0.02), Volatility: d(0.05)}
	require.NoError(t, e.Buy(eur(500), &safe))

	e.AddYear(NewStochasticMarket(rand.New(rand.NewSource(7))))

	lots := e.Holdings()
	require.Len(t, lots, 3)
	assert.True(t, lots[0].Value.Equal(lots[1].Value), "lot0=%s lot1=%s", lots[0].Value, lots[1].Value)
	assert.False(t, lots[0].Value.Equal(d(1000)))
	assert.True(t, lots[2].Principal.Equal(d(500)))
}

func TestPensionIsSheltered(t *testing.T) {
	p := NewPension("EUR", "ie", d(0.10), decimal.Zero)
	require.NoError(t, p.Buy(eur(1000), nil))
	p.AddYear(NewDeterministicMarket())

	assert.True(t, p.Sheltered())
	assert.True(t, p.SimulateSellAll().Gain.IsZero())

	lump, err := p.TakeLumpSum(d(0.25))
	require.NoError(t, err)
	assert.True(t, lump.Proceeds.Amount().Equal(d(275)))
	assert.True(t, lump.Gain.IsZero())

	again, err := p.TakeLumpSum(d(0.25))
	require.NoError(t, err)
	assert.True(t, again.Proceeds.IsZero())

	all, err := p.SellAll()
	require.NoError(t, err)
	assert.True(t, all.Proceeds.Amount().Equal(d(825)))
	assert.True(t, all.Gain.IsZero())

	var _ Mixable = p
	var _ Mixable = NewEquity("x", "EUR", "ie", decimal.Zero, decimal.Zero)
}

func TestPropertyMortgage(t *testing.T) {
	p := NewProperty("home", eur(50000), d(0.02))
	p.AttachMortgage(d(12000), decimal.Zero, 10)

	assert.True(t, p.Value().Amount().Equal(d(170000)))
	assert.True(t, p.Capital().Amount().Equal(d(50000)))

	paid := p.PayMortgage()
	assert.True(t, paid.Equal(d(12000)))
	assert.True(t, p.Mortgage().Balance.Equal(d(108000)))
	assert.True(t, p.Capital().Amount().Equal(d(62000)))

	p.AddYear()
	assert.True(t, p.Value().Amount().Equal(d(173400)))

	sale, err := p.Sell()
	require.NoError(t, err)
	assert.True(t, sale.Proceeds.Amount().Equal(d(65400)))
	assert.True(t, sale.Gain.Amount().Equal(d(3400)))
	assert.True(t, p.Sold())
	assert.True(t, p.PayMortgage().IsZero())

	_, err = p.Sell()
	assert.ErrorIs(t, err, ErrPropertySold)
}

func TestPropertyAnnuityPrincipal(t *testing.T) {
	p := NewProperty("flat", eur(0), decimal.Zero)
	p.AttachMortgage(d(1000), d(0.05), 2)
	// 1000/1.05 + 1000/1.05^2
	assert.True(t, p.Mortgage().Balance.Equal(d(1859.41)), p.Mortgage().Balance.String())

	p.PayMortgage()
	p.PayMortgage()
	assert.True(t, p.Mortgage().Balance.LessThanOrEqual(d(0.01)))
}
