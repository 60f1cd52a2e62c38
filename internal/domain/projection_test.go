package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimaryShare(t *testing.T) {
	glide := MixConfig{
		Type:            MixGlidePath,
		StartPrimaryPct: decimal.NewFromFloat(0.8),
		EndPrimaryPct:   decimal.NewFromFloat(0.4),
		StartAge:        40,
		EndAge:          60,
	}
	tests := []struct {
		age      int
		expected float64
	}{
		{30, 0.8},
		{40, 0.8},
		{50, 0.6},
		{60, 0.4},
		{70, 0.4},
	}
	for _, tt := range tests {
		got := glide.PrimaryShare(tt.age)
		assert.True(t, got.Equal(decimal.NewFromFloat(tt.expected)), "age %d: got %s", tt.age, got)
	}

	fixed := MixConfig{Type: MixFixed, StartPrimaryPct: decimal.NewFromFloat(1.5), EndPrimaryPct: decimal.Zero}
	assert.True(t, fixed.PrimaryShare(99).Equal(decimal.NewFromInt(1)))
	fixed.StartPrimaryPct = decimal.NewFromFloat(-0.2)
	assert.True(t, fixed.PrimaryShare(0).IsZero())
}

func TestProfileMatches(t *testing.T) {
	p := Profile{Growth: decimal.NewFromFloat(0.07), Volatility: decimal.NewFromFloat(0.15)}
	assert.True(t, p.Matches(decimal.NewFromFloat(0.0700000001), decimal.NewFromFloat(0.15)))
	assert.False(t, p.Matches(decimal.NewFromFloat(0.071), decimal.NewFromFloat(0.15)))
}

func TestDataRowAccumulateAndScale(t *testing.T) {
	row := DataRow{
		Age: 40, Year: 2030, Country: "ie", Currency: "EUR",
		Cash:        decimal.NewFromInt(100),
		Worth:       decimal.NewFromInt(300),
		Investments: map[string]decimal.Decimal{"index_ie": decimal.NewFromInt(200)},
		Attributions: map[string]map[string]decimal.Decimal{
			"expenses": {"living": decimal.NewFromInt(50)},
		},
	}

	var sum DataRow
	sum.Accumulate(&row)
	sum.Accumulate(&row)
	assert.Equal(t, 40, sum.Age)
	assert.Equal(t, "EUR", sum.Currency)
	assert.True(t, sum.Cash.Equal(decimal.NewFromInt(200)))
	assert.True(t, sum.Investments["index_ie"].Equal(decimal.NewFromInt(400)))
	assert.True(t, sum.Attributions["expenses"]["living"].Equal(decimal.NewFromInt(100)))

	avg := sum.Scaled(2)
	assert.True(t, avg.Worth.Equal(row.Worth))
	assert.True(t, avg.Attributions["expenses"]["living"].Equal(decimal.NewFromInt(50)))
	// Scaling must not alias the source maps.
	avg.Investments["index_ie"] = decimal.Zero
	assert.True(t, sum.Investments["index_ie"].Equal(decimal.NewFromInt(400)))

	empty := sum.Scaled(0)
	assert.True(t, empty.Cash.IsZero())
	assert.Equal(t, 40, empty.Age)
}

func TestDataRowFields(t *testing.T) {
	row := DataRow{Investments: map[string]decimal.Decimal{
		"b_ie": decimal.NewFromInt(2),
		"a_ie": decimal.NewFromInt(1),
	}}
	fields := row.Fields()
	require.True(t, len(fields) > 2)
	assert.Equal(t, "IncomeSalaries", fields[0].Name)
	assert.Equal(t, "Investment:a_ie", fields[len(fields)-2].Name)
	assert.Equal(t, "Investment:b_ie", fields[len(fields)-1].Name)
}
