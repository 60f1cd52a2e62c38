package economic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = `country,currency,inflation,fx_per_usd,ppp_per_usd,base_year
ie,EUR,0.02,0.9,0.8,2025
ar,ARS,0.10,1000,400,2025
us,USD,0.00,1,1,2025
xx,XXX,0.05,2,,2025
`

func TestParseCSV(t *testing.T) {
	p, err := ParseCSV(strings.NewReader(table))
	require.NoError(t, err)
	assert.True(t, p.Ready())

	ie, ok := p.Country("IE")
	require.True(t, ok)
	assert.Equal(t, "EUR", ie.Currency)
	assert.Equal(t, 2025, ie.BaseYear)

	infl, ok := p.InflationRate("ar")
	require.True(t, ok)
	assert.True(t, infl.Equal(decimal.NewFromFloat(0.10)))
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"header only", "country,currency,inflation,fx_per_usd,ppp_per_usd,base_year\n"},
		{"wrong header", "country,ccy,inflation,fx_per_usd,ppp_per_usd,base_year\nie,EUR,0.02,0.9,0.8,2025\n"},
		{"bad inflation", "country,currency,inflation,fx_per_usd,ppp_per_usd,base_year\nie,EUR,abc,0.9,0.8,2025\n"},
		{"bad year", "country,currency,inflation,fx_per_usd,ppp_per_usd,base_year\nie,EUR,0.02,0.9,0.8,soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestRateConstantAndEvolution(t *testing.T) {
	p, err := ParseCSV(strings.NewReader(table))
	require.NoError(t, err)

	rate, ok := p.Rate("us", "ar", 2030, ConvertOptions{Mode: ModeConstant})
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1000)))

	// One year of 10% inflation against a zero-inflation dollar.
	rate, ok = p.Rate("us", "ar", 2026, ConvertOptions{Mode: ModeEvolution})
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1100)), rate.String())

	// Base year: evolution equals constant.
	evo, ok := p.Rate("ie", "ar", 2025, ConvertOptions{Mode: ModeEvolution})
	require.True(t, ok)
	cst, _ := p.Rate("ie", "ar", 2025, ConvertOptions{})
	assert.True(t, evo.Equal(cst))

	// Years before the base year deflate.
	back, ok := p.Rate("us", "ar", 2024, ConvertOptions{Mode: ModeEvolution})
	require.True(t, ok)
	assert.True(t, back.LessThan(decimal.NewFromInt(1000)))

	_, ok = p.Rate("ie", "zz", 2025, ConvertOptions{})
	assert.False(t, ok)
}

func TestConvertRoundTrip(t *testing.T) {
	p, err := ParseCSV(strings.NewReader(table))
	require.NoError(t, err)

	amount := decimal.NewFromInt(1000)
	ars, ok := p.Convert(amount, "ie", "ar", 2030, ConvertOptions{Mode: ModeEvolution})
	require.True(t, ok)
	eur, ok := p.Convert(ars, "ar", "ie", 2030, ConvertOptions{Mode: ModeEvolution})
	require.True(t, ok)
	assert.True(t, eur.Sub(amount).Abs().LessThan(decimal.NewFromFloat(0.0001)), eur.String())
}

func TestPPP(t *testing.T) {
	p, err := ParseCSV(strings.NewReader(table))
	require.NoError(t, err)

	ppp, ok := p.PPP("ie", "ar")
	require.True(t, ok)
	assert.True(t, ppp.Equal(decimal.NewFromInt(500)))

	_, ok = p.PPP("ie", "xx")
	assert.False(t, ok)
}

func TestLoadCSVAndReadiness(t *testing.T) {
	assert.False(t, NewProvider().Ready())
	var nilProvider *Provider
	assert.False(t, nilProvider.Ready())

	path := filepath.Join(t.TempDir(), "economic.csv")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o600))
	p, err := LoadCSV(path)
	require.NoError(t, err)
	assert.True(t, p.Ready())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
