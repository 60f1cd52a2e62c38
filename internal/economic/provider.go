package economic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ConvertMode selects how exchange rates move over time.
type ConvertMode int

const (
	// ModeConstant uses the base-year exchange rate for every year.
	ModeConstant ConvertMode = iota
	// ModeEvolution drifts each currency against the dollar by its own inflation.
	ModeEvolution
)

// ConvertOptions tunes a conversion request.
type ConvertOptions struct {
	Mode ConvertMode
}

// CountryData is one row of the economic table.
type CountryData struct {
	Country   string
	Currency  string
	Inflation decimal.Decimal
	FXPerUSD  decimal.Decimal
	PPPPerUSD decimal.Decimal
	BaseYear  int
}

// Provider serves inflation, exchange rates and purchasing-power parities per country.
type Provider struct {
	countries map[string]*CountryData
	ready     bool
}

// NewProvider creates an empty provider; it becomes ready once data is added.
func NewProvider(rows ...CountryData) *Provider {
	p := &Provider{countries: make(map[string]*CountryData)}
	for _, r := range rows {
		p.Add(r)
	}
	return p
}

// Add registers a country's economic data.
func (p *Provider) Add(row CountryData) {
	row.Country = strings.ToLower(strings.TrimSpace(row.Country))
	row.Currency = strings.ToUpper(strings.TrimSpace(row.Currency))
	p.countries[row.Country] = &row
	p.ready = true
}

// Ready reports whether the provider holds any data.
func (p *Provider) Ready() bool {
	return p != nil && p.ready
}

// Country returns the data row for a country.
func (p *Provider) Country(country string) (*CountryData, bool) {
	d, ok := p.countries[strings.ToLower(country)]
	return d, ok
}

// InflationRate returns the annual inflation of a country.
func (p *Provider) InflationRate(country string) (decimal.Decimal, bool) {
	d, ok := p.Country(country)
	if !ok {
		return decimal.Zero, false
	}
	return d.Inflation, true
}

// Rate returns the number of units of the destination country's currency bought
// by one unit of the origin country's currency in year.
func (p *Provider) Rate(from, to string, year int, opts ConvertOptions) (decimal.Decimal, bool) {
	src, ok := p.Country(from)
	if !ok {
		return decimal.Zero, false
	}
	dst, ok := p.Country(to)
	if !ok {
		return decimal.Zero, false
	}
	fromFX := src.FXPerUSD
	toFX := dst.FXPerUSD
	if opts.Mode == ModeEvolution {
		fromFX = fromFX.Mul(compound(src.Inflation, year-src.BaseYear))
		toFX = toFX.Mul(compound(dst.Inflation, year-dst.BaseYear))
	}
	if !fromFX.IsPositive() || !toFX.IsPositive() {
		return decimal.Zero, false
	}
	return toFX.Div(fromFX), true
}

// Convert converts amount between the currencies of two countries.
func (p *Provider) Convert(amount decimal.Decimal, from, to string, year int, opts ConvertOptions) (decimal.Decimal, bool) {
	rate, ok := p.Rate(from, to, year, opts)
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(rate), true
}

// PPP returns the purchasing-power-parity factor from one country to another.
func (p *Provider) PPP(from, to string) (decimal.Decimal, bool) {
	src, ok := p.Country(from)
	if !ok || !src.PPPPerUSD.IsPositive() {
		return decimal.Zero, false
	}
	dst, ok := p.Country(to)
	if !ok || !dst.PPPPerUSD.IsPositive() {
		return decimal.Zero, false
	}
	return dst.PPPPerUSD.Div(src.PPPPerUSD), true
}

// compound returns (1+rate)^years, inverting for negative year offsets.
func compound(rate decimal.Decimal, years int) decimal.Decimal {
	base := decimal.NewFromInt(1).Add(rate)
	n := years
	if n < 0 {
		n = -n
	}
	factor := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		factor = factor.Mul(base)
	}
	if years < 0 {
		if factor.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(1).Div(factor)
	}
	return factor
}

var csvHeader = []string{"country", "currency", "inflation", "fx_per_usd", "ppp_per_usd", "base_year"}

// LoadCSV reads an economic table from disk.
func LoadCSV(path string) (*Provider, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open economic data %s: %w", path, err)
	}
	defer file.Close()

	p, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return p, nil
}

// ParseCSV reads the economic table with header
// country,currency,inflation,fx_per_usd,ppp_per_usd,base_year.
// Empty ppp_per_usd cells mean no parity is known.
func ParseCSV(r io.Reader) (*Provider, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("insufficient data: %d rows", len(records))
	}

	header := records[0]
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(header))
	}
	for i, col := range header {
		if strings.ToLower(strings.Trim(col, `" `)) != csvHeader[i] {
			return nil, fmt.Errorf("unexpected column %q at position %d", col, i)
		}
	}

	p := NewProvider()
	for i, record := range records[1:] {
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		p.Add(row)
	}
	return p, nil
}

func parseRecord(record []string) (CountryData, error) {
	var row CountryData
	if len(record) != len(csvHeader) {
		return row, fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(record))
	}
	row.Country = record[0]
	row.Currency = record[1]
	if row.Country == "" {
		return row, fmt.Errorf("missing country")
	}

	var err error
	if row.Inflation, err = decimal.NewFromString(strings.TrimSpace(record[2])); err != nil {
		return row, fmt.Errorf("invalid inflation %q: %w", record[2], err)
	}
	if row.FXPerUSD, err = decimal.NewFromString(strings.TrimSpace(record[3])); err != nil {
		return row, fmt.Errorf("invalid fx_per_usd %q: %w", record[3], err)
	}
	if ppp := strings.TrimSpace(record[4]); ppp != "" {
		if row.PPPPerUSD, err = decimal.NewFromString(ppp); err != nil {
			return row, fmt.Errorf("invalid ppp_per_usd %q: %w", record[4], err)
		}
	}
	if row.BaseYear, err = strconv.Atoi(strings.TrimSpace(record[5])); err != nil {
		return row, fmt.Errorf("invalid base_year %q: %w", record[5], err)
	}
	return row, nil
}
