// Package currency maps currencies to jurisdictions and converts amounts
// between them.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/finsim/household-projector/internal/economic"
	"github.com/finsim/household-projector/internal/logging"
	"github.com/finsim/household-projector/internal/taxrules"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCode is returned when a country or currency code is blank.
	ErrEmptyCode = errors.New("empty jurisdiction code")
	// ErrProviderNotReady means the economic data provider was never loaded.
	ErrProviderNotReady = errors.New("economic data provider not ready")
	// ErrRateUnavailable means no exchange rate exists for a country pair and year.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	// ErrUnmappedCurrency means a currency could not be tied to a country with confidence.
	ErrUnmappedCurrency = errors.New("currency not mapped to a country")
)

// RateProvider is the slice of the economic data provider the resolver needs.
type RateProvider interface {
	Ready() bool
	Rate(from, to string, year int, opts economic.ConvertOptions) (decimal.Decimal, bool)
}

// NormalizeCountry trims and lower-cases a country code.
func NormalizeCountry(code string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "" {
		return "", fmt.Errorf("%w: country", ErrEmptyCode)
	}
	return c, nil
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", fmt.Errorf("%w: currency", ErrEmptyCode)
	}
	return c, nil
}

// Resolver answers currency/country questions from the loaded rule sets and
// converts amounts through the economic data provider.
type Resolver struct {
	rules     *taxrules.Registry
	econ      RateProvider
	cache     *FXCache
	countries map[string]string
	logger    logging.Logger
}

// NewResolver creates a resolver. The FX cache is injected so its owner
// controls when it is reset.
func NewResolver(rules *taxrules.Registry, econ RateProvider, cache *FXCache) *Resolver {
	if cache == nil {
		cache = NewFXCache()
	}
	return &Resolver{
		rules:     rules,
		econ:      econ,
		cache:     cache,
		countries: make(map[string]string),
		logger:    logging.NopLogger{},
	}
}

// SetLogger sets the logger used for non-strict fallbacks.
func (r *Resolver) SetLogger(l logging.Logger) { r.logger = logging.OrNop(l) }

// Cache returns the FX cache backing the resolver.
func (r *Resolver) Cache() *FXCache { return r.cache }

// Reset clears the FX cache and the currency-to-country memo.
func (r *Resolver) Reset() {
	r.cache.Reset()
	r.countries = make(map[string]string)
}

// CurrencyForCountry returns the currency of a country's rule set. The second
// result is false when the rule set is not loaded or defines no currency.
func (r *Resolver) CurrencyForCountry(country string) (string, bool) {
	set, ok := r.rules.Get(country)
	if !ok || set.CurrencyCode() == "" {
		return "", false
	}
	return set.CurrencyCode(), true
}

// FindCountryForCurrency returns the country a currency belongs to. The
// preferred country wins when its own currency matches. Otherwise loaded rule
// sets are scanned and a hit is memoised; misses are not, so a later load can
// still succeed. When nothing matches, preferred is returned with confident=false.
func (r *Resolver) FindCountryForCurrency(currency, preferred string) (country string, confident bool) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	pref := strings.ToLower(strings.TrimSpace(preferred))
	if cur == "" {
		return pref, false
	}
	if pref != "" {
		if c, ok := r.CurrencyForCountry(pref); ok && c == cur {
			return pref, true
		}
	}
	if c, ok := r.countries[cur]; ok {
		return c, true
	}
	for _, c := range r.rules.Countries() {
		if set, _ := r.rules.Get(c); set.CurrencyCode() == cur {
			r.countries[cur] = c
			return c, true
		}
	}
	return pref, false
}

// ConvertNominal converts value from one country's currency to another's for
// year using inflation-driven exchange rates. Rates and failures are cached.
func (r *Resolver) ConvertNominal(value decimal.Decimal, from, to string, year int) (decimal.Decimal, error) {
	src, err := NormalizeCountry(from)
	if err != nil {
		return decimal.Zero, err
	}
	dst, err := NormalizeCountry(to)
	if err != nil {
		return decimal.Zero, err
	}
	if src == dst {
		return value, nil
	}
	if r.econ == nil || !r.econ.Ready() {
		return decimal.Zero, ErrProviderNotReady
	}

	entry, ok := r.cache.get(src, dst, year)
	if !ok {
		rate, found := r.econ.Rate(src, dst, year, economic.ConvertOptions{Mode: economic.ModeEvolution})
		entry = fxEntry{rate: rate, failed: !found}
		r.cache.put(src, dst, year, entry)
	}
	if entry.failed {
		return decimal.Zero, fmt.Errorf("%w: %s->%s in %d", ErrRateUnavailable, src, dst, year)
	}
	return value.Mul(entry.rate), nil
}

// ConvertCurrencyAmount converts between two (currency, country) tags. In strict
// mode any unconfident currency mapping or conversion failure is an error; in
// lenient mode the original value is returned and a warning logged. A provider
// that is not ready is always an error.
func (r *Resolver) ConvertCurrencyAmount(value decimal.Decimal, fromCurrency, fromCountry, toCurrency, toCountry string, year int, strict bool) (decimal.Decimal, error) {
	srcCur := strings.ToUpper(strings.TrimSpace(fromCurrency))
	dstCur := strings.ToUpper(strings.TrimSpace(toCurrency))
	if srcCur != "" && srcCur == dstCur {
		return value, nil
	}

	src, srcOK := r.FindCountryForCurrency(srcCur, fromCountry)
	dst, dstOK := r.FindCountryForCurrency(dstCur, toCountry)
	if !srcOK || !dstOK {
		if strict {
			return decimal.Zero, fmt.Errorf("%w: %s/%s -> %s/%s", ErrUnmappedCurrency, srcCur, fromCountry, dstCur, toCountry)
		}
		if src == "" || dst == "" {
			r.logger.Warnf("currency: cannot map %s -> %s in %d, keeping unconverted value", srcCur, dstCur, year)
			return value, nil
		}
	}

	converted, err := r.ConvertNominal(value, src, dst, year)
	if err == nil {
		return converted, nil
	}
	if strict || errors.Is(err, ErrProviderNotReady) {
		return decimal.Zero, err
	}
	r.logger.Warnf("currency: %v, keeping unconverted value", err)
	return value, nil
}

// ConvertMoney converts a tagged value into another currency and country.
func (r *Resolver) ConvertMoney(m money.Money, toCurrency, toCountry string, year int, strict bool) (money.Money, error) {
	if m.Currency == toCurrency && m.Country == toCountry {
		return m, nil
	}
	v, err := r.ConvertCurrencyAmount(m.Amount(), m.Currency, m.Country, toCurrency, toCountry, year, strict)
	if err != nil {
		return money.Money{}, err
	}
	return money.NewMoneyFromDecimal(v, toCurrency, toCountry), nil
}

// Rate returns the multiplicative factor converting one unit between two tags.
func (r *Resolver) Rate(fromCurrency, fromCountry, toCurrency, toCountry string, year int, strict bool) (decimal.Decimal, error) {
	return r.ConvertCurrencyAmount(decimal.NewFromInt(1), fromCurrency, fromCountry, toCurrency, toCountry, year, strict)
}
