package tax

import (
	"fmt"

	"github.com/finsim/household-projector/internal/attribution"
	"github.com/finsim/household-projector/internal/taxrules"
	"github.com/finsim/household-projector/pkg/decimal"
	shop "github.com/shopspring/decimal"
)

// Taxman is the progressive-bracket Engine driven by per-country rule sets.
type Taxman struct {
	rules   *taxrules.Registry
	current *taxrules.RuleSet
	attr    *attribution.Manager
	persons []Person
	year    int

	salaries      decimal.Money
	contributions decimal.Money
	other         decimal.Money
	nonEUShares   decimal.Money
	privatePens   decimal.Money
	statePens     decimal.Money
	gains         decimal.Money

	computed bool
	breakdown
}

type breakdown struct {
	incomeTax    shop.Decimal
	social       shop.Decimal
	capitalGains shop.Decimal
	nonEU        shop.Decimal
}

// NewTaxman creates a tax engine over the given rule sets.
func NewTaxman(rules *taxrules.Registry) *Taxman {
	return &Taxman{rules: rules}
}

// Reset starts a new tax year in country.
func (t *Taxman) Reset(persons []Person, attr *attribution.Manager, country string, year int) error {
	set, err := t.rules.MustGet(country)
	if err != nil {
		return fmt.Errorf("tax reset: %w", err)
	}
	t.current = set
	t.attr = attr
	t.persons = append(t.persons[:0], persons...)
	t.year = year

	cur, cty := set.CurrencyCode(), set.CountryCode()
	t.salaries = decimal.Zero(cur, cty)
	t.contributions = decimal.Zero(cur, cty)
	t.other = decimal.Zero(cur, cty)
	t.nonEUShares = decimal.Zero(cur, cty)
	t.privatePens = decimal.Zero(cur, cty)
	t.statePens = decimal.Zero(cur, cty)
	t.gains = decimal.Zero(cur, cty)
	t.computed = false
	return nil
}

// Country returns the residence country of the current tax year.
func (t *Taxman) Country() string { return t.current.CountryCode() }

// Currency returns the residence currency of the current tax year.
func (t *Taxman) Currency() string { return t.current.CurrencyCode() }

func (t *Taxman) DeclareSalaryIncome(amount, contribution decimal.Money, person int, source string) {
	t.salaries = t.salaries.Add(amount)
	t.contributions = t.contributions.Add(contribution)
	t.computed = false
}

func (t *Taxman) DeclareOtherIncome(amount decimal.Money, source string) {
	t.other = t.other.Add(amount)
	t.computed = false
}

func (t *Taxman) DeclareNonEUSharesIncome(amount decimal.Money, source string) {
	t.nonEUShares = t.nonEUShares.Add(amount)
	t.computed = false
}

func (t *Taxman) DeclarePrivatePensionIncome(amount decimal.Money, person int, source string) {
	t.privatePens = t.privatePens.Add(amount)
	t.computed = false
}

func (t *Taxman) DeclareStatePensionIncome(amount decimal.Money, source string) {
	t.statePens = t.statePens.Add(amount)
	t.computed = false
}

// DeclareInvestmentGains adds a realised gain (or loss, when negative).
func (t *Taxman) DeclareInvestmentGains(gain decimal.Money, source string) {
	t.gains = t.gains.Add(gain)
	t.computed = false
}

func (t *Taxman) gross() shop.Decimal {
	return t.salaries.Add(t.other).Add(t.nonEUShares).Add(t.privatePens).Add(t.statePens).Amount()
}

// NetIncome returns gross declared income less contributions and tax.
func (t *Taxman) NetIncome() shop.Decimal {
	return t.gross().Sub(t.contributions.Amount()).Sub(t.TotalTax())
}

// TotalTax returns every tax due for the year.
func (t *Taxman) TotalTax() shop.Decimal {
	t.compute()
	return t.incomeTax.Add(t.social).Add(t.capitalGains).Add(t.nonEU)
}

func (t *Taxman) compute() {
	if t.computed {
		return
	}
	set := t.current
	t.breakdown = breakdown{}

	taxable := t.salaries.Add(t.other).Add(t.privatePens).Add(t.statePens).Sub(t.contributions).Amount()
	if set.CapitalGains.NonEUSharesRate.IsZero() {
		taxable = taxable.Add(t.nonEUShares.Amount())
	} else {
		t.nonEU = t.nonEUShares.Amount().Mul(set.CapitalGains.NonEUSharesRate)
	}

	credits := set.PersonalCredit.Mul(shop.NewFromInt(int64(max(len(t.persons), 1))))
	t.incomeTax = shop.Max(CalculateBracketTax(taxable, set.IncomeTax).Sub(credits), shop.Zero)
	t.social = t.salaries.Amount().Mul(set.SocialContribution)

	chargeable := t.gains.Amount().Sub(set.CapitalGains.AnnualExemption)
	if chargeable.IsPositive() {
		t.capitalGains = chargeable.Mul(set.CapitalGains.Rate)
	}
	t.computed = true
}

// RecordAttributions writes the tax lines of the year.
func (t *Taxman) RecordAttributions() {
	if t.attr == nil {
		return
	}
	t.compute()
	t.attr.Record("tax", "Income tax", t.incomeTax)
	t.attr.Record("tax", "Social contribution", t.social)
	t.attr.Record("tax", "Capital gains tax", t.capitalGains)
	t.attr.Record("tax", "Non-EU shares tax", t.nonEU)
}

// Clone returns a copy that can receive speculative declarations. The clone
// does not record attributions.
func (t *Taxman) Clone() Engine {
	c := *t
	c.persons = append([]Person(nil), t.persons...)
	c.attr = nil
	return &c
}

// CalculateBracketTax applies a progressive schedule to income.
func CalculateBracketTax(income shop.Decimal, brackets []taxrules.TaxBracket) shop.Decimal {
	if income.LessThanOrEqual(shop.Zero) {
		return shop.Zero
	}
	total := shop.Zero
	for _, bracket := range brackets {
		if income.LessThanOrEqual(bracket.Min) {
			break
		}
		upper := income
		if !bracket.Max.IsZero() && bracket.Max.LessThan(income) {
			upper = bracket.Max
		}
		inBracket := upper.Sub(bracket.Min)
		if inBracket.IsPositive() {
			total = total.Add(inBracket.Mul(bracket.Rate))
		}
	}
	return total
}
