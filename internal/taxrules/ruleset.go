package taxrules

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PensionSystemType describes how a country's retirement provision is organised.
type PensionSystemType string

const (
	PensionStateOnly PensionSystemType = "state_only"
	PensionMixed     PensionSystemType = "mixed"
	PensionPrivate   PensionSystemType = "private"
)

// GainsTreatment selects how investment disposals are declared to the tax engine.
type GainsTreatment string

const (
	TreatmentCapitalGains GainsTreatment = "capital_gains"
	TreatmentNonEUShares  GainsTreatment = "non_eu_shares"
	TreatmentExempt       GainsTreatment = "exempt"
)

// TaxBracket is one band of a progressive schedule. A zero Max means unbounded.
type TaxBracket struct {
	Min  decimal.Decimal `yaml:"min"`
	Max  decimal.Decimal `yaml:"max"`
	Rate decimal.Decimal `yaml:"rate"`
}

// AgeBand maps a minimum age to a rate; the band with the highest MinAge not above
// the queried age applies.
type AgeBand struct {
	MinAge int             `yaml:"min_age"`
	Rate   decimal.Decimal `yaml:"rate"`
}

// InvestmentType is an investment product offered by a country's rule set.
type InvestmentType struct {
	Key          string          `yaml:"key"`
	Label        string          `yaml:"label"`
	BaseCurrency string          `yaml:"base_currency"`
	AssetCountry string          `yaml:"asset_country"`
	Growth       decimal.Decimal `yaml:"growth"`
	Volatility   decimal.Decimal `yaml:"volatility"`
	Treatment    GainsTreatment  `yaml:"treatment"`
}

// DefinedBenefitSpec controls how defined-benefit income is taxed.
type DefinedBenefitSpec struct {
	// TaxedAsSalary declares DB income as salary instead of private pension income.
	TaxedAsSalary bool `yaml:"taxed_as_salary"`
}

// CapitalGainsRules holds the disposal tax parameters.
type CapitalGainsRules struct {
	Rate            decimal.Decimal `yaml:"rate"`
	AnnualExemption decimal.Decimal `yaml:"annual_exemption"`
	NonEUSharesRate decimal.Decimal `yaml:"non_eu_shares_rate"`
}

// PensionRules holds contribution and drawdown parameters of the private pension system.
type PensionRules struct {
	ContributionAgeBands []AgeBand          `yaml:"contribution_age_bands"`
	AnnualCap            decimal.Decimal    `yaml:"annual_cap"`
	LumpSumRate          decimal.Decimal    `yaml:"lump_sum_rate"`
	MinDrawdownAge       int                `yaml:"min_drawdown_age"`
	DrawdownAgeBands     []AgeBand          `yaml:"drawdown_age_bands"`
	StatePensionAge      int                `yaml:"state_pension_age"`
	DefinedBenefit       DefinedBenefitSpec `yaml:"defined_benefit"`
}

// RuleSet is the tax and economic rule book of one country.
type RuleSet struct {
	Country       string            `yaml:"country"`
	Currency      string            `yaml:"currency"`
	Inflation     decimal.Decimal   `yaml:"inflation"`
	PensionSystem PensionSystemType `yaml:"pension_system"`

	IncomeTax          []TaxBracket      `yaml:"income_tax"`
	PersonalCredit     decimal.Decimal   `yaml:"personal_credit"`
	SocialContribution decimal.Decimal   `yaml:"social_contribution_rate"`
	CapitalGains       CapitalGainsRules `yaml:"capital_gains"`
	Pension            PensionRules      `yaml:"pension"`
	InvestmentTypes    []InvestmentType  `yaml:"investment_types"`
}

// CountryCode returns the lower-case ISO country code of the rule set.
func (r *RuleSet) CountryCode() string { return strings.ToLower(strings.TrimSpace(r.Country)) }

// CurrencyCode returns the upper-case ISO currency code, or "" when none is defined.
func (r *RuleSet) CurrencyCode() string { return strings.ToUpper(strings.TrimSpace(r.Currency)) }

// InflationRate returns the country's default annual inflation rate.
func (r *RuleSet) InflationRate() decimal.Decimal { return r.Inflation }

// PensionSystemType returns the configured pension system, defaulting to mixed.
func (r *RuleSet) PensionSystemType() PensionSystemType {
	if r.PensionSystem == "" {
		return PensionMixed
	}
	return r.PensionSystem
}

// PensionContributionAgeBands returns the contribution bands sorted by age.
func (r *RuleSet) PensionContributionAgeBands() []AgeBand {
	return sortedBands(r.Pension.ContributionAgeBands)
}

// PensionContributionRate returns the maximum contribution rate at age.
func (r *RuleSet) PensionContributionRate(age int) decimal.Decimal {
	return bandRate(r.PensionContributionAgeBands(), age)
}

// PensionContributionAnnualCap returns the cap on pensionable salary; zero means uncapped.
func (r *RuleSet) PensionContributionAnnualCap() decimal.Decimal { return r.Pension.AnnualCap }

// DefinedBenefitSpec returns the defined-benefit tax treatment.
func (r *RuleSet) DefinedBenefitSpec() DefinedBenefitSpec { return r.Pension.DefinedBenefit }

// PensionLumpSumRate returns the tax-free lump sum share taken at retirement.
func (r *RuleSet) PensionLumpSumRate() decimal.Decimal { return r.Pension.LumpSumRate }

// PensionDrawdownRate returns the minimum annual drawdown share of the pot at age.
func (r *RuleSet) PensionDrawdownRate(age int) decimal.Decimal {
	return bandRate(sortedBands(r.Pension.DrawdownAgeBands), age)
}

// MinDrawdownAge is the first age at which the pot may be drawn.
func (r *RuleSet) MinDrawdownAge() int { return r.Pension.MinDrawdownAge }

// StatePensionAge returns the age the state pension starts paying.
func (r *RuleSet) StatePensionAge() int { return r.Pension.StatePensionAge }

// ResolvedInvestmentTypes returns the investment types with keys suffixed by
// country ("indexFunds_ie") and base currency/country defaulted to the rule set's own.
func (r *RuleSet) ResolvedInvestmentTypes() []InvestmentType {
	out := make([]InvestmentType, 0, len(r.InvestmentTypes))
	for _, it := range r.InvestmentTypes {
		resolved := it
		resolved.Key = ResolveInvestmentKey(it.Key, r.CountryCode())
		if resolved.BaseCurrency == "" {
			resolved.BaseCurrency = r.CurrencyCode()
		}
		resolved.BaseCurrency = strings.ToUpper(resolved.BaseCurrency)
		if resolved.AssetCountry == "" {
			resolved.AssetCountry = r.CountryCode()
		}
		resolved.AssetCountry = strings.ToLower(resolved.AssetCountry)
		if resolved.Treatment == "" {
			resolved.Treatment = TreatmentCapitalGains
		}
		if resolved.Label == "" {
			resolved.Label = it.Key
		}
		out = append(out, resolved)
	}
	return out
}

// ResolveInvestmentKey joins a base investment key with its country code.
// Keys that already carry the suffix are returned unchanged.
func ResolveInvestmentKey(key, country string) string {
	suffix := "_" + country
	if strings.HasSuffix(key, suffix) {
		return key
	}
	return key + suffix
}

func sortedBands(bands []AgeBand) []AgeBand {
	out := append([]AgeBand(nil), bands...)
	sort.Slice(out, func(i, j int) bool { return out[i].MinAge < out[j].MinAge })
	return out
}

func bandRate(bands []AgeBand, age int) decimal.Decimal {
	rate := decimal.Zero
	for _, b := range bands {
		if age < b.MinAge {
			break
		}
		rate = b.Rate
	}
	return rate
}
