package domain

import "github.com/shopspring/decimal"

// MixType selects how a mix configuration's target split is derived.
type MixType string

const (
	MixFixed     MixType = "fixed"
	MixGlidePath MixType = "glidePath"
)

// Profile is a growth/volatility pair that tags holdings inside an asset.
type Profile struct {
	Growth     decimal.Decimal `yaml:"growth" json:"growth"`
	Volatility decimal.Decimal `yaml:"volatility" json:"volatility"`
}

// ProfileTolerance is the numeric tolerance used when matching holdings to profiles.
var ProfileTolerance = decimal.NewFromFloat(1e-6)

// Matches reports whether the profile equals the given growth and volatility within ProfileTolerance.
func (p Profile) Matches(growth, volatility decimal.Decimal) bool {
	return p.Growth.Sub(growth).Abs().LessThanOrEqual(ProfileTolerance) &&
		p.Volatility.Sub(volatility).Abs().LessThanOrEqual(ProfileTolerance)
}

// MixConfig is a target allocation between two profiles within one asset,
// either fixed or interpolated by age between StartAge and EndAge.
type MixConfig struct {
	Type            MixType         `yaml:"type" json:"type"`
	Primary         Profile         `yaml:"primary" json:"primary"`
	Secondary       Profile         `yaml:"secondary" json:"secondary"`
	StartPrimaryPct decimal.Decimal `yaml:"start_primary_pct" json:"start_primary_pct"`
	EndPrimaryPct   decimal.Decimal `yaml:"end_primary_pct" json:"end_primary_pct"`
	StartAge        int             `yaml:"start_age" json:"start_age"`
	EndAge          int             `yaml:"end_age" json:"end_age"`
}

// PrimaryShare returns the target fraction (0..1) of the primary profile at age.
func (m MixConfig) PrimaryShare(age int) decimal.Decimal {
	var share decimal.Decimal
	switch {
	case m.Type != MixGlidePath:
		share = m.StartPrimaryPct
	case age <= m.StartAge || m.EndAge <= m.StartAge:
		share = m.StartPrimaryPct
	case age >= m.EndAge:
		share = m.EndPrimaryPct
	default:
		progress := decimal.NewFromInt(int64(age - m.StartAge)).Div(decimal.NewFromInt(int64(m.EndAge - m.StartAge)))
		share = m.StartPrimaryPct.Add(m.EndPrimaryPct.Sub(m.StartPrimaryPct).Mul(progress))
	}
	if share.IsNegative() {
		return decimal.Zero
	}
	if share.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return share
}
