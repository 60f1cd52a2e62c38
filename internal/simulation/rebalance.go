package simulation

import (
	"fmt"

	"github.com/finsim/household-projector/internal/asset"
	"github.com/finsim/household-projector/internal/domain"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
)

// RebalanceTolerance is the share of a mixed asset's value the primary profile
// may drift from its target before an internal transfer is made.
var RebalanceTolerance = decimal.NewFromFloat(0.001)

// buyWithMix invests native into a, splitting it along mix when one is set.
// Whatever the mix does not consume is bought at the primary profile.
func (s *Simulator) buyWithMix(sc *SimulationContext, a asset.Mixable, entry *InvestmentEntry, mix *domain.MixConfig, age int, native decimal.Decimal) error {
	if !native.IsPositive() {
		return nil
	}
	tag := a.Capital()
	if mix == nil {
		return a.Buy(tag.WithAmount(native), nil)
	}
	consumed, err := s.rebalanceMix(sc, a, entry, mix, age, native)
	if err != nil {
		return err
	}
	if rest := native.Sub(consumed); rest.IsPositive() {
		return a.Buy(tag.WithAmount(rest), &mix.Primary)
	}
	return nil
}

// rebalanceMix steers a two-profile asset toward the split mix targets at age.
// The offered surplus first fills whichever profile is below target; a
// remaining drift beyond RebalanceTolerance is corrected by selling the
// over-weight profile and buying the other. It returns the part of surplus
// consumed, in the asset's currency.
func (s *Simulator) rebalanceMix(sc *SimulationContext, a asset.Mixable, entry *InvestmentEntry, mix *domain.MixConfig, age int, surplus decimal.Decimal) (decimal.Decimal, error) {
	tag := a.Capital()
	primary := a.ProfileValue(mix.Primary)
	secondary := a.ProfileValue(mix.Secondary)
	total := primary.Add(secondary).Add(surplus)
	if !total.IsPositive() {
		return decimal.Zero, nil
	}
	targetPrimary := total.Mul(mix.PrimaryShare(age))
	targetSecondary := total.Sub(targetPrimary)

	remaining := decimal.Max(surplus, decimal.Zero)
	if buy := decimal.Min(decimal.Max(targetPrimary.Sub(primary), decimal.Zero), remaining); buy.IsPositive() {
		if err := a.Buy(tag.WithAmount(buy), &mix.Primary); err != nil {
			return decimal.Zero, err
		}
		primary = primary.Add(buy)
		remaining = remaining.Sub(buy)
	}
	if buy := decimal.Min(decimal.Max(targetSecondary.Sub(secondary), decimal.Zero), remaining); buy.IsPositive() {
		if err := a.Buy(tag.WithAmount(buy), &mix.Secondary); err != nil {
			return decimal.Zero, err
		}
		remaining = remaining.Sub(buy)
	}
	consumed := decimal.Max(surplus, decimal.Zero).Sub(remaining)

	drift := primary.Sub(targetPrimary)
	if drift.Abs().LessThanOrEqual(total.Mul(RebalanceTolerance)) {
		return consumed, nil
	}
	from, to := mix.Primary, mix.Secondary
	if drift.IsNegative() {
		from, to = mix.Secondary, mix.Primary
	}
	amount := decimal.Min(drift.Abs(), a.ProfileValue(from))
	sale, err := a.SellProfile(amount, from)
	if err != nil {
		return consumed, fmt.Errorf("rebalancing: %w", err)
	}
	if err := a.Buy(sale.Proceeds, &to); err != nil {
		return consumed, err
	}
	if !a.Sheltered() {
		if err := s.declareGain(sc, entry, sale.Gain); err != nil {
			return consumed, err
		}
	}
	return consumed, nil
}

// rebalanceAll brings every mixed investment and pension pot back to target
// without new money.
func (s *Simulator) rebalanceAll(sc *SimulationContext) error {
	for _, e := range sc.investments {
		if e.Mix == nil || !e.Asset.Capital().IsPositive() {
			continue
		}
		if _, err := s.rebalanceMix(sc, e.Asset, e, e.Mix, sc.Age(), decimal.Zero); err != nil {
			return fmt.Errorf("%s: %w", e.Key, err)
		}
	}
	for _, p := range sc.persons {
		for _, country := range p.PotCountries() {
			mix := s.pensionMix(country)
			pot := p.Pots[country]
			if mix == nil || !pot.Capital().IsPositive() {
				continue
			}
			if _, err := s.rebalanceMix(sc, pot, nil, mix, p.Age, decimal.Zero); err != nil {
				return fmt.Errorf("pension %s: %w", country, err)
			}
		}
	}
	return nil
}

// declareGain reports a realised gain of an investment to the tax engine in
// residence money, following the investment's treatment.
func (s *Simulator) declareGain(sc *SimulationContext, entry *InvestmentEntry, gain money.Money) error {
	if entry == nil || entry.Exempt || gain.IsZero() {
		return nil
	}
	converted, err := s.resolver.ConvertMoney(gain, sc.Currency, sc.Country, sc.Year, true)
	if err != nil {
		return err
	}
	if entry.NonEUShares {
		// Counted as declared income, so it must not reach cash a second time.
		sc.tax.DeclareNonEUSharesIncome(converted, entry.Label)
		sc.year.taxedProceeds = sc.year.taxedProceeds.Add(converted.Amount())
		return nil
	}
	sc.tax.DeclareInvestmentGains(converted, entry.Label)
	return nil
}
