package simulation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// handleInvestments closes the year: it funds any shortfall, moves the
// surplus into cash, invests cash above the emergency stash and rebalances
// mixed assets.
func (s *Simulator) handleInvestments(sc *SimulationContext) error {
	werr := s.withdraw(sc)
	if werr != nil && !errors.Is(werr, ErrInsufficientFunds) {
		return werr
	}
	y := &sc.year
	surplus := s.netIncome(sc).Sub(y.expenses)
	sc.Cash = sc.Cash.Add(sc.Residence(surplus))
	if werr != nil {
		return werr
	}

	if surplus.IsPositive() && y.purchaseShortfall.IsZero() {
		if err := s.investSurplus(sc); err != nil {
			return err
		}
	}
	return s.rebalanceAll(sc)
}

// investSurplus splits cash above the emergency stash between the residence
// country's allocations.
func (s *Simulator) investSurplus(sc *SimulationContext) error {
	excess := sc.Cash.Amount().Sub(sc.EmergencyStash.Amount())
	if !excess.IsPositive() {
		return nil
	}
	allocations := s.scenario.Allocations[sc.Country]
	keys := make([]string, 0, len(allocations))
	for k := range allocations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	invested := decimal.Zero
	for _, key := range keys {
		share := allocations[key]
		if !share.IsPositive() {
			continue
		}
		entry := s.resolveInvestment(sc, key, sc.Country)
		if entry == nil {
			s.logger.Warnf("run %d: no investment %q available in %s", sc.Run, key, sc.Country)
			continue
		}
		amount := excess.Mul(share)
		native, err := s.resolver.ConvertCurrencyAmount(amount, sc.Currency, sc.Country, entry.BaseCurrency, entry.AssetCountry, sc.Year, true)
		if err != nil {
			return fmt.Errorf("investing in %s: %w", entry.Key, err)
		}
		if err := s.invest(sc, entry, native, sc.Age()); err != nil {
			return fmt.Errorf("investing in %s: %w", entry.Key, err)
		}
		invested = invested.Add(amount)
		sc.attr.Record("investments", entry.Label, amount)
	}
	sc.Cash = sc.Cash.Sub(sc.Residence(invested))
	return nil
}

// invest buys native (in the entry's base currency) into an investment,
// splitting it along the entry's mix when one is configured.
func (s *Simulator) invest(sc *SimulationContext, entry *InvestmentEntry, native decimal.Decimal, age int) error {
	return s.buyWithMix(sc, entry.Asset, entry, entry.Mix, age, native)
}
