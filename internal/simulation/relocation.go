package simulation

import (
	"fmt"

	"github.com/finsim/household-projector/internal/domain"
	money "github.com/finsim/household-projector/pkg/decimal"
)

// relocationPass moves the household for every relocation starting at the
// current age. It runs before any other flow so the year is accounted for in
// the new residence.
func (s *Simulator) relocationPass(sc *SimulationContext) error {
	for i := range s.events {
		ev := &s.events[i]
		if ev.Kind != domain.KindRelocation || ev.FromAge != sc.Age() {
			continue
		}
		if err := s.relocate(sc, ev); err != nil {
			return fmt.Errorf("relocation to %s: %w", ev.Destination, err)
		}
	}
	return nil
}

// relocate charges the move, converts cash and the emergency target, installs
// any inflation override and resets the tax jurisdiction. All conversions are
// strict; on error the residence is left unchanged.
func (s *Simulator) relocate(sc *SimulationContext, ev *domain.Event) error {
	dest := ev.Destination
	if dest == sc.Country {
		return nil
	}
	destCur, ok := s.resolver.CurrencyForCountry(dest)
	if !ok {
		return fmt.Errorf("%w: no currency for %q", ErrConfiguration, dest)
	}
	origin, originCur := sc.Country, sc.Currency

	cost := inflate(ev.Amount, s.inflation(sc, origin), sc.Period)
	costDest, err := s.resolver.ConvertCurrencyAmount(cost, originCur, origin, destCur, dest, sc.Year, true)
	if err != nil {
		return err
	}
	cash, err := s.resolver.ConvertMoney(sc.Cash, destCur, dest, sc.Year, true)
	if err != nil {
		return err
	}
	stash, err := s.convertStash(sc, destCur, dest)
	if err != nil {
		return err
	}

	sc.Cash = cash
	sc.EmergencyStash = stash
	if ev.Rate != nil {
		sc.InflationOverrides[dest] = *ev.Rate
	}
	sc.Country, sc.Currency = dest, destCur
	if err := sc.tax.Reset(sc.taxPersons(), sc.attr, dest, sc.Year); err != nil {
		return err
	}

	sc.year.expenses = sc.year.expenses.Add(costDest)
	sc.attr.Record("expenses", "Relocation to "+dest, costDest)
	s.logger.Infof("run %d: age %d relocated %s/%s -> %s/%s (cost %s, cash %s)",
		sc.Run, sc.Age(), origin, originCur, dest, destCur, money.FormatAmount(costDest, destCur), cash.Format())
	return nil
}

// convertStash carries the emergency target over at purchasing-power parity,
// falling back to the exchange rate when no parity is known.
func (s *Simulator) convertStash(sc *SimulationContext, destCur, dest string) (money.Money, error) {
	if s.econ.Ready() {
		if ppp, ok := s.econ.PPP(sc.Country, dest); ok {
			return sc.EmergencyStash.Retag(ppp, destCur, dest), nil
		}
	}
	return s.resolver.ConvertMoney(sc.EmergencyStash, destCur, dest, sc.Year, true)
}
