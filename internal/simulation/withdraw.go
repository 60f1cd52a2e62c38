package simulation

import (
	"errors"
	"fmt"

	"github.com/finsim/household-projector/internal/asset"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is reported when every source is exhausted and the
// year's expenses are still not covered.
var ErrInsufficientFunds = errors.New("insufficient funds")

// MaxWithdrawalIterations bounds the draws made at one priority rank. Taxes
// on a draw raise the need again, so each rank iterates until it converges.
const MaxWithdrawalIterations = 50

// materiality is the residual need below which a year counts as funded.
var materiality = decimal.NewFromInt(1)

// netIncome is the cash the year's income delivers: the tax engine's net of
// declared income plus flows the engine never sees.
func (s *Simulator) netIncome(sc *SimulationContext) decimal.Decimal {
	y := &sc.year
	return sc.tax.NetIncome().
		Add(y.untaxed).
		Add(y.incomeCash).
		Add(y.incomeInvestments).
		Sub(y.taxedProceeds)
}

// need is what remains to be funded this year in residence money.
func (s *Simulator) need(sc *SimulationContext) decimal.Decimal {
	debt := decimal.Max(sc.Cash.Amount().Neg(), decimal.Zero)
	return sc.year.expenses.Add(debt).Sub(s.netIncome(sc))
}

// withdraw funds the year's need from cash, pension pots and investments by
// priority rank, liquidating everything when the household is insolvent.
func (s *Simulator) withdraw(sc *SimulationContext) error {
	if s.need(sc).LessThan(materiality) {
		return nil
	}
	available, err := s.available(sc)
	if err != nil {
		return err
	}
	if s.need(sc).GreaterThan(available) {
		return s.liquidate(sc)
	}

	for _, rank := range s.scenario.Priorities.Ranks() {
		iterations := 0
		for s.need(sc).GreaterThanOrEqual(materiality) {
			if iterations == MaxWithdrawalIterations {
				s.logger.Warnf("run %d: age %d: withdrawal rank %d stopped after %d iterations, need %s",
					sc.Run, sc.Age(), rank, iterations, s.need(sc).StringFixed(2))
				break
			}
			iterations++
			drew, err := s.drawRank(sc, rank)
			if err != nil {
				return err
			}
			if !drew {
				break
			}
		}
	}
	if s.need(sc).GreaterThanOrEqual(materiality) {
		return s.liquidate(sc)
	}
	return nil
}

// drawRank makes one pass over the sources at rank and reports whether any
// money was drawn.
func (s *Simulator) drawRank(sc *SimulationContext, rank int) (bool, error) {
	prio := s.scenario.Priorities
	drew := false

	if prio.Cash == rank && sc.Cash.IsPositive() {
		if n := s.need(sc); n.IsPositive() {
			x := decimal.Min(n, sc.Cash.Amount())
			s.drawCash(sc, x)
			drew = true
		}
	}
	if prio.Pension == rank {
		for _, p := range sc.persons {
			if !p.Retired() {
				continue
			}
			for _, country := range p.PotCountries() {
				n := s.need(sc)
				if !n.IsPositive() {
					return drew, nil
				}
				ok, err := s.drawPot(sc, p.Pots[country], country, p.Index, n)
				if err != nil {
					return drew, err
				}
				drew = drew || ok
			}
		}
	}
	for _, e := range sc.investments {
		if s.investmentRank(e) != rank {
			continue
		}
		n := s.need(sc)
		if !n.IsPositive() {
			return drew, nil
		}
		ok, err := s.drawInvestment(sc, e, n)
		if err != nil {
			return drew, err
		}
		drew = drew || ok
	}
	return drew, nil
}

func (s *Simulator) investmentRank(e *InvestmentEntry) int {
	ranks := s.scenario.Priorities.Investments
	if r, ok := ranks[e.Key]; ok {
		return r
	}
	return ranks[e.BaseKey]
}

func (s *Simulator) drawCash(sc *SimulationContext, x decimal.Decimal) {
	sc.Cash = sc.Cash.Sub(sc.Residence(x))
	sc.year.incomeCash = sc.year.incomeCash.Add(x)
	s.recordWithdrawal(sc, "cash", x)
}

// sellFor converts a residence need into the asset's currency, clamped to
// what the asset holds, and returns the native amount to sell.
func (s *Simulator) sellFor(sc *SimulationContext, a asset.Asset, need decimal.Decimal) (decimal.Decimal, error) {
	capital := a.Capital()
	if !capital.IsPositive() {
		return decimal.Zero, nil
	}
	native, err := s.resolver.ConvertCurrencyAmount(need, sc.Currency, sc.Country, capital.Currency, capital.Country, sc.Year, true)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Min(native, capital.Amount()), nil
}

func (s *Simulator) drawPot(sc *SimulationContext, pot *asset.Pension, country string, person int, need decimal.Decimal) (bool, error) {
	native, err := s.sellFor(sc, pot, need)
	if err != nil || !native.IsPositive() {
		return false, err
	}
	sale, err := pot.Sell(native)
	if err != nil {
		return false, err
	}
	proceeds, err := s.resolver.ConvertMoney(sale.Proceeds, sc.Currency, sc.Country, sc.Year, true)
	if err != nil {
		return false, err
	}
	label := "Pension " + country
	sc.year.incomePrivatePension = sc.year.incomePrivatePension.Add(proceeds.Amount())
	sc.attr.Record("incomePrivatePension", label, proceeds.Amount())
	sc.tax.DeclarePrivatePensionIncome(proceeds, person, label)
	s.recordWithdrawal(sc, "pension_"+country, proceeds.Amount())
	return true, nil
}

func (s *Simulator) drawInvestment(sc *SimulationContext, e *InvestmentEntry, need decimal.Decimal) (bool, error) {
	native, err := s.sellFor(sc, e.Asset, need)
	if err != nil || !native.IsPositive() {
		return false, err
	}
	sale, err := e.Asset.Sell(native)
	if err != nil {
		return false, err
	}
	return true, s.bookInvestmentSale(sc, e, sale)
}

func (s *Simulator) bookInvestmentSale(sc *SimulationContext, e *InvestmentEntry, sale asset.Sale) error {
	proceeds, err := s.resolver.ConvertMoney(sale.Proceeds, sc.Currency, sc.Country, sc.Year, true)
	if err != nil {
		return err
	}
	sc.year.incomeInvestments = sc.year.incomeInvestments.Add(proceeds.Amount())
	sc.attr.Record("incomeInvestments", e.Label, proceeds.Amount())
	s.recordWithdrawal(sc, e.Key, proceeds.Amount())
	return s.declareGain(sc, e, sale.Gain)
}

func (s *Simulator) recordWithdrawal(sc *SimulationContext, key string, amount decimal.Decimal) {
	sc.year.withdrawals[key] = sc.year.withdrawals[key].Add(amount)
}

// available estimates what full liquidation would deliver after tax, using a
// clone of the tax engine so the year's real position is untouched.
func (s *Simulator) available(sc *SimulationContext) (decimal.Decimal, error) {
	clone := sc.tax.Clone()
	total := decimal.Max(sc.Cash.Amount(), decimal.Zero)

	for _, p := range sc.persons {
		if !p.Retired() {
			continue
		}
		for _, country := range p.PotCountries() {
			sale := p.Pots[country].SimulateSellAll()
			if !sale.Proceeds.IsPositive() {
				continue
			}
			proceeds, err := s.resolver.ConvertMoney(sale.Proceeds, sc.Currency, sc.Country, sc.Year, true)
			if err != nil {
				return decimal.Zero, err
			}
			clone.DeclarePrivatePensionIncome(proceeds, p.Index, "Pension "+country)
		}
	}
	for _, e := range sc.investments {
		sale := e.Asset.SimulateSellAll()
		if !sale.Proceeds.IsPositive() {
			continue
		}
		proceeds, err := s.resolver.ConvertMoney(sale.Proceeds, sc.Currency, sc.Country, sc.Year, true)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(proceeds.Amount())
		if e.Exempt || sale.Gain.IsZero() {
			continue
		}
		gain, err := s.resolver.ConvertMoney(sale.Gain, sc.Currency, sc.Country, sc.Year, true)
		if err != nil {
			return decimal.Zero, err
		}
		if e.NonEUShares {
			clone.DeclareNonEUSharesIncome(gain, e.Label)
			total = total.Sub(gain.Amount())
		} else {
			clone.DeclareInvestmentGains(gain, e.Label)
		}
	}
	// Pension income reaches the total through the clone's net income.
	return total.Add(clone.NetIncome().Sub(sc.tax.NetIncome())), nil
}

// liquidate turns every source into cash. The run fails when the need is
// still material afterwards.
func (s *Simulator) liquidate(sc *SimulationContext) error {
	if sc.Cash.IsPositive() {
		s.drawCash(sc, sc.Cash.Amount())
	}
	for _, p := range sc.persons {
		if !p.Retired() {
			continue
		}
		for _, country := range p.PotCountries() {
			pot := p.Pots[country]
			if !pot.Capital().IsPositive() {
				continue
			}
			if _, err := s.drawPot(sc, pot, country, p.Index, s.potValue(sc, pot)); err != nil {
				return fmt.Errorf("liquidating pension %s: %w", country, err)
			}
		}
	}
	for _, e := range sc.investments {
		if !e.Asset.Capital().IsPositive() {
			continue
		}
		sale, err := e.Asset.SellAll()
		if err != nil {
			return fmt.Errorf("liquidating %s: %w", e.Key, err)
		}
		if err := s.bookInvestmentSale(sc, e, sale); err != nil {
			return fmt.Errorf("liquidating %s: %w", e.Key, err)
		}
	}
	if n := s.need(sc); n.GreaterThanOrEqual(materiality) {
		return fmt.Errorf("%w: %s %s short at age %d", ErrInsufficientFunds, n.StringFixed(2), sc.Currency, sc.Age())
	}
	return nil
}

// potValue is a pot's capital in residence money, rounded up past any
// conversion error so a draw of it empties the pot.
func (s *Simulator) potValue(sc *SimulationContext, pot *asset.Pension) decimal.Decimal {
	v := s.toResidence(sc, pot.Capital())
	return v.Mul(decimal.NewFromFloat(1.000001))
}
