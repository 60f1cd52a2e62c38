package simulation

import (
	"fmt"

	"github.com/finsim/household-projector/internal/asset"
	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/taxrules"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
)

// pensionIncome pays lump sums, drawdowns and the state pension of the year.
func (s *Simulator) pensionIncome(sc *SimulationContext) error {
	for _, p := range sc.persons {
		if !p.Retired() {
			continue
		}
		for _, country := range p.PotCountries() {
			if err := s.drawPension(sc, p, country); err != nil {
				return fmt.Errorf("pension %s: %w", country, err)
			}
		}
	}
	return s.statePension(sc)
}

func (s *Simulator) drawPension(sc *SimulationContext, p *Person, country string) error {
	pot := p.Pots[country]
	set, ok := s.rules.Get(country)
	if !ok {
		return nil
	}
	y := &sc.year
	label := fmt.Sprintf("Pension %s (P%d)", country, p.Index+1)

	if !pot.LumpSumTaken && set.PensionLumpSumRate().IsPositive() {
		sale, err := pot.TakeLumpSum(set.PensionLumpSumRate())
		if err != nil {
			return err
		}
		lump, err := s.resolver.ConvertMoney(sale.Proceeds, sc.Currency, sc.Country, sc.Year, true)
		if err != nil {
			return err
		}
		y.incomePrivatePension = y.incomePrivatePension.Add(lump.Amount())
		y.untaxed = y.untaxed.Add(lump.Amount())
		sc.attr.Record("incomePrivatePension", label+" lump sum", lump.Amount())
	}

	if p.Age < set.MinDrawdownAge() {
		return nil
	}
	rate := set.PensionDrawdownRate(p.Age)
	if !rate.IsPositive() || !pot.Capital().IsPositive() {
		return nil
	}
	sale, err := pot.Sell(pot.Capital().Mul(rate).Amount())
	if err != nil {
		return err
	}
	drawn, err := s.resolver.ConvertMoney(sale.Proceeds, sc.Currency, sc.Country, sc.Year, true)
	if err != nil {
		return err
	}
	y.incomePrivatePension = y.incomePrivatePension.Add(drawn.Amount())
	sc.attr.Record("incomePrivatePension", label, drawn.Amount())
	sc.tax.DeclarePrivatePensionIncome(drawn, p.Index, label)
	return nil
}

// statePension pays the start country's state pension from its pension age,
// inflated with that country's inflation.
func (s *Simulator) statePension(sc *SimulationContext) error {
	scn := s.scenario
	if !scn.StatePension.IsPositive() {
		return nil
	}
	set, ok := s.rules.Get(scn.StartCountry)
	if !ok || set.StatePensionAge() <= 0 || sc.Age() < set.StatePensionAge() {
		return nil
	}
	amount := inflate(scn.StatePension, s.inflation(sc, scn.StartCountry), sc.Period)
	paid, err := s.resolver.ConvertCurrencyAmount(amount, set.CurrencyCode(), set.CountryCode(), sc.Currency, sc.Country, sc.Year, true)
	if err != nil {
		return fmt.Errorf("state pension: %w", err)
	}
	sc.year.incomeStatePension = sc.year.incomeStatePension.Add(paid)
	sc.attr.Record("incomeStatePension", "State pension", paid)
	sc.tax.DeclareStatePensionIncome(sc.Residence(paid), "State pension")
	return nil
}

// pensionContribution pays the pension contribution due on a pensionable
// salary entry into the earner's pot in the salary's country and returns the
// employee part in residence money for tax relief.
func (s *Simulator) pensionContribution(sc *SimulationContext, b *flowBucket, e flowEntry) (money.Money, error) {
	none := sc.Residence(decimal.Zero)
	if !e.event.Kind.Pensionable() || !e.amount.IsPositive() {
		return none, nil
	}
	person := sc.Person(e.event.Kind.PersonIndex())
	if person.Retired() {
		return none, nil
	}
	source := b.country
	set, ok := s.rules.Get(source)
	if !ok || set.PensionSystemType() == taxrules.PensionStateOnly {
		return none, nil
	}
	rate := set.PensionContributionRate(person.Age).Mul(s.scenario.PensionContributions[source])
	if !rate.IsPositive() {
		return none, nil
	}

	pot := s.pot(sc, person, source)
	potCur := pot.Capital().Currency
	pensionable, err := s.resolver.ConvertCurrencyAmount(e.amount, b.currency, b.country, potCur, source, sc.Year, true)
	if err != nil {
		return none, err
	}
	if limit := set.PensionContributionAnnualCap(); limit.IsPositive() {
		usedKey := fmt.Sprintf("%d/%s", person.Index, source)
		used := sc.year.pensionableUsed[usedKey]
		pensionable = decimal.Max(decimal.Zero, decimal.Min(pensionable, limit.Sub(used)))
		sc.year.pensionableUsed[usedKey] = used.Add(pensionable)
		if !pensionable.IsPositive() {
			return none, nil
		}
	}
	employee := pensionable.Mul(rate)
	employer := decimal.Zero
	if e.event.Match != nil {
		employer = pensionable.Mul(decimal.Min(*e.event.Match, rate))
	}
	total := employee.Add(employer)
	if err := s.contribute(sc, person, pot, source, total); err != nil {
		return none, err
	}

	toResidence, err := s.resolver.Rate(potCur, source, sc.Currency, sc.Country, sc.Year, true)
	if err != nil {
		return none, err
	}
	totalRes := total.Mul(toResidence)
	sc.year.pensionContribution = sc.year.pensionContribution.Add(totalRes)
	sc.attr.Record("pensionContribution", e.label, totalRes)
	return sc.Residence(employee.Mul(toResidence)), nil
}

// contribute buys into a pension pot, honouring a "pension_<country>" mix.
func (s *Simulator) contribute(sc *SimulationContext, p *Person, pot *asset.Pension, country string, amountNative decimal.Decimal) error {
	if !amountNative.IsPositive() {
		return nil
	}
	return s.buyWithMix(sc, pot, nil, s.pensionMix(country), p.Age, amountNative)
}

func (s *Simulator) pensionMix(country string) *domain.MixConfig {
	if m, ok := s.scenario.Mix["pension_"+country]; ok {
		return &m
	}
	return nil
}
