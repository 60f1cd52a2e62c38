package simulation

import (
	"fmt"

	"github.com/finsim/household-projector/internal/asset"
	"github.com/finsim/household-projector/internal/domain"
	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
)

// salePass sells every property whose purchase event ends this year. Sales
// are flushed before the main pass so their proceeds fund the year.
func (s *Simulator) salePass(sc *SimulationContext) error {
	agg := newFlowAggregator()
	age := sc.Age()
	for i := range s.events {
		ev := &s.events[i]
		if ev.Kind != domain.KindPurchase || ev.ToAge != age || ev.ToAge <= ev.FromAge {
			continue
		}
		prop, ok := sc.properties[ev.ID]
		if !ok || prop.Sold() {
			continue
		}
		sale, err := prop.Sell()
		if err != nil {
			return fmt.Errorf("selling %s: %w", ev.ID, err)
		}
		agg.record(prop.Currency(), prop.Country(), ev, FlowSale, sale.Proceeds.Amount(), "Sale of "+ev.ID)
	}
	return s.flush(sc, agg)
}

// mainPass buys properties, attaches mortgages and records every income and
// expense flow of the year, then converts them bucket by bucket.
func (s *Simulator) mainPass(sc *SimulationContext) error {
	agg := newFlowAggregator()
	age := sc.Age()

	for i := range s.events {
		ev := &s.events[i]
		if ev.Kind == domain.KindPurchase && ev.FromAge == age {
			prop, err := s.buyProperty(sc, ev)
			if err != nil {
				return err
			}
			if prop != nil {
				// The financed part is paid by the mortgage, so only equity leaves cash.
				agg.record(prop.Currency(), prop.Country(), ev, FlowPurchase, prop.Capital().Amount(), "Purchase of "+ev.ID)
			}
		}
	}

	for i := range s.events {
		ev := &s.events[i]
		switch ev.Kind {
		case domain.KindMortgage:
			if age < ev.FromAge || age >= ev.ToAge {
				continue
			}
			prop, owned := s.ensureMortgage(sc, ev)
			if !owned {
				cur, country := s.eventCurrencyInfo(sc, ev)
				agg.record(cur, country, ev, FlowMortgage, ev.Amount, "Mortgage "+ev.ID)
				continue
			}
			if prop == nil {
				continue
			}
			if paid := prop.PayMortgage(); paid.IsPositive() {
				agg.record(prop.Currency(), prop.Country(), ev, FlowMortgage, paid, "Mortgage "+ev.ID)
			}
		default:
			cat, ok := flowCategoryFor(ev.Kind)
			if !ok || !ev.InScope(age) {
				continue
			}
			cur, country := s.eventCurrencyInfo(sc, ev)
			rate := s.inflation(sc, country)
			if ev.Rate != nil {
				rate = *ev.Rate
			}
			agg.record(cur, country, ev, cat, inflate(ev.Amount, rate, sc.Period), ev.ID)
		}
	}
	return s.flush(sc, agg)
}

// buyProperty creates the property of a purchase event, priced in today's
// money inflated with the property country's inflation. Buying twice is a no-op.
func (s *Simulator) buyProperty(sc *SimulationContext, ev *domain.Event) (*asset.Property, error) {
	if _, ok := sc.properties[ev.ID]; ok {
		return nil, nil
	}
	cur, country := s.eventCurrencyInfo(sc, ev)
	if cur == "" {
		return nil, fmt.Errorf("%w: no currency for property %s", ErrConfiguration, ev.ID)
	}
	appreciation := decimal.Zero
	if ev.Rate != nil {
		appreciation = *ev.Rate
	}
	price := inflate(ev.Amount, s.inflation(sc, country), sc.Period)
	prop := asset.NewProperty(ev.ID, money.NewMoneyFromDecimal(price, cur, country), appreciation)
	sc.properties[ev.ID] = prop
	if m := s.mortgageFor(ev.ID, ev.FromAge); m != nil {
		s.attachMortgage(prop, m)
	}
	return prop, nil
}

// ensureMortgage returns the unsold property financed by a mortgage event,
// attaching the loan when it starts this year. owned is false when no property
// was ever bought under the event's ID.
func (s *Simulator) ensureMortgage(sc *SimulationContext, ev *domain.Event) (prop *asset.Property, owned bool) {
	prop, owned = sc.properties[ev.ID]
	if !owned || prop.Sold() {
		return nil, owned
	}
	if prop.Mortgage() == nil && ev.FromAge == sc.Age() {
		s.attachMortgage(prop, ev)
	}
	return prop, true
}

func (s *Simulator) attachMortgage(prop *asset.Property, ev *domain.Event) {
	rate := decimal.Zero
	if ev.Rate != nil {
		rate = *ev.Rate
	}
	prop.AttachMortgage(ev.Amount, rate, ev.ToAge-ev.FromAge)
}

func (s *Simulator) mortgageFor(id string, age int) *domain.Event {
	for i := range s.events {
		ev := &s.events[i]
		if ev.Kind == domain.KindMortgage && ev.ID == id && ev.FromAge == age {
			return ev
		}
	}
	return nil
}

// eventCurrencyInfo returns the tag an event's flows are denominated in:
// its own currency and linked country, then the linked country's currency,
// then the residence.
func (s *Simulator) eventCurrencyInfo(sc *SimulationContext, ev *domain.Event) (string, string) {
	cur, country := ev.Currency, ev.LinkedCountry
	if country == "" {
		country = sc.Country
	}
	if cur == "" {
		if c, ok := s.resolver.CurrencyForCountry(country); ok {
			cur = c
		} else {
			cur, country = sc.Currency, sc.Country
		}
	}
	return cur, country
}
