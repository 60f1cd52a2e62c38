package simulation

import (
	"fmt"

	"github.com/finsim/household-projector/internal/domain"
	"github.com/shopspring/decimal"
)

// FlowCategory is the semantic type of a flow recorded in a bucket.
type FlowCategory int

const (
	FlowSalary FlowCategory = iota
	FlowRSU
	FlowRental
	FlowDBI
	FlowTaxFree
	FlowExpense
	FlowMortgage
	FlowPurchase
	FlowSale
)

var flowCategoryNames = [...]string{
	FlowSalary:   "salary",
	FlowRSU:      "rsu",
	FlowRental:   "rental",
	FlowDBI:      "dbi",
	FlowTaxFree:  "taxFree",
	FlowExpense:  "expense",
	FlowMortgage: "mortgage",
	FlowPurchase: "purchase",
	FlowSale:     "sale",
}

func (c FlowCategory) String() string {
	if c < 0 || int(c) >= len(flowCategoryNames) {
		return fmt.Sprintf("FlowCategory(%d)", int(c))
	}
	return flowCategoryNames[c]
}

// Income reports whether the category adds to a bucket's inflows.
func (c FlowCategory) Income() bool {
	switch c {
	case FlowSalary, FlowRSU, FlowRental, FlowDBI, FlowTaxFree, FlowSale:
		return true
	}
	return false
}

// flowCategoryFor maps an income or expense event kind to its flow category.
func flowCategoryFor(kind domain.EventKind) (FlowCategory, bool) {
	switch {
	case kind.IsSalary():
		return FlowSalary, true
	case kind == domain.KindRSU:
		return FlowRSU, true
	case kind == domain.KindRental:
		return FlowRental, true
	case kind == domain.KindDefinedBenefit:
		return FlowDBI, true
	case kind == domain.KindTaxFree:
		return FlowTaxFree, true
	case kind == domain.KindExpense:
		return FlowExpense, true
	}
	return 0, false
}

type flowEntry struct {
	event    *domain.Event
	category FlowCategory
	amount   decimal.Decimal
	ordinal  int
	label    string
}

// flowBucket groups the year's flows of one (currency, country) tag before
// conversion.
type flowBucket struct {
	currency string
	country  string
	income   decimal.Decimal
	expense  decimal.Decimal
	totals   map[FlowCategory]decimal.Decimal
	entries  []flowEntry
}

func (b *flowBucket) key() string { return b.currency + "/" + b.country }

// net is income less expense in the bucket's native currency.
func (b *flowBucket) net() decimal.Decimal { return b.income.Sub(b.expense) }

// flowAggregator collects the year's buckets in first-seen order.
type flowAggregator struct {
	buckets  map[string]*flowBucket
	order    []string
	ordinals map[string]int
}

func newFlowAggregator() *flowAggregator {
	return &flowAggregator{
		buckets:  make(map[string]*flowBucket),
		ordinals: make(map[string]int),
	}
}

func (a *flowAggregator) record(cur, country string, ev *domain.Event, cat FlowCategory, amount decimal.Decimal, label string) {
	key := cur + "/" + country
	b, ok := a.buckets[key]
	if !ok {
		b = &flowBucket{currency: cur, country: country, totals: make(map[FlowCategory]decimal.Decimal)}
		a.buckets[key] = b
		a.order = append(a.order, key)
	}
	ordKey := ev.ID + "|" + cat.String() + "|" + key
	ordinal := a.ordinals[ordKey]
	a.ordinals[ordKey] = ordinal + 1

	b.entries = append(b.entries, flowEntry{event: ev, category: cat, amount: amount, ordinal: ordinal, label: label})
	b.totals[cat] = b.totals[cat].Add(amount)
	if cat.Income() {
		b.income = b.income.Add(amount)
	} else {
		b.expense = b.expense.Add(amount)
	}
}

// declarationKey identifies one physical entry for tax de-duplication.
func declarationKey(b *flowBucket, e flowEntry) string {
	return fmt.Sprintf("%s|%s|%s|%d", e.event.ID, e.category, b.key(), e.ordinal)
}

// flush converts every bucket once into residence money and dispatches its
// category totals and entries. The forward factor of a bucket is derived from
// its net flow so all entries of the bucket share one rate.
func (s *Simulator) flush(sc *SimulationContext, a *flowAggregator) error {
	// Every bucket is converted before any is applied, so a failed conversion
	// leaves the year's totals untouched.
	factors := make(map[string]decimal.Decimal, len(a.order))
	for _, key := range a.order {
		factor, err := s.bucketFactor(sc, a.buckets[key])
		if err != nil {
			return fmt.Errorf("converting %s flows: %w", key, err)
		}
		factors[key] = factor
	}
	for _, key := range a.order {
		b := a.buckets[key]
		factor := factors[key]
		counted := make(map[FlowCategory]bool)
		for _, e := range b.entries {
			if !counted[e.category] {
				counted[e.category] = true
				s.applyCategoryTotal(sc, e.category, b.totals[e.category].Mul(factor))
			}
			if err := s.applyEntry(sc, b, e, e.amount.Mul(factor)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Simulator) bucketFactor(sc *SimulationContext, b *flowBucket) (decimal.Decimal, error) {
	if b.currency == sc.Currency && b.country == sc.Country {
		return decimal.NewFromInt(1), nil
	}
	net := b.net()
	if net.IsZero() {
		return s.resolver.Rate(b.currency, b.country, sc.Currency, sc.Country, sc.Year, true)
	}
	converted, err := s.resolver.ConvertCurrencyAmount(net, b.currency, b.country, sc.Currency, sc.Country, sc.Year, true)
	if err != nil {
		return decimal.Zero, err
	}
	return converted.Div(net), nil
}

// applyCategoryTotal adds a converted category total to the yearly aggregates.
// Sales credit and purchases debit cash directly.
func (s *Simulator) applyCategoryTotal(sc *SimulationContext, cat FlowCategory, total decimal.Decimal) {
	y := &sc.year
	switch cat {
	case FlowSalary:
		y.incomeSalaries = y.incomeSalaries.Add(total)
	case FlowRSU:
		y.incomeRSUs = y.incomeRSUs.Add(total)
	case FlowRental:
		y.incomeRentals = y.incomeRentals.Add(total)
	case FlowDBI:
		y.incomeDefinedBenefit = y.incomeDefinedBenefit.Add(total)
	case FlowTaxFree:
		y.incomeTaxFree = y.incomeTaxFree.Add(total)
		y.untaxed = y.untaxed.Add(total)
	case FlowExpense, FlowMortgage:
		y.expenses = y.expenses.Add(total)
	case FlowPurchase:
		available := decimal.Max(sc.Cash.Amount(), decimal.Zero)
		paid := decimal.Min(total, available)
		sc.Cash = sc.Cash.Sub(sc.Residence(paid))
		if shortfall := total.Sub(paid); shortfall.IsPositive() {
			y.expenses = y.expenses.Add(shortfall)
			y.purchaseShortfall = y.purchaseShortfall.Add(shortfall)
			sc.attr.Record("expenses", "Purchase shortfall", shortfall)
		}
	case FlowSale:
		y.realEstateSales = y.realEstateSales.Add(total)
		sc.Cash = sc.Cash.Add(sc.Residence(total))
	}
}

// applyEntry records attribution for one entry and declares it to the tax
// engine at most once.
func (s *Simulator) applyEntry(sc *SimulationContext, b *flowBucket, e flowEntry, converted decimal.Decimal) error {
	y := &sc.year
	key := declarationKey(b, e)
	first := !y.declared[key]
	y.declared[key] = true
	amount := sc.Residence(converted)

	switch e.category {
	case FlowSalary:
		sc.attr.Record("incomeSalaries", e.label, converted)
		if !first {
			return nil
		}
		contribution, err := s.pensionContribution(sc, b, e)
		if err != nil {
			return fmt.Errorf("pension contribution for %s: %w", e.label, err)
		}
		sc.tax.DeclareSalaryIncome(amount, contribution, e.event.Kind.PersonIndex(), e.label)
	case FlowRSU:
		sc.attr.Record("incomeRSUs", e.label, converted)
		if first {
			sc.tax.DeclareNonEUSharesIncome(amount, e.label)
		}
	case FlowRental:
		sc.attr.Record("incomeRentals", e.label, converted)
		if first {
			sc.tax.DeclareOtherIncome(amount, e.label)
		}
	case FlowDBI:
		sc.attr.Record("incomeDefinedBenefit", e.label, converted)
		if !first {
			return nil
		}
		if set, ok := s.rules.Get(sc.Country); ok && set.DefinedBenefitSpec().TaxedAsSalary {
			sc.tax.DeclareSalaryIncome(amount, sc.Residence(decimal.Zero), 0, e.label)
		} else {
			sc.tax.DeclarePrivatePensionIncome(amount, 0, e.label)
		}
	case FlowTaxFree:
		sc.attr.Record("incomeTaxFree", e.label, converted)
	case FlowExpense, FlowMortgage:
		sc.attr.Record("expenses", e.label, converted)
	case FlowPurchase:
		sc.attr.Record("realEstatePurchases", e.label, converted)
	case FlowSale:
		sc.attr.Record("realEstateSales", e.label, converted)
	}
	return nil
}
