// Package attribution records which sources contributed to each yearly metric,
// so reports can explain a figure line by line.
package attribution

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Line is one source contribution to a metric.
type Line struct {
	Source string
	Amount decimal.Decimal
}

// Manager accumulates metric -> source -> amount for the current year.
type Manager struct {
	metrics map[string]map[string]decimal.Decimal
}

// NewManager creates an empty attribution manager.
func NewManager() *Manager {
	return &Manager{metrics: make(map[string]map[string]decimal.Decimal)}
}

// Reset clears all recorded attributions.
func (m *Manager) Reset() {
	m.metrics = make(map[string]map[string]decimal.Decimal)
}

// Record adds amount to the source line of metric. Zero amounts are ignored.
func (m *Manager) Record(metric, source string, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	sources, ok := m.metrics[metric]
	if !ok {
		sources = make(map[string]decimal.Decimal)
		m.metrics[metric] = sources
	}
	sources[source] = sources[source].Add(amount)
}

// Total returns the sum of all sources of metric.
func (m *Manager) Total(metric string) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m.metrics[metric] {
		total = total.Add(v)
	}
	return total
}

// Lines returns the sources of metric sorted by name.
func (m *Manager) Lines(metric string) []Line {
	sources := m.metrics[metric]
	lines := make([]Line, 0, len(sources))
	for s, v := range sources {
		lines = append(lines, Line{Source: s, Amount: v})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Source < lines[j].Source })
	return lines
}

// Snapshot returns a deep copy of the recorded attributions.
func (m *Manager) Snapshot() map[string]map[string]decimal.Decimal {
	if len(m.metrics) == 0 {
		return nil
	}
	out := make(map[string]map[string]decimal.Decimal, len(m.metrics))
	for metric, sources := range m.metrics {
		cp := make(map[string]decimal.Decimal, len(sources))
		for s, v := range sources {
			cp[s] = v
		}
		out[metric] = cp
	}
	return out
}

// Clone returns an independent copy of the manager.
func (m *Manager) Clone() *Manager {
	c := NewManager()
	for metric, sources := range m.Snapshot() {
		c.metrics[metric] = sources
	}
	return c
}
