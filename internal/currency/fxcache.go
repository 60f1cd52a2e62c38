package currency

import "github.com/shopspring/decimal"

type fxKey struct {
	from, to string
	year     int
}

// fxEntry holds either a rate or a remembered lookup failure.
type fxEntry struct {
	rate   decimal.Decimal
	failed bool
}

// CacheStats summarises FX cache usage.
type CacheStats struct {
	Entries  int `json:"entries"`
	Hits     int `json:"hits"`
	Misses   int `json:"misses"`
	Failures int `json:"failures"`
}

// FXCache memoises exchange rates per (from, to, year). Rates derived from
// inflation differentials are deterministic, so one cache serves every Monte
// Carlo run of a simulation. It is owned by the simulator and reset when a
// simulation starts.
type FXCache struct {
	entries map[fxKey]fxEntry
	stats   CacheStats
}

// NewFXCache creates an empty cache.
func NewFXCache() *FXCache {
	return &FXCache{entries: make(map[fxKey]fxEntry)}
}

// Reset drops every entry and counter.
func (c *FXCache) Reset() {
	c.entries = make(map[fxKey]fxEntry)
	c.stats = CacheStats{}
}

func (c *FXCache) get(from, to string, year int) (fxEntry, bool) {
	e, ok := c.entries[fxKey{from, to, year}]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return e, ok
}

func (c *FXCache) put(from, to string, year int, e fxEntry) {
	if e.failed {
		c.stats.Failures++
	}
	c.entries[fxKey{from, to, year}] = e
}

// Stats returns a snapshot of the cache counters.
func (c *FXCache) Stats() CacheStats {
	s := c.stats
	s.Entries = len(c.entries)
	return s
}
