package taxrules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownCountry is returned when no rule set is registered for a country.
var ErrUnknownCountry = errors.New("no tax rule set for country")

// Registry caches rule sets by lower-case country code.
type Registry struct {
	rules map[string]*RuleSet
}

// NewRegistry creates a registry holding the given rule sets.
func NewRegistry(sets ...*RuleSet) *Registry {
	r := &Registry{rules: make(map[string]*RuleSet)}
	for _, s := range sets {
		r.Add(s)
	}
	return r
}

// Add registers or replaces a rule set.
func (r *Registry) Add(set *RuleSet) {
	r.rules[set.CountryCode()] = set
}

// Get returns the cached rule set for country, if any.
func (r *Registry) Get(country string) (*RuleSet, bool) {
	set, ok := r.rules[strings.ToLower(strings.TrimSpace(country))]
	return set, ok
}

// MustGet returns the rule set for country or an error wrapping ErrUnknownCountry.
func (r *Registry) MustGet(country string) (*RuleSet, error) {
	set, ok := r.Get(country)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}
	return set, nil
}

// Countries returns the registered country codes in sorted order.
func (r *Registry) Countries() []string {
	out := make([]string, 0, len(r.rules))
	for c := range r.rules {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// LoadFile reads one YAML rule set.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule set %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML rule set and checks its mandatory fields.
func Parse(data []byte) (*RuleSet, error) {
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse rule set: %w", err)
	}
	if set.CountryCode() == "" {
		return nil, errors.New("rule set has no country")
	}
	for i := 1; i < len(set.IncomeTax); i++ {
		if set.IncomeTax[i].Min.LessThan(set.IncomeTax[i-1].Min) {
			return nil, fmt.Errorf("rule set %s: income tax brackets not ordered", set.CountryCode())
		}
	}
	return &set, nil
}

// LoadDir loads every *.yaml / *.yml file in dir into a new registry.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory %s: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		set, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		reg.Add(set)
	}
	if len(reg.rules) == 0 {
		return nil, fmt.Errorf("no rule sets found in %s", dir)
	}
	return reg, nil
}
