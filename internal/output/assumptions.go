package output

import (
	"fmt"
	"strings"

	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/taxrules"
)

// GenerateAssumptions creates the assumptions list rendered in detailed
// outputs from the scenario and, when available, the rule sets in use.
func GenerateAssumptions(s *domain.Scenario, rules *taxrules.Registry) []string {
	mode := s.Economy.Mode
	if mode == "" {
		mode = domain.EconomyDeterministic
	}
	out := []string{
		fmt.Sprintf("Economy: %s, %d run(s)", mode, s.RunCount()),
		fmt.Sprintf("Projection from age %d to %d, retirement at %d", s.StartingAge, s.TargetAge, s.RetirementAge),
	}
	for _, c := range s.Countries() {
		line := "Residence rules: " + strings.ToUpper(c)
		if rules != nil {
			if set, ok := rules.Get(c); ok {
				line += fmt.Sprintf(" (%s, inflation %s, pension system %s)",
					set.CurrencyCode(), FormatPercentage(set.InflationRate()), set.PensionSystemType())
			}
		}
		out = append(out, line)
	}
	for _, ev := range s.Events {
		if ev.Kind == domain.KindRelocation {
			out = append(out, fmt.Sprintf("Relocation to %s at age %d", strings.ToUpper(ev.Destination), ev.FromAge))
		}
	}
	if s.EmergencyStash.IsPositive() {
		out = append(out, "Emergency stash kept in cash: "+s.EmergencyStash.StringFixed(0))
	}
	return out
}
