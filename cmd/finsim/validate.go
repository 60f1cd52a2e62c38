package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/finsim/household-projector/internal/config"
	"github.com/finsim/household-projector/internal/domain"
	"github.com/finsim/household-projector/internal/output"
	"github.com/finsim/household-projector/internal/taxrules"
	"github.com/spf13/cobra"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario file without running it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(root)
			if err != nil {
				return err
			}
			var rules *taxrules.Registry
			if _, statErr := os.Stat(settings.RulesDir); statErr == nil {
				if rules, err = taxrules.LoadDir(settings.RulesDir); err != nil {
					return err
				}
			}
			scenario, err := config.NewInputParser(rules).LoadFromFile(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scenario %q is valid: %d event(s), countries %s, %d run(s)\n",
				scenario.Name, len(scenario.Events), strings.Join(scenario.Countries(), ", "), scenario.RunCount())
			for _, line := range relocationLines(scenario) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "scenario", "s", "", "scenario YAML file")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func relocationLines(s *domain.Scenario) []string {
	var lines []string
	for _, ev := range s.Events {
		if ev.Kind == domain.KindRelocation {
			lines = append(lines, fmt.Sprintf("  relocation to %s at age %d", ev.Destination, ev.FromAge))
		}
	}
	return lines
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the available output formats",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "formats: %s\naliases: %s\n",
				strings.Join(output.AvailableFormatterNames(), ", "),
				strings.Join(output.AvailableFormatAliases(), ", "))
		},
	}
}
