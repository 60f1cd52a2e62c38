package main

import (
	"fmt"
	"strings"

	"github.com/finsim/household-projector/internal/config"
	"github.com/finsim/household-projector/internal/economic"
	"github.com/finsim/household-projector/internal/logging"
	"github.com/finsim/household-projector/internal/output"
	"github.com/finsim/household-projector/internal/simulation"
	"github.com/finsim/household-projector/internal/taxrules"
	"github.com/spf13/cobra"
)

type runOptions struct {
	scenario string
	economic string
	format   string
	out      string
	runs     int
	seed     int64
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario and print or write the projection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("economic") {
				settings.EconomicFile = opts.economic
			}
			if cmd.Flags().Changed("format") {
				settings.Format = opts.format
			}
			if cmd.Flags().Changed("out") {
				settings.Output = opts.out
			}
			if cmd.Flags().Changed("runs") {
				settings.Runs = opts.runs
			}
			if cmd.Flags().Changed("seed") {
				settings.Seed = opts.seed
			}
			return runScenario(cmd, opts.scenario, settings)
		},
	}
	cmd.Flags().StringVarP(&opts.scenario, "scenario", "s", "", "scenario YAML file")
	cmd.Flags().StringVar(&opts.economic, "economic", "", "economic data CSV")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format ("+strings.Join(output.AvailableFormatterNames(), ", ")+")")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().IntVar(&opts.runs, "runs", 0, "override the scenario's Monte Carlo run count")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "fix the Monte Carlo seed")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runScenario(cmd *cobra.Command, path string, settings config.Settings) error {
	logger := logging.NewSlogLogger(cmd.ErrOrStderr(), settings.LogLevel)

	rules, err := taxrules.LoadDir(settings.RulesDir)
	if err != nil {
		return err
	}
	econ, err := economic.LoadCSV(settings.EconomicFile)
	if err != nil {
		return err
	}
	scenario, err := config.NewInputParser(rules).LoadFromFile(path)
	if err != nil {
		return err
	}
	logger.Infof("running %q: %d event(s), countries %s", scenario.Name, len(scenario.Events), strings.Join(scenario.Countries(), ","))

	sim := simulation.New(scenario, rules, econ, simulation.Options{Runs: settings.Runs, Seed: settings.Seed})
	sim.SetLogger(logger)
	result, err := sim.Run()
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	result.Assumptions = output.GenerateAssumptions(scenario, rules)

	if settings.Output == "" {
		return output.Render(cmd.OutOrStdout(), result, settings.Format)
	}
	written, err := output.GenerateReport(result, settings.Format, settings.Output)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", written)
	return nil
}

func loadSettings(root *rootOptions) (config.Settings, error) {
	settings, err := config.LoadSettings(root.configFile)
	if err != nil {
		return settings, err
	}
	if root.rulesDir != "" {
		settings.RulesDir = root.rulesDir
	}
	if root.logLevel != "" {
		settings.LogLevel = root.logLevel
	}
	return settings, nil
}
