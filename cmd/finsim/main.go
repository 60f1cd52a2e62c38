// Command finsim projects a household's finances year by year.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configFile string
	rulesDir   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "finsim",
		Short:         "Household financial projection across countries and currencies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "settings file (default ./finsim.yaml, env FINSIM_CONFIG)")
	root.PersistentFlags().StringVar(&opts.rulesDir, "rules", "", "directory of per-country tax rule sets")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newRunCmd(opts), newValidateCmd(opts), newFormatsCmd())
	return root
}
