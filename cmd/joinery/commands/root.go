package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "./joinery.yaml"

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool

	buildVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "joinery",
		Short: "joinery - parametric cabinetry cutlists",
		Long: `joinery turns parametric furniture templates into manufacturing cutlists.

A template declares numeric params, derived formulas, validation rules and
part rules. Each quote item on a quotation runs its product's template with
the item's width, height, depth and overrides to produce dimensioned,
quantified parts.

Features:
  - Templates authored in CUE or YAML
  - Quotations priced per unit, area, volume or running foot
  - Concurrent cutlist generation per quotation
  - Rego policies over generated parts
  - Sheet and wastage summary per material`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default ./joinery.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newTemplateCommand())
	rootCmd.AddCommand(newQuoteCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newCutlistCommand())
	rootCmd.AddCommand(newSummaryCommand())
	rootCmd.AddCommand(newEvalCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
