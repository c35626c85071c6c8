package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/expdes/internal/render"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// Global flags.
var (
	outputJSON bool
	localeFlag string
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "expdes",
	Short: "Statistical analysis of designed experiments",
	Long: `expdes analyses agricultural and biological experiments laid out as
completely randomized, randomized block, latin square, factorial and
split-plot designs.

It fits the linear model of the design, prints the ANOVA table, checks
normality and homogeneity of variances, compares treatment means with
Tukey, Duncan, Scott-Knott or t-tests, and labels them with compact
letters. Figures, polynomial regression and residual diagnostics are
available for follow-up work.`,
	SilenceUsage:      true,
	PersistentPreRunE: applyGlobalFlags,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "expdes %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&localeFlag, "locale", "", "Locale for number formatting (en, pt-BR); overrides output.locale")
	rootCmd.AddCommand(versionCmd)
}

// applyGlobalFlags lets flags take precedence over the loaded configuration.
func applyGlobalFlags(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("locale") {
		r, err := render.New(localeFlag)
		if err != nil {
			return err
		}
		Renderer = r
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
