package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/render"
	"github.com/valter-silva-au/expdes/pkg/models"
)

var (
	analyzeDesign  designFlags
	analyzeAlpha   float64
	analyzePostHoc string
	analyzeWelch   bool
	analyzeUnfold  bool
	analyzePlots   bool
	analyzeSave    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dataset|file.csv>",
	Short: "Run the full analysis of an experiment",
	Long: `Fit the design, print its ANOVA table, test the model assumptions and
compare treatment means with the selected post-hoc test.

The dataset is either a bundled example (see 'expdes datasets list') or a
CSV file. Column roles default to the dataset metadata and can be set with
the design flags.

Examples:
  expdes analyze dic_milho
  expdes analyze dbc_caprinos --posthoc scottknott --save
  expdes analyze trial.csv --design rcbd --response yield --treatment variety --block block
  expdes analyze fatorial_dic_irrigacao --unfold --plots`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAnalyzer(); err != nil {
			return err
		}
		alpha, err := resolveAlpha(cmd, analyzeAlpha)
		if err != nil {
			return err
		}
		if analyzePlots && Figures == nil {
			return fmt.Errorf("figure renderer not initialized")
		}
		report, err := Analyzer.Analyze(core.AnalysisRequest{
			Dataset: args[0],
			Design:  analyzeDesign.spec(),
			PostHoc: resolvePostHoc(cmd, "posthoc", analyzePostHoc),
			Alpha:   alpha,
			Welch:   analyzeWelch,
			Unfold:  analyzeUnfold,
			Plots:   analyzePlots,
			Save:    analyzeSave,
		})
		if err != nil {
			return err
		}
		return emit(cmd, report, func(r *render.Renderer) string {
			out := r.Report(report)
			if report.ID != "" {
				out += fmt.Sprintf("\nSaved as %s\n", report.ID)
			}
			return out
		})
	},
}

var anovaDesign designFlags

var anovaCmd = &cobra.Command{
	Use:   "anova <dataset|file.csv>",
	Short: "Print the ANOVA table of a design",
	Long: `Fit the linear model of the design and print its analysis of variance
with the grand mean and coefficient of variation.

Split-plot main-plot effects are tested against the whole-plot error.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		fit, err := fitDesign(args[0], anovaDesign)
		if err != nil {
			return err
		}
		table, err := core.RunAnova(fit)
		if err != nil {
			return err
		}
		return emit(cmd, table, func(r *render.Renderer) string { return r.Anova(table) })
	},
}

var (
	assumptionsDesign designFlags
	assumptionsAlpha  float64
)

var assumptionsCmd = &cobra.Command{
	Use:   "assumptions <dataset|file.csv>",
	Short: "Test normality and homogeneity of variances",
	Long: `Run the Shapiro-Wilk test on the model residuals and Levene's test
(median centred) across treatment groups.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		alpha, err := resolveAlpha(cmd, assumptionsAlpha)
		if err != nil {
			return err
		}
		fit, err := fitDesign(args[0], assumptionsDesign)
		if err != nil {
			return err
		}
		report, err := core.CheckAssumptions(fit, alpha)
		if err != nil {
			return err
		}
		return emit(cmd, report, func(r *render.Renderer) string { return r.Assumptions(report) })
	},
}

var (
	posthocDesign designFlags
	posthocAlpha  float64
	posthocMethod string
	posthocWelch  bool
)

var posthocCmd = &cobra.Command{
	Use:   "posthoc <dataset|file.csv>",
	Short: "Compare treatment means with a post-hoc test",
	Long: `Compare the means of every treatment factor and label them with
compact letters: means sharing a letter do not differ at the chosen level.

Methods: tukey, duncan, scottknott, ttest. The error mean square and
degrees of freedom come from the fitted model.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAnalyzer(); err != nil {
			return err
		}
		alpha, err := resolveAlpha(cmd, posthocAlpha)
		if err != nil {
			return err
		}
		method := resolvePostHoc(cmd, "method", posthocMethod)
		if method == core.PostHocNone {
			return fmt.Errorf("method must name a post-hoc test (%s)", strings.Join(core.PostHocNames(), ", "))
		}
		report, err := Analyzer.Analyze(core.AnalysisRequest{
			Dataset: args[0],
			Design:  posthocDesign.spec(),
			PostHoc: method,
			Alpha:   alpha,
			Welch:   posthocWelch,
		})
		if err != nil {
			return err
		}
		return emit(cmd, report.PostHoc, func(r *render.Renderer) string {
			parts := make([]string, len(report.PostHoc))
			for i := range report.PostHoc {
				parts[i] = r.PostHoc(&report.PostHoc[i])
			}
			return strings.Join(parts, "\n")
		})
	},
}

var (
	unfoldDesign designFlags
	unfoldAlpha  float64
	unfoldMethod string
)

var unfoldCmd = &cobra.Command{
	Use:   "unfold <dataset|file.csv>",
	Short: "Break down significant interactions of a factorial design",
	Long: `Analyse each factor within every level of the other for each
significant two-factor interaction, then compare the means of each slice.
Factors with a significant main effect outside any interaction are compared
on their marginal means.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		alpha, err := resolveAlpha(cmd, unfoldAlpha)
		if err != nil {
			return err
		}
		test, err := core.NewPostHoc(resolvePostHoc(cmd, "method", unfoldMethod))
		if err != nil {
			return err
		}
		fit, err := fitDesign(args[0], unfoldDesign)
		if err != nil {
			return err
		}
		if len(fit.Design().TreatmentFactors()) < 2 {
			return fmt.Errorf("unfolding needs a design with at least two treatment factors, %s has %d",
				fit.Design().Kind(), len(fit.Design().TreatmentFactors()))
		}
		result, err := core.UnfoldInteractions(fit, test, core.PostHocOptions{
			Alpha:   alpha,
			Letters: core.CLDOptions{Order: letterOrder()},
		})
		if err != nil {
			return err
		}
		return emit(cmd, result, func(r *render.Renderer) string { return r.Unfold(result) })
	},
}

var (
	plotDesign  designFlags
	plotAlpha   float64
	plotPostHoc string
)

var plotCmd = &cobra.Command{
	Use:   "plot <dataset|file.csv>",
	Short: "Draw letter and residual figures",
	Long: `Run the analysis and write one boxplot per treatment factor with its
compact letters, plus residual diagnostic figures (residuals vs fitted,
normal Q-Q, histogram, Cook's distance).

Figures go to output.plots_dir in the format set by plot.format.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAnalyzer(); err != nil {
			return err
		}
		if Figures == nil {
			return fmt.Errorf("figure renderer not initialized")
		}
		alpha, err := resolveAlpha(cmd, plotAlpha)
		if err != nil {
			return err
		}
		report, err := Analyzer.Analyze(core.AnalysisRequest{
			Dataset: args[0],
			Design:  plotDesign.spec(),
			PostHoc: resolvePostHoc(cmd, "posthoc", plotPostHoc),
			Alpha:   alpha,
			Plots:   true,
		})
		if err != nil {
			return err
		}
		return emit(cmd, report.Plots, func(*render.Renderer) string {
			return strings.Join(report.Plots, "\n")
		})
	},
}

var (
	diagnoseDesign designFlags
	diagnoseAlpha  float64
	diagnosePlots  bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <dataset|file.csv>",
	Short: "Residual diagnostics of a fitted design",
	Long: `Report Shapiro-Wilk on the residuals, the Breusch-Pagan test for
heteroscedasticity, the Durbin-Watson statistic, leverage, standardized
residuals and Cook's distance. With --plots the residual figures are
written too.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		alpha, err := resolveAlpha(cmd, diagnoseAlpha)
		if err != nil {
			return err
		}
		if diagnosePlots && Figures == nil {
			return fmt.Errorf("figure renderer not initialized")
		}
		fit, err := fitDesign(args[0], diagnoseDesign)
		if err != nil {
			return err
		}
		diag, err := core.Diagnose(fit, alpha)
		if err != nil {
			return err
		}
		var paths []string
		if diagnosePlots {
			name := fmt.Sprintf("%s_%s", fit.Dataset(), fit.Design().Kind())
			paths, err = Figures.ResidualPlots(name, fit.Fitted(), fit.Residuals(), diag)
			if err != nil {
				return fmt.Errorf("rendering residual plots: %w", err)
			}
		}
		out := struct {
			Diagnostics *models.RegressionDiagnostics `json:"diagnostics"`
			Plots       []string                      `json:"plots,omitempty"`
		}{diag, paths}
		return emit(cmd, out, func(r *render.Renderer) string {
			text := r.Diagnostics(*diag)
			if len(paths) > 0 {
				text += "\n" + strings.Join(paths, "\n")
			}
			return text
		})
	},
}

// fitDesign loads ref and fits the design described by f.
func fitDesign(ref string, f designFlags) (*core.Fit, error) {
	if err := requireAnalyzer(); err != nil {
		return nil, err
	}
	return Analyzer.Fit(ref, f.spec())
}

func letterOrder() string {
	if Config == nil {
		return core.OrderDescending
	}
	return Config.LetterOrder
}

func init() {
	analyzeDesign.register(analyzeCmd)
	analyzeCmd.Flags().Float64Var(&analyzeAlpha, "alpha", core.DefaultAlpha, "Significance level")
	analyzeCmd.Flags().StringVar(&analyzePostHoc, "posthoc", string(models.PostHocTukey), "Post-hoc method (tukey, duncan, scottknott, ttest, none)")
	analyzeCmd.Flags().BoolVar(&analyzeWelch, "welch", false, "Use Welch t-tests (ttest method only)")
	analyzeCmd.Flags().BoolVar(&analyzeUnfold, "unfold", false, "Break down significant interactions of multi-factor designs")
	analyzeCmd.Flags().BoolVar(&analyzePlots, "plots", false, "Write letter and residual figures")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Save the analysis as a report")
	_ = analyzeCmd.RegisterFlagCompletionFunc("posthoc", completePostHoc)

	anovaDesign.register(anovaCmd)

	assumptionsDesign.register(assumptionsCmd)
	assumptionsCmd.Flags().Float64Var(&assumptionsAlpha, "alpha", core.DefaultAlpha, "Significance level")

	posthocDesign.register(posthocCmd)
	posthocCmd.Flags().Float64Var(&posthocAlpha, "alpha", core.DefaultAlpha, "Significance level")
	posthocCmd.Flags().StringVar(&posthocMethod, "method", string(models.PostHocTukey), "Post-hoc method (tukey, duncan, scottknott, ttest)")
	posthocCmd.Flags().BoolVar(&posthocWelch, "welch", false, "Use Welch t-tests (ttest method only)")
	_ = posthocCmd.RegisterFlagCompletionFunc("method", completePostHoc)

	unfoldDesign.register(unfoldCmd)
	unfoldCmd.Flags().Float64Var(&unfoldAlpha, "alpha", core.DefaultAlpha, "Significance level")
	unfoldCmd.Flags().StringVar(&unfoldMethod, "method", string(models.PostHocTukey), "Post-hoc method for each slice")
	_ = unfoldCmd.RegisterFlagCompletionFunc("method", completePostHoc)

	plotDesign.register(plotCmd)
	plotCmd.Flags().Float64Var(&plotAlpha, "alpha", core.DefaultAlpha, "Significance level")
	plotCmd.Flags().StringVar(&plotPostHoc, "posthoc", string(models.PostHocTukey), "Post-hoc method used for the letters")
	_ = plotCmd.RegisterFlagCompletionFunc("posthoc", completePostHoc)

	diagnoseDesign.register(diagnoseCmd)
	diagnoseCmd.Flags().Float64Var(&diagnoseAlpha, "alpha", core.DefaultAlpha, "Significance level")
	diagnoseCmd.Flags().BoolVar(&diagnosePlots, "plots", false, "Write residual figures")

	rootCmd.AddCommand(analyzeCmd, anovaCmd, assumptionsCmd, posthocCmd, unfoldCmd, plotCmd, diagnoseCmd)
}
