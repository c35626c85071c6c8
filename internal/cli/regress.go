package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/render"
	"github.com/valter-silva-au/expdes/pkg/models"
)

var (
	regressX           string
	regressY           string
	regressDegree      int
	regressAlpha       float64
	regressDiagnostics bool
	regressPlot        bool
)

type regressionOutput struct {
	Fit         models.PolynomialFit          `json:"fit"`
	Diagnostics *models.RegressionDiagnostics `json:"diagnostics,omitempty"`
	Plot        string                        `json:"plot,omitempty"`
}

var regressCmd = &cobra.Command{
	Use:   "regress <dataset|file.csv>",
	Short: "Fit a polynomial regression on a quantitative factor",
	Long: `Fit y = b0 + b1 x + ... + bd x^d by least squares and print the
equation, R², adjusted R² and the sequential ANOVA of each power. When x has
replicated levels the residual is split into lack of fit and pure error.

Examples:
  expdes regress doses.csv --x dose --y yield --degree 2
  expdes regress doses.csv --x dose --y yield --degree 2 --diagnostics --plot`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDatasets,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAnalyzer(); err != nil {
			return err
		}
		if regressX == "" || regressY == "" {
			return fmt.Errorf("--x and --y are required")
		}
		alpha, err := resolveAlpha(cmd, regressAlpha)
		if err != nil {
			return err
		}
		if regressPlot && Figures == nil {
			return fmt.Errorf("figure renderer not initialized")
		}
		ds, err := Analyzer.LoadDataset(args[0])
		if err != nil {
			return err
		}
		p, err := core.FitPolynomial(ds, regressX, regressY, regressDegree)
		if err != nil {
			return err
		}
		logger().Debug("polynomial fitted",
			zap.String("dataset", ds.Name),
			zap.Int("degree", p.Degree),
			zap.Float64("r2", p.R2),
		)

		out := regressionOutput{Fit: p.PolynomialFit}
		if regressDiagnostics {
			d := p.Diagnostics(alpha)
			out.Diagnostics = &d
		}
		if regressPlot {
			out.Plot, err = Figures.PolynomialPlot(ds.Name+"_"+regressY, p.X(), p.Y(), p.PolynomialFit)
			if err != nil {
				return fmt.Errorf("rendering polynomial plot: %w", err)
			}
		}
		return emit(cmd, out, func(r *render.Renderer) string {
			parts := []string{r.Polynomial(out.Fit)}
			if out.Diagnostics != nil {
				parts = append(parts, r.Diagnostics(*out.Diagnostics))
			}
			if out.Plot != "" {
				parts = append(parts, out.Plot)
			}
			return strings.Join(parts, "\n")
		})
	},
}

func init() {
	regressCmd.Flags().StringVar(&regressX, "x", "", "Quantitative predictor column")
	regressCmd.Flags().StringVar(&regressY, "y", "", "Response column")
	regressCmd.Flags().IntVar(&regressDegree, "degree", 1, "Polynomial degree")
	regressCmd.Flags().Float64Var(&regressAlpha, "alpha", core.DefaultAlpha, "Significance level for the diagnostics")
	regressCmd.Flags().BoolVar(&regressDiagnostics, "diagnostics", false, "Print residual diagnostics")
	regressCmd.Flags().BoolVar(&regressPlot, "plot", false, "Write the fitted curve figure")
	rootCmd.AddCommand(regressCmd)
}
