package render

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Polynomial renders the fitted equation, R² values and the sequential
// ANOVA of a polynomial regression.
func (r *Renderer) Polynomial(fit models.PolynomialFit) string {
	tbl := newTable("Source", "DF", "Sum Sq", "Mean Sq", "F", "Pr(>F)", "")
	for _, row := range fit.Anova {
		tbl.Row(r.anovaCells(row)[:7]...)
	}
	if fit.LackOfFit != nil {
		tbl.Row(r.anovaCells(*fit.LackOfFit)[:7]...)
	}
	return section(
		title(fmt.Sprintf("Polynomial regression of %s on %s (degree %d)", fit.Response, fit.Predictor, fit.Degree)),
		r.Equation(fit),
		fmt.Sprintf("R² = %s   adjusted R² = %s", r.Number(fit.R2, 4), r.Number(fit.AdjR2, 4)),
		tbl.String(),
	)
}

// Equation writes the fitted polynomial, e.g. "y = 2.0225 + 0.4925x".
func (r *Renderer) Equation(fit models.PolynomialFit) string {
	var b strings.Builder
	b.WriteString(fit.Response + " = ")
	for i, c := range fit.Coefficients {
		mag := c
		if i > 0 {
			if c < 0 {
				b.WriteString(" - ")
				mag = -c
			} else {
				b.WriteString(" + ")
			}
		}
		b.WriteString(r.Number(mag, 4))
		switch {
		case i == 1:
			b.WriteString(fit.Predictor)
		case i > 1:
			fmt.Fprintf(&b, "%s^%d", fit.Predictor, i)
		}
	}
	return b.String()
}

// Diagnostics renders residual diagnostics of a fitted model. Observations
// with Cook's distance above 4/n are listed.
func (r *Renderer) Diagnostics(d models.RegressionDiagnostics) string {
	bp := d.BreuschPagan
	tbl := newTable("Test", "Statistic", "p-value")
	tbl.Row("Shapiro-Wilk", r.Stat(d.Shapiro.Statistic, 4), r.PValue(d.Shapiro.PValue))
	tbl.Row("Breusch-Pagan LM", r.Stat(bp.LM, 4), r.PValue(bp.LMPValue))
	tbl.Row("Breusch-Pagan F", r.Stat(bp.F, 4), r.PValue(bp.FPValue))
	tbl.Row("Durbin-Watson", r.Stat(d.DurbinWatson, 4), "-")

	parts := []string{title("Residual diagnostics"), tbl.String()}
	if n := len(d.CooksDistance); n > 0 {
		cut := 4 / float64(n)
		var flagged []string
		for i, c := range d.CooksDistance {
			if !c.IsNaN() && c.Float() > cut {
				flagged = append(flagged, fmt.Sprintf("#%d (%s)", i+1, r.Stat(c, 3)))
			}
		}
		if len(flagged) > 0 {
			parts = append(parts, note(fmt.Sprintf("Influential observations (Cook's D > %s): %s",
				r.Number(cut, 3), strings.Join(flagged, ", "))))
		}
	}
	return section(parts...)
}
