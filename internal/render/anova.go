package render

import (
	"fmt"
	"sort"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Anova renders an ANOVA table with its formula, grand mean and CV.
func (r *Renderer) Anova(t *models.AnovaTable) string {
	tbl := newTable("Source", "DF", "Sum Sq", "Mean Sq", "F", "Pr(>F)", "", "Error")
	for _, row := range t.Rows {
		tbl.Row(r.anovaCells(row)...)
	}
	footer := fmt.Sprintf("n = %s   mean = %s   CV = %s%%",
		r.Integer(t.N), r.Number(t.GrandMean, 4), r.Stat(t.CV, 2))
	return section(
		title(fmt.Sprintf("Analysis of variance (%s)", t.Design)),
		note(t.Formula),
		tbl.String(),
		footer,
		note("Signif. codes: *** 0.001  ** 0.01  * 0.05  ns"),
	)
}

func (r *Renderer) anovaCells(row models.AnovaRow) []string {
	return []string{
		row.Term,
		r.Number(row.DF, dfDecimals(row.DF)),
		r.Number(row.SumSq, 4),
		r.Number(row.MeanSq, 4),
		r.Stat(row.F, 4),
		r.PValue(row.PValue),
		row.Signif,
		row.ErrorTerm,
	}
}

// dfDecimals prints whole degrees of freedom without decimals.
func dfDecimals(df float64) int {
	if df == float64(int64(df)) {
		return 0
	}
	return 2
}

// Assumptions renders the residual normality and variance checks.
func (r *Renderer) Assumptions(a *models.AssumptionReport) string {
	tbl := newTable("Test", "Statistic", "p-value", "Decision", "Conclusion")
	for _, h := range []models.HypothesisTest{a.Normality, a.Homoscedasticity} {
		tbl.Row(h.Name, r.Stat(h.Statistic, 4), r.PValue(h.PValue), decision(h), h.Conclusion)
	}
	return section(
		title(fmt.Sprintf("Model assumptions (alpha = %s)", r.Number(a.Alpha, 2))),
		tbl.String(),
	)
}

func decision(h models.HypothesisTest) string {
	if h.PValue.IsNaN() {
		return "-"
	}
	if h.Rejected {
		return rejectStyle.Render("reject H0")
	}
	return acceptStyle.Render("keep H0")
}

// Unfold renders an interaction breakdown: the factorial ANOVA, one row per
// slice and the post-hoc groups of each slice and lone main effect.
func (r *Renderer) Unfold(u *models.UnfoldResult) string {
	parts := []string{r.Anova(&u.Anova)}
	if len(u.Interactions) == 0 && len(u.MainEffects) == 0 {
		parts = append(parts, note("No significant effects to unfold."))
		return section(parts...)
	}

	keys := make([]string, 0, len(u.Interactions))
	for k := range u.Interactions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		tbl := newTable("Slice", "DF", "Sum Sq", "Mean Sq", "F", "Pr(>F)", "")
		for _, k := range keys {
			sa := u.Interactions[k]
			cells := r.anovaCells(sa.Anova)
			cells[0] = k
			tbl.Row(cells[:7]...)
		}
		parts = append(parts, title("Interaction slices"), tbl.String())
		for _, k := range keys {
			sa := u.Interactions[k]
			switch {
			case sa.Error != "":
				parts = append(parts, note(fmt.Sprintf("%s: %s", k, sa.Error)))
			case sa.PostHoc != nil:
				parts = append(parts, r.groups(k, sa.PostHoc))
			}
		}
	}

	factors := make([]string, 0, len(u.MainEffects))
	for f := range u.MainEffects {
		factors = append(factors, f)
	}
	sort.Strings(factors)
	for _, f := range factors {
		res := u.MainEffects[f]
		parts = append(parts, r.PostHoc(&res))
	}
	return section(parts...)
}
