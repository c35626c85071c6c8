package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// UnfoldInteractions runs the ANOVA of a multi-factor design and breaks down
// its significant two-factor interactions. For an interaction A:B each
// factor is analysed within every level of the other, against the model
// error. Factors outside any significant interaction but with a significant
// main effect get a post-hoc test on their marginal means.
func UnfoldInteractions(fit *Fit, test PostHocTest, opts PostHocOptions) (*models.UnfoldResult, error) {
	if fit == nil {
		return nil, fmt.Errorf("unfolding interactions: %w", ErrNotFitted)
	}
	if test == nil {
		return nil, fmt.Errorf("unfolding interactions: %w: nil test", ErrUnknownPostHoc)
	}
	table, err := RunAnova(fit)
	if err != nil {
		return nil, fmt.Errorf("unfolding interactions: %w", err)
	}
	alpha := opts.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
		opts.Alpha = alpha
	}

	result := &models.UnfoldResult{
		Anova:        *table,
		Interactions: map[string]models.SliceAnalysis{},
		MainEffects:  map[string]models.PostHocResult{},
	}

	treatment := make(map[string]bool)
	for _, f := range fit.design.TreatmentFactors() {
		treatment[f] = true
	}
	involved := make(map[string]bool)

	for _, t := range fit.design.terms {
		if len(t.factors) != 2 || fit.design.strata[t.name()] {
			continue
		}
		a, b := t.factors[0], t.factors[1]
		if !treatment[a] || !treatment[b] {
			continue
		}
		row := table.Row(t.name())
		if row == nil || row.PValue.IsNaN() || row.PValue.Float() >= alpha {
			continue
		}
		involved[a], involved[b] = true, true
		for _, pair := range [][2]string{{a, b}, {b, a}} {
			within, factor := pair[0], pair[1]
			mse, df := sliceError(fit, table, within)
			for _, level := range fit.Levels(within) {
				key := fmt.Sprintf("%s within %s=%s", factor, within, level)
				result.Interactions[key] = analyseSlice(fit, test, opts, factor, within, level, mse, df)
			}
		}
	}

	for _, f := range fit.design.TreatmentFactors() {
		if involved[f] {
			continue
		}
		name := modelTerm{factors: []string{f}}.name()
		row := table.Row(name)
		if row == nil || row.PValue.IsNaN() || row.PValue.Float() >= alpha {
			continue
		}
		s, err := SamplesFromFit(fit, f)
		if err != nil {
			return nil, fmt.Errorf("unfolding interactions: %w", err)
		}
		mainOpts := opts
		mainOpts.MSE, mainOpts.DF = effectError(fit, table, name)
		res, err := test.Run(s, mainOpts)
		if err != nil {
			return nil, fmt.Errorf("unfolding interactions: post-hoc for %s: %w", f, err)
		}
		result.MainEffects[f] = *res
	}
	return result, nil
}

// effectError returns the error mean square and df a term is tested against.
func effectError(fit *Fit, table *models.AnovaTable, term string) (float64, float64) {
	if stratum, ok := fit.design.errorOf[term]; ok {
		if row := table.Row(stratum); row != nil && row.DF > 0 {
			return row.MeanSq, row.DF
		}
	}
	return fit.MSE(), fit.DFResid()
}

// sliceError returns the error used for comparisons within levels of
// within. Comparing whole-plot levels inside a sub-plot level mixes both
// strata, so the errors are pooled with Satterthwaite degrees of freedom.
func sliceError(fit *Fit, table *models.AnovaTable, within string) (float64, float64) {
	mse, df := fit.MSE(), fit.DFResid()
	spec := fit.design.spec
	if spec.Kind != models.DesignSplitPlotCRD && spec.Kind != models.DesignSplitPlotRCBD {
		return mse, df
	}
	if within != spec.SubPlot {
		return mse, df
	}
	mainTerm := modelTerm{factors: []string{spec.MainPlot}}.name()
	stratum, ok := fit.design.errorOf[mainTerm]
	if !ok {
		return mse, df
	}
	row := table.Row(stratum)
	if row == nil || row.DF <= 0 {
		return mse, df
	}
	s := float64(len(fit.Levels(spec.SubPlot)))
	ea, dfa := row.MeanSq, row.DF
	pooled := (ea + (s-1)*mse) / s
	num := (ea + (s-1)*mse) * (ea + (s-1)*mse)
	den := ea*ea/dfa + ((s-1)*mse)*((s-1)*mse)/df
	if den == 0 {
		return pooled, dfa + df
	}
	return pooled, num / den
}

// analyseSlice tests factor among the observations where within == level.
func analyseSlice(fit *Fit, test PostHocTest, opts PostHocOptions, factor, within, level string, mse, df float64) models.SliceAnalysis {
	sa := models.SliceAnalysis{Factor: factor, Within: within, Level: level}
	sa.Anova = models.AnovaRow{
		Term:   fmt.Sprintf("%s within %s=%s", modelTerm{factors: []string{factor}}.name(), within, level),
		F:      models.NaN(),
		PValue: models.NaN(),
	}

	withinLabels, _ := fit.Labels(within)
	factorLabels, _ := fit.Labels(factor)
	y := fit.frame.y
	var labels []string
	var values []float64
	for i := range y {
		if withinLabels[i] == level {
			labels = append(labels, factorLabels[i])
			values = append(values, y[i])
		}
	}

	groups := groupValues(labels, values)
	if len(groups) < 2 {
		sa.Error = fmt.Sprintf("%s has a single level within %s=%s", factor, within, level)
		return sa
	}
	m := stat.Mean(values, nil)
	var ss float64
	for _, g := range groups {
		ss += float64(g.n) * (g.mean - m) * (g.mean - m)
	}
	dfSlice := float64(len(groups) - 1)
	sa.Anova.DF = dfSlice
	sa.Anova.SumSq = ss
	sa.Anova.MeanSq = ss / dfSlice
	f, p := fTest(sa.Anova.MeanSq, dfSlice, mse, df)
	sa.Anova.F, sa.Anova.PValue = models.Stat(f), models.Stat(p)
	sa.Anova.Signif = SignifMarker(p)
	if math.IsNaN(p) {
		sa.Error = "F test not computable"
		return sa
	}

	sliceOpts := opts
	sliceOpts.MSE, sliceOpts.DF = mse, df
	res, err := test.Run(Samples{Factor: factor, Labels: labels, Values: values}, sliceOpts)
	if err != nil {
		sa.Error = err.Error()
		return sa
	}
	sa.PostHoc = res
	return sa
}
