package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// ResidualTerm labels the model residual line of an ANOVA table.
const ResidualTerm = "Residual"

// SignifMarker maps a p-value to the usual significance code.
func SignifMarker(p float64) string {
	switch {
	case math.IsNaN(p):
		return ""
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return "ns"
	}
}

// fTest returns F and its upper-tail p-value. A zero error mean square gives
// F=+Inf and p=0 when the effect is non-zero.
func fTest(ms, dfNum, mse, dfDen float64) (float64, float64) {
	if dfNum <= 0 || dfDen <= 0 || math.IsNaN(mse) {
		return math.NaN(), math.NaN()
	}
	if mse <= 0 {
		if ms > 0 {
			return math.Inf(1), 0
		}
		return math.NaN(), math.NaN()
	}
	f := ms / mse
	return f, distuv.F{D1: dfNum, D2: dfDen}.Survival(f)
}

// RunAnova builds the Type II ANOVA table of a fitted design. For each term
// T the sum of squares is RSS(M0) - RSS(M0 + T), where M0 holds every term
// that does not contain T.
func RunAnova(fit *Fit) (*models.AnovaTable, error) {
	if fit == nil {
		return nil, fmt.Errorf("running anova: %w", ErrNotFitted)
	}
	d := fit.design
	scale := sumSquares(fit.frame.y)

	type partial struct {
		ss, df float64
	}
	partials := make(map[string]partial, len(d.terms))
	for _, t := range d.terms {
		var reduced []modelTerm
		for _, other := range d.terms {
			if other.name() == t.name() || other.contains(t) {
				continue
			}
			reduced = append(reduced, other)
		}
		without, err := fit.subfit(reduced)
		if err != nil {
			return nil, fmt.Errorf("running anova for %s: %w", t.name(), err)
		}
		with, err := fit.subfit(append(append([]modelTerm(nil), reduced...), t))
		if err != nil {
			return nil, fmt.Errorf("running anova for %s: %w", t.name(), err)
		}
		ss := cleanZero(without.rss-with.rss, scale)
		if ss < 0 {
			ss = 0
		}
		partials[t.name()] = partial{ss: ss, df: float64(with.rank - without.rank)}
	}

	mse := fit.MSE()
	dfResid := fit.DFResid()
	table := &models.AnovaTable{
		Design:    d.spec.Kind,
		Formula:   d.formula,
		Response:  d.spec.Response,
		GrandMean: fit.GrandMean(),
		N:         fit.N(),
	}
	table.CV = models.Stat(100 * math.Sqrt(mse) / table.GrandMean)

	for _, t := range d.terms {
		name := t.name()
		p := partials[name]
		row := models.AnovaRow{Term: name, DF: p.df, SumSq: p.ss}
		if p.df > 0 {
			row.MeanSq = p.ss / p.df
		}
		if d.strata[name] {
			row.Residual = true
			row.F, row.PValue = models.NaN(), models.NaN()
			table.Rows = append(table.Rows, row)
			continue
		}

		errMS, errDF := mse, dfResid
		if stratum, ok := d.errorOf[name]; ok {
			sp := partials[stratum]
			if sp.df > 0 {
				errMS, errDF = sp.ss/sp.df, sp.df
				row.ErrorTerm = stratum
			}
		}
		f, pv := fTest(row.MeanSq, p.df, errMS, errDF)
		row.F, row.PValue = models.Stat(f), models.Stat(pv)
		row.Signif = SignifMarker(pv)
		table.Rows = append(table.Rows, row)
	}

	table.Rows = append(table.Rows, models.AnovaRow{
		Term:     ResidualTerm,
		DF:       dfResid,
		SumSq:    fit.RSS(),
		MeanSq:   mse,
		F:        models.NaN(),
		PValue:   models.NaN(),
		Residual: true,
	})
	return table, nil
}
