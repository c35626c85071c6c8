package core

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Diagnose runs residual diagnostics on a fitted design.
func Diagnose(fit *Fit, alpha float64) (*models.RegressionDiagnostics, error) {
	if fit == nil {
		return nil, ErrNotFitted
	}
	d := diagnose(fit.full, modelMatrix(fit.frame, fit.design.terms), alpha)
	return &d, nil
}

func diagnose(fit *lsFit, x *mat.Dense, alpha float64) models.RegressionDiagnostics {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	e := fit.residuals
	n := len(e)
	dfResid := float64(n - fit.rank)
	mse := fit.rss / dfResid

	out := models.RegressionDiagnostics{
		Shapiro:              ShapiroTest(e, alpha),
		BreuschPagan:         breuschPagan(e, x),
		DurbinWatson:         models.Stat(durbinWatson(e)),
		CooksDistance:        make([]models.Stat, n),
		StandardizedResidual: make([]models.Stat, n),
	}
	for i := range e {
		h := fit.leverage[i]
		if h >= 1-1e-10 || mse <= 0 {
			out.CooksDistance[i] = models.NaN()
			out.StandardizedResidual[i] = models.NaN()
			continue
		}
		r := e[i] / math.Sqrt(mse*(1-h))
		out.StandardizedResidual[i] = models.Stat(r)
		out.CooksDistance[i] = models.Stat(r * r / float64(fit.rank) * h / (1 - h))
	}
	return out
}

// breuschPagan regresses squared residuals on the model matrix. LM = n R^2
// is compared with chi-square(k-1); the F form uses (k-1, n-k) df.
func breuschPagan(e []float64, x *mat.Dense) models.BreuschPagan {
	bp := models.BreuschPagan{LM: models.NaN(), LMPValue: models.NaN(), F: models.NaN(), FPValue: models.NaN()}
	n := len(e)
	e2 := make([]float64, n)
	for i, v := range e {
		e2[i] = v * v
	}
	sst := sumSquares(e2)
	// Constant squared residuals leave only round-off in sst.
	if sst <= 1e-10*floats.Dot(e2, e2) {
		return bp
	}
	aux, err := project(e2, x)
	if err != nil || aux.rank < 2 {
		return bp
	}
	r2 := 1 - aux.rss/sst
	k := float64(aux.rank)
	lm := float64(n) * r2
	bp.LM = models.Stat(lm)
	bp.LMPValue = models.Stat(distuv.ChiSquared{K: k - 1}.Survival(lm))

	dfDen := float64(n) - k
	if dfDen > 0 && r2 < 1 {
		f := (r2 / (k - 1)) / ((1 - r2) / dfDen)
		bp.F = models.Stat(f)
		bp.FPValue = models.Stat(distuv.F{D1: k - 1, D2: dfDen}.Survival(f))
	}
	return bp
}

func durbinWatson(e []float64) float64 {
	den := floats.Dot(e, e)
	if len(e) < 2 || den == 0 {
		return math.NaN()
	}
	d := floats.Distance(e[1:], e[:len(e)-1], 2)
	return d * d / den
}
