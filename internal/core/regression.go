package core

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Polynomial is a fitted polynomial regression of a response on one
// quantitative factor.
type Polynomial struct {
	models.PolynomialFit
	x      []float64
	y      []float64
	matrix *mat.Dense
	fit    *lsFit
}

// PolynomialRegression fits y = b0 + b1 x + ... + bd x^d by least squares
// and builds the sequential ANOVA of its power terms.
func PolynomialRegression(x, y []float64, degree int) (*Polynomial, error) {
	if degree < 1 {
		return nil, fmt.Errorf("polynomial regression: degree must be at least 1, got %d", degree)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("polynomial regression: %d x values for %d responses", len(x), len(y))
	}
	n := len(y)
	if n <= degree+1 {
		return nil, fmt.Errorf("polynomial regression: %w: %d observations for degree %d", ErrInsufficientData, n, degree)
	}
	levels := distinct(x)
	if len(levels) <= degree {
		return nil, fmt.Errorf("polynomial regression: %w: %d distinct x values for degree %d", ErrInsufficientData, len(levels), degree)
	}
	sst := sumSquares(y)
	if sst == 0 {
		return nil, fmt.Errorf("polynomial regression: response is constant")
	}

	powers := make([][]float64, degree)
	for d := range powers {
		powers[d] = make([]float64, n)
		for i, v := range x {
			powers[d][i] = math.Pow(v, float64(d+1))
		}
	}

	design := withIntercept(n, powers)
	full, err := project(y, design)
	if err != nil {
		return nil, fmt.Errorf("polynomial regression: %w", err)
	}
	p := &Polynomial{x: append([]float64(nil), x...), y: append([]float64(nil), y...), matrix: design, fit: full}
	p.Degree = degree
	p.Coefficients = append([]float64(nil), full.coef...)
	p.R2 = 1 - full.rss/sst
	dfResid := float64(n - full.rank)
	p.AdjR2 = 1 - (1-p.R2)*float64(n-1)/dfResid
	mse := full.rss / dfResid

	prevRSS := sst
	prevRank := 1
	for d := 1; d <= degree; d++ {
		sub, err := project(y, withIntercept(n, powers[:d]))
		if err != nil {
			return nil, fmt.Errorf("polynomial regression: %w", err)
		}
		ss := cleanZero(prevRSS-sub.rss, sst)
		df := float64(sub.rank - prevRank)
		row := models.AnovaRow{Term: powerTerm(d), DF: df, SumSq: ss}
		if df > 0 {
			row.MeanSq = ss / df
		}
		f, pv := fTest(row.MeanSq, df, mse, dfResid)
		row.F, row.PValue, row.Signif = models.Stat(f), models.Stat(pv), SignifMarker(pv)
		p.Anova = append(p.Anova, row)
		prevRSS, prevRank = sub.rss, sub.rank
	}
	p.Anova = append(p.Anova, models.AnovaRow{
		Term: ResidualTerm, DF: dfResid, SumSq: full.rss, MeanSq: mse,
		F: models.NaN(), PValue: models.NaN(), Residual: true,
	})
	p.LackOfFit = lackOfFit(x, y, full.rss, dfResid)
	return p, nil
}

// FitPolynomial runs PolynomialRegression on two numeric dataset columns.
func FitPolynomial(ds *models.Dataset, predictor, response string, degree int) (*Polynomial, error) {
	x, y, err := numericColumns(ds, predictor, response)
	if err != nil {
		return nil, fmt.Errorf("polynomial regression: %w", err)
	}
	p, err := PolynomialRegression(x, y, degree)
	if err != nil {
		return nil, err
	}
	p.Predictor, p.Response = predictor, response
	return p, nil
}

// Predict evaluates the fitted polynomial at x.
func (p *Polynomial) Predict(x float64) float64 {
	res := 0.0
	for i := len(p.Coefficients) - 1; i >= 0; i-- {
		res = res*x + p.Coefficients[i]
	}
	return res
}

// X returns the predictor values used in the fit.
func (p *Polynomial) X() []float64 { return append([]float64(nil), p.x...) }

// Y returns the response values used in the fit.
func (p *Polynomial) Y() []float64 { return append([]float64(nil), p.y...) }

// Diagnostics runs residual diagnostics on the regression.
func (p *Polynomial) Diagnostics(alpha float64) models.RegressionDiagnostics {
	return diagnose(p.fit, p.matrix, alpha)
}

func powerTerm(d int) string {
	if d == 1 {
		return "x"
	}
	return fmt.Sprintf("x^%d", d)
}

// lackOfFit splits the residual into pure error (replicates at equal x) and
// lack of fit. It returns nil when x has no replicated levels or the model
// saturates the levels.
func lackOfFit(x, y []float64, rss, dfResid float64) *models.AnovaRow {
	byX := make(map[float64][]float64)
	for i, v := range x {
		byX[v] = append(byX[v], y[i])
	}
	m := len(byX)
	n := len(y)
	dfPure := float64(n - m)
	dfLOF := dfResid - dfPure
	if dfPure <= 0 || dfLOF <= 0 {
		return nil
	}
	var ssPure float64
	for _, vs := range byX {
		ssPure += sumSquares(vs)
	}
	ssLOF := rss - ssPure
	if ssLOF < 0 {
		ssLOF = 0
	}
	row := &models.AnovaRow{
		Term:      "Lack of fit",
		DF:        dfLOF,
		SumSq:     ssLOF,
		MeanSq:    ssLOF / dfLOF,
		ErrorTerm: "Pure error",
	}
	f, pv := fTest(row.MeanSq, dfLOF, ssPure/dfPure, dfPure)
	row.F, row.PValue, row.Signif = models.Stat(f), models.Stat(pv), SignifMarker(pv)
	return row
}

func distinct(xs []float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, v := range xs {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// numericColumns parses two columns of ds pairwise, skipping rows where
// either cell is missing.
func numericColumns(ds *models.Dataset, xcol, ycol string) ([]float64, []float64, error) {
	if ds == nil {
		return nil, nil, ErrInsufficientData
	}
	xi, yi := ds.ColumnIndex(xcol), ds.ColumnIndex(ycol)
	if xi < 0 {
		return nil, nil, fmt.Errorf("column %q not found", xcol)
	}
	if yi < 0 {
		return nil, nil, fmt.Errorf("column %q not found", ycol)
	}
	var xs, ys []float64
	for r, row := range ds.Rows {
		if xi >= len(row) || yi >= len(row) || isMissing(row[xi]) || isMissing(row[yi]) {
			continue
		}
		x, err := parseNumber(row[xi])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %q is not numeric", r+1, row[xi])
		}
		y, err := parseNumber(row[yi])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %q is not numeric", r+1, row[yi])
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, nil
}
