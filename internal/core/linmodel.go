package core

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// modelTerm is a main effect or interaction between categorical factors.
type modelTerm struct {
	factors []string
}

// name renders the term the way model formulas print it: C(a):C(b).
func (t modelTerm) name() string {
	parts := make([]string, len(t.factors))
	for i, f := range t.factors {
		parts[i] = "C(" + f + ")"
	}
	return strings.Join(parts, ":")
}

// contains reports whether every factor of other is part of t.
func (t modelTerm) contains(other modelTerm) bool {
	for _, f := range other.factors {
		found := false
		for _, g := range t.factors {
			if f == g {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// columns returns one indicator column per observed cell of the term.
// Lower-order margins are spanned too; the SVD rank accounts for the overlap.
func (t modelTerm) columns(fr *frame) [][]float64 {
	labels := fr.cellLabels(t.factors)
	index := make(map[string]int)
	var cols [][]float64
	for i, l := range labels {
		j, ok := index[l]
		if !ok {
			j = len(cols)
			index[l] = j
			cols = append(cols, make([]float64, fr.n()))
		}
		cols[j][i] = 1
	}
	return cols
}

// lsFit is an ordinary least squares projection of the response onto the
// span of a model matrix.
type lsFit struct {
	rank      int
	fitted    []float64
	residuals []float64
	rss       float64
	leverage  []float64
	// coef are minimum-norm coefficients on the columns of the model matrix.
	coef []float64
}

// withIntercept builds a model matrix from a constant column plus cols.
func withIntercept(n int, cols [][]float64) *mat.Dense {
	x := mat.NewDense(n, len(cols)+1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, c := range cols {
			x.Set(i, j+1, c[i])
		}
	}
	return x
}

// project computes the orthogonal projection of y onto col(x) using a thin
// SVD. Rank is decided with the usual max(n,p)*eps*s0 tolerance.
func project(y []float64, x *mat.Dense) (*lsFit, error) {
	n, p := x.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("fitting least squares: SVD did not converge")
	}
	sv := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.0
	if len(sv) > 0 {
		tol = sv[0] * float64(max(n, p)) * 2.220446049250313e-16
	}
	rank := 0
	for _, s := range sv {
		if s > tol {
			rank++
		}
	}

	fit := &lsFit{
		rank:      rank,
		fitted:    make([]float64, n),
		residuals: make([]float64, n),
		leverage:  make([]float64, n),
		coef:      make([]float64, p),
	}
	for j := 0; j < rank; j++ {
		var proj float64
		for i := 0; i < n; i++ {
			proj += u.At(i, j) * y[i]
		}
		for i := 0; i < n; i++ {
			uij := u.At(i, j)
			fit.fitted[i] += uij * proj
			fit.leverage[i] += uij * uij
		}
		for k := 0; k < p; k++ {
			fit.coef[k] += v.At(k, j) * proj / sv[j]
		}
	}
	floats.SubTo(fit.residuals, y, fit.fitted)
	fit.rss = floats.Dot(fit.residuals, fit.residuals)
	if fit.rss < 1e-12*floats.Dot(y, y) {
		fit.rss = 0
	}
	return fit, nil
}

// modelMatrix stacks the intercept and the indicator columns of terms.
func modelMatrix(fr *frame, terms []modelTerm) *mat.Dense {
	var cols [][]float64
	for _, t := range terms {
		cols = append(cols, t.columns(fr)...)
	}
	return withIntercept(fr.n(), cols)
}

// modelFit fits the given terms of a frame.
func modelFit(fr *frame, terms []modelTerm) (*lsFit, error) {
	return project(fr.y, modelMatrix(fr, terms))
}

// sumSquares returns the centred total sum of squares.
func sumSquares(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	_, v := stat.MeanVariance(y, nil)
	return v * float64(len(y)-1)
}

// cleanZero maps tiny negative round-off to zero.
func cleanZero(v, scale float64) float64 {
	if math.Abs(v) <= 1e-10*math.Max(scale, 1) {
		return 0
	}
	return v
}
