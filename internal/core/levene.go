package core

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Levene performs the Brown-Forsythe variant of Levene's test: a one-way
// ANOVA on absolute deviations from each group's median.
func Levene(groups [][]float64) (w, p float64, err error) {
	k := len(groups)
	if k < 2 {
		return math.NaN(), math.NaN(), fmt.Errorf("levene: %w: need at least two groups, got %d", ErrInsufficientData, k)
	}

	z := make([][]float64, k)
	var total int
	for i, g := range groups {
		if len(g) == 0 {
			return math.NaN(), math.NaN(), fmt.Errorf("levene: group %d is empty", i)
		}
		med := median(g)
		z[i] = make([]float64, len(g))
		for j, v := range g {
			z[i][j] = math.Abs(v - med)
		}
		total += len(g)
	}
	if total <= k {
		return math.NaN(), math.NaN(), fmt.Errorf("levene: %w: every group has a single observation", ErrInsufficientData)
	}

	var grand float64
	for _, zi := range z {
		grand += floats.Sum(zi)
	}
	grand /= float64(total)

	var between, within float64
	for _, zi := range z {
		m := stat.Mean(zi, nil)
		between += float64(len(zi)) * (m - grand) * (m - grand)
		within += sumSquares(zi)
	}
	dfB := float64(k - 1)
	dfW := float64(total - k)
	if within == 0 {
		return math.NaN(), math.NaN(), fmt.Errorf("levene: zero within-group spread of deviations")
	}
	w = (between / dfB) / (within / dfW)
	return w, distuv.F{D1: dfB, D2: dfW}.Survival(w), nil
}

// median averages the two middle order statistics of an even-sized sample.
func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	if len(s)%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, s, nil)
	}
	n := float64(len(s))
	lo := stat.Quantile((n/2-0.5)/n, stat.Empirical, s, nil)
	hi := stat.Quantile((n/2+0.5)/n, stat.Empirical, s, nil)
	return (lo + hi) / 2
}
