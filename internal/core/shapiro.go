package core

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Royston's polynomial coefficients for the Shapiro-Wilk weights and the
// normalising transformation of W.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
)

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	res := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		res = res*x + c[i]
	}
	return res
}

// ShapiroWilk returns the W statistic and p-value for a sample using
// Royston's (1995) approximation. It accepts 3 <= n <= 5000.
func ShapiroWilk(sample []float64) (w, p float64, err error) {
	n := len(sample)
	if n < 3 {
		return math.NaN(), math.NaN(), fmt.Errorf("shapiro-wilk: %w: need at least 3 observations, got %d", ErrInsufficientData, n)
	}
	if n > 5000 {
		return math.NaN(), math.NaN(), fmt.Errorf("shapiro-wilk: sample size %d exceeds 5000", n)
	}
	x := append([]float64(nil), sample...)
	sort.Float64s(x)
	rng := x[n-1] - x[0]
	if rng < 1e-10*math.Max(math.Abs(x[n-1]), 1) {
		return math.NaN(), math.NaN(), fmt.Errorf("shapiro-wilk: all observations are identical")
	}

	a := shapiroWeights(n)
	ss := sumSquares(x)
	var num float64
	for i := 0; i < n/2; i++ {
		num += a[i] * (x[n-1-i] - x[i])
	}
	w = num * num / ss
	if w > 1 {
		w = 1
	}

	switch {
	case n == 3:
		const stqr = 1.0471975511965976 // pi/3
		p = 6 / math.Pi * (math.Asin(math.Sqrt(w)) - stqr)
		if p < 0 {
			p = 0
		}
		return w, p, nil
	case w >= 1:
		return w, 1, nil
	}

	w1 := math.Log(1 - w)
	fn := float64(n)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly([]float64{-2.273, 0.459}, fn)
		if w1 >= gamma {
			return w, 1e-99, nil
		}
		w1 = -math.Log(gamma - w1)
		mu = poly(swC3, fn)
		sigma = math.Exp(poly(swC4, fn))
	} else {
		xx := math.Log(fn)
		mu = poly(swC5, xx)
		sigma = math.Exp(poly(swC6, xx))
	}
	p = distuv.UnitNormal.Survival((w1 - mu) / sigma)
	return w, p, nil
}

// shapiroWeights returns the first n/2 coefficients a_i, applied to
// x_(n+1-i) - x_(i).
func shapiroWeights(n int) []float64 {
	nn2 := n / 2
	a := make([]float64, nn2)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}
	fn := float64(n)
	an25 := fn + 0.25
	m := make([]float64, nn2)
	var summ2 float64
	for i := 0; i < nn2; i++ {
		m[i] = -distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / an25)
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(fn)
	a1 := poly(swC1, rsn) + m[0]/ssumm2

	var i1 int
	var fac float64
	if n > 5 {
		i1 = 2
		a2 := poly(swC2, rsn) + m[1]/ssumm2
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		i1 = 1
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := i1; i < nn2; i++ {
		a[i] = m[i] / fac
	}
	return a
}
