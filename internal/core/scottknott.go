package core

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// scottKnottTest clusters ordered means into non-overlapping groups by
// recursive bipartition. It produces one letter per cluster and no pairwise
// comparisons.
type scottKnottTest struct{}

func (scottKnottTest) Method() models.PostHocMethod { return models.PostHocScottKnott }

func (t scottKnottTest) Run(s Samples, opts PostHocOptions) (*models.PostHocResult, error) {
	p, err := preparePostHoc(s, opts)
	if err != nil {
		return nil, err
	}

	ordered := append([]groupStat(nil), p.groups...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].mean > ordered[j].mean })
	means := make([]float64, len(ordered))
	for i, g := range ordered {
		means[i] = g.mean
	}

	// variance of a treatment mean
	s2 := p.mse / p.nh
	var clusters [][2]int
	var split func(lo, hi int)
	split = func(lo, hi int) {
		if hi-lo < 2 {
			clusters = append(clusters, [2]int{lo, hi})
			return
		}
		cut, pv := scottKnottCut(means[lo:hi], s2, p.df)
		if pv < p.alpha {
			split(lo, lo+cut)
			split(lo+cut, hi)
			return
		}
		clusters = append(clusters, [2]int{lo, hi})
	}
	split(0, len(means))

	letters := make(map[string]string, len(ordered))
	for ci, c := range clusters {
		for i := c[0]; i < c[1]; i++ {
			letters[ordered[i].label] = letterFor(ci)
		}
	}

	return &models.PostHocResult{
		Method: t.Method(),
		Factor: s.Factor,
		Alpha:  p.alpha,
		MSE:    p.mse,
		DF:     p.df,
		Groups: groupMeans(p.groups, letters),
	}, nil
}

// scottKnottCut finds the bipartition of descending means that maximises the
// between-group sum of squares and returns the size of the upper part with
// the p-value of the likelihood-ratio statistic.
func scottKnottCut(means []float64, s2, df float64) (int, float64) {
	g := len(means)
	total := 0.0
	for _, m := range means {
		total += m
	}
	grand := total / float64(g)

	best, bestB0 := 1, -1.0
	left := 0.0
	for k := 1; k < g; k++ {
		left += means[k-1]
		right := total - left
		b0 := left*left/float64(k) + right*right/float64(g-k) - total*total/float64(g)
		if b0 > bestB0 {
			best, bestB0 = k, b0
		}
	}

	var dev float64
	for _, m := range means {
		dev += (m - grand) * (m - grand)
	}
	sigma2 := (dev + df*s2) / (float64(g) + df)
	if sigma2 <= 0 {
		if bestB0 > 0 {
			return best, 0
		}
		return best, 1
	}
	lambda := math.Pi / (2 * (math.Pi - 2)) * bestB0 / sigma2
	chi := distuv.ChiSquared{K: float64(g) / (math.Pi - 2)}
	return best, chi.Survival(lambda)
}
