package core

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// tTest runs unadjusted two-sample t-tests between every pair of groups.
// Variances come from the pair itself, so the model MSE is not used.
type tTest struct{}

func (tTest) Method() models.PostHocMethod { return models.PostHocTTest }

func (t tTest) Run(s Samples, opts PostHocOptions) (*models.PostHocResult, error) {
	p, err := preparePostHoc(s, opts)
	if err != nil {
		return nil, err
	}

	var cmp []models.Comparison
	for i := 0; i < len(p.groups); i++ {
		for j := i + 1; j < len(p.groups); j++ {
			a, b := p.groups[i], p.groups[j]
			diff := b.mean - a.mean
			se, df := pairStdErr(a, b, opts.Welch)

			c := models.Comparison{Group1: a.label, Group2: b.label, MeanDiff: diff}
			switch {
			case math.IsNaN(se) || df <= 0:
				c.PValue, c.Lower, c.Upper = models.NaN(), models.NaN(), models.NaN()
			case se == 0:
				pv := 1.0
				if diff != 0 {
					pv = 0
				}
				c.PValue, c.Lower, c.Upper = models.Stat(pv), models.Stat(diff), models.Stat(diff)
			default:
				dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
				pv := clampProb(2 * dist.Survival(math.Abs(diff)/se))
				crit := dist.Quantile(1 - p.alpha/2)
				c.PValue = models.Stat(pv)
				c.Lower, c.Upper = models.Stat(diff-crit*se), models.Stat(diff+crit*se)
			}
			c.Reject = !c.PValue.IsNaN() && c.PValue.Float() < p.alpha
			cmp = append(cmp, c)
		}
	}
	return p.result(t.Method(), s, cmp, opts)
}

// pairStdErr returns the standard error of the difference of two means and
// its degrees of freedom, pooled or by Welch-Satterthwaite.
func pairStdErr(a, b groupStat, welch bool) (float64, float64) {
	n1, n2 := float64(a.n), float64(b.n)
	if welch {
		if a.n < 2 || b.n < 2 {
			return math.NaN(), 0
		}
		v1, v2 := a.vari/n1, b.vari/n2
		se := math.Sqrt(v1 + v2)
		if se == 0 {
			return 0, n1 + n2 - 2
		}
		df := (v1 + v2) * (v1 + v2) / (v1*v1/(n1-1) + v2*v2/(n2-1))
		return se, df
	}
	df := n1 + n2 - 2
	if df <= 0 {
		return math.NaN(), 0
	}
	sp := ((n1-1)*a.vari + (n2-1)*b.vari) / df
	return math.Sqrt(sp * (1/n1 + 1/n2)), df
}
