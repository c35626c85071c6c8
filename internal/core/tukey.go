package core

import (
	"math"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// tukeyTest is Tukey's honestly significant difference, with the
// Tukey-Kramer standard error for unequal group sizes.
type tukeyTest struct{}

func (tukeyTest) Method() models.PostHocMethod { return models.PostHocTukey }

func (t tukeyTest) Run(s Samples, opts PostHocOptions) (*models.PostHocResult, error) {
	p, err := preparePostHoc(s, opts)
	if err != nil {
		return nil, err
	}
	k := float64(len(p.groups))
	crit := Qtukey(1-p.alpha, k, p.df)

	var cmp []models.Comparison
	for i := 0; i < len(p.groups); i++ {
		for j := i + 1; j < len(p.groups); j++ {
			a, b := p.groups[i], p.groups[j]
			diff := b.mean - a.mean
			se := p.stdErr(a, b)
			pv := rangePValue(math.Abs(diff), se, k, p.df)
			cmp = append(cmp, models.Comparison{
				Group1:   a.label,
				Group2:   b.label,
				MeanDiff: diff,
				PValue:   models.Stat(pv),
				Lower:    models.Stat(diff - crit*se),
				Upper:    models.Stat(diff + crit*se),
				Reject:   pv < p.alpha,
			})
		}
	}
	return p.result(t.Method(), s, cmp, opts)
}

// rangePValue is the upper-tail studentized range probability of a mean
// difference with standard error se.
func rangePValue(absDiff, se, nmeans, df float64) float64 {
	if se == 0 {
		if absDiff == 0 {
			return 1
		}
		return 0
	}
	return clampProb(1 - Ptukey(absDiff/se, nmeans, df))
}
