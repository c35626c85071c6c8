package core

import (
	"math"
	"sort"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// duncanTest is Duncan's new multiple range test. A pair of means that spans
// r ordered means is tested at protection level 1-(1-alpha)^(r-1).
type duncanTest struct{}

func (duncanTest) Method() models.PostHocMethod { return models.PostHocDuncan }

func (t duncanTest) Run(s Samples, opts PostHocOptions) (*models.PostHocResult, error) {
	p, err := preparePostHoc(s, opts)
	if err != nil {
		return nil, err
	}

	rank := make(map[string]int, len(p.groups))
	byMean := append([]groupStat(nil), p.groups...)
	sort.SliceStable(byMean, func(i, j int) bool { return byMean[i].mean < byMean[j].mean })
	for i, g := range byMean {
		rank[g.label] = i
	}

	var cmp []models.Comparison
	for i := 0; i < len(p.groups); i++ {
		for j := i + 1; j < len(p.groups); j++ {
			a, b := p.groups[i], p.groups[j]
			diff := b.mean - a.mean
			se := p.stdErr(a, b)
			span := math.Abs(float64(rank[a.label]-rank[b.label])) + 1

			pv := 1.0
			if se == 0 {
				if diff != 0 {
					pv = 0
				}
			} else {
				cdf := Ptukey(math.Abs(diff)/se, span, p.df)
				pv = clampProb(1 - math.Pow(cdf, 1/(span-1)))
			}
			crit := Qtukey(math.Pow(1-p.alpha, span-1), span, p.df)
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
