package core

import (
	"math"

	"github.com/valter-silva-au/expdes/pkg/models"
)

const (
	conclusionNotRejected = "H0 not rejected"
	conclusionRejected    = "H0 rejected"
	conclusionNotComputed = "not computed"
)

// hypothesis fills a HypothesisTest from a statistic and p-value. A failed
// computation yields NaN values and a "not computed" conclusion.
func hypothesis(name, h0, h1 string, stat, p float64, alpha float64, err error) models.HypothesisTest {
	t := models.HypothesisTest{Name: name, H0: h0, H1: h1}
	if err != nil || math.IsNaN(p) {
		t.Statistic, t.PValue = models.NaN(), models.NaN()
		t.Conclusion = conclusionNotComputed
		return t
	}
	t.Statistic, t.PValue = models.Stat(stat), models.Stat(p)
	t.Rejected = p < alpha
	if t.Rejected {
		t.Conclusion = conclusionRejected
	} else {
		t.Conclusion = conclusionNotRejected
	}
	return t
}

// ShapiroTest wraps ShapiroWilk as a HypothesisTest.
func ShapiroTest(sample []float64, alpha float64) models.HypothesisTest {
	w, p, err := ShapiroWilk(sample)
	return hypothesis("normality (Shapiro-Wilk)",
		"residuals are normally distributed",
		"residuals are not normally distributed",
		w, p, alpha, err)
}

// CheckAssumptions tests the residuals of fit for normality and the response
// for equal variances across the design's treatment cells.
func CheckAssumptions(fit *Fit, alpha float64) (*models.AssumptionReport, error) {
	if fit == nil {
		return nil, ErrNotFitted
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}

	report := &models.AssumptionReport{Alpha: alpha}
	report.Normality = ShapiroTest(fit.full.residuals, alpha)

	labels := fit.frame.cellLabels(fit.design.groups)
	gs := groupValues(labels, fit.frame.y)
	samples := make([][]float64, len(gs))
	for i, g := range gs {
		samples[i] = g.values
	}
	stat, p, err := Levene(samples)
	report.Homoscedasticity = hypothesis("homoscedasticity (Levene)",
		"group variances are equal",
		"at least one group variance differs",
		stat, p, alpha, err)
	return report, nil
}
