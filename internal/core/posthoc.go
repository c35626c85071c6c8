package core

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// Samples is a response column split by the levels of one factor.
type Samples struct {
	Factor string
	Labels []string
	Values []float64
}

// PostHocOptions tune a post-hoc run. A zero MSE pools the within-group
// variance of the samples (df = N - k); callers holding a fitted model pass
// its residual MSE and df instead.
type PostHocOptions struct {
	Alpha float64
	MSE   float64
	DF    float64
	// Welch selects unequal-variance t-tests.
	Welch bool
	// Letters controls the compact letter display.
	Letters CLDOptions
}

// PostHocTest runs one multiple-comparison procedure.
type PostHocTest interface {
	Method() models.PostHocMethod
	Run(s Samples, opts PostHocOptions) (*models.PostHocResult, error)
}

// NewPostHoc returns the test registered under name. Names are
// case-insensitive; "sk" is accepted for Scott-Knott.
func NewPostHoc(name string) (PostHocTest, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(models.PostHocTukey), "hsd":
		return tukeyTest{}, nil
	case string(models.PostHocDuncan):
		return duncanTest{}, nil
	case string(models.PostHocScottKnott), "sk", "scott-knott":
		return scottKnottTest{}, nil
	case string(models.PostHocTTest), "t-test":
		return tTest{}, nil
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPostHoc, name, strings.Join(PostHocNames(), ", "))
}

// PostHocNames lists the registered method names.
func PostHocNames() []string {
	return []string{
		string(models.PostHocTukey),
		string(models.PostHocDuncan),
		string(models.PostHocScottKnott),
		string(models.PostHocTTest),
	}
}

// prepared is the shared state of a post-hoc run.
type prepared struct {
	// samples holds the complete cases the groups were built from.
	samples Samples
	groups  []groupStat
	alpha   float64
	mse     float64
	df      float64
	// harmonic mean of group sizes
	nh float64
}

func preparePostHoc(s Samples, opts PostHocOptions) (*prepared, error) {
	if len(s.Labels) != len(s.Values) {
		return nil, fmt.Errorf("post-hoc: %d labels for %d values", len(s.Labels), len(s.Values))
	}
	var labels []string
	var values []float64
	for i, v := range s.Values {
		if math.IsNaN(v) || isMissing(s.Labels[i]) {
			continue
		}
		labels = append(labels, s.Labels[i])
		values = append(values, v)
	}
	groups := groupValues(labels, values)
	if len(groups) < 2 {
		return nil, fmt.Errorf("post-hoc: %w: need at least two groups, got %d", ErrInsufficientData, len(groups))
	}

	p := &prepared{
		samples: Samples{Factor: s.Factor, Labels: labels, Values: values},
		groups:  groups,
		alpha:   opts.Alpha,
		mse:     opts.MSE,
		df:      opts.DF,
	}
	if p.alpha <= 0 || p.alpha >= 1 {
		p.alpha = DefaultAlpha
	}
	if p.mse <= 0 || p.df <= 0 {
		var ssw float64
		var n int
		for _, g := range groups {
			ssw += g.vari * float64(g.n-1)
			n += g.n
		}
		p.df = float64(n - len(groups))
		if p.df <= 0 {
			return nil, fmt.Errorf("post-hoc: %w: no within-group replication", ErrInsufficientData)
		}
		p.mse = ssw / p.df
	}

	var inv float64
	for _, g := range groups {
		inv += 1 / float64(g.n)
	}
	p.nh = float64(len(groups)) / inv
	return p, nil
}

// stdErr is the standard error of a difference of means on the
// studentized-range scale.
func (p *prepared) stdErr(a, b groupStat) float64 {
	return math.Sqrt(p.mse / 2 * (1/float64(a.n) + 1/float64(b.n)))
}

// result assembles the PostHocResult with letters from comparisons.
func (p *prepared) result(method models.PostHocMethod, s Samples, cmp []models.Comparison, opts PostHocOptions) (*models.PostHocResult, error) {
	letterOpts := opts.Letters
	letterOpts.Alpha = p.alpha
	if letterOpts.Order == "" {
		letterOpts.Order = OrderDescending
	}
	if letterOpts.Data == nil {
		letterOpts.Data = &p.samples
	}
	letters, err := AssignLetters(cmp, letterOpts)
	if err != nil {
		return nil, fmt.Errorf("assigning letters: %w", err)
	}
	return &models.PostHocResult{
		Method:      method,
		Factor:      s.Factor,
		Alpha:       p.alpha,
		MSE:         p.mse,
		DF:          p.df,
		Comparisons: cmp,
		Groups:      groupMeans(p.groups, letters),
	}, nil
}

// groupMeans lists groups by mean, highest first.
func groupMeans(groups []groupStat, letters map[string]string) []models.GroupMean {
	out := make([]models.GroupMean, len(groups))
	for i, g := range groups {
		out[i] = models.GroupMean{Group: g.label, Mean: g.mean, N: g.n, Max: g.max, Letters: letters[g.label]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}

func clampProb(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// SamplesFromFit extracts the response of fit grouped by factor.
func SamplesFromFit(fit *Fit, factor string) (Samples, error) {
	labels, err := fit.Labels(factor)
	if err != nil {
		return Samples{}, err
	}
	return Samples{Factor: factor, Labels: labels, Values: fit.Response()}, nil
}
