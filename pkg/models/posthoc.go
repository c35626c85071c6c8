package models

// PostHocMethod names a multiple-comparison procedure.
type PostHocMethod string

const (
	PostHocTukey      PostHocMethod = "tukey"
	PostHocDuncan     PostHocMethod = "duncan"
	PostHocScottKnott PostHocMethod = "scottknott"
	PostHocTTest      PostHocMethod = "ttest"
)

// Comparison is one pairwise contrast between group means.
type Comparison struct {
	Group1   string  `yaml:"group1" json:"group1"`
	Group2   string  `yaml:"group2" json:"group2"`
	MeanDiff float64 `yaml:"meandiff" json:"meandiff"`
	PValue   Stat    `yaml:"p_value" json:"p_value"`
	Lower    Stat    `yaml:"lower" json:"lower"`
	Upper    Stat    `yaml:"upper" json:"upper"`
	Reject   bool    `yaml:"reject" json:"reject"`
}

// GroupMean is a treatment level together with its letters.
type GroupMean struct {
	Group   string  `yaml:"group" json:"group"`
	Mean    float64 `yaml:"mean" json:"mean"`
	N       int     `yaml:"n" json:"n"`
	Max     float64 `yaml:"max" json:"max"`
	Letters string  `yaml:"letters" json:"letters"`
}

// PostHocResult is the outcome of a post-hoc procedure over one factor.
// Groups are sorted by mean, highest first.
type PostHocResult struct {
	Method      PostHocMethod `yaml:"method" json:"method"`
	Factor      string        `yaml:"factor" json:"factor"`
	Alpha       float64       `yaml:"alpha" json:"alpha"`
	MSE         float64       `yaml:"mse" json:"mse"`
	DF          float64       `yaml:"df" json:"df"`
	Comparisons []Comparison  `yaml:"comparisons,omitempty" json:"comparisons,omitempty"`
	Groups      []GroupMean   `yaml:"groups" json:"groups"`
}

// Letters returns the group -> letters mapping.
func (r PostHocResult) Letters() map[string]string {
	out := make(map[string]string, len(r.Groups))
	for _, g := range r.Groups {
		out[g.Group] = g.Letters
	}
	return out
}

// SliceAnalysis is the analysis of one factor within a fixed level of
// another factor of a factorial experiment.
type SliceAnalysis struct {
	Factor  string         `yaml:"factor" json:"factor"`
	Within  string         `yaml:"within" json:"within"`
	Level   string         `yaml:"level" json:"level"`
	Anova   AnovaRow       `yaml:"anova" json:"anova"`
	PostHoc *PostHocResult `yaml:"posthoc,omitempty" json:"posthoc,omitempty"`
	Error   string         `yaml:"error,omitempty" json:"error,omitempty"`
}

// UnfoldResult is the breakdown of a factorial ANOVA: sliced analyses for
// significant interactions and post-hoc tests for lone main effects.
type UnfoldResult struct {
	Anova        AnovaTable               `yaml:"anova" json:"anova"`
	Interactions map[string]SliceAnalysis `yaml:"interactions,omitempty" json:"interactions,omitempty"`
	MainEffects  map[string]PostHocResult `yaml:"main_effects,omitempty" json:"main_effects,omitempty"`
}
