package models

// AnovaRow is one line of an analysis of variance table.
type AnovaRow struct {
	Term      string  `yaml:"term" json:"term"`
	DF        float64 `yaml:"df" json:"df"`
	SumSq     float64 `yaml:"sum_sq" json:"sum_sq"`
	MeanSq    float64 `yaml:"mean_sq" json:"mean_sq"`
	F         Stat    `yaml:"f" json:"f"`
	PValue    Stat    `yaml:"p_value" json:"p_value"`
	Signif    string  `yaml:"signif" json:"signif"`
	ErrorTerm string  `yaml:"error_term,omitempty" json:"error_term,omitempty"`
	// Residual marks error strata (the model residual and, for split-plot
	// layouts, whole-plot error).
	Residual bool `yaml:"residual,omitempty" json:"residual,omitempty"`
}

// AnovaTable is the full decomposition for a fitted design.
type AnovaTable struct {
	Design    DesignKind `yaml:"design" json:"design"`
	Formula   string     `yaml:"formula" json:"formula"`
	Response  string     `yaml:"response" json:"response"`
	Rows      []AnovaRow `yaml:"rows" json:"rows"`
	GrandMean float64    `yaml:"grand_mean" json:"grand_mean"`
	CV        Stat       `yaml:"cv" json:"cv"`
	N         int        `yaml:"n" json:"n"`
}

// Row returns the row for the named term, or nil.
func (t *AnovaTable) Row(term string) *AnovaRow {
	for i := range t.Rows {
		if t.Rows[i].Term == term {
			return &t.Rows[i]
		}
	}
	return nil
}

// HypothesisTest reports a single test of a null hypothesis.
type HypothesisTest struct {
	Name       string `yaml:"name" json:"name"`
	H0         string `yaml:"h0" json:"h0"`
	H1         string `yaml:"h1" json:"h1"`
	Statistic  Stat   `yaml:"statistic" json:"statistic"`
	PValue     Stat   `yaml:"p_value" json:"p_value"`
	Rejected   bool   `yaml:"rejected" json:"rejected"`
	Conclusion string `yaml:"conclusion" json:"conclusion"`
}

// AssumptionReport holds the residual checks behind an ANOVA.
type AssumptionReport struct {
	Alpha            float64        `yaml:"alpha" json:"alpha"`
	Normality        HypothesisTest `yaml:"normality" json:"normality"`
	Homoscedasticity HypothesisTest `yaml:"homoscedasticity" json:"homoscedasticity"`
}

// Holds reports whether neither assumption was rejected.
func (r *AssumptionReport) Holds() bool {
	return !r.Normality.Rejected && !r.Homoscedasticity.Rejected
}
