package models

// PolynomialFit is a least-squares polynomial in one quantitative factor.
type PolynomialFit struct {
	Predictor    string     `yaml:"predictor" json:"predictor"`
	Response     string     `yaml:"response" json:"response"`
	Degree       int        `yaml:"degree" json:"degree"`
	Coefficients []float64  `yaml:"coefficients" json:"coefficients"`
	R2           float64    `yaml:"r2" json:"r2"`
	AdjR2        float64    `yaml:"adj_r2" json:"adj_r2"`
	Anova        []AnovaRow `yaml:"anova" json:"anova"`
	LackOfFit    *AnovaRow  `yaml:"lack_of_fit,omitempty" json:"lack_of_fit,omitempty"`
}

// BreuschPagan is the LM and F forms of the Breusch-Pagan test.
type BreuschPagan struct {
	LM       Stat `yaml:"lm_stat" json:"lm_stat"`
	LMPValue Stat `yaml:"lm_pvalue" json:"lm_pvalue"`
	F        Stat `yaml:"f_stat" json:"f_stat"`
	FPValue  Stat `yaml:"f_pvalue" json:"f_pvalue"`
}

// RegressionDiagnostics are residual checks on a fitted linear model.
type RegressionDiagnostics struct {
	Shapiro              HypothesisTest `yaml:"shapiro" json:"shapiro"`
	BreuschPagan         BreuschPagan   `yaml:"breusch_pagan" json:"breusch_pagan"`
	DurbinWatson         Stat           `yaml:"durbin_watson" json:"durbin_watson"`
	CooksDistance        []Stat         `yaml:"cooks_distance" json:"cooks_distance"`
	StandardizedResidual []Stat         `yaml:"standardized_residuals" json:"standardized_residuals"`
}
