package core

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Design is an experimental layout resolved into model terms. Build one with
// NewDesign or a layout-specific constructor.
type Design struct {
	spec    models.DesignSpec
	formula string
	terms   []modelTerm
	// errorOf maps a term name to the stratum it is tested against. Terms
	// absent from the map use the model residual.
	errorOf map[string]string
	// strata are terms that act as an error line rather than an effect.
	strata map[string]bool
	// groups are the factors whose crossed levels define Levene groups.
	groups []string
}

// Spec returns the DesignSpec the design was built from.
func (d *Design) Spec() models.DesignSpec { return d.spec }

// Kind returns the layout of the design.
func (d *Design) Kind() models.DesignKind { return d.spec.Kind }

// Formula returns the model formula, e.g. "y ~ C(t) + C(b)".
func (d *Design) Formula() string { return d.formula }

// Terms returns the term names in model order.
func (d *Design) Terms() []string {
	out := make([]string, len(d.terms))
	for i, t := range d.terms {
		out[i] = t.name()
	}
	return out
}

// TreatmentFactors returns the factors a post-hoc test is run on.
func (d *Design) TreatmentFactors() []string {
	s := d.spec
	switch s.Kind {
	case models.DesignCRD, models.DesignRCBD, models.DesignLSD:
		return []string{s.Treatment}
	case models.DesignFactorialCRD, models.DesignFactorialRCBD:
		return append([]string(nil), s.Factors...)
	case models.DesignSplitPlotCRD, models.DesignSplitPlotRCBD:
		return []string{s.MainPlot, s.SubPlot}
	}
	return nil
}

// columns returns every dataset column a fit needs besides the response.
func (d *Design) columns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range d.terms {
		for _, f := range t.factors {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// NewDesign validates spec and resolves its model terms.
func NewDesign(spec models.DesignSpec) (*Design, error) {
	if err := validateDesignSpec(spec); err != nil {
		return nil, err
	}

	d := &Design{spec: spec, errorOf: map[string]string{}, strata: map[string]bool{}}
	y := spec.Response
	one := func(fs ...string) modelTerm { return modelTerm{factors: fs} }

	switch spec.Kind {
	case models.DesignCRD:
		d.terms = []modelTerm{one(spec.Treatment)}
		d.groups = []string{spec.Treatment}
	case models.DesignRCBD:
		d.terms = []modelTerm{one(spec.Treatment), one(spec.Block)}
		d.groups = []string{spec.Treatment}
	case models.DesignLSD:
		d.terms = []modelTerm{one(spec.Treatment), one(spec.Row), one(spec.Column)}
		d.groups = []string{spec.Treatment}
	case models.DesignFactorialCRD:
		d.terms = crossedTerms(spec.Factors, spec.MaxInteraction)
		d.groups = append([]string(nil), spec.Factors...)
	case models.DesignFactorialRCBD:
		d.terms = append([]modelTerm{one(spec.Block)}, crossedTerms(spec.Factors, spec.MaxInteraction)...)
		d.groups = append([]string(nil), spec.Factors...)
	case models.DesignSplitPlotCRD:
		m, s := spec.MainPlot, spec.SubPlot
		if spec.Replicate != "" {
			wholePlot := one(m, spec.Replicate)
			d.terms = []modelTerm{one(m), wholePlot, one(s), one(m, s)}
			d.errorOf[one(m).name()] = wholePlot.name()
			d.strata[wholePlot.name()] = true
		} else {
			d.terms = []modelTerm{one(m), one(s), one(m, s)}
		}
		d.groups = []string{m, s}
	case models.DesignSplitPlotRCBD:
		b, m, s := spec.Block, spec.MainPlot, spec.SubPlot
		wholePlot := one(b, m)
		d.terms = []modelTerm{one(b), one(m), wholePlot, one(s), one(m, s)}
		d.errorOf[one(b).name()] = wholePlot.name()
		d.errorOf[one(m).name()] = wholePlot.name()
		d.strata[wholePlot.name()] = true
		d.groups = []string{m, s}
	}
	d.formula = buildFormula(y, spec)
	return d, nil
}

// NewCRD builds a completely randomized design.
func NewCRD(response, treatment string) (*Design, error) {
	return NewDesign(models.DesignSpec{Kind: models.DesignCRD, Response: response, Treatment: treatment})
}

// NewRCBD builds a randomized complete block design.
func NewRCBD(response, treatment, block string) (*Design, error) {
	return NewDesign(models.DesignSpec{Kind: models.DesignRCBD, Response: response, Treatment: treatment, Block: block})
}

// NewLSD builds a Latin square design.
func NewLSD(response, treatment, row, column string) (*Design, error) {
	return NewDesign(models.DesignSpec{Kind: models.DesignLSD, Response: response, Treatment: treatment, Row: row, Column: column})
}

// NewFactorialCRD builds a completely randomized factorial design.
func NewFactorialCRD(response string, factors []string, maxInteraction int) (*Design, error) {
	return NewDesign(models.DesignSpec{Kind: models.DesignFactorialCRD, Response: response, Factors: factors, MaxInteraction: maxInteraction})
}

// NewFactorialRCBD builds a factorial design laid out in complete blocks.
func NewFactorialRCBD(response string, factors []string, block string, maxInteraction int) (*Design, error) {
	return NewDesign(models.DesignSpec{Kind: models.DesignFactorialRCBD, Response: response, Factors: factors, Block: block, MaxInteraction: maxInteraction})
}

// NewSplitPlotCRD builds a split-plot design with completely randomized whole
// plots. replicate may be empty.
func NewSplitPlotCRD(response, mainPlot, subPlot, replicate string) (*Design, error) {
	return NewDesign(models.DesignSpec{Kind: models.DesignSplitPlotCRD, Response: response, MainPlot: mainPlot, SubPlot: subPlot, Replicate: replicate})
}

// NewSplitPlotRCBD builds a split-plot design with whole plots in blocks.
func NewSplitPlotRCBD(response, mainPlot, subPlot, block string) (*Design, error) {
	return NewDesign(models.DesignSpec{Kind: models.DesignSplitPlotRCBD, Response: response, MainPlot: mainPlot, SubPlot: subPlot, Block: block})
}

// validateDesignSpec checks that every role the layout needs is filled.
func validateDesignSpec(spec models.DesignSpec) error {
	var errs []string
	need := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Sprintf("%s is required for %s designs", field, spec.Kind))
		}
	}

	need("response", spec.Response)
	switch spec.Kind {
	case models.DesignCRD:
		need("treatment", spec.Treatment)
	case models.DesignRCBD:
		need("treatment", spec.Treatment)
		need("block", spec.Block)
	case models.DesignLSD:
		need("treatment", spec.Treatment)
		need("row", spec.Row)
		need("column", spec.Column)
	case models.DesignFactorialCRD, models.DesignFactorialRCBD:
		if len(spec.Factors) < 2 {
			errs = append(errs, fmt.Sprintf("at least two factors are required for %s designs", spec.Kind))
		}
		seen := make(map[string]bool)
		for _, f := range spec.Factors {
			if seen[f] {
				errs = append(errs, fmt.Sprintf("factor %q is listed twice", f))
			}
			seen[f] = true
		}
		if spec.Kind == models.DesignFactorialRCBD {
			need("block", spec.Block)
		}
		if spec.MaxInteraction < 0 {
			errs = append(errs, "max_interaction must not be negative")
		}
	case models.DesignSplitPlotCRD:
		need("main_plot", spec.MainPlot)
		need("sub_plot", spec.SubPlot)
	case models.DesignSplitPlotRCBD:
		need("main_plot", spec.MainPlot)
		need("sub_plot", spec.SubPlot)
		need("block", spec.Block)
	default:
		errs = append(errs, fmt.Sprintf("unknown design %q", spec.Kind))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid design:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// crossedTerms returns main effects and interactions of factors, ordered by
// interaction size and then by factor position. maxOrder <= 0 keeps all.
func crossedTerms(factors []string, maxOrder int) []modelTerm {
	k := len(factors)
	if maxOrder <= 0 || maxOrder > k {
		maxOrder = k
	}
	var out []modelTerm
	for size := 1; size <= maxOrder; size++ {
		for _, idx := range combinations(k, size) {
			fs := make([]string, size)
			for i, j := range idx {
				fs[i] = factors[j]
			}
			out = append(out, modelTerm{factors: fs})
		}
	}
	return out
}

// combinations lists the size-r index subsets of 0..n-1 in lexical order.
func combinations(n, r int) [][]int {
	var out [][]int
	cur := make([]int, 0, r)
	var rec func(start int)
	rec = func(start int) {
		if len(cur) == r {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i := start; i < n; i++ {
			cur = append(cur, i)
			rec(i + 1)
			cur = cur[:len(cur)-1]
		}
	}
	rec(0)
	return out
}

func buildFormula(y string, spec models.DesignSpec) string {
	c := func(f string) string { return "C(" + f + ")" }
	crossed := func() string {
		if spec.MaxInteraction <= 0 || spec.MaxInteraction >= len(spec.Factors) {
			parts := make([]string, len(spec.Factors))
			for i, f := range spec.Factors {
				parts[i] = c(f)
			}
			return strings.Join(parts, "*")
		}
		terms := crossedTerms(spec.Factors, spec.MaxInteraction)
		parts := make([]string, len(terms))
		for i, t := range terms {
			parts[i] = t.name()
		}
		return strings.Join(parts, " + ")
	}

	var rhs string
	switch spec.Kind {
	case models.DesignCRD:
		rhs = c(spec.Treatment)
	case models.DesignRCBD:
		rhs = c(spec.Treatment) + " + " + c(spec.Block)
	case models.DesignLSD:
		rhs = c(spec.Treatment) + " + " + c(spec.Row) + " + " + c(spec.Column)
	case models.DesignFactorialCRD:
		rhs = crossed()
	case models.DesignFactorialRCBD:
		rhs = c(spec.Block) + " + " + crossed()
	case models.DesignSplitPlotCRD:
		m, s := c(spec.MainPlot), c(spec.SubPlot)
		if spec.Replicate != "" {
			rhs = m + " + " + m + ":" + c(spec.Replicate) + " + " + s + " + " + m + ":" + s
		} else {
			rhs = m + "*" + s
		}
	case models.DesignSplitPlotRCBD:
		b, m, s := c(spec.Block), c(spec.MainPlot), c(spec.SubPlot)
		rhs = b + " + " + m + " + " + b + ":" + m + " + " + s + " + " + m + ":" + s
	}
	return y + " ~ " + rhs
}

// Fit is a design fitted to a dataset by least squares.
type Fit struct {
	design  *Design
	dataset string
	frame   *frame
	full    *lsFit
	// cache of sub-model fits keyed by term names.
	subfits map[string]*lsFit
}

// FitModel fits design to ds. Rows missing the response or any factor are
// dropped before fitting.
func FitModel(d *Design, ds *models.Dataset) (*Fit, error) {
	if d == nil {
		return nil, fmt.Errorf("fitting model: design is nil")
	}
	fr, err := buildFrame(ds, d.spec.Response, d.columns())
	if err != nil {
		return nil, fmt.Errorf("fitting %s model: %w", d.spec.Kind, err)
	}
	full, err := modelFit(fr, d.terms)
	if err != nil {
		return nil, fmt.Errorf("fitting %s model: %w", d.spec.Kind, err)
	}
	if fr.n()-full.rank <= 0 {
		return nil, fmt.Errorf("fitting %s model: %w: no residual degrees of freedom (n=%d, rank=%d)",
			d.spec.Kind, ErrInsufficientData, fr.n(), full.rank)
	}
	return &Fit{
		design:  d,
		dataset: ds.Name,
		frame:   fr,
		full:    full,
		subfits: map[string]*lsFit{},
	}, nil
}

// Design returns the fitted design.
func (f *Fit) Design() *Design { return f.design }

// Dataset returns the name of the dataset the model was fitted to.
func (f *Fit) Dataset() string { return f.dataset }

// N is the number of complete observations used.
func (f *Fit) N() int { return f.frame.n() }

// Response returns the observed response values used in the fit.
func (f *Fit) Response() []float64 { return append([]float64(nil), f.frame.y...) }

// Fitted returns the fitted values.
func (f *Fit) Fitted() []float64 { return append([]float64(nil), f.full.fitted...) }

// Residuals returns observed minus fitted values.
func (f *Fit) Residuals() []float64 { return append([]float64(nil), f.full.residuals...) }

// Leverage returns the diagonal of the hat matrix.
func (f *Fit) Leverage() []float64 { return append([]float64(nil), f.full.leverage...) }

// RSS is the residual sum of squares.
func (f *Fit) RSS() float64 { return f.full.rss }

// Rank is the rank of the model matrix.
func (f *Fit) Rank() int { return f.full.rank }

// DFResid is the residual degrees of freedom.
func (f *Fit) DFResid() float64 { return float64(f.frame.n() - f.full.rank) }

// MSE is the residual mean square.
func (f *Fit) MSE() float64 { return f.full.rss / f.DFResid() }

// GrandMean is the mean of the response.
func (f *Fit) GrandMean() float64 { return stat.Mean(f.frame.y, nil) }

// Labels returns the level of factor for every observation.
func (f *Fit) Labels(factor string) ([]string, error) {
	fc, ok := f.frame.factors[factor]
	if !ok {
		return nil, fmt.Errorf("factor %q is not part of the %s model", factor, f.design.spec.Kind)
	}
	out := make([]string, f.frame.n())
	for i := range out {
		out[i] = fc.label(i)
	}
	return out, nil
}

// Levels returns the levels of factor in first-appearance order.
func (f *Fit) Levels(factor string) []string {
	fc, ok := f.frame.factors[factor]
	if !ok {
		return nil
	}
	return append([]string(nil), fc.levels...)
}

// subfit fits a subset of the design terms, caching by term list.
func (f *Fit) subfit(terms []modelTerm) (*lsFit, error) {
	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.name()
	}
	key := strings.Join(names, "+")
	if lf, ok := f.subfits[key]; ok {
		return lf, nil
	}
	lf, err := modelFit(f.frame, terms)
	if err != nil {
		return nil, err
	}
	f.subfits[key] = lf
	return lf, nil
}
