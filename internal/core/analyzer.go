package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// Event types emitted by the Analyzer.
const (
	EventAnalysisCompleted  = "analysis.completed"
	EventAssumptionViolated = "assumption.violated"
)

// PostHocNone disables the post-hoc step of an analysis.
const PostHocNone = "none"

// AnalysisRequest describes one end-to-end analysis.
type AnalysisRequest struct {
	// Dataset is a bundled dataset name or a CSV path.
	Dataset string
	Design  models.DesignSpec
	// PostHoc names the comparison method. Empty uses the configured
	// default; "none" skips the step.
	PostHoc string
	Alpha   float64
	Welch   bool
	// Unfold breaks down significant interactions of multi-factor designs
	// instead of comparing marginal means.
	Unfold bool
	Plots  bool
	Save   bool
}

// Analyzer runs the analysis pipeline: fit, ANOVA, assumption checks,
// post-hoc comparisons, figures and persistence.
type Analyzer interface {
	LoadDataset(ref string) (*models.Dataset, error)
	Fit(ref string, spec models.DesignSpec) (*Fit, error)
	Analyze(req AnalysisRequest) (*models.Report, error)
}

// AnalyzerDeps groups the collaborators of an Analyzer. Only Datasets is
// required.
type AnalyzerDeps struct {
	Datasets DatasetSource
	Reports  ReportStore
	Figures  FigureRenderer
	Events   EventLogger
	Logger   *zap.Logger
	Config   *models.GlobalConfig
}

type analyzer struct {
	datasets DatasetSource
	reports  ReportStore
	figures  FigureRenderer
	events   EventLogger
	log      *zap.Logger
	cfg      *models.GlobalConfig
	now      func() time.Time
}

// NewAnalyzer creates an Analyzer. A nil logger is replaced with a no-op
// logger and a nil config with the defaults.
func NewAnalyzer(deps AnalyzerDeps) Analyzer {
	a := &analyzer{
		datasets: deps.Datasets,
		reports:  deps.Reports,
		figures:  deps.Figures,
		events:   deps.Events,
		log:      deps.Logger,
		cfg:      deps.Config,
		now:      time.Now,
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.cfg == nil {
		a.cfg = DefaultGlobalConfig()
	}
	return a
}

func (a *analyzer) LoadDataset(ref string) (*models.Dataset, error) {
	if a.datasets == nil {
		return nil, fmt.Errorf("loading dataset %q: no dataset source configured", ref)
	}
	ds, err := a.datasets.Load(ref)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %q: %w", ref, err)
	}
	return ds, nil
}

func (a *analyzer) Fit(ref string, spec models.DesignSpec) (*Fit, error) {
	ds, err := a.LoadDataset(ref)
	if err != nil {
		return nil, err
	}
	spec = withMetaDefaults(spec, ds.Meta)
	d, err := NewDesign(spec)
	if err != nil {
		return nil, err
	}
	fit, err := FitModel(d, ds)
	if err != nil {
		return nil, err
	}
	a.log.Debug("model fitted",
		zap.String("dataset", ds.Name),
		zap.String("formula", d.Formula()),
		zap.Int("n", fit.N()),
		zap.Int("rank", fit.Rank()),
	)
	return fit, nil
}

func (a *analyzer) Analyze(req AnalysisRequest) (*models.Report, error) {
	alpha := req.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = a.cfg.Alpha
	}
	method := strings.ToLower(strings.TrimSpace(req.PostHoc))
	if method == "" {
		method = string(a.cfg.PostHoc)
	}
	runID := uuid.NewString()
	log := a.log.With(zap.String("run_id", runID), zap.String("dataset", req.Dataset))

	fit, err := a.Fit(req.Dataset, req.Design)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", req.Dataset, err)
	}
	spec := fit.Design().Spec()

	table, err := RunAnova(fit)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", req.Dataset, err)
	}
	log.Info("anova computed",
		zap.String("formula", table.Formula),
		zap.Float64("cv", table.CV.Float()),
		zap.Int("n", table.N),
	)

	assumptions, err := CheckAssumptions(fit, alpha)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", req.Dataset, err)
	}
	if !assumptions.Holds() {
		log.Warn("model assumptions violated",
			zap.Bool("normality_rejected", assumptions.Normality.Rejected),
			zap.Bool("homoscedasticity_rejected", assumptions.Homoscedasticity.Rejected),
		)
		a.emit(EventAssumptionViolated, map[string]any{
			"run_id":                    runID,
			"dataset":                   fit.Dataset(),
			"design":                    string(spec.Kind),
			"normality_p":               statValue(assumptions.Normality.PValue),
			"homoscedasticity_p":        statValue(assumptions.Homoscedasticity.PValue),
			"normality_rejected":        assumptions.Normality.Rejected,
			"homoscedasticity_rejected": assumptions.Homoscedasticity.Rejected,
		})
	}

	report := &models.Report{
		RunID:       runID,
		CreatedAt:   a.now().UTC(),
		Dataset:     fit.Dataset(),
		Design:      spec,
		Anova:       *table,
		Assumptions: assumptions,
	}

	var samples []Samples
	if method != PostHocNone {
		test, err := NewPostHoc(method)
		if err != nil {
			return nil, fmt.Errorf("analyzing %s: %w", req.Dataset, err)
		}
		opts := PostHocOptions{
			Alpha:   alpha,
			Welch:   req.Welch,
			Letters: CLDOptions{Order: a.cfg.LetterOrder},
		}
		multiFactor := len(fit.Design().TreatmentFactors()) > 1
		if req.Unfold && multiFactor {
			unfolded, err := UnfoldInteractions(fit, test, opts)
			if err != nil {
				return nil, fmt.Errorf("analyzing %s: %w", req.Dataset, err)
			}
			report.Unfolded = unfolded
		}
		for _, factor := range fit.Design().TreatmentFactors() {
			s, err := SamplesFromFit(fit, factor)
			if err != nil {
				return nil, fmt.Errorf("analyzing %s: %w", req.Dataset, err)
			}
			factorOpts := opts
			factorOpts.MSE, factorOpts.DF = effectError(fit, table, modelTerm{factors: []string{factor}}.name())
			res, err := test.Run(s, factorOpts)
			if err != nil {
				return nil, fmt.Errorf("analyzing %s: post-hoc on %s: %w", req.Dataset, factor, err)
			}
			report.PostHoc = append(report.PostHoc, *res)
			samples = append(samples, s)
			log.Info("post-hoc completed",
				zap.String("method", string(res.Method)),
				zap.String("factor", factor),
				zap.Int("groups", len(res.Groups)),
			)
		}
	}

	if req.Plots && a.figures != nil {
		paths, err := a.render(fit, report, samples, alpha)
		if err != nil {
			return nil, fmt.Errorf("analyzing %s: %w", req.Dataset, err)
		}
		report.Plots = paths
	}

	if req.Save && a.reports != nil {
		id, err := a.reports.Save(report)
		if err != nil {
			return nil, fmt.Errorf("saving report: %w", err)
		}
		report.ID = id
		log.Info("report saved", zap.String("report_id", id))
	}

	a.emit(EventAnalysisCompleted, map[string]any{
		"run_id":           runID,
		"report_id":        report.ID,
		"dataset":          report.Dataset,
		"design":           string(spec.Kind),
		"posthoc":          method,
		"alpha":            alpha,
		"n":                table.N,
		"cv":               statValue(table.CV),
		"treatment_p":      treatmentPValue(fit, table),
		"assumptions_hold": assumptions.Holds(),
	})
	return report, nil
}

func (a *analyzer) render(fit *Fit, report *models.Report, samples []Samples, alpha float64) ([]string, error) {
	name := fmt.Sprintf("%s_%s", report.Dataset, report.Design.Kind)
	var paths []string
	for i := range report.PostHoc {
		path, err := a.figures.LetterPlot(name+"_"+samples[i].Factor, samples[i], &report.PostHoc[i])
		if err != nil {
			return nil, fmt.Errorf("rendering letter plot: %w", err)
		}
		paths = append(paths, path)
	}
	diag, err := Diagnose(fit, alpha)
	if err != nil {
		return nil, err
	}
	residualPaths, err := a.figures.ResidualPlots(name, fit.Fitted(), fit.Residuals(), diag)
	if err != nil {
		return nil, fmt.Errorf("rendering residual plots: %w", err)
	}
	return append(paths, residualPaths...), nil
}

// emit logs an event, warning instead of failing when the log is unavailable.
func (a *analyzer) emit(eventType string, data map[string]any) {
	if a.events == nil {
		return
	}
	if err := a.events.LogEvent(eventType, data); err != nil {
		a.log.Warn("writing event", zap.String("type", eventType), zap.Error(err))
	}
}

// treatmentPValue is the smallest p-value among treatment main effects, or
// nil when none was computed.
func treatmentPValue(fit *Fit, table *models.AnovaTable) any {
	best := math.NaN()
	for _, f := range fit.Design().TreatmentFactors() {
		row := table.Row(modelTerm{factors: []string{f}}.name())
		if row == nil || row.PValue.IsNaN() {
			continue
		}
		if math.IsNaN(best) || row.PValue.Float() < best {
			best = row.PValue.Float()
		}
	}
	return statValue(models.Stat(best))
}

// statValue converts a statistic to a JSON-safe event value.
func statValue(s models.Stat) any {
	if s.IsNaN() || math.IsInf(s.Float(), 0) {
		return nil
	}
	return s.Float()
}

// withMetaDefaults fills unset roles of spec from the dataset metadata.
func withMetaDefaults(spec models.DesignSpec, meta models.DatasetMeta) models.DesignSpec {
	if spec.Kind == "" && meta.Design != "" {
		spec.Kind = models.DesignKind(meta.Design)
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&spec.Response, meta.Response)
	fill(&spec.Treatment, meta.Treatment)
	fill(&spec.Block, meta.Block)
	fill(&spec.Row, meta.Row)
	fill(&spec.Column, meta.Column)
	fill(&spec.MainPlot, meta.MainPlot)
	fill(&spec.SubPlot, meta.SubPlot)
	fill(&spec.Replicate, meta.Replicate)
	if len(spec.Factors) == 0 {
		spec.Factors = append([]string(nil), meta.Factors...)
	}
	return spec
}
