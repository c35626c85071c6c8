// Package mcp provides an MCP (Model Context Protocol) server that exposes
// expdes analyses as tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/datasets"
	"github.com/valter-silva-au/expdes/internal/observability"
	"github.com/valter-silva-au/expdes/pkg/models"
)

// Server wraps expdes services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	analyzer    core.Analyzer
	reports     core.ReportStore
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// Deps groups the services behind the tools. Analyzer is required; the
// others may be nil, in which case their tools report an error.
type Deps struct {
	Analyzer    core.Analyzer
	Reports     core.ReportStore
	Metrics     observability.MetricsCalculator
	AlertEngine observability.AlertEngine
}

// NewServer creates a new MCP server over deps.
func NewServer(deps Deps, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		analyzer:    deps.Analyzer,
		reports:     deps.Reports,
		metricsCalc: deps.Metrics,
		alertEngine: deps.AlertEngine,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "expdes", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listDatasetsInput struct{}

type datasetOutput struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Columns     []string           `json:"columns"`
	Rows        int                `json:"rows"`
	Meta        models.DatasetMeta `json:"meta"`
}

type listDatasetsOutput struct {
	Datasets []datasetOutput `json:"datasets"`
	Count    int             `json:"count"`
}

// analysisInput is shared by the analysis tools. Roles left empty are taken
// from the dataset metadata.
type analysisInput struct {
	Dataset        string   `json:"dataset" jsonschema:"bundled dataset name (see list_datasets) or path to a CSV file"`
	Design         string   `json:"design,omitempty" jsonschema:"crd, rcbd, lsd, factorial_crd, factorial_rcbd, splitplot_crd or splitplot_rcbd"`
	Response       string   `json:"response,omitempty" jsonschema:"response column"`
	Treatment      string   `json:"treatment,omitempty" jsonschema:"treatment column of single-factor designs"`
	Block          string   `json:"block,omitempty" jsonschema:"block column of rcbd designs"`
	Row            string   `json:"row,omitempty" jsonschema:"row column of latin squares"`
	Column         string   `json:"column,omitempty" jsonschema:"column column of latin squares"`
	Factors        []string `json:"factors,omitempty" jsonschema:"treatment factors of factorial designs"`
	MainPlot       string   `json:"main_plot,omitempty" jsonschema:"main-plot factor of split-plot designs"`
	SubPlot        string   `json:"sub_plot,omitempty" jsonschema:"sub-plot factor of split-plot designs"`
	Replicate      string   `json:"replicate,omitempty" jsonschema:"replicate column of split-plot crd designs"`
	MaxInteraction int      `json:"max_interaction,omitempty" jsonschema:"highest interaction order of factorial designs; 0 keeps all"`
	Alpha          float64  `json:"alpha,omitempty" jsonschema:"significance level; defaults to 0.05"`
	Method         string   `json:"method,omitempty" jsonschema:"run_posthoc only: tukey, duncan, scottknott or ttest"`
	Unfold         bool     `json:"unfold,omitempty" jsonschema:"run_posthoc only: break down significant interactions"`
	Save           bool     `json:"save,omitempty" jsonschema:"run_posthoc only: persist the analysis as a report"`
}

func (in analysisInput) spec() models.DesignSpec {
	return models.DesignSpec{
		Kind:           models.DesignKind(in.Design),
		Response:       in.Response,
		Treatment:      in.Treatment,
		Block:          in.Block,
		Row:            in.Row,
		Column:         in.Column,
		Factors:        in.Factors,
		MainPlot:       in.MainPlot,
		SubPlot:        in.SubPlot,
		Replicate:      in.Replicate,
		MaxInteraction: in.MaxInteraction,
	}
}

func (in analysisInput) alpha() float64 {
	if in.Alpha <= 0 || in.Alpha >= 1 {
		return core.DefaultAlpha
	}
	return in.Alpha
}

// Statistics are passed through as untyped JSON: undefined values serialize
// as null, which a derived number schema would reject.

type anovaOutput struct {
	Dataset string `json:"dataset"`
	Formula string `json:"formula"`
	Table   any    `json:"table" jsonschema:"ANOVA table; undefined statistics are null"`
}

type assumptionsOutput struct {
	Dataset string `json:"dataset"`
	Holds   bool   `json:"holds"`
	Report  any    `json:"report" jsonschema:"Shapiro-Wilk and Levene tests on the model residuals"`
}

type postHocOutput struct {
	Dataset  string `json:"dataset"`
	ReportID string `json:"report_id,omitempty"`
	PostHoc  any    `json:"posthoc" jsonschema:"post-hoc results with compact letters per factor"`
	Unfolded any    `json:"unfolded,omitempty" jsonschema:"interaction breakdown when unfold was requested"`
}

type getReportInput struct {
	ID string `json:"id" jsonschema:"report identifier, e.g. R-00001"`
}

type reportOutput struct {
	Report any `json:"report"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	AnalysesRun          int            `json:"analyses_run"`
	AnalysesByDesign     map[string]int `json:"analyses_by_design"`
	AnalysesByPostHoc    map[string]int `json:"analyses_by_posthoc"`
	AssumptionViolations int            `json:"assumption_violations"`
	SignificantEffects   int            `json:"significant_effects"`
	ReportsSaved         int            `json:"reports_saved"`
	MeanCV               *float64       `json:"mean_cv,omitempty"`
	EventCount           int            `json:"event_count"`
	OldestEvent          string         `json:"oldest_event,omitempty"`
	NewestEvent          string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_datasets",
		Description: "List the bundled example datasets with their columns and suggested design roles.",
	}, s.handleListDatasets)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "run_anova",
		Description: "Fit the linear model of an experimental design and return its ANOVA table, grand mean and CV.",
	}, s.handleRunAnova)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "check_assumptions",
		Description: "Test normality (Shapiro-Wilk) and homogeneity of variances (Levene) of a fitted design's residuals.",
	}, s.handleCheckAssumptions)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "run_posthoc",
		Description: "Run a post-hoc mean comparison (Tukey, Duncan, Scott-Knott or t-test) and return groups with compact letters.",
	}, s.handleRunPostHoc)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_report",
		Description: "Get a saved analysis report by ID.",
	}, s.handleGetReport)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get metrics aggregated from the analysis event log: analyses per design and method, assumption violations, mean CV.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate alerts over recent analyses (assumption violations, high CV, post-hoc without a significant effect).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListDatasets(_ context.Context, _ *gomcp.CallToolRequest, _ listDatasetsInput) (*gomcp.CallToolResult, listDatasetsOutput, error) {
	all := datasets.All()
	out := listDatasetsOutput{Datasets: make([]datasetOutput, len(all)), Count: len(all)}
	for i, ds := range all {
		out.Datasets[i] = datasetOutput{
			Name:        ds.Name,
			Description: ds.Description,
			Columns:     ds.Header,
			Rows:        len(ds.Rows),
			Meta:        ds.Meta,
		}
	}
	return nil, out, nil
}

func (s *Server) fit(in analysisInput) (*core.Fit, error) {
	if in.Dataset == "" {
		return nil, fmt.Errorf("dataset is required")
	}
	return s.analyzer.Fit(in.Dataset, in.spec())
}

func (s *Server) handleRunAnova(_ context.Context, _ *gomcp.CallToolRequest, in analysisInput) (*gomcp.CallToolResult, anovaOutput, error) {
	fit, err := s.fit(in)
	if err != nil {
		return errorResult(fmt.Sprintf("fitting design: %s", err)), anovaOutput{}, nil
	}
	table, err := core.RunAnova(fit)
	if err != nil {
		return errorResult(fmt.Sprintf("running anova: %s", err)), anovaOutput{}, nil
	}
	return nil, anovaOutput{Dataset: fit.Dataset(), Formula: table.Formula, Table: table}, nil
}

func (s *Server) handleCheckAssumptions(_ context.Context, _ *gomcp.CallToolRequest, in analysisInput) (*gomcp.CallToolResult, assumptionsOutput, error) {
	fit, err := s.fit(in)
	if err != nil {
		return errorResult(fmt.Sprintf("fitting design: %s", err)), assumptionsOutput{}, nil
	}
	report, err := core.CheckAssumptions(fit, in.alpha())
	if err != nil {
		return errorResult(fmt.Sprintf("checking assumptions: %s", err)), assumptionsOutput{}, nil
	}
	return nil, assumptionsOutput{Dataset: fit.Dataset(), Holds: report.Holds(), Report: report}, nil
}

func (s *Server) handleRunPostHoc(_ context.Context, _ *gomcp.CallToolRequest, in analysisInput) (*gomcp.CallToolResult, postHocOutput, error) {
	if in.Dataset == "" {
		return errorResult("dataset is required"), postHocOutput{}, nil
	}
	if in.Method == core.PostHocNone {
		return errorResult("method must name a post-hoc test"), postHocOutput{}, nil
	}
	report, err := s.analyzer.Analyze(core.AnalysisRequest{
		Dataset: in.Dataset,
		Design:  in.spec(),
		PostHoc: in.Method,
		Alpha:   in.alpha(),
		Unfold:  in.Unfold,
		Save:    in.Save,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("running post-hoc: %s", err)), postHocOutput{}, nil
	}
	out := postHocOutput{Dataset: report.Dataset, ReportID: report.ID, PostHoc: report.PostHoc}
	if report.Unfolded != nil {
		out.Unfolded = report.Unfolded
	}
	return nil, out, nil
}

func (s *Server) handleGetReport(_ context.Context, _ *gomcp.CallToolRequest, in getReportInput) (*gomcp.CallToolResult, reportOutput, error) {
	if s.reports == nil {
		return errorResult("report store not available"), reportOutput{}, nil
	}
	if in.ID == "" {
		return errorResult("id is required"), reportOutput{}, nil
	}
	report, err := s.reports.Get(in.ID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting report %s: %s", in.ID, err)), reportOutput{}, nil
	}
	return nil, reportOutput{Report: report}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	since, err := observability.ParseSince(input.Since, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	m, err := s.metricsCalc.Calculate(since)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := emptyMetricsOutput()
	out.AnalysesRun = m.AnalysesRun
	out.AssumptionViolations = m.AssumptionViolations
	out.SignificantEffects = m.SignificantEffects
	out.ReportsSaved = m.ReportsSaved
	out.MeanCV = m.MeanCV
	out.EventCount = m.EventCount
	for k, v := range m.AnalysesByDesign {
		out.AnalysesByDesign[k] = v
	}
	for k, v := range m.AnalysesByPostHoc {
		out.AnalysesByPostHoc[k] = v
	}
	if m.OldestEvent != nil {
		out.OldestEvent = m.OldestEvent.Format(time.RFC3339)
	}
	if m.NewestEvent != nil {
		out.NewestEvent = m.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{Alerts: make([]alertOutput, len(alerts)), Count: len(alerts)}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		AnalysesByDesign:  make(map[string]int),
		AnalysesByPostHoc: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
