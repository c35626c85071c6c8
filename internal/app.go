// Package internal provides the App struct that wires all components of
// expdes together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/valter-silva-au/expdes/internal/cli"
	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/logging"
	"github.com/valter-silva-au/expdes/internal/observability"
	"github.com/valter-silva-au/expdes/internal/plot"
	"github.com/valter-silva-au/expdes/internal/render"
	"github.com/valter-silva-au/expdes/internal/storage"
	"github.com/valter-silva-au/expdes/pkg/models"
)

// slackTimeout bounds a single webhook delivery.
const slackTimeout = 10 * time.Second

// App holds all service dependencies of expdes.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig
	Logger    *zap.Logger

	// Storage layer
	Datasets storage.DatasetLoader
	Reports  storage.ReportStoreManager

	// Core services
	Analyzer core.Analyzer
	Figures  *plot.FileRenderer
	Renderer *render.Renderer

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components. basePath is the directory
// holding .expdesconfig, saved reports, figures and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	env, err := core.LoadEnv()
	if err != nil {
		return nil, err
	}
	app.ConfigMgr = core.NewConfigurationManager(basePath, env)
	app.Config, err = app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(app.Config); err != nil {
		return nil, err
	}

	app.Logger, err = logging.New(app.Config.Log)
	if err != nil {
		return nil, err
	}

	// --- Storage layer ---
	app.Datasets = storage.NewDatasetLoader(basePath)
	app.Reports = storage.NewReportStoreManager(basePath)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, observability.EventLogFileName)
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: analyses still run without metrics and alerts.
		app.Logger.Warn("event log unavailable, observability disabled",
			zap.String("path", eventLogPath), zap.Error(err))
		app.EventLog = nil
	}
	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		if app.Config.Notifications.Alerts.MaxCV > 0 {
			thresholds.MaxCV = app.Config.Notifications.Alerts.MaxCV
		}
		if app.Config.Notifications.Alerts.WindowDays > 0 {
			thresholds.WindowDays = app.Config.Notifications.Alerts.WindowDays
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if app.Config.Notifications.Enabled && app.Config.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(app.Config.Notifications.Slack.WebhookURL, slackTimeout)
	}

	// --- Rendering ---
	opts, err := plot.NewOptions(app.Config.Plot.Width, app.Config.Plot.Height, app.Config.Plot.PointsColor)
	if err != nil {
		return nil, fmt.Errorf("plot options: %w", err)
	}
	app.Figures, err = plot.NewFileRenderer(resolveDir(basePath, app.Config.PlotsDir), app.Config.Plot.Format, opts)
	if err != nil {
		return nil, err
	}
	app.Renderer, err = render.New(app.Config.Locale)
	if err != nil {
		return nil, err
	}

	// --- Core services ---
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.Analyzer = core.NewAnalyzer(core.AnalyzerDeps{
		Datasets: app.Datasets,
		Reports:  app.Reports,
		Figures:  &figureAdapter{r: app.Figures},
		Events:   evtAdapter,
		Logger:   app.Logger,
		Config:   app.Config,
	})

	// --- Wire CLI package variables ---
	cli.BasePath = basePath
	cli.Config = app.Config
	cli.Logger = app.Logger
	cli.Analyzer = app.Analyzer
	cli.Reports = app.Reports
	cli.Figures = app.Figures
	cli.Renderer = app.Renderer
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close flushes the logger and releases the event log file handle. It is
// safe to call on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the expdes home directory: EXPDES_HOME when set,
// else the nearest ancestor of the working directory holding .expdesconfig,
// else the working directory.
func ResolveBasePath() string {
	if env, err := core.LoadEnv(); err == nil && env.Home != "" {
		return env.Home
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

// resolveDir anchors a relative configured directory at basePath.
func resolveDir(basePath, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(basePath, dir)
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	level := "INFO"
	if eventType == core.EventAssumptionViolated {
		level = "WARN"
	}
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

// figureAdapter adapts plot.FileRenderer to core.FigureRenderer.
type figureAdapter struct {
	r *plot.FileRenderer
}

func (a *figureAdapter) LetterPlot(name string, s core.Samples, result *models.PostHocResult) (string, error) {
	return a.r.LetterPlot(name, s.Labels, s.Values, result)
}

func (a *figureAdapter) ResidualPlots(name string, fitted, residuals []float64, diag *models.RegressionDiagnostics) ([]string, error) {
	return a.r.ResidualPlots(name, fitted, residuals, diag)
}
