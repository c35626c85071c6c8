package cli

import (
	"go.uber.org/zap"

	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/observability"
	"github.com/valter-silva-au/expdes/internal/plot"
	"github.com/valter-silva-au/expdes/internal/render"
	"github.com/valter-silva-au/expdes/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.GlobalConfig
	Logger   *zap.Logger
	Analyzer core.Analyzer
	Reports  core.ReportStore
	Figures  *plot.FileRenderer
	Renderer *render.Renderer
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
