package core

import "github.com/valter-silva-au/expdes/pkg/models"

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// DatasetSource resolves a bundled dataset name or a CSV path.
// This interface is defined locally in core to avoid importing storage.
type DatasetSource interface {
	Load(ref string) (*models.Dataset, error)
}

// ReportStore persists analysis reports.
// This interface is defined locally in core to avoid importing storage.
type ReportStore interface {
	Save(report *models.Report) (string, error)
	Get(id string) (*models.Report, error)
	List() ([]models.ReportSummary, error)
	Delete(id string) error
}

// FigureRenderer writes analysis figures and returns the written paths.
// Implementations live in the plot package and are adapted in app.go.
type FigureRenderer interface {
	LetterPlot(name string, s Samples, result *models.PostHocResult) (string, error)
	ResidualPlots(name string, fitted, residuals []float64, diag *models.RegressionDiagnostics) ([]string, error)
}
