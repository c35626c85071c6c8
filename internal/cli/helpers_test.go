package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/expdes/internal/core"
	"github.com/valter-silva-au/expdes/internal/storage"
)

// withServices installs a real analyzer and report store rooted in a temp
// directory and restores the package globals when the test ends.
func withServices(t *testing.T) string {
	t.Helper()
	origAnalyzer, origReports, origConfig := Analyzer, Reports, Config
	origFigures, origRenderer, origJSON := Figures, Renderer, outputJSON
	t.Cleanup(func() {
		Analyzer, Reports, Config = origAnalyzer, origReports, origConfig
		Figures, Renderer, outputJSON = origFigures, origRenderer, origJSON
	})

	dir := t.TempDir()
	reports := storage.NewReportStoreManager(dir)
	Reports = reports
	Analyzer = core.NewAnalyzer(core.AnalyzerDeps{
		Datasets: storage.NewDatasetLoader(dir),
		Reports:  reports,
	})
	Config = nil
	Figures = nil
	Renderer = nil
	outputJSON = false
	return dir
}

// runCmd calls cmd.RunE with output captured.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

// restore resets *p to its current value when the test ends.
func restore[T any](t *testing.T, p *T) {
	t.Helper()
	orig := *p
	t.Cleanup(func() { *p = orig })
}
