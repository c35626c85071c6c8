package cli

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/expdes/internal/observability"
	"github.com/valter-silva-au/expdes/pkg/models"
)

// reportStoreMock implements core.ReportStore for listing only.
type reportStoreMock struct {
	list []models.ReportSummary
	err  error
}

func (m *reportStoreMock) Save(*models.Report) (string, error)  { return "", nil }
func (m *reportStoreMock) Get(string) (*models.Report, error)   { return nil, nil }
func (m *reportStoreMock) List() ([]models.ReportSummary, error) { return m.list, m.err }
func (m *reportStoreMock) Delete(string) error                  { return nil }

func withDashboardServices(t *testing.T) {
	t.Helper()
	restore(t, &Reports)
	restore(t, &MetricsCalc)
	restore(t, &AlertEngine)
	Reports, MetricsCalc, AlertEngine = nil, nil, nil
}

func TestDashboardModel_PanelNavigation(t *testing.T) {
	tests := []struct {
		keys []string
		want int
	}{
		{nil, panelReports},
		{[]string{"tab"}, panelMetrics},
		{[]string{"tab", "tab"}, panelAlerts},
		{[]string{"tab", "tab", "tab"}, panelReports},
		{[]string{"shift+tab"}, panelAlerts},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.keys), func(t *testing.T) {
			var m tea.Model = newDashboardModel()
			for _, k := range tt.keys {
				key := tea.KeyMsg{Type: tea.KeyTab}
				if k == "shift+tab" {
					key = tea.KeyMsg{Type: tea.KeyShiftTab}
				}
				m, _ = m.Update(key)
			}
			assert.Equal(t, tt.want, m.(dashboardModel).activePanel)
		})
	}
}

func TestDashboardModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := newDashboardModel().Update(key)
		require.NotNil(t, cmd, key.String())
		assert.Equal(t, tea.Quit(), cmd(), key.String())
	}
}

func TestDashboardModel_View(t *testing.T) {
	m := newDashboardModel()
	assert.Equal(t, "Loading...", m.View())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(dashboardModel)
	assert.Contains(t, m.View(), "Loading data...")

	cv := 12.5
	updated, _ = m.Update(dataLoadedMsg{
		reports: []models.ReportSummary{{ID: "R-00003", Dataset: "dic_milho", Design: models.DesignCRD}},
		metrics: &metricsSnapshot{analysesRun: 7, meanCV: &cv, byDesign: map[string]int{"crd": 7}},
		alerts:  []alertSnapshot{{severity: "high", message: "residuals are not normal"}},
	})
	m = updated.(dashboardModel)
	view := m.View()
	assert.Contains(t, view, "expdes dashboard")
	assert.Contains(t, view, "R-00003")
	assert.Contains(t, view, "12.50%")
	assert.Contains(t, view, "residuals are not normal")
	assert.Contains(t, view, "Total: 1 alert(s)")
}

func TestDashboardModel_ViewError(t *testing.T) {
	m := newDashboardModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 150, Height: 40})
	updated, _ = updated.Update(dataLoadedMsg{err: errors.New("loading reports: boom")})
	assert.Contains(t, updated.View(), "Error: loading reports: boom")
}

func TestLoadData(t *testing.T) {
	withDashboardServices(t)
	now := time.Now().UTC()
	var list []models.ReportSummary
	for i := 0; i < dashboardReportLimit+3; i++ {
		list = append(list, models.ReportSummary{
			ID:        fmt.Sprintf("R-%05d", i+1),
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}
	Reports = &reportStoreMock{list: list}
	MetricsCalc = &metricsMock{calcFn: func(time.Time) (*observability.Metrics, error) {
		return sampleMetrics(), nil
	}}
	AlertEngine = &alertEngineMock{alerts: sampleAlerts()}

	msg := loadData().(dataLoadedMsg)
	require.NoError(t, msg.err)
	require.Len(t, msg.reports, dashboardReportLimit)
	assert.Equal(t, fmt.Sprintf("R-%05d", dashboardReportLimit+3), msg.reports[0].ID, "newest first")
	require.NotNil(t, msg.metrics)
	assert.Equal(t, 4, msg.metrics.analysesRun)
	require.Len(t, msg.alerts, 2)
	assert.Equal(t, "high", msg.alerts[0].severity)
}

func TestLoadData_Errors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func()
		errMsg string
	}{
		{"reports", func() { Reports = &reportStoreMock{err: errors.New("boom")} }, "loading reports"},
		{"metrics", func() {
			MetricsCalc = &metricsMock{calcFn: func(time.Time) (*observability.Metrics, error) {
				return nil, errors.New("boom")
			}}
		}, "loading metrics"},
		{"alerts", func() { AlertEngine = &alertEngineMock{err: errors.New("boom")} }, "loading alerts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withDashboardServices(t)
			tt.setup()
			msg := loadData().(dataLoadedMsg)
			require.Error(t, msg.err)
			assert.Contains(t, msg.err.Error(), tt.errMsg)
		})
	}
}

func TestDashboardCmd_NilMetrics(t *testing.T) {
	withDashboardServices(t)

	err := dashboardCmd.RunE(dashboardCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestStyleForSeverity(t *testing.T) {
	tests := []struct {
		severity string
		want     string
	}{
		{"HIGH", severityHigh.Render("x")},
		{"medium", severityMedium.Render("x")},
		{"low", severityLow.Render("x")},
		{"unknown", "x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, styleForSeverity(tt.severity).Render("x"), tt.severity)
	}
}
