package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alertNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, thresholds AlertThresholds, events ...Event) AlertEngine {
	t.Helper()
	log, _ := newTestLog(t)
	writeEvents(t, log, events...)
	engine := NewAlertEngine(log, thresholds).(*alertEngine)
	engine.now = func() time.Time { return alertNow }
	return engine
}

func alertIDs(alerts []Alert) []string {
	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.ID
	}
	return ids
}

func TestAlertEngine_AssumptionViolated(t *testing.T) {
	engine := newTestEngine(t, DefaultAlertThresholds(),
		Event{Time: alertNow.Add(-time.Hour), Type: TypeAssumptionViolated, Data: map[string]any{
			"run_id": "r1", "dataset": "dic_milho", "design": "crd", "normality_rejected": true,
		}},
		Event{Time: alertNow.Add(-time.Hour), Type: TypeAssumptionViolated, Data: map[string]any{
			"run_id": "r2", "dataset": "dbc_caprinos", "design": "rcbd",
			"normality_rejected": true, "homoscedasticity_rejected": true,
		}},
		// duplicate run
		Event{Time: alertNow.Add(-time.Minute), Type: TypeAssumptionViolated, Data: map[string]any{"run_id": "r1"}},
	)

	alerts, err := engine.Evaluate()
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "assumption-r1", alerts[0].ID)
	assert.Equal(t, SeverityHigh, alerts[0].Severity)
	assert.Equal(t, ConditionAssumptionViolated, alerts[0].Condition)
	assert.Contains(t, alerts[0].Message, "rejected normality")
	assert.Contains(t, alerts[1].Message, "normality and homoscedasticity")
	assert.Equal(t, alertNow, alerts[0].TriggeredAt)
}

func TestAlertEngine_HighCV(t *testing.T) {
	tests := []struct {
		name  string
		maxCV float64
		cv    float64
		want  bool
	}{
		{"above threshold", 20, 25.3, true},
		{"at threshold", 20, 20, false},
		{"below threshold", 20, 9.9, false},
		{"disabled", 0, 80, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, AlertThresholds{MaxCV: tt.maxCV, WindowDays: 7},
				completed(alertNow.Add(-time.Hour), "r1", map[string]any{"cv": tt.cv, "posthoc": "none"}))
			alerts, err := engine.Evaluate()
			require.NoError(t, err)
			if tt.want {
				require.Len(t, alerts, 1)
				assert.Equal(t, "cv-r1", alerts[0].ID)
				assert.Equal(t, SeverityMedium, alerts[0].Severity)
			} else {
				assert.Empty(t, alerts)
			}
		})
	}
}

func TestAlertEngine_PostHocWithoutEffect(t *testing.T) {
	at := alertNow.Add(-time.Hour)
	engine := newTestEngine(t, DefaultAlertThresholds(),
		completed(at, "ns", map[string]any{"treatment_p": 0.3, "alpha": 0.05}),
		completed(at, "sig", map[string]any{"treatment_p": 0.001, "alpha": 0.05}),
		completed(at, "strict", map[string]any{"treatment_p": 0.03, "alpha": 0.01}),
		completed(at, "skipped", map[string]any{"treatment_p": 0.9, "posthoc": "none"}),
		completed(at, "no-p", nil),
	)
	alerts, err := engine.Evaluate()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"posthoc-ns", "posthoc-strict"}, alertIDs(alerts))
	for _, a := range alerts {
		assert.Equal(t, SeverityLow, a.Severity)
		assert.Equal(t, ConditionPostHocWithoutEffect, a.Condition)
	}
}

func TestAlertEngine_Window(t *testing.T) {
	old := alertNow.Add(-10 * 24 * time.Hour)
	event := Event{Time: old, Type: TypeAssumptionViolated, Data: map[string]any{"run_id": "old"}}

	alerts, err := newTestEngine(t, AlertThresholds{MaxCV: 20, WindowDays: 7}, event).Evaluate()
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = newTestEngine(t, AlertThresholds{MaxCV: 20}, event).Evaluate()
	require.NoError(t, err)
	assert.Equal(t, []string{"assumption-old"}, alertIDs(alerts))
}

func TestAlertEngine_SortsBySeverity(t *testing.T) {
	at := alertNow.Add(-time.Hour)
	engine := newTestEngine(t, DefaultAlertThresholds(),
		completed(at, "r1", map[string]any{"treatment_p": 0.5, "cv": 35.0}),
		Event{Time: at, Type: TypeAssumptionViolated, Data: map[string]any{"run_id": "r1", "homoscedasticity_rejected": true}},
	)
	alerts, err := engine.Evaluate()
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, []AlertSeverity{SeverityHigh, SeverityMedium, SeverityLow},
		[]AlertSeverity{alerts[0].Severity, alerts[1].Severity, alerts[2].Severity})
}

func TestAlertEngine_NoAlertsOnCleanLog(t *testing.T) {
	engine := newTestEngine(t, DefaultAlertThresholds(),
		completed(alertNow.Add(-time.Hour), "r1", map[string]any{"treatment_p": 0.001, "cv": 8.0}))
	alerts, err := engine.Evaluate()
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
