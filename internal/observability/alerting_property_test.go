package observability

import (
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func evaluateWith(rt *rapid.T, dir string, events []Event, thresholds AlertThresholds, now time.Time) []Alert {
	log, err := NewJSONLEventLog(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		rt.Fatalf("creating event log: %v", err)
	}
	defer func() { _ = log.Close() }()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			rt.Fatalf("writing event: %v", err)
		}
	}
	engine := NewAlertEngine(log, thresholds).(*alertEngine)
	engine.now = func() time.Time { return now }
	alerts, err := engine.Evaluate()
	if err != nil {
		rt.Fatalf("evaluating alerts: %v", err)
	}
	return alerts
}

func countCondition(alerts []Alert, condition string) int {
	var n int
	for _, a := range alerts {
		if a.Condition == condition {
			n++
		}
	}
	return n
}

// Raising MaxCV never adds CV alerts.
func TestProperty_CVAlertsMonotoneInThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		events := genAnalysisEvents(rt, base)
		lo := rapid.Float64Range(1, 40).Draw(rt, "lo")
		hi := lo + rapid.Float64Range(0, 40).Draw(rt, "delta")
		now := base.Add(8 * 24 * time.Hour)

		loAlerts := evaluateWith(rt, t.TempDir(), events, AlertThresholds{MaxCV: lo}, now)
		hiAlerts := evaluateWith(rt, t.TempDir(), events, AlertThresholds{MaxCV: hi}, now)
		if countCondition(hiAlerts, ConditionHighCV) > countCondition(loAlerts, ConditionHighCV) {
			rt.Fatalf("MaxCV %v raised %d CV alerts, MaxCV %v raised %d",
				hi, countCondition(hiAlerts, ConditionHighCV), lo, countCondition(loAlerts, ConditionHighCV))
		}
	})
}

// A wider window never drops alerts.
func TestProperty_AlertsMonotoneInWindow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		events := genAnalysisEvents(rt, base)
		short := rapid.IntRange(1, 7).Draw(rt, "short")
		long := short + rapid.IntRange(0, 7).Draw(rt, "extra")
		now := base.Add(8 * 24 * time.Hour)

		shortAlerts := evaluateWith(rt, t.TempDir(), events, AlertThresholds{MaxCV: 20, WindowDays: short}, now)
		longAlerts := evaluateWith(rt, t.TempDir(), events, AlertThresholds{MaxCV: 20, WindowDays: long}, now)
		if len(longAlerts) < len(shortAlerts) {
			rt.Fatalf("window %d raised %d alerts, window %d raised %d", long, len(longAlerts), short, len(shortAlerts))
		}
	})
}

// Alert IDs are unique within one evaluation.
func TestProperty_AlertIDsUnique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		alerts := evaluateWith(rt, t.TempDir(), genAnalysisEvents(rt, base), AlertThresholds{MaxCV: 15}, base.Add(8*24*time.Hour))
		seen := make(map[string]bool)
		for _, a := range alerts {
			if seen[a.ID] {
				rt.Fatalf("duplicate alert ID %s", a.ID)
			}
			seen[a.ID] = true
		}
	})
}
