package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// =============================================================================
// Generators
// =============================================================================

var (
	designKinds    = []string{"crd", "rcbd", "lsd", "factorial_crd", "split_plot_rcbd"}
	postHocMethods = []string{"tukey", "duncan", "scott_knott", "t_test", "none"}
)

// genAnalysisEvents draws analysis.completed and assumption.violated events
// within one week of base.
func genAnalysisEvents(t *rapid.T, base time.Time) []Event {
	n := rapid.IntRange(0, 30).Draw(t, "numEvents")
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(rapid.IntRange(0, 7*24).Draw(t, fmt.Sprintf("hour_%d", i))) * time.Hour)
		runID := fmt.Sprintf("run-%d", i)
		if rapid.Bool().Draw(t, fmt.Sprintf("violated_%d", i)) {
			events = append(events, Event{Time: at, Type: TypeAssumptionViolated, Data: map[string]any{"run_id": runID}})
			continue
		}
		events = append(events, Event{Time: at, Type: TypeAnalysisCompleted, Data: map[string]any{
			"run_id":      runID,
			"design":      rapid.SampledFrom(designKinds).Draw(t, fmt.Sprintf("design_%d", i)),
			"posthoc":     rapid.SampledFrom(postHocMethods).Draw(t, fmt.Sprintf("posthoc_%d", i)),
			"cv":          rapid.Float64Range(0, 60).Draw(t, fmt.Sprintf("cv_%d", i)),
			"treatment_p": rapid.Float64Range(0, 1).Draw(t, fmt.Sprintf("p_%d", i)),
		}})
	}
	return events
}

func TestProperty_MetricsCountsMatchEvents(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		log, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			rt.Fatalf("creating event log: %v", err)
		}
		defer func() { _ = log.Close() }()

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		events := genAnalysisEvents(rt, base)
		var completedCount, violated int
		for _, e := range events {
			if err := log.Write(e); err != nil {
				rt.Fatalf("writing event: %v", err)
			}
			if e.Type == TypeAnalysisCompleted {
				completedCount++
			} else {
				violated++
			}
		}

		m, err := NewMetricsCalculator(log).Calculate(base)
		if err != nil {
			rt.Fatalf("calculating metrics: %v", err)
		}
		if m.EventCount != len(events) {
			rt.Fatalf("EventCount = %d, want %d", m.EventCount, len(events))
		}
		if m.AnalysesRun != completedCount {
			rt.Fatalf("AnalysesRun = %d, want %d", m.AnalysesRun, completedCount)
		}
		if m.AssumptionViolations != violated {
			rt.Fatalf("AssumptionViolations = %d, want %d", m.AssumptionViolations, violated)
		}
		var byDesign int
		for _, c := range m.AnalysesByDesign {
			byDesign += c
		}
		if byDesign != completedCount {
			rt.Fatalf("design breakdown sums to %d, want %d", byDesign, completedCount)
		}
		if m.SignificantEffects > m.AnalysesRun {
			rt.Fatalf("SignificantEffects %d exceeds AnalysesRun %d", m.SignificantEffects, m.AnalysesRun)
		}
	})
}

func TestProperty_MeanCVWithinRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		log, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			rt.Fatalf("creating event log: %v", err)
		}
		defer func() { _ = log.Close() }()

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		lo, hi := 1e9, -1e9
		for _, e := range genAnalysisEvents(rt, base) {
			if err := log.Write(e); err != nil {
				rt.Fatalf("writing event: %v", err)
			}
			if cv, ok := eventFloat(e, "cv"); ok {
				lo, hi = min(lo, cv), max(hi, cv)
			}
		}

		m, err := NewMetricsCalculator(log).Calculate(base)
		if err != nil {
			rt.Fatalf("calculating metrics: %v", err)
		}
		if m.MeanCV == nil {
			if m.AnalysesRun != 0 {
				rt.Fatalf("MeanCV missing with %d analyses", m.AnalysesRun)
			}
			return
		}
		if *m.MeanCV < lo-1e-9 || *m.MeanCV > hi+1e-9 {
			rt.Fatalf("MeanCV %v outside [%v, %v]", *m.MeanCV, lo, hi)
		}
	})
}
