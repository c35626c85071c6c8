package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics summarises the analyses recorded in the event log.
type Metrics struct {
	AnalysesRun          int            `json:"analyses_run"`
	AnalysesByDesign     map[string]int `json:"analyses_by_design"`
	AnalysesByPostHoc    map[string]int `json:"analyses_by_posthoc"`
	AnalysesByDataset    map[string]int `json:"analyses_by_dataset"`
	AssumptionViolations int            `json:"assumption_violations"`
	SignificantEffects   int            `json:"significant_effects"`
	ReportsSaved         int            `json:"reports_saved"`
	MeanCV               *float64       `json:"mean_cv,omitempty"`
	EventCount           int            `json:"event_count"`
	OldestEvent          *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent          *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		AnalysesByDesign:  make(map[string]int),
		AnalysesByPostHoc: make(map[string]int),
		AnalysesByDataset: make(map[string]int),
		EventCount:        len(events),
	}

	var cvSum float64
	var cvCount int
	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case TypeAnalysisCompleted:
			m.AnalysesRun++
			if d := eventString(event, "design"); d != "" {
				m.AnalysesByDesign[d]++
			}
			if p := eventString(event, "posthoc"); p != "" {
				m.AnalysesByPostHoc[p]++
			}
			if ds := eventString(event, "dataset"); ds != "" {
				m.AnalysesByDataset[ds]++
			}
			if eventString(event, "report_id") != "" {
				m.ReportsSaved++
			}
			if cv, ok := eventFloat(event, "cv"); ok {
				cvSum += cv
				cvCount++
			}
			p, ok := eventFloat(event, "treatment_p")
			alpha, hasAlpha := eventFloat(event, "alpha")
			if !hasAlpha {
				alpha = 0.05
			}
			if ok && p < alpha {
				m.SignificantEffects++
			}
		case TypeAssumptionViolated:
			m.AssumptionViolations++
		}
	}
	if cvCount > 0 {
		mean := cvSum / float64(cvCount)
		m.MeanCV = &mean
	}
	return m, nil
}

// Registry exposes m as Prometheus gauges on a fresh registry.
func (m *Metrics) Registry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	gauges := []struct {
		name, help string
		value      float64
	}{
		{"analyses_total", "Analyses recorded in the event log.", float64(m.AnalysesRun)},
		{"assumption_violations_total", "Analyses whose residual checks failed.", float64(m.AssumptionViolations)},
		{"significant_effects_total", "Analyses with a significant treatment effect.", float64(m.SignificantEffects)},
		{"reports_saved_total", "Analyses persisted as reports.", float64(m.ReportsSaved)},
		{"events_total", "Events in the metrics window.", float64(m.EventCount)},
	}
	if m.MeanCV != nil {
		gauges = append(gauges, struct {
			name, help string
			value      float64
		}{"mean_cv_percent", "Mean coefficient of variation of the analyses.", *m.MeanCV})
	}
	for _, g := range gauges {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "expdes", Name: g.name, Help: g.help})
		gauge.Set(g.value)
		if err := reg.Register(gauge); err != nil {
			return nil, fmt.Errorf("registering %s: %w", g.name, err)
		}
	}

	vecs := []struct {
		name, help, label string
		values            map[string]int
	}{
		{"analyses_by_design", "Analyses per experimental design.", "design", m.AnalysesByDesign},
		{"analyses_by_posthoc", "Analyses per post-hoc method.", "method", m.AnalysesByPostHoc},
		{"analyses_by_dataset", "Analyses per dataset.", "dataset", m.AnalysesByDataset},
	}
	for _, v := range vecs {
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "expdes", Name: v.name, Help: v.help}, []string{v.label})
		keys := make([]string, 0, len(v.values))
		for k := range v.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			gv.WithLabelValues(k).Set(float64(v.values[k]))
		}
		if err := reg.Register(gv); err != nil {
			return nil, fmt.Errorf("registering %s: %w", v.name, err)
		}
	}
	return reg, nil
}

// WriteTextfile writes m in the Prometheus text exposition format, suitable
// for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	reg, err := m.Registry()
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
