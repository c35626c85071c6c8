package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionAssumptionViolated   = "assumption_violated"
	ConditionHighCV               = "cv_above_threshold"
	ConditionPostHocWithoutEffect = "posthoc_without_effect"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire. WindowDays limits evaluation
// to recent events; zero evaluates the whole log.
type AlertThresholds struct {
	MaxCV      float64 `yaml:"max_cv" json:"max_cv"`
	WindowDays int     `yaml:"window_days" json:"window_days"`
}

// DefaultAlertThresholds returns the default thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{MaxCV: 20, WindowDays: 7}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate reads the events in the window and returns triggered alerts,
// highest severity first.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now()
	filter := EventFilter{}
	if ae.thresholds.WindowDays > 0 {
		since := now.Add(-time.Duration(ae.thresholds.WindowDays) * 24 * time.Hour)
		filter.Since = &since
	}
	events, err := ae.eventLog.Read(filter)
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}

	var alerts []Alert
	alerts = append(alerts, ae.checkAssumptions(events, now)...)
	alerts = append(alerts, ae.checkCV(events, now)...)
	alerts = append(alerts, ae.checkPostHocWithoutEffect(events, now)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
	})
	return alerts, nil
}

// checkAssumptions raises one alert per run whose residual checks failed.
func (ae *alertEngine) checkAssumptions(events []Event, now time.Time) []Alert {
	var alerts []Alert
	seen := make(map[string]bool)
	for _, event := range events {
		if event.Type != TypeAssumptionViolated {
			continue
		}
		runID := eventString(event, "run_id")
		if runID == "" || seen[runID] {
			continue
		}
		seen[runID] = true

		var which string
		norm, _ := event.Data["normality_rejected"].(bool)
		homo, _ := event.Data["homoscedasticity_rejected"].(bool)
		switch {
		case norm && homo:
			which = "normality and homoscedasticity"
		case norm:
			which = "normality"
		case homo:
			which = "homoscedasticity"
		default:
			which = "residual assumptions"
		}
		alerts = append(alerts, Alert{
			ID:          "assumption-" + runID,
			Condition:   ConditionAssumptionViolated,
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("analysis of %s (%s) rejected %s", eventString(event, "dataset"), eventString(event, "design"), which),
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkCV flags experiments with poor precision.
func (ae *alertEngine) checkCV(events []Event, now time.Time) []Alert {
	if ae.thresholds.MaxCV <= 0 {
		return nil
	}
	var alerts []Alert
	for _, event := range events {
		if event.Type != TypeAnalysisCompleted {
			continue
		}
		cv, ok := eventFloat(event, "cv")
		if !ok || cv <= ae.thresholds.MaxCV {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "cv-" + eventString(event, "run_id"),
			Condition:   ConditionHighCV,
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("analysis of %s has CV %.1f%% above %.1f%%", eventString(event, "dataset"), cv, ae.thresholds.MaxCV),
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkPostHocWithoutEffect flags runs that compared means although the
// treatment effect was not significant.
func (ae *alertEngine) checkPostHocWithoutEffect(events []Event, now time.Time) []Alert {
	var alerts []Alert
	for _, event := range events {
		if event.Type != TypeAnalysisCompleted {
			continue
		}
		method := eventString(event, "posthoc")
		if method == "" || method == "none" {
			continue
		}
		p, ok := eventFloat(event, "treatment_p")
		if !ok {
			continue
		}
		alpha, ok := eventFloat(event, "alpha")
		if !ok {
			alpha = 0.05
		}
		if p < alpha {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "posthoc-" + eventString(event, "run_id"),
			Condition:   ConditionPostHocWithoutEffect,
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("%s comparisons on %s with a non-significant treatment (p=%.4f)", method, eventString(event, "dataset"), p),
			TriggeredAt: now,
		})
	}
	return alerts
}

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	}
	return 3
}
