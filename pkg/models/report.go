package models

import "time"

// Report is the persisted outcome of one analysis run.
type Report struct {
	ID          string            `yaml:"id" json:"id"`
	RunID       string            `yaml:"run_id" json:"run_id"`
	CreatedAt   time.Time         `yaml:"created_at" json:"created_at"`
	Dataset     string            `yaml:"dataset" json:"dataset"`
	Design      DesignSpec        `yaml:"design" json:"design"`
	Anova       AnovaTable        `yaml:"anova" json:"anova"`
	Assumptions *AssumptionReport `yaml:"assumptions,omitempty" json:"assumptions,omitempty"`
	PostHoc     []PostHocResult   `yaml:"posthoc,omitempty" json:"posthoc,omitempty"`
	Unfolded    *UnfoldResult     `yaml:"unfolded,omitempty" json:"unfolded,omitempty"`
	Plots       []string          `yaml:"plots,omitempty" json:"plots,omitempty"`
}

// ReportSummary is the index entry for a stored report.
type ReportSummary struct {
	ID        string     `yaml:"id" json:"id"`
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
	Dataset   string     `yaml:"dataset" json:"dataset"`
	Design    DesignKind `yaml:"design" json:"design"`
	Response  string     `yaml:"response" json:"response"`
}
