package core

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// EnvOverrides are settings read from the process environment. They take
// precedence over .expdesconfig; command-line flags take precedence over
// both.
type EnvOverrides struct {
	Home      string  `env:"EXPDES_HOME"`
	Alpha     float64 `env:"EXPDES_ALPHA"`
	PostHoc   string  `env:"EXPDES_POSTHOC"`
	LogLevel  string  `env:"EXPDES_LOG_LEVEL"`
	LogFormat string  `env:"EXPDES_LOG_FORMAT"`
}

// LoadEnv parses EnvOverrides from the environment.
func LoadEnv() (EnvOverrides, error) {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return EnvOverrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// Apply writes the set overrides into cfg.
func (o EnvOverrides) Apply(cfg *models.GlobalConfig) {
	if o.Alpha != 0 {
		cfg.Alpha = o.Alpha
	}
	if o.PostHoc != "" {
		cfg.PostHoc = models.PostHocMethod(o.PostHoc)
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
}
