// Package core contains the statistical engine of expdes: design models,
// ANOVA, assumption checks, post-hoc comparisons, regression and the
// analysis service that ties them together, plus configuration loading.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/expdes/pkg/models"
)

// ConfigFileName is the YAML file read from the base directory.
const ConfigFileName = ".expdesconfig"

// ConfigurationManager loads and validates the global configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file and environment overrides.
type viperConfigManager struct {
	basePath string
	env      EnvOverrides
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .expdesconfig from basePath and applies env on top of it.
func NewConfigurationManager(basePath string, env EnvOverrides) ConfigurationManager {
	return &viperConfigManager{basePath: basePath, env: env}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Alpha:       DefaultAlpha,
		PostHoc:     models.PostHocTukey,
		LetterOrder: OrderDescending,
		Locale:      "en",
		PlotsDir:    "plots",
		Plot: models.PlotConfig{
			Width:       8,
			Height:      5,
			PointsColor: "red",
			Format:      "png",
		},
		Notifications: models.NotificationConfig{
			Alerts: models.AlertConfig{MaxCV: 20, WindowDays: 7},
		},
		Log: models.LogConfig{Level: "info", Format: "console"},
	}
}

// LoadGlobalConfig reads .expdesconfig from the base path. A missing file
// yields the defaults. Environment overrides are applied last.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("analysis.alpha", cfg.Alpha)
	v.SetDefault("analysis.posthoc", string(cfg.PostHoc))
	v.SetDefault("analysis.letter_order", cfg.LetterOrder)
	v.SetDefault("output.locale", cfg.Locale)
	v.SetDefault("output.plots_dir", cfg.PlotsDir)
	v.SetDefault("plot.width", cfg.Plot.Width)
	v.SetDefault("plot.height", cfg.Plot.Height)
	v.SetDefault("plot.points_color", cfg.Plot.PointsColor)
	v.SetDefault("plot.format", cfg.Plot.Format)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("notifications.alerts.max_cv", cfg.Notifications.Alerts.MaxCV)
	v.SetDefault("notifications.alerts.window_days", cfg.Notifications.Alerts.WindowDays)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.Alpha = v.GetFloat64("analysis.alpha")
	cfg.PostHoc = models.PostHocMethod(strings.ToLower(v.GetString("analysis.posthoc")))
	cfg.LetterOrder = v.GetString("analysis.letter_order")
	cfg.Locale = v.GetString("output.locale")
	cfg.PlotsDir = v.GetString("output.plots_dir")
	cfg.Plot.Width = v.GetFloat64("plot.width")
	cfg.Plot.Height = v.GetFloat64("plot.height")
	cfg.Plot.PointsColor = v.GetString("plot.points_color")
	cfg.Plot.Format = v.GetString("plot.format")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	cfg.Notifications.Alerts.MaxCV = v.GetFloat64("notifications.alerts.max_cv")
	cfg.Notifications.Alerts.WindowDays = v.GetInt("notifications.alerts.window_days")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	cm.env.Apply(cfg)
	return cfg, nil
}

// ValidateConfig checks cfg for invalid values and reports all of them.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	return validateGlobalConfig(cfg)
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validPlotFormats = map[string]bool{
	"png": true,
	"svg": true,
	"pdf": true,
}

// validateGlobalConfig checks a GlobalConfig for invalid field values.
func validateGlobalConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("global configuration is nil")
	}

	var errs []string

	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		errs = append(errs, fmt.Sprintf("analysis.alpha must be in (0, 1), got %g", cfg.Alpha))
	}

	if _, err := NewPostHoc(string(cfg.PostHoc)); err != nil {
		errs = append(errs, fmt.Sprintf(
			"analysis.posthoc %q is invalid, must be one of: %s",
			cfg.PostHoc, strings.Join(PostHocNames(), ", "),
		))
	}

	if !ValidLetterOrder(cfg.LetterOrder) {
		errs = append(errs, fmt.Sprintf(
			"analysis.letter_order %q is invalid, must be one of: descending, ascending, alphabetical",
			cfg.LetterOrder,
		))
	}

	if cfg.Plot.Width <= 0 || cfg.Plot.Height <= 0 {
		errs = append(errs, fmt.Sprintf(
			"plot size %gx%g is invalid, width and height must be positive",
			cfg.Plot.Width, cfg.Plot.Height,
		))
	}

	if cfg.Plot.Format != "" && !validPlotFormats[cfg.Plot.Format] {
		errs = append(errs, fmt.Sprintf("plot.format %q is invalid, must be one of: png, svg, pdf", cfg.Plot.Format))
	}

	if cfg.Notifications.Alerts.MaxCV < 0 {
		errs = append(errs, "notifications.alerts.max_cv must be non-negative")
	}

	if cfg.Notifications.Alerts.WindowDays < 0 {
		errs = append(errs, "notifications.alerts.window_days must be non-negative")
	}

	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}

	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: debug, info, warn, error", cfg.Log.Level))
	}

	if cfg.Log.Format != "console" && cfg.Log.Format != "json" {
		errs = append(errs, fmt.Sprintf("log.format %q is invalid, must be console or json", cfg.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("global config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
