package models

// PlotConfig controls rendered figures.
type PlotConfig struct {
	Width       float64 `yaml:"width" mapstructure:"width"`
	Height      float64 `yaml:"height" mapstructure:"height"`
	PointsColor string  `yaml:"points_color" mapstructure:"points_color"`
	Format      string  `yaml:"format" mapstructure:"format"`
}

// AlertConfig holds the thresholds the alert engine evaluates.
type AlertConfig struct {
	MaxCV      float64 `yaml:"max_cv" mapstructure:"max_cv"`
	WindowDays int     `yaml:"window_days" mapstructure:"window_days"`
}

// SlackConfig holds the Slack webhook notification target.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig groups alert delivery settings.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
	Alerts  AlertConfig `yaml:"alerts" mapstructure:"alerts"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GlobalConfig holds settings read from .expdesconfig via Viper.
type GlobalConfig struct {
	Alpha         float64            `yaml:"alpha" mapstructure:"alpha"`
	PostHoc       PostHocMethod      `yaml:"posthoc" mapstructure:"posthoc"`
	LetterOrder   string             `yaml:"letter_order" mapstructure:"letter_order"`
	Locale        string             `yaml:"locale" mapstructure:"locale"`
	PlotsDir      string             `yaml:"plots_dir" mapstructure:"plots_dir"`
	Plot          PlotConfig         `yaml:"plot" mapstructure:"plot"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	Log           LogConfig          `yaml:"log" mapstructure:"log"`
}
