// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DefaultFormURL is the ITA training registration form. It can be overridden
// with form.url or the --url flag, but there is exactly one form this tool
// was written for.
const DefaultFormURL = "https://docs.google.com/forms/d/e/1FAIpQLSeCnzQ7Kax9u6_uZQDbHiJrPP76iMUg3eJvZMmV3f2xZU8vsQ/viewform"

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Form    FormConfig    `mapstructure:"form" yaml:"form"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Typing  TypingConfig  `mapstructure:"typing" yaml:"typing"`
}

// LoggerConfig controls the zap logger setup.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the browser process.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// ExecPath pins the browser binary. When empty, the manager probes the
	// known install locations of Chrome, Chromium, Brave and Edge in order.
	ExecPath        string        `mapstructure:"exec_path" yaml:"exec_path"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	Args            []string      `mapstructure:"args" yaml:"args"`
}

// FormConfig describes the target form and per-run value overrides.
type FormConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
	// Overrides maps a field label to a replacement value, applied on top of
	// the built-in field catalog before filling.
	Overrides map[string]string `mapstructure:"overrides" yaml:"overrides"`
	// CheckboxPicks is how many options to tick in a multi-checkbox group.
	CheckboxPicks int `mapstructure:"checkbox_picks" yaml:"checkbox_picks"`
	// ReportPath, when set, receives a JSON summary of the fill run.
	ReportPath string `mapstructure:"report_path" yaml:"report_path"`
	// Seed fixes the rng used for randomized selections. Zero means
	// time-seeded.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// AuthConfig controls the login step.
type AuthConfig struct {
	// Provider is "auto", "google", "cas" or "none". Auto sniffs the
	// post-navigation URL host.
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Email may be preset to skip the interactive email prompt.
	Email string `mapstructure:"email" yaml:"email"`
	// Username may be preset for the CAS flow.
	Username string `mapstructure:"username" yaml:"username"`
	// StepTimeout bounds each wait for a login element to appear.
	StepTimeout time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
}

// TypingConfig tunes the human-cadence keyboard driver.
type TypingConfig struct {
	// KeyDelayMeanMs / KeyDelayStdDevMs shape the gaussian inter-key delay.
	KeyDelayMeanMs   float64 `mapstructure:"key_delay_mean_ms" yaml:"key_delay_mean_ms"`
	KeyDelayStdDevMs float64 `mapstructure:"key_delay_stddev_ms" yaml:"key_delay_stddev_ms"`
	KeyDelayMinMs    float64 `mapstructure:"key_delay_min_ms" yaml:"key_delay_min_ms"`
	// KeyHoldMeanMs is the simulated key dwell time.
	KeyHoldMeanMs   float64 `mapstructure:"key_hold_mean_ms" yaml:"key_hold_mean_ms"`
	KeyHoldStdDevMs float64 `mapstructure:"key_hold_stddev_ms" yaml:"key_hold_stddev_ms"`
	// TypoRate is the per-character probability of a neighbor-key slip that
	// gets backspaced and corrected. Zero disables typos entirely.
	TypoRate float64 `mapstructure:"typo_rate" yaml:"typo_rate"`
}

// NewDefault returns a Config populated with sane defaults.
func NewDefault() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "formpilot",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      14,
		},
		Browser: BrowserConfig{
			Headless:        false,
			PageLoadTimeout: 60 * time.Second,
		},
		Form: FormConfig{
			URL:           DefaultFormURL,
			CheckboxPicks: 1,
		},
		Auth: AuthConfig{
			Provider:    "auto",
			StepTimeout: 30 * time.Second,
		},
		Typing: TypingConfig{
			KeyDelayMeanMs:   70,
			KeyDelayStdDevMs: 28,
			KeyDelayMinMs:    35,
			KeyHoldMeanMs:    55,
			KeyHoldStdDevMs:  15,
			TypoRate:         0.02,
		},
	}
}

// SetDefaults registers every default with viper so that partial config
// files and env vars merge cleanly.
func SetDefaults(v *viper.Viper) {
	d := NewDefault()

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.service_name", d.Logger.ServiceName)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)

	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.page_load_timeout", d.Browser.PageLoadTimeout)

	v.SetDefault("form.url", d.Form.URL)
	v.SetDefault("form.checkbox_picks", d.Form.CheckboxPicks)

	v.SetDefault("auth.provider", d.Auth.Provider)
	v.SetDefault("auth.step_timeout", d.Auth.StepTimeout)

	v.SetDefault("typing.key_delay_mean_ms", d.Typing.KeyDelayMeanMs)
	v.SetDefault("typing.key_delay_stddev_ms", d.Typing.KeyDelayStdDevMs)
	v.SetDefault("typing.key_delay_min_ms", d.Typing.KeyDelayMinMs)
	v.SetDefault("typing.key_hold_mean_ms", d.Typing.KeyHoldMeanMs)
	v.SetDefault("typing.key_hold_stddev_ms", d.Typing.KeyHoldStdDevMs)
	v.SetDefault("typing.typo_rate", d.Typing.TypoRate)
}

// Validate checks the configuration for values that would only fail later,
// mid-run, in a harder to diagnose way.
func (c *Config) Validate() error {
	if c.Form.URL == "" {
		return fmt.Errorf("form.url must not be empty")
	}
	if c.Form.CheckboxPicks < 1 {
		return fmt.Errorf("form.checkbox_picks must be a positive integer, got %d", c.Form.CheckboxPicks)
	}
	if c.Browser.PageLoadTimeout <= 0 {
		return fmt.Errorf("browser.page_load_timeout must be positive, got %s", c.Browser.PageLoadTimeout)
	}
	if c.Auth.StepTimeout <= 0 {
		return fmt.Errorf("auth.step_timeout must be positive, got %s", c.Auth.StepTimeout)
	}
	switch c.Auth.Provider {
	case "auto", "google", "cas", "none":
	default:
		return fmt.Errorf("auth.provider must be one of auto, google, cas, none; got %q", c.Auth.Provider)
	}
	if c.Typing.TypoRate < 0 || c.Typing.TypoRate > 1 {
		return fmt.Errorf("typing.typo_rate must be between 0.0 and 1.0, got %f", c.Typing.TypoRate)
	}
	if c.Typing.KeyDelayMeanMs < 0 || c.Typing.KeyDelayMinMs < 0 {
		return fmt.Errorf("typing delays must not be negative")
	}
	return nil
}
