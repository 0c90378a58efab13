// Package config loads claimlens settings from a YAML file, CLAIMLENS_*
// environment variables and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spektr-org/claimlens/engine"
	"github.com/spektr-org/claimlens/export"
	"github.com/spektr-org/claimlens/notify"
	"github.com/spektr-org/claimlens/schema"
)

// EnvPrefix is prepended to every environment override, e.g.
// CLAIMLENS_REPORT_TOP_PERCENT=20.
const EnvPrefix = "CLAIMLENS"

// Config is the full claimlens configuration.
type Config struct {
	Input   InputConfig   `mapstructure:"input" yaml:"input"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// InputConfig locates the ledger and describes its columns.
type InputConfig struct {
	Path   string        `mapstructure:"path" yaml:"path"`
	Schema schema.Config `mapstructure:"schema" yaml:"schema"`
}

// ReportConfig tunes the analytics run.
type ReportConfig struct {
	Today          string  `mapstructure:"today" yaml:"today"` // YYYY-MM-DD; empty means the current UTC date
	ZThreshold     float64 `mapstructure:"z_threshold" yaml:"z_threshold"`
	TopPercent     int     `mapstructure:"top_percent" yaml:"top_percent"`
	CurrencySymbol string  `mapstructure:"currency_symbol" yaml:"currency_symbol"`
	MonthToDate    string  `mapstructure:"month_to_date" yaml:"month_to_date"`
	Parallel       bool    `mapstructure:"parallel" yaml:"parallel"`
}

// ExportConfig selects the artifact formats.
type ExportConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Dir     string   `mapstructure:"dir" yaml:"dir"`
	Formats []string `mapstructure:"formats" yaml:"formats"`
}

// NotifyConfig wraps the transport settings with an on/off switch.
type NotifyConfig struct {
	Enabled       bool `mapstructure:"enabled" yaml:"enabled"`
	notify.Config `mapstructure:",squash" yaml:",inline"`
}

// LoggingConfig configures the zap logger and optional rotating file.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // json | console
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig points at a node-exporter textfile; empty disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Schema: schema.DefaultConfig(),
		},
		Report: ReportConfig{
			ZThreshold:     3.0,
			TopPercent:     10,
			CurrencySymbol: "$",
			MonthToDate:    string(engine.MonthAnyYear),
		},
		Export: ExportConfig{
			Enabled: true,
			Dir:     "output",
			Formats: []string{export.FormatCSV, export.FormatJSON},
		},
		Notify: NotifyConfig{
			Config: notify.Config{
				Transport: notify.TransportSMTP,
				Signature: notify.DefaultSignature,
				SMTP:      notify.SMTPConfig{Port: 587},
				Webhook:   notify.WebhookConfig{Timeout: 30 * time.Second},
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Load reads path (optional) and applies environment overrides.
// A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("claimlens")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every leaf key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("input.path", d.Input.Path)
	v.SetDefault("input.schema.name", d.Input.Schema.Name)
	v.SetDefault("input.schema.date_column", d.Input.Schema.DateColumn)
	v.SetDefault("input.schema.cost_column", d.Input.Schema.CostColumn)
	v.SetDefault("input.schema.date_layouts", d.Input.Schema.DateLayouts)
	v.SetDefault("input.schema.null_tokens", d.Input.Schema.NullTokens)
	v.SetDefault("input.schema.required", []string{})

	v.SetDefault("report.today", d.Report.Today)
	v.SetDefault("report.z_threshold", d.Report.ZThreshold)
	v.SetDefault("report.top_percent", d.Report.TopPercent)
	v.SetDefault("report.currency_symbol", d.Report.CurrencySymbol)
	v.SetDefault("report.month_to_date", d.Report.MonthToDate)
	v.SetDefault("report.parallel", d.Report.Parallel)

	v.SetDefault("export.enabled", d.Export.Enabled)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.formats", d.Export.Formats)

	v.SetDefault("notify.enabled", d.Notify.Enabled)
	v.SetDefault("notify.transport", d.Notify.Transport)
	v.SetDefault("notify.recipients", []string{})
	v.SetDefault("notify.signature", d.Notify.Signature)
	v.SetDefault("notify.smtp.host", "")
	v.SetDefault("notify.smtp.port", d.Notify.SMTP.Port)
	v.SetDefault("notify.smtp.username", "")
	v.SetDefault("notify.smtp.password", "")
	v.SetDefault("notify.smtp.from", "")
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.webhook.timeout", d.Notify.Webhook.Timeout)
	v.SetDefault("notify.kafka.brokers", []string{})
	v.SetDefault("notify.kafka.topic", "")

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// ReferenceDate resolves report.today, falling back to now's UTC date.
func (c *Config) ReferenceDate(now time.Time) (time.Time, error) {
	if c.Report.Today == "" {
		return engine.DateOf(now.UTC()), nil
	}
	t, err := time.Parse(engine.DateLayout, c.Report.Today)
	if err != nil {
		return time.Time{}, fmt.Errorf("report.today: %w", err)
	}
	return t, nil
}

// EngineOptions maps the report section onto engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithZScoreThreshold(c.Report.ZThreshold),
		engine.WithTopPercent(c.Report.TopPercent),
		engine.WithCurrencySymbol(c.Report.CurrencySymbol),
		engine.WithMonthToDateMode(engine.MonthToDateMode(c.Report.MonthToDate)),
		engine.WithParallel(c.Report.Parallel),
	}
}
