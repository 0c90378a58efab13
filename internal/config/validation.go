package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/spektr-org/claimlens/engine"
	"github.com/spektr-org/claimlens/export"
	"github.com/spektr-org/claimlens/notify"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validate reports every problem at once, joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Report.Today != "" {
		if _, err := time.Parse(engine.DateLayout, c.Report.Today); err != nil {
			add("report.today", "expected YYYY-MM-DD, got %q", c.Report.Today)
		}
	}
	if c.Report.ZThreshold <= 0 {
		add("report.z_threshold", "must be positive, got %g", c.Report.ZThreshold)
	}
	if c.Report.TopPercent < 1 || c.Report.TopPercent > 100 {
		add("report.top_percent", "must be between 1 and 100, got %d", c.Report.TopPercent)
	}
	switch engine.MonthToDateMode(c.Report.MonthToDate) {
	case engine.MonthAnyYear, engine.MonthCurrentYear:
	default:
		add("report.month_to_date", "must be %q or %q, got %q",
			engine.MonthAnyYear, engine.MonthCurrentYear, c.Report.MonthToDate)
	}

	if c.Export.Enabled {
		if c.Export.Dir == "" {
			add("export.dir", "required when export is enabled")
		}
		if len(c.Export.Formats) == 0 {
			add("export.formats", "at least one format is required when export is enabled")
		}
		for _, f := range c.Export.Formats {
			if _, err := export.New(f, c.Export.Dir); err != nil {
				add("export.formats", "%v", err)
			}
		}
	}

	if c.Notify.Enabled {
		switch strings.ToLower(c.Notify.Transport) {
		case notify.TransportSMTP:
			if c.Notify.SMTP.Host == "" {
				add("notify.smtp.host", "required for smtp transport")
			}
			if c.Notify.SMTP.From == "" {
				add("notify.smtp.from", "required for smtp transport")
			}
			if len(c.Notify.Recipients) == 0 {
				add("notify.recipients", "at least one recipient is required for smtp transport")
			}
		case notify.TransportWebhook:
			if c.Notify.Webhook.URL == "" {
				add("notify.webhook.url", "required for webhook transport")
			}
		case notify.TransportKafka:
			if len(c.Notify.Kafka.Brokers) == 0 {
				add("notify.kafka.brokers", "at least one broker is required for kafka transport")
			}
			if c.Notify.Kafka.Topic == "" {
				add("notify.kafka.topic", "required for kafka transport")
			}
		default:
			add("notify.transport", "unknown transport %q", c.Notify.Transport)
		}
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "%v", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		add("logging.format", "must be json or console, got %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}
