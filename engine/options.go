package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — Functional options for Run() and the components
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

// MonthToDateMode selects how the month-to-date window matches dates.
type MonthToDateMode string

const (
	// MonthAnyYear matches the reference month in any year.
	MonthAnyYear MonthToDateMode = "any_year"
	// MonthCurrentYear matches the reference month of the reference year only.
	MonthCurrentYear MonthToDateMode = "current_year"
)

type config struct {
	ZScoreThreshold float64
	TopPercent      int // share of records counted as top contributors
	CurrencySymbol  string
	MonthToDate     MonthToDateMode
	Parallel        bool
	Logger          *zap.Logger
}

// WithZScoreThreshold sets the |z| above which a claim is anomalous.
func WithZScoreThreshold(threshold float64) Option {
	return func(c *config) {
		if threshold > 0 {
			c.ZScoreThreshold = threshold
		}
	}
}

// WithTopPercent sets the Pareto cut, as a whole percentage of all records.
func WithTopPercent(percent int) Option {
	return func(c *config) {
		if percent > 0 && percent <= 100 {
			c.TopPercent = percent
		}
	}
}

// WithCurrencySymbol sets the prefix used for money values.
func WithCurrencySymbol(symbol string) Option {
	return func(c *config) {
		c.CurrencySymbol = symbol
	}
}

// WithMonthToDateMode selects the month-to-date reading.
func WithMonthToDateMode(mode MonthToDateMode) Option {
	return func(c *config) {
		if mode == MonthAnyYear || mode == MonthCurrentYear {
			c.MonthToDate = mode
		}
	}
}

// WithParallel runs the anomaly and concentration stages concurrently.
func WithParallel(parallel bool) Option {
	return func(c *config) {
		c.Parallel = parallel
	}
}

// WithLogger attaches a structured logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		ZScoreThreshold: 3.0,
		TopPercent:      10,
		CurrencySymbol:  "$",
		MonthToDate:     MonthAnyYear,
		Logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
