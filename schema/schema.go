package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/claimlens/engine"
)

// ============================================================================
// SCHEMA — Describes the shape of a claims ledger for ingestion
// ============================================================================
// Built from config (or DefaultConfig) by the CLI, or from Discover output.
// Ingestion uses it to map headers, recognise null tokens and parse cells.
// Only the presence of the required columns is validated; cell contents
// never fail a load, they become nulls.
// ============================================================================

// Config describes how a ledger source maps onto engine.ClaimRecord.
type Config struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Source headers (normalised to snake_case) holding the two typed fields.
	DateColumn string `json:"dateColumn" yaml:"date_column" mapstructure:"date_column"`
	CostColumn string `json:"costColumn" yaml:"cost_column" mapstructure:"cost_column"`

	// Layouts tried in order when parsing admission dates.
	DateLayouts []string `json:"dateLayouts" yaml:"date_layouts" mapstructure:"date_layouts"`

	// Cell values treated as null, compared case-insensitively after trimming.
	NullTokens []string `json:"nullTokens" yaml:"null_tokens" mapstructure:"null_tokens"`

	// Extra pass-through columns that must be present in the header.
	Required []string `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
}

// DefaultDateLayouts are tried in order when no layouts are configured.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// DefaultNullTokens mirror what spreadsheet exports commonly write for "no value".
var DefaultNullTokens = []string{"NA", "N/A", "NaN", "null", "None", "NaT"}

// DefaultConfig returns the schema of the canonical claims export.
func DefaultConfig() Config {
	return Config{
		Name:        "claims",
		DateColumn:  engine.ColumnAdmissionDate,
		CostColumn:  engine.ColumnClaimCost,
		DateLayouts: append([]string(nil), DefaultDateLayouts...),
		NullTokens:  append([]string(nil), DefaultNullTokens...),
	}
}

// WithDefaults fills every empty field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.DateColumn == "" {
		c.DateColumn = d.DateColumn
	}
	if c.CostColumn == "" {
		c.CostColumn = d.CostColumn
	}
	if len(c.DateLayouts) == 0 {
		c.DateLayouts = d.DateLayouts
	}
	if len(c.NullTokens) == 0 {
		c.NullTokens = d.NullTokens
	}
	c.DateColumn = ToSnakeCase(c.DateColumn)
	c.CostColumn = ToSnakeCase(c.CostColumn)
	return c
}

// RequiredColumns lists every header key a ledger must carry.
func (c Config) RequiredColumns() []string {
	c = c.WithDefaults()
	cols := []string{c.DateColumn, c.CostColumn}
	for _, r := range c.Required {
		cols = append(cols, ToSnakeCase(r))
	}
	return cols
}

// Validate checks a normalised header for the required columns.
// The error matches engine.ErrMalformedRecord.
func (c Config) Validate(header []string) error {
	return engine.RequireColumns(header, c.RequiredColumns()...)
}

// CanonicalColumn maps a source key to the engine's column name.
// The configured date and cost columns become admission_date and claim_cost.
func (c Config) CanonicalColumn(key string) string {
	c = c.WithDefaults()
	switch key {
	case c.DateColumn:
		return engine.ColumnAdmissionDate
	case c.CostColumn:
		return engine.ColumnClaimCost
	}
	return key
}

// ============================================================================
// CELL PARSING
// ============================================================================

// IsNull reports whether a raw cell is empty or a null token.
func (c Config) IsNull(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return true
	}
	tokens := c.NullTokens
	if len(tokens) == 0 {
		tokens = DefaultNullTokens
	}
	for _, t := range tokens {
		if strings.EqualFold(s, t) {
			return true
		}
	}
	return false
}

// ParseDate parses an admission date. ok is false for nulls and malformed values.
func (c Config) ParseDate(raw string) (time.Time, bool) {
	if c.IsNull(raw) {
		return time.Time{}, false
	}
	s := strings.TrimSpace(raw)
	layouts := c.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCost parses a signed amount. Thousands separators and a leading
// currency symbol are accepted ("-$1,234.50", "$-1,234.50"). ok is false
// otherwise.
func (c Config) ParseCost(raw string) (float64, bool) {
	if c.IsNull(raw) {
		return 0, false
	}
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	for _, sym := range []string{"$", "€", "£"} {
		s = strings.TrimPrefix(s, sym)
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	// One sign only: "--5" and "-+5" are malformed.
	if negative && (strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+")) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}
