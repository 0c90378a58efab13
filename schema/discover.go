package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic Column Profiling
// ============================================================================
// Inspects a raw CSV ledger and profiles every column. Used by `claimlens
// audit` to show what a source looks like before a report is trusted, and to
// guess the date and cost columns when a source does not use the canonical
// admission_date / claim_cost headers.
//
// Profiling pipeline per column:
//   1. Count nulls using the configured null tokens
//   2. Sample values → detect type (number, date, bool, text)
//   3. Cardinality → hint (low, medium, high)
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // Max rows to inspect (0 = all, capped). Default: 1000
	Name       string // Dataset name override
	Base       Config // Null tokens and layouts to profile with
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
		Base:       DefaultConfig(),
	}
}

// Column types reported by discovery.
const (
	TypeText   = "text"
	TypeNumber = "number"
	TypeDate   = "date"
	TypeBool   = "bool"
)

// ColumnProfile summarises one source column.
type ColumnProfile struct {
	Header          string   `json:"header"`
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Type            string   `json:"type"`
	NullCount       int      `json:"nullCount"`
	UniqueCount     int      `json:"uniqueCount"`
	SampleValues    []string `json:"sampleValues"`
	CardinalityHint string   `json:"cardinalityHint"`
}

// Profile is the result of discovery over one source.
type Profile struct {
	Name         string          `json:"name"`
	Rows         int             `json:"rows"`
	Columns      []ColumnProfile `json:"columns"`
	Schema       Config          `json:"schema"`
	DiscoveredAt string          `json:"discoveredAt"`
}

// Discover profiles CSV data and guesses the ledger schema.
func Discover(data []byte, opts ...DiscoverOptions) (*Profile, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	base := opt.Base.WithDefaults()

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	// 1. Read headers
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")

	// 2. Read sample rows
	var rows [][]string
	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}
	for i := 0; i < limit; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	// 3. Profile each column
	profile := &Profile{
		Name:         opt.Name,
		Rows:         len(rows),
		Columns:      make([]ColumnProfile, len(headers)),
		DiscoveredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if profile.Name == "" {
		profile.Name = base.Name
	}
	for i, header := range headers {
		profile.Columns[i] = analyzeColumn(header, i, rows, base)
	}

	// 4. Guess the typed columns
	profile.Schema = base
	profile.Schema.Name = profile.Name
	if key := guessColumn(profile.Columns, base.DateColumn, TypeDate, "admission", "date"); key != "" {
		profile.Schema.DateColumn = key
	}
	if key := guessColumn(profile.Columns, base.CostColumn, TypeNumber, "cost", "amount", "charge"); key != "" {
		profile.Schema.CostColumn = key
	}

	return profile, nil
}

// Keys returns the normalised header in source order.
func (p *Profile) Keys() []string {
	keys := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		keys[i] = c.Key
	}
	return keys
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

// analyzeColumn inspects all values in a column.
func analyzeColumn(header string, index int, rows [][]string, base Config) ColumnProfile {
	col := ColumnProfile{
		Header:      header,
		Key:         ToSnakeCase(header),
		DisplayName: toDisplayName(header),
		Type:        TypeText,
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)

	for _, row := range rows {
		if index >= len(row) || base.IsNull(row[index]) {
			col.NullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		values = append(values, val)
		uniqueSet[val] = true
	}

	col.UniqueCount = len(uniqueSet)
	col.SampleValues = collectSamples(uniqueSet, 10)
	col.Type = detectType(values, base)

	switch {
	case col.UniqueCount <= 10:
		col.CardinalityHint = "low"
	case col.UniqueCount <= 100:
		col.CardinalityHint = "medium"
	default:
		col.CardinalityHint = "high"
	}
	return col
}

// guessColumn prefers an exact key match, then the first column of the
// wanted type whose key contains one of the hints.
func guessColumn(cols []ColumnProfile, exact, wantType string, hints ...string) string {
	for _, c := range cols {
		if c.Key == exact {
			return c.Key
		}
	}
	for _, hint := range hints {
		for _, c := range cols {
			if c.Type == wantType && strings.Contains(c.Key, hint) {
				return c.Key
			}
		}
	}
	return ""
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType inspects values to determine column type.
// Requires 80%+ of non-null values to match for number/date/bool.
func detectType(values []string, base Config) string {
	if len(values) == 0 {
		return TypeText
	}

	numCount := 0
	dateCount := 0
	boolCount := 0

	for _, v := range values {
		if _, ok := base.ParseCost(v); ok {
			numCount++
		}
		if _, ok := base.ParseDate(v); ok {
			dateCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}

	switch {
	case boolCount >= threshold:
		return TypeBool
	case dateCount >= threshold:
		return TypeDate
	case numCount >= threshold:
		return TypeNumber
	}
	return TypeText
}

func isBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "false" || s == "yes" || s == "no"
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// ToSnakeCase converts "Column Name" or "columnName" → "column_name".
func ToSnakeCase(s string) string {
	s = strings.TrimSpace(s)

	// Handle camelCase: insert underscore before uppercase letters
	var result strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
		prev = r
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	return s
}

// toDisplayName cleans a header for human display.
// "claim_cost" → "Claim Cost", "Admission Date" → "Admission Date"
func toDisplayName(s string) string {
	// If already has spaces/mixed case, just trim
	if strings.Contains(strings.TrimSpace(s), " ") {
		return strings.TrimSpace(s)
	}

	// Convert snake_case to Title Case
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
