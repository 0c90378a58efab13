package helpers

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spektr-org/claimlens/engine"
	"github.com/spektr-org/claimlens/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into an engine.Ledger
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, S3, Sheets).
// This helper converts the raw bytes into claim records using the schema.
// Headers are normalised to snake_case; the configured date and cost columns
// become admission_date and claim_cost. Bad cells become nulls, never errors.
// ============================================================================

// ErrNoInput is returned when no input path is configured.
var ErrNoInput = errors.New("no input")

// ParseCSV parses CSV bytes into a Ledger using sch for column mapping.
// Fails with engine.ErrMalformedRecord when a required column is missing.
// Empty data yields an empty ledger with no columns.
func ParseCSV(data []byte, sch schema.Config) (*engine.Ledger, error) {
	sch = sch.WithDefaults()

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1 // short rows are null-padded

	// Read header
	headers, err := reader.Read()
	if err == io.EOF {
		return &engine.Ledger{}, nil // empty, not malformed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = schema.ToSnakeCase(strings.TrimPrefix(h, "\ufeff"))
	}
	if err := sch.Validate(keys); err != nil {
		return nil, err
	}

	columns := make([]string, len(keys))
	for i, k := range keys {
		columns[i] = sch.CanonicalColumn(k)
	}

	ledger := &engine.Ledger{Columns: columns}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		ledger.Claims = append(ledger.Claims, parseRow(row, columns, sch))
	}

	return ledger, nil
}

// ParseCSVView parses CSV into a ClaimView (convenience wrapper).
// Consumers who don't need the Ledger can use this directly.
func ParseCSVView(data []byte, sch schema.Config) (engine.ClaimView, error) {
	ledger, err := ParseCSV(data, sch)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(ledger), nil
}

// LoadCSV reads and parses a CSV file.
func LoadCSV(path string, sch schema.Config) (*engine.Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no input path", ErrNoInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ledger, err := ParseCSV(data, sch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ledger, nil
}

func parseRow(row []string, columns []string, sch schema.Config) engine.ClaimRecord {
	var rec engine.ClaimRecord
	for i, col := range columns {
		if i >= len(row) {
			break
		}
		raw := row[i]
		switch col {
		case engine.ColumnAdmissionDate:
			if t, ok := sch.ParseDate(raw); ok {
				rec.AdmissionDate = sql.NullTime{Time: t, Valid: true}
			}
		case engine.ColumnClaimCost:
			if f, ok := sch.ParseCost(raw); ok {
				rec.ClaimCost = sql.NullFloat64{Float64: f, Valid: true}
			}
		default:
			if sch.IsNull(raw) {
				continue
			}
			if rec.Attributes == nil {
				rec.Attributes = make(map[string]string, len(columns))
			}
			rec.Attributes[col] = strings.TrimSpace(raw)
		}
	}
	return rec
}
