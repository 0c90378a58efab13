package engine

import (
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// QUALITY AUDITOR — Counts null cells, negative costs and future dates
// ============================================================================
// Flagged rows stay in the ledger; the auditor only measures them.
// ============================================================================

// Audit scans every claim once. It fails only when the header lacks a
// required column.
func Audit(view ClaimView, today time.Time, opts ...Option) (DataQualityReport, error) {
	cfg := applyOptions(opts)

	columns := view.Columns()
	// A source with neither header nor rows is empty, not malformed.
	if view.Len() > 0 || len(columns) > 0 {
		if err := RequireColumns(columns, ColumnAdmissionDate, ColumnClaimCost); err != nil {
			return DataQualityReport{}, err
		}
	}
	today = DateOf(today)

	perColumn := make([]int, len(columns))
	var report DataQualityReport

	for i := 0; i < view.Len(); i++ {
		claim := view.Claim(i)

		for j, col := range columns {
			if isNullCell(claim, col) {
				perColumn[j]++
			}
		}

		if claim.ClaimCost.Valid && claim.ClaimCost.Float64 < 0 {
			report.NegativeCosts++
		}
		if claim.AdmissionDate.Valid && DateOf(claim.AdmissionDate.Time).After(today) {
			report.FutureDates++
		}
	}

	report.MissingByColumn = make([]ColumnCount, len(columns))
	for j, col := range columns {
		report.MissingByColumn[j] = ColumnCount{Column: col, Count: perColumn[j]}
		report.MissingValues += perColumn[j]
	}

	cfg.Logger.Debug("quality audit complete",
		zap.Int("records", view.Len()),
		zap.Int("missing_values", report.MissingValues),
		zap.Int("negative_costs", report.NegativeCosts),
		zap.Int("future_dates", report.FutureDates),
	)
	return report, nil
}

func isNullCell(claim ClaimRecord, column string) bool {
	switch column {
	case ColumnAdmissionDate:
		return !claim.AdmissionDate.Valid
	case ColumnClaimCost:
		return !claim.ClaimCost.Valid
	default:
		_, ok := claim.Attribute(column)
		return !ok
	}
}
