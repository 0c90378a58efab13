package engine

import (
	"database/sql"
	"time"
)

// ============================================================================
// CLAIMLENS ENGINE TYPES — Claims Ledger Analytics
// ============================================================================
// Every component reads claims through ClaimView and returns a new value.
// Nothing in this package writes back onto a ledger.
// ============================================================================

// Column names the engine requires in every ledger header.
const (
	ColumnAdmissionDate = "admission_date"
	ColumnClaimCost     = "claim_cost"
)

// NotApplicable is the sentinel shown for ratios with an empty or zero denominator.
const NotApplicable = "NA"

// ============================================================================
// CLAIM RECORD
// ============================================================================

// ClaimRecord is a single ledger row.
// AdmissionDate and ClaimCost are invalid when the source cell was empty or malformed.
// Attributes holds the remaining columns untouched; an absent key is a null cell.
type ClaimRecord struct {
	AdmissionDate sql.NullTime      `json:"admission_date"`
	ClaimCost     sql.NullFloat64   `json:"claim_cost"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// Attribute returns a pass-through column value and whether it was present.
func (c ClaimRecord) Attribute(key string) (string, bool) {
	v, ok := c.Attributes[key]
	return v, ok
}

// Ledger is one ingested snapshot: the source header plus its rows.
type Ledger struct {
	Columns []string      `json:"columns"`
	Claims  []ClaimRecord `json:"claims"`
}

// ============================================================================
// COMPONENT OUTPUTS
// ============================================================================

// ColumnCount is a per-column counter kept in header order.
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// DataQualityReport counts quality issues. It never references records.
type DataQualityReport struct {
	MissingValues   int           `json:"missing_values"`
	NegativeCosts   int           `json:"negative_costs"`
	FutureDates     int           `json:"future_dates"`
	MissingByColumn []ColumnCount `json:"missing_by_column"`
}

// TimeWindowSet holds the temporal views of one run.
type TimeWindowSet struct {
	Today        time.Time `json:"today"`
	CurrentWeek  ClaimView `json:"-"`
	PreviousWeek ClaimView `json:"-"`
	MonthToDate  ClaimView `json:"-"`
	YearToDate   ClaimView `json:"-"`
}

// ZScore is the per-record anomaly annotation. Valid is false for null costs
// and for every record when the distribution is degenerate.
type ZScore struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// AnomalySet is the outcome of z-score outlier detection over the full ledger.
type AnomalySet struct {
	Mean       float64   `json:"mean"`
	StdDev     float64   `json:"std_dev"`
	Threshold  float64   `json:"threshold"`
	Degenerate bool      `json:"degenerate"`
	Scores     []ZScore  `json:"-"` // parallel to the input view
	Claims     ClaimView `json:"-"`
	ZScores    []float64 `json:"z_scores"` // parallel to Claims
}

// Count returns the number of anomalous claims.
func (a AnomalySet) Count() int {
	if a.Claims == nil {
		return 0
	}
	return a.Claims.Len()
}

// Ratio is a percentage that may be undefined.
type Ratio struct {
	Value      float64 `json:"value"`
	Applicable bool    `json:"applicable"`
}

// ConcentrationResult is the Pareto cut of the ledger.
type ConcentrationResult struct {
	TopPercent int       `json:"top_percent"`
	K          int       `json:"k"`
	Top        ClaimView `json:"-"`
	TopCost    float64   `json:"top_cost"`
	TotalCost  float64   `json:"total_cost"`
	Ratio      Ratio     `json:"ratio"`
}

// ============================================================================
// PIPELINE RESULT
// ============================================================================

// Result bundles every intermediate output with the final summary.
// Adapters receive it whole so they can export the record subsets.
type Result struct {
	Today         time.Time           `json:"today"`
	Records       int                 `json:"records"`
	Quality       DataQualityReport   `json:"quality"`
	Windows       TimeWindowSet       `json:"-"`
	Anomalies     AnomalySet          `json:"anomalies"`
	Concentration ConcentrationResult `json:"concentration"`
	Summary       SummaryReport       `json:"summary"`
}
