package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData for exports and terminal output
// ============================================================================
// All functions operate on ClaimView — zero-copy access to any data source.
// Columns come from view.Columns(); null cells render as "".
// ============================================================================

// DateLayout is the rendering of admission dates in every table.
const DateLayout = "2006-01-02"

// Column describes one table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text" | "number" | "date"
	Align string `json:"align"` // "left" | "right"
}

// Summary is an optional footer row.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// TableData is a render-ready table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Keys returns the column keys in order; used as a CSV header.
func (t *TableData) Keys() []string {
	keys := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		keys[i] = c.Key
	}
	return keys
}

// ============================================================================
// CLAIM TABLE — Row per record
// ============================================================================

// BuildClaimTable renders every claim of a view in header order.
func BuildClaimTable(title string, view ClaimView) *TableData {
	columns := claimColumns(view.Columns())

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		rows = append(rows, claimRow(view.Claim(i), view.Columns()))
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("Total (%d records)", view.Len()),
			Values: map[string]string{
				ColumnClaimCost: fmt.Sprintf("%.2f", SumCost(view)),
			},
		},
	}
}

// BuildAnomalyTable renders the anomalous claims with their z-score appended.
func BuildAnomalyTable(title string, set AnomalySet) *TableData {
	if set.Claims == nil {
		return &TableData{Title: title, Columns: []Column{}, Rows: [][]string{}}
	}
	table := BuildClaimTable(title, set.Claims)
	table.Columns = append(table.Columns, Column{
		Key: "z_score", Label: "Z-Score", Type: "number", Align: "right",
	})
	for i := range table.Rows {
		z := ""
		if i < len(set.ZScores) {
			z = strconv.FormatFloat(set.ZScores[i], 'f', 4, 64)
		}
		table.Rows[i] = append(table.Rows[i], z)
	}
	return table
}

// ============================================================================
// REPORT TABLES
// ============================================================================

// BuildSummaryTable renders the report as Metric/Value rows.
func BuildSummaryTable(title string, report SummaryReport) *TableData {
	metrics := report.Metrics()
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{m.Name, m.Value})
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			{Key: "metric", Label: "Metric", Type: "text", Align: "left"},
			{Key: "value", Label: "Value", Type: "text", Align: "right"},
		},
		Rows: rows,
	}
}

// BuildMissingTable renders per-column null counts in header order.
func BuildMissingTable(title string, dq DataQualityReport) *TableData {
	rows := make([][]string, 0, len(dq.MissingByColumn))
	for _, c := range dq.MissingByColumn {
		rows = append(rows, []string{c.Column, strconv.Itoa(c.Count)})
	}
	return &TableData{
		Title: title,
		Columns: []Column{
			{Key: "column", Label: "Column", Type: "text", Align: "left"},
			{Key: "missing_count", Label: "Missing Count", Type: "number", Align: "right"},
		},
		Rows: rows,
		Summary: &Summary{
			Label:  "Total",
			Values: map[string]string{"missing_count": strconv.Itoa(dq.MissingValues)},
		},
	}
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func claimColumns(header []string) []Column {
	columns := make([]Column, 0, len(header))
	for _, key := range header {
		col := Column{Key: key, Label: LabelForColumn(key), Type: "text", Align: "left"}
		switch key {
		case ColumnAdmissionDate:
			col.Type = "date"
		case ColumnClaimCost:
			col.Type, col.Align = "number", "right"
		}
		columns = append(columns, col)
	}
	return columns
}

func claimRow(c ClaimRecord, header []string) []string {
	row := make([]string, 0, len(header))
	for _, key := range header {
		switch key {
		case ColumnAdmissionDate:
			if c.AdmissionDate.Valid {
				row = append(row, c.AdmissionDate.Time.Format(DateLayout))
			} else {
				row = append(row, "")
			}
		case ColumnClaimCost:
			if c.ClaimCost.Valid {
				row = append(row, strconv.FormatFloat(c.ClaimCost.Float64, 'f', 2, 64))
			} else {
				row = append(row, "")
			}
		default:
			v, _ := c.Attribute(key)
			row = append(row, v)
		}
	}
	return row
}
