package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClaimTable(t *testing.T) {
	view := NewSliceView(&Ledger{
		Columns: []string{"claim_id", ColumnAdmissionDate, ColumnClaimCost},
		Claims: []ClaimRecord{
			withID(claim(refToday, 1200.5), "C-1"),
			withID(nullCostClaim(day(-1)), "C-2"),
			nullDateClaim(3),
		},
	})
	table := BuildClaimTable("weekly_claims", view)

	assert.Equal(t, "weekly_claims", table.Title)
	assert.Equal(t, []string{"claim_id", ColumnAdmissionDate, ColumnClaimCost}, table.Keys())
	assert.Equal(t, "date", table.Columns[1].Type)
	assert.Equal(t, "right", table.Columns[2].Align)
	assert.Equal(t, [][]string{
		{"C-1", "2024-03-15", "1200.50"},
		{"C-2", "2024-03-14", ""},
		{"", "", "3.00"},
	}, table.Rows)
	require.NotNil(t, table.Summary)
	assert.Equal(t, "1203.50", table.Summary.Values[ColumnClaimCost])
}

func TestBuildAnomalyTable(t *testing.T) {
	set := DetectAnomalies(outlierLedger())
	table := BuildAnomalyTable("anomalies", set)

	assert.Equal(t, "z_score", table.Columns[len(table.Columns)-1].Key)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "4.2485", table.Rows[0][len(table.Rows[0])-1])

	empty := BuildAnomalyTable("anomalies", AnomalySet{})
	assert.Empty(t, empty.Rows)
}

func TestBuildSummaryTable(t *testing.T) {
	res, err := Run(context.Background(), outlierLedger(), refToday)
	require.NoError(t, err)

	table := BuildSummaryTable("summary", res.Summary)
	assert.Equal(t, []string{"metric", "value"}, table.Keys())
	require.Len(t, table.Rows, 15)
	assert.Equal(t, []string{MetricClaimsThisWeek, "20"}, table.Rows[0])
	assert.Equal(t, []string{MetricAnomalies, "1"}, table.Rows[12])
	assert.Equal(t, []string{TopShareName(10), "98.23%"}, table.Rows[14])
}

func TestBuildMissingTable(t *testing.T) {
	dq := DataQualityReport{
		MissingValues: 3,
		MissingByColumn: []ColumnCount{
			{Column: ColumnAdmissionDate, Count: 1},
			{Column: ColumnClaimCost, Count: 2},
		},
	}
	table := BuildMissingTable("missing_data_detail", dq)
	assert.Equal(t, [][]string{{ColumnAdmissionDate, "1"}, {ColumnClaimCost, "2"}}, table.Rows)
	assert.Equal(t, "3", table.Summary.Values["missing_count"])
}
