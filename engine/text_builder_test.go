package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePeriod(t *testing.T) {
	assert.Equal(t, "No data", DerivePeriod(ledgerOf()))
	assert.Equal(t, "All time", DerivePeriod(ledgerOf(nullDateClaim(1))))
	assert.Equal(t, "2024-03-15", DerivePeriod(ledgerOf(claim(refToday, 1), claim(refToday, 2))))
	assert.Equal(t, "2024-02-04 – 2024-03-18",
		DerivePeriod(ledgerOf(claim(day(3), 1), claim(day(-40), 1), nullDateClaim(1))))
}

func TestBuildText(t *testing.T) {
	view := outlierLedger()
	res, err := Run(context.Background(), view, refToday)
	require.NoError(t, err)

	text := BuildText("Weekly Claims", view, res)
	assert.Equal(t, "Weekly Claims", text.Title)
	assert.Equal(t, 20, text.Records)
	assert.Equal(t, "2024-03-14 – 2024-03-15", text.Period)
	assert.Len(t, text.Metrics, 15)
	assert.Equal(t, []string{
		"No claims last week; week-over-week growth is not applicable.",
		"1 claim(s) exceed |z| > 3.0.",
		"Top 10% of claims carry 98.23% of total cost.",
	}, text.Highlights)
}

func TestBuildTextDegenerate(t *testing.T) {
	view := ledgerOf(claim(day(-9), 50), claim(day(-1), 50), claim(day(-2), 50), nullCostClaim(day(1)))
	res, err := Run(context.Background(), view, refToday)
	require.NoError(t, err)

	text := BuildText("", view, res)
	assert.Equal(t, []string{
		"Claim volume is up 200.00% week over week.",
		"Cost distribution is degenerate; no anomaly scoring was possible.",
		"Top 10% of claims carry 0.00% of total cost.",
		"2 data quality issue(s) flagged.",
	}, text.Highlights)

	assert.Empty(t, BuildText("", view, nil).Metrics)
}
