package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeConcentrationOutlierDominates(t *testing.T) {
	view := outlierLedger()
	res := AnalyzeConcentration(view)

	assert.Equal(t, 10, res.TopPercent)
	assert.Equal(t, 2, res.K)
	assert.Equal(t, []float64{100000, 100}, costsOf(res.Top))
	assert.Equal(t, 100100.0, res.TopCost)
	assert.Equal(t, 101900.0, res.TotalCost)
	require.True(t, res.Ratio.Applicable)
	assert.Equal(t, 98.23, res.Ratio.Value)
	assert.Greater(t, res.Ratio.Value, 90.0)
}

func TestAnalyzeConcentrationEqualCosts(t *testing.T) {
	res := AnalyzeConcentration(ledgerOf(sameCost(10, 50)...))

	assert.Equal(t, 1, res.K)
	require.True(t, res.Ratio.Applicable)
	assert.Equal(t, 10.0, res.Ratio.Value)
	assert.Equal(t, "10.00%", FormatPercent(res.Ratio))
}

func TestAnalyzeConcentrationSmallLedger(t *testing.T) {
	res := AnalyzeConcentration(ledgerOf(sameCost(9, 50)...))

	assert.Equal(t, 0, res.K)
	assert.Equal(t, 0, res.Top.Len())
	assert.Equal(t, 0.0, res.TopCost)
	assert.Equal(t, Ratio{Value: 0, Applicable: true}, res.Ratio)
}

func TestAnalyzeConcentrationZeroTotal(t *testing.T) {
	res := AnalyzeConcentration(ledgerOf(sameCost(20, 0)...))
	assert.Equal(t, 2, res.K)
	assert.False(t, res.Ratio.Applicable)
	assert.Equal(t, NotApplicable, FormatPercent(res.Ratio))

	empty := AnalyzeConcentration(ledgerOf())
	assert.Equal(t, 0, empty.K)
	assert.False(t, empty.Ratio.Applicable)
}

func TestAnalyzeConcentrationStableTies(t *testing.T) {
	view := ledgerWithIDs(
		withID(claim(refToday, 5), "a"),
		withID(claim(refToday, 9), "b"),
		withID(claim(refToday, 9), "c"),
		withID(claim(refToday, 1), "d"),
		withID(claim(refToday, 9), "e"),
	)
	res := AnalyzeConcentration(view, WithTopPercent(60))

	assert.Equal(t, 3, res.K)
	assert.Equal(t, []string{"b", "c", "e"}, idsOf(res.Top))
}

func TestRankByCostNullsLast(t *testing.T) {
	view := ledgerWithIDs(
		withID(nullCostClaim(refToday), "null-1"),
		withID(claim(refToday, -5), "neg"),
		withID(claim(refToday, 7), "seven"),
		withID(nullCostClaim(refToday), "null-2"),
		withID(claim(refToday, 0), "zero"),
	)
	assert.Equal(t, []string{"seven", "zero", "neg", "null-1", "null-2"}, idsOf(RankByCost(view)))
}

func TestConcentrationMonotonicInPercent(t *testing.T) {
	var claims []ClaimRecord
	for i := 0; i < 37; i++ {
		claims = append(claims, claim(refToday, float64((i*7919)%101+1)))
	}
	view := ledgerOf(claims...)

	prev := -1.0
	for p := 1; p <= 100; p++ {
		res := AnalyzeConcentration(view, WithTopPercent(p))
		require.True(t, res.Ratio.Applicable)
		assert.GreaterOrEqual(t, res.Ratio.Value, prev, "percent %d", p)
		assert.InDelta(t, SumCost(res.Top)/SumCost(view)*100, res.Ratio.Value, 0.005, "percent %d", p)
		prev = res.Ratio.Value
	}
	assert.Equal(t, 100.0, prev)
}

func TestWithTopPercentIgnoresOutOfRange(t *testing.T) {
	view := ledgerOf(sameCost(20, 1)...)
	assert.Equal(t, 10, AnalyzeConcentration(view, WithTopPercent(0)).TopPercent)
	assert.Equal(t, 10, AnalyzeConcentration(view, WithTopPercent(101)).TopPercent)
	assert.Equal(t, 25, AnalyzeConcentration(view, WithTopPercent(25)).TopPercent)
}
