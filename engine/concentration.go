package engine

import "go.uber.org/zap"

// ============================================================================
// CONCENTRATION ANALYZER — Pareto share of the top contributors
// ============================================================================

// AnalyzeConcentration ranks claims by cost and measures the share of total
// cost held by the top TopPercent of records (k = N * percent / 100, truncated).
func AnalyzeConcentration(view ClaimView, opts ...Option) ConcentrationResult {
	cfg := applyOptions(opts)

	n := view.Len()
	k := n * cfg.TopPercent / 100

	top := Head(RankByCost(view), k)
	result := ConcentrationResult{
		TopPercent: cfg.TopPercent,
		K:          k,
		Top:        top,
		TopCost:    SumCost(top),
		TotalCost:  SumCost(view),
	}

	switch {
	case result.TotalCost == 0:
		// undefined share; also covers the empty ledger
	case k == 0:
		result.Ratio = Ratio{Value: 0, Applicable: true}
	default:
		result.Ratio = Ratio{
			Value:      RoundTo2(result.TopCost / result.TotalCost * 100),
			Applicable: true,
		}
	}

	cfg.Logger.Debug("concentration analysis complete",
		zap.Int("records", n),
		zap.Int("k", k),
		zap.Float64("top_cost", result.TopCost),
		zap.Float64("total_cost", result.TotalCost),
		zap.Bool("applicable", result.Ratio.Applicable),
	)
	return result
}
