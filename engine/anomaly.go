package engine

import (
	"math"

	"go.uber.org/zap"
)

// ============================================================================
// ANOMALY DETECTOR — Z-Score Outliers on Claim Cost
// ============================================================================
// Statistics are computed once over every valid cost in the view, never per
// window. Scores are returned as a parallel annotation; claims are untouched.
// ============================================================================

// CostStatistics describes the cost distribution of a view.
type CostStatistics struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // sample, N-1 degrees of freedom
}

// Degenerate reports whether z-scores are undefined for this distribution.
func (s CostStatistics) Degenerate() bool {
	return s.Count < 2 || s.StdDev == 0 || math.IsNaN(s.StdDev)
}

// ComputeCostStatistics returns mean and sample standard deviation of valid costs.
func ComputeCostStatistics(view ClaimView) CostStatistics {
	stats := CostStatistics{Count: CountCosts(view)}
	if stats.Count == 0 {
		return stats
	}
	stats.Mean = SumCost(view) / float64(stats.Count)
	if stats.Count < 2 {
		return stats
	}

	var sumSq float64
	for i := 0; i < view.Len(); i++ {
		if c := view.Claim(i).ClaimCost; c.Valid {
			d := c.Float64 - stats.Mean
			sumSq += d * d
		}
	}
	stats.StdDev = math.Sqrt(sumSq / float64(stats.Count-1))
	return stats
}

// DetectAnomalies flags claims whose |z| is strictly above the threshold.
// A degenerate distribution yields an empty set, not an error.
func DetectAnomalies(view ClaimView, opts ...Option) AnomalySet {
	cfg := applyOptions(opts)
	stats := ComputeCostStatistics(view)

	set := AnomalySet{
		Mean:       stats.Mean,
		StdDev:     stats.StdDev,
		Threshold:  cfg.ZScoreThreshold,
		Degenerate: stats.Degenerate(),
		Scores:     make([]ZScore, view.Len()),
	}

	var indices []int
	if !set.Degenerate {
		for i := 0; i < view.Len(); i++ {
			c := view.Claim(i).ClaimCost
			if !c.Valid {
				continue
			}
			z := (c.Float64 - stats.Mean) / stats.StdDev
			set.Scores[i] = ZScore{Value: z, Valid: true}
			if math.Abs(z) > cfg.ZScoreThreshold {
				indices = append(indices, i)
				set.ZScores = append(set.ZScores, z)
			}
		}
	}
	set.Claims = newSubView(view, indices)

	cfg.Logger.Debug("anomaly detection complete",
		zap.Int("costs", stats.Count),
		zap.Float64("mean", stats.Mean),
		zap.Float64("std_dev", stats.StdDev),
		zap.Bool("degenerate", set.Degenerate),
		zap.Int("anomalies", set.Count()),
	)
	return set
}
