package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// EXECUTOR — Pipeline Dispatcher
// ============================================================================
// Entry point: Run(ctx, view, today, opts...)
//
// Pipeline:
//   1. Audit the ledger (fails on a missing required column)
//   2. Select the time windows relative to today
//   3. Detect anomalies and rank top contributors over the full view
//      (concurrently when WithParallel is set)
//   4. Build the summary report
//   5. Return Result
//
// This function never performs I/O. Exports and notifications are adapters.
// Zero data copy — every stage reads through ClaimView.
// ============================================================================

// Run executes the full analytics pipeline against one snapshot.
// today is fixed for the whole run; pass the same value to reproduce a report.
//
// Options:
//   - WithZScoreThreshold(t) — anomaly cut-off, default 3.0
//   - WithTopPercent(p) — Pareto cut, default 10
//   - WithParallel(true) — run anomaly and concentration stages concurrently
//   - WithLogger(l) — structured stage logging
func Run(ctx context.Context, view ClaimView, today time.Time, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)
	today = DateOf(today)

	cfg.Logger.Info("pipeline started",
		zap.Int("records", view.Len()),
		zap.Time("today", today),
		zap.Float64("z_threshold", cfg.ZScoreThreshold),
		zap.Int("top_percent", cfg.TopPercent),
		zap.Bool("parallel", cfg.Parallel),
	)

	// 1. Quality audit: the only fatal stage
	quality, err := Audit(view, today, opts...)
	if err != nil {
		cfg.Logger.Error("quality audit failed", zap.Error(err))
		return nil, err
	}

	// 2. Windows
	windows := SelectWindows(view, today, opts...)

	// 3. Full-ledger analyses
	var (
		anomalies     AnomalySet
		concentration ConcentrationResult
	)
	if cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			anomalies = DetectAnomalies(view, opts...)
			return nil
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			concentration = AnalyzeConcentration(view, opts...)
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		anomalies = DetectAnomalies(view, opts...)
		concentration = AnalyzeConcentration(view, opts...)
	}

	// 4. Summary
	summary := BuildSummary(quality, windows, anomalies, concentration, opts...)

	cfg.Logger.Info("pipeline complete",
		zap.Int("claims_this_week", summary.ClaimsThisWeek),
		zap.Int("claims_last_week", summary.ClaimsLastWeek),
		zap.Int("anomalies", summary.AnomalousClaims),
		zap.Int("missing_values", summary.MissingValues),
	)

	return &Result{
		Today:         today,
		Records:       view.Len(),
		Quality:       quality,
		Windows:       windows,
		Anomalies:     anomalies,
		Concentration: concentration,
		Summary:       summary,
	}, nil
}
