// Package claimlens computes weekly analytics over a claims ledger.
// Reporting for any claims export.
//
// Usage:
//
//	import "github.com/spektr-org/claimlens/engine"
//
//	result, err := engine.Run(ctx, engine.NewSliceView(ledger), today,
//	    engine.WithZScoreThreshold(3),
//	    engine.WithTopPercent(10),
//	)
//
// The engine takes a ledger (admission date, claim cost and pass-through
// columns) and a reference date, and returns a quality report, the time
// windows, cost anomalies, the top contributors and a summary report.
//
// Ingestion lives in helpers, artifacts in export and delivery in notify.
// The engine never touches files or the network; all computation is local.
package claimlens

// Version is the release reported by the CLI.
const Version = "0.3.0"
