// Package metrics records run gauges for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spektr-org/claimlens/engine"
)

// Run holds the gauges of one claimlens run on a private registry.
type Run struct {
	registry *prometheus.Registry

	Records       prometheus.Gauge
	WindowClaims  *prometheus.GaugeVec
	WindowCost    *prometheus.GaugeVec
	QualityIssues *prometheus.GaugeVec
	Anomalies     prometheus.Gauge
	TopShare      prometheus.Gauge
	LastSuccess   prometheus.Gauge
	ExportedFiles prometheus.Gauge
	Duration      prometheus.Gauge
}

// NewRun registers a fresh set of gauges.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Run{
		registry: reg,
		Records: f.NewGauge(prometheus.GaugeOpts{
			Name: "claimlens_records",
			Help: "Number of ledger records in the last run",
		}),
		WindowClaims: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "claimlens_window_claims",
			Help: "Claims per reporting window",
		}, []string{"window"}),
		WindowCost: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "claimlens_window_cost",
			Help: "Summed claim cost per reporting window",
		}, []string{"window"}),
		QualityIssues: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "claimlens_quality_issues",
			Help: "Data quality issues by kind",
		}, []string{"kind"}),
		Anomalies: f.NewGauge(prometheus.GaugeOpts{
			Name: "claimlens_anomalous_claims",
			Help: "Claims whose cost z-score exceeds the threshold",
		}),
		TopShare: f.NewGauge(prometheus.GaugeOpts{
			Name: "claimlens_top_share_percent",
			Help: "Share of total cost carried by the top contributors; -1 when not applicable",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "claimlens_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		ExportedFiles: f.NewGauge(prometheus.GaugeOpts{
			Name: "claimlens_exported_artifacts",
			Help: "Artifacts written by the last run",
		}),
		Duration: f.NewGauge(prometheus.GaugeOpts{
			Name: "claimlens_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}
}

// Observe copies a finished result into the gauges.
func (r *Run) Observe(res *engine.Result, finished time.Time, took time.Duration) {
	s := res.Summary
	r.Records.Set(float64(res.Records))

	r.WindowClaims.WithLabelValues("current_week").Set(float64(s.ClaimsThisWeek))
	r.WindowClaims.WithLabelValues("previous_week").Set(float64(s.ClaimsLastWeek))
	r.WindowCost.WithLabelValues("current_week").Set(s.CostThisWeek)
	r.WindowCost.WithLabelValues("previous_week").Set(s.CostLastWeek)
	r.WindowCost.WithLabelValues("month_to_date").Set(s.CostMTD)
	r.WindowCost.WithLabelValues("year_to_date").Set(s.CostYTD)

	r.QualityIssues.WithLabelValues("missing_values").Set(float64(s.MissingValues))
	r.QualityIssues.WithLabelValues("negative_costs").Set(float64(s.NegativeCosts))
	r.QualityIssues.WithLabelValues("future_dates").Set(float64(s.FutureDates))

	r.Anomalies.Set(float64(s.AnomalousClaims))
	if s.TopShare.Applicable {
		r.TopShare.Set(s.TopShare.Value)
	} else {
		r.TopShare.Set(-1)
	}
	r.LastSuccess.Set(float64(finished.Unix()))
	r.Duration.Set(took.Seconds())
}

// Gatherer exposes the registry, mainly for tests.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the registry atomically in text exposition format.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
