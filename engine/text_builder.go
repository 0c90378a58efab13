package engine

import (
	"fmt"
	"time"
)

// ============================================================================
// TEXT BUILDER — Produces TextData for terminal and message output
// ============================================================================
// All functions operate on ClaimView — zero-copy access to any data source.
// ============================================================================

// TextData is the plain-text view of a run.
type TextData struct {
	Title      string   `json:"title"`
	Period     string   `json:"period"`
	Records    int      `json:"records"`
	Metrics    []Metric `json:"metrics"`
	Highlights []string `json:"highlights,omitempty"`
}

// BuildText produces the text response for a finished run.
func BuildText(title string, view ClaimView, result *Result) *TextData {
	text := &TextData{
		Title:   title,
		Period:  DerivePeriod(view),
		Records: view.Len(),
	}
	if result == nil {
		return text
	}
	text.Metrics = result.Summary.Metrics()
	text.Highlights = buildHighlights(result)
	return text
}

func buildHighlights(result *Result) []string {
	s := result.Summary
	var lines []string

	if s.WoWGrowth.Applicable {
		direction := "flat"
		switch {
		case s.WoWGrowth.Value > 0:
			direction = "up"
		case s.WoWGrowth.Value < 0:
			direction = "down"
		}
		lines = append(lines, fmt.Sprintf("Claim volume is %s %s week over week.", direction, FormatPercent(s.WoWGrowth)))
	} else {
		lines = append(lines, "No claims last week; week-over-week growth is not applicable.")
	}

	if result.Anomalies.Degenerate {
		lines = append(lines, "Cost distribution is degenerate; no anomaly scoring was possible.")
	} else if n := s.AnomalousClaims; n > 0 {
		lines = append(lines, fmt.Sprintf("%s claim(s) exceed |z| > %.1f.", FormatInt(n), result.Anomalies.Threshold))
	}

	if s.TopShare.Applicable {
		lines = append(lines, fmt.Sprintf("Top %d%% of claims carry %s of total cost.", s.TopPercent, FormatPercent(s.TopShare)))
	}

	if issues := s.MissingValues + s.NegativeCosts + s.FutureDates; issues > 0 {
		lines = append(lines, fmt.Sprintf("%s data quality issue(s) flagged.", FormatInt(issues)))
	}
	return lines
}

// ============================================================================
// PERIOD HELPER
// ============================================================================

// DateRange returns the earliest and latest valid admission dates of a view.
func DateRange(view ClaimView) (earliest, latest time.Time, ok bool) {
	for i := 0; i < view.Len(); i++ {
		d := view.Claim(i).AdmissionDate
		if !d.Valid {
			continue
		}
		day := DateOf(d.Time)
		if !ok || day.Before(earliest) {
			earliest = day
		}
		if !ok || day.After(latest) {
			latest = day
		}
		ok = true
	}
	return earliest, latest, ok
}

// DerivePeriod builds a human-readable period string from a view.
func DerivePeriod(view ClaimView) string {
	if view.Len() == 0 {
		return "No data"
	}
	earliest, latest, ok := DateRange(view)
	if !ok {
		return "All time"
	}
	if earliest.Equal(latest) {
		return earliest.Format(DateLayout)
	}
	return fmt.Sprintf("%s – %s", earliest.Format(DateLayout), latest.Format(DateLayout))
}
