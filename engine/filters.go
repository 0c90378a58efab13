package engine

import (
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// FILTERS — Date-Based Window Selection via ClaimView
// ============================================================================
// Each window is one pass over the view with a single predicate.
// Returns SubViews (index lists into the parent), never copies.
// Claims without a valid admission date fall into no window.
// ============================================================================

// Predicate decides whether a claim belongs to a view.
type Predicate func(ClaimRecord) bool

// ApplyFilter returns a view of the claims matching pred, in input order.
func ApplyFilter(view ClaimView, pred Predicate) ClaimView {
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if pred(view.Claim(i)) {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// SelectWindows builds the temporal views relative to today.
func SelectWindows(view ClaimView, today time.Time, opts ...Option) TimeWindowSet {
	cfg := applyOptions(opts)
	today = DateOf(today)

	weekStart := today.AddDate(0, 0, -7)
	lastWeekStart := weekStart.AddDate(0, 0, -7)
	lastWeekEnd := weekStart.AddDate(0, 0, -1)

	windows := TimeWindowSet{
		Today:        today,
		CurrentWeek:  ApplyFilter(view, onOrAfter(weekStart)),
		PreviousWeek: ApplyFilter(view, between(lastWeekStart, lastWeekEnd)),
		MonthToDate:  ApplyFilter(view, sameMonth(today, cfg.MonthToDate)),
		YearToDate:   ApplyFilter(view, sameYear(today)),
	}

	cfg.Logger.Debug("windows selected",
		zap.Time("today", today),
		zap.Int("current_week", windows.CurrentWeek.Len()),
		zap.Int("previous_week", windows.PreviousWeek.Len()),
		zap.Int("month_to_date", windows.MonthToDate.Len()),
		zap.Int("year_to_date", windows.YearToDate.Len()),
	)
	return windows
}

// DateOf drops the time of day, keeping the calendar date as seen in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func onOrAfter(start time.Time) Predicate {
	return func(c ClaimRecord) bool {
		return c.AdmissionDate.Valid && !DateOf(c.AdmissionDate.Time).Before(start)
	}
}

// between is inclusive on both ends.
func between(start, end time.Time) Predicate {
	return func(c ClaimRecord) bool {
		if !c.AdmissionDate.Valid {
			return false
		}
		d := DateOf(c.AdmissionDate.Time)
		return !d.Before(start) && !d.After(end)
	}
}

func sameMonth(today time.Time, mode MonthToDateMode) Predicate {
	return func(c ClaimRecord) bool {
		if !c.AdmissionDate.Valid {
			return false
		}
		d := DateOf(c.AdmissionDate.Time)
		if d.Month() != today.Month() {
			return false
		}
		return mode != MonthCurrentYear || d.Year() == today.Year()
	}
}

func sameYear(today time.Time) Predicate {
	return func(c ClaimRecord) bool {
		return c.AdmissionDate.Valid && DateOf(c.AdmissionDate.Time).Year() == today.Year()
	}
}
