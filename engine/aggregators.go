package engine

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// AGGREGATORS — Cost Aggregation, Ranking and Formatting via ClaimView
// ============================================================================
// All functions operate on ClaimView — zero-copy access to any data source.
// Null costs are skipped by every aggregate, never treated as zero.
// ============================================================================

// SumCost sums the valid claim costs of a view.
func SumCost(view ClaimView) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		if c := view.Claim(i).ClaimCost; c.Valid {
			total += c.Float64
		}
	}
	return total
}

// CountCosts returns how many claims of a view carry a valid cost.
func CountCosts(view ClaimView) int {
	n := 0
	for i := 0; i < view.Len(); i++ {
		if view.Claim(i).ClaimCost.Valid {
			n++
		}
	}
	return n
}

// AvgCost computes the mean of valid costs. ok is false when there are none.
func AvgCost(view ClaimView) (avg float64, ok bool) {
	n := CountCosts(view)
	if n == 0 {
		return 0, false
	}
	return SumCost(view) / float64(n), true
}

// ============================================================================
// RANKING
// ============================================================================

// RankByCost returns a view ordered by descending cost.
// The sort is stable: equal costs keep their input order. Null costs rank last.
func RankByCost(view ClaimView) ClaimView {
	n := view.Len()
	indices := make([]int, n)
	costs := make([]sql.NullFloat64, n)
	for i := 0; i < n; i++ {
		indices[i] = i
		costs[i] = view.Claim(i).ClaimCost
	}
	sort.SliceStable(indices, func(a, b int) bool {
		ca, cb := costs[indices[a]], costs[indices[b]]
		if ca.Valid != cb.Valid {
			return ca.Valid
		}
		return ca.Float64 > cb.Float64
	})
	return newSubView(view, indices)
}

// Head returns the first k claims of a view.
func Head(view ClaimView, k int) ClaimView {
	if k < 0 {
		k = 0
	}
	if k > view.Len() {
		k = view.Len()
	}
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}
	return newSubView(view, indices)
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatCurrency formats an amount with a symbol prefix and comma separators.
// The sign follows the symbol: 1234.5 → "$1,234.50"; -20 → "$-20.00".
func FormatCurrency(amount float64, symbol string) string {
	digits := strconv.FormatFloat(math.Abs(amount), 'f', 2, 64)
	whole, frac, _ := strings.Cut(digits, ".")
	sign := ""
	if amount < 0 && strings.Trim(digits, "0.") != "" {
		sign = "-"
	}
	return symbol + sign + groupThousands(whole) + "." + frac
}

// FormatMoney formats an optional amount, falling back to NotApplicable.
func FormatMoney(amount float64, ok bool, symbol string) string {
	if !ok {
		return NotApplicable
	}
	return FormatCurrency(amount, symbol)
}

// FormatPercent renders a ratio as "12.50%", or NotApplicable.
func FormatPercent(r Ratio) string {
	if !r.Applicable {
		return NotApplicable
	}
	v := RoundTo2(r.Value)
	if v == 0 {
		v = 0 // no "-0.00%"
	}
	return fmt.Sprintf("%.2f%%", v)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	return groupThousands(strconv.Itoa(n))
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// groupThousands inserts commas into a string of decimal digits.
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

// LabelForColumn turns a snake_case column key into a title label.
// "admission_date" → "Admission Date".
func LabelForColumn(column string) string {
	words := strings.Split(column, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
