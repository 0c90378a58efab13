package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// SUMMARY BUILDER — Produces the ordered SummaryReport
// ============================================================================
// The report is a fixed record: field order below is the contract consumed
// by exports and notifications. Formatting lives here and nowhere else.
// ============================================================================

// Amount is an optional money value; Valid is false when it is undefined.
type Amount struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Metric is one formatted name/value row of the report.
type Metric struct {
	Name  string `json:"metric" yaml:"metric"`
	Value string `json:"value" yaml:"value"`
}

// SummaryReport is the typed result of one run.
type SummaryReport struct {
	ClaimsThisWeek  int     `json:"claims_this_week"`
	ClaimsLastWeek  int     `json:"claims_last_week"`
	WoWGrowth       Ratio   `json:"wow_growth"`
	CostThisWeek    float64 `json:"cost_this_week"`
	CostLastWeek    float64 `json:"cost_last_week"`
	CostMTD         float64 `json:"cost_mtd"`
	CostYTD         float64 `json:"cost_ytd"`
	AvgCostThisWeek Amount  `json:"avg_cost_this_week"`
	AvgCostYTD      Amount  `json:"avg_cost_ytd"`

	MissingValues int `json:"missing_values"`
	NegativeCosts int `json:"negative_costs"`
	FutureDates   int `json:"future_dates"`

	AnomalousClaims int `json:"anomalous_claims"`

	TopPercent      int     `json:"top_percent"`
	TopContribution float64 `json:"top_contribution"`
	TopShare        Ratio   `json:"top_share"`

	CurrencySymbol string `json:"currency_symbol"`
}

// Metric names, in report order.
const (
	MetricClaimsThisWeek  = "Total Claims (This Week)"
	MetricClaimsLastWeek  = "Total Claims (Last Week)"
	MetricWoWGrowth       = "WoW Growth %"
	MetricCostThisWeek    = "Total Cost (This Week)"
	MetricCostLastWeek    = "Total Cost (Last Week)"
	MetricCostMTD         = "Total Cost (MTD)"
	MetricCostYTD         = "Total Cost (YTD)"
	MetricAvgCostThisWeek = "Avg Cost per Claim (This Week)"
	MetricAvgCostYTD      = "Avg Cost per Claim (YTD)"
	MetricMissingData     = "Missing Data Issues"
	MetricNegativeCosts   = "Negative Cost Records"
	MetricFutureDates     = "Future Date Records"
	MetricAnomalies       = "Anomalous Claims Count"
)

// BuildSummary merges the component outputs into one report.
func BuildSummary(dq DataQualityReport, windows TimeWindowSet, anomalies AnomalySet, concentration ConcentrationResult, opts ...Option) SummaryReport {
	cfg := applyOptions(opts)

	cur, prev := windowLen(windows.CurrentWeek), windowLen(windows.PreviousWeek)

	report := SummaryReport{
		ClaimsThisWeek: cur,
		ClaimsLastWeek: prev,
		WoWGrowth:      GrowthPercent(cur, prev),
		CostThisWeek:   windowSum(windows.CurrentWeek),
		CostLastWeek:   windowSum(windows.PreviousWeek),
		CostMTD:        windowSum(windows.MonthToDate),
		CostYTD:        windowSum(windows.YearToDate),

		MissingValues: dq.MissingValues,
		NegativeCosts: dq.NegativeCosts,
		FutureDates:   dq.FutureDates,

		AnomalousClaims: anomalies.Count(),

		TopPercent:      concentration.TopPercent,
		TopContribution: concentration.TopCost,
		TopShare:        concentration.Ratio,

		CurrencySymbol: cfg.CurrencySymbol,
	}
	if windows.CurrentWeek != nil {
		v, ok := AvgCost(windows.CurrentWeek)
		report.AvgCostThisWeek = Amount{Value: v, Valid: ok}
	}
	if windows.YearToDate != nil {
		v, ok := AvgCost(windows.YearToDate)
		report.AvgCostYTD = Amount{Value: v, Valid: ok}
	}
	if report.TopPercent == 0 {
		report.TopPercent = cfg.TopPercent
	}
	return report
}

// GrowthPercent is (current - previous) / previous * 100, rounded to 2 decimals.
// A zero previous count is not applicable.
func GrowthPercent(current, previous int) Ratio {
	if previous == 0 {
		return Ratio{}
	}
	return Ratio{
		Value:      RoundTo2(float64(current-previous) / float64(previous) * 100),
		Applicable: true,
	}
}

// Metrics returns the formatted report rows in contract order.
func (s SummaryReport) Metrics() []Metric {
	money := func(v float64) string { return FormatCurrency(v, s.CurrencySymbol) }
	amount := func(a Amount) string { return FormatMoney(a.Value, a.Valid, s.CurrencySymbol) }

	return []Metric{
		{MetricClaimsThisWeek, strconv.Itoa(s.ClaimsThisWeek)},
		{MetricClaimsLastWeek, strconv.Itoa(s.ClaimsLastWeek)},
		{MetricWoWGrowth, FormatPercent(s.WoWGrowth)},
		{MetricCostThisWeek, money(s.CostThisWeek)},
		{MetricCostLastWeek, money(s.CostLastWeek)},
		{MetricCostMTD, money(s.CostMTD)},
		{MetricCostYTD, money(s.CostYTD)},
		{MetricAvgCostThisWeek, amount(s.AvgCostThisWeek)},
		{MetricAvgCostYTD, amount(s.AvgCostYTD)},
		{MetricMissingData, strconv.Itoa(s.MissingValues)},
		{MetricNegativeCosts, strconv.Itoa(s.NegativeCosts)},
		{MetricFutureDates, strconv.Itoa(s.FutureDates)},
		{MetricAnomalies, strconv.Itoa(s.AnomalousClaims)},
		{TopContributionName(s.TopPercent), money(s.TopContribution)},
		{TopShareName(s.TopPercent), FormatPercent(s.TopShare)},
	}
}

// Value looks up a formatted metric by name.
func (s SummaryReport) Value(name string) (string, bool) {
	for _, m := range s.Metrics() {
		if m.Name == name {
			return m.Value, true
		}
	}
	return "", false
}

// TopContributionName is the metric name of the top contributors' summed cost.
func TopContributionName(percent int) string {
	return fmt.Sprintf("Top %d%% Claims Contribution ($)", percent)
}

// TopShareName is the metric name of the top contributors' share of total cost.
func TopShareName(percent int) string {
	return fmt.Sprintf("Top %d%% Contribution %%", percent)
}

func windowLen(v ClaimView) int {
	if v == nil {
		return 0
	}
	return v.Len()
}

func windowSum(v ClaimView) float64 {
	if v == nil {
		return 0
	}
	return SumCost(v)
}
