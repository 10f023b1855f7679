// Package analytics computes engagement statistics for posts, authors and
// the admin dashboard: view counts with period-over-period comparison,
// engagement rates, audience breakdowns and zero-filled trend series.
package analytics

import "inkwell/internal/timefilter"

// ComparisonResult holds a metric for the current period next to the same
// metric for the immediately preceding period of equal length.
type ComparisonResult struct {
	Current       int64   `json:"current"`
	Previous      int64   `json:"previous"`
	PercentChange float64 `json:"percentChange"`
	PeriodLabel   string  `json:"periodLabel"`
}

// TrendSeries is a zero-filled series of bucket counts, oldest bucket first.
type TrendSeries struct {
	Granularity timefilter.Granularity `json:"granularity"`
	Values      []int64                `json:"values"`
}

// DimensionValue is one row of an audience breakdown.
type DimensionValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// PercentChange returns the relative change from previous to current as a
// percentage. A zero previous yields zero rather than a division by zero,
// so metrics with no prior-period data chart as flat.
func PercentChange(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}
