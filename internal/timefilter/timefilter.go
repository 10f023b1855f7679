// Package timefilter normalizes the time filter and trend range values
// accepted by the analytics endpoints.
//
// The dashboard spells the 30-day window "30d" while the post and author
// endpoints spell it "1m". Both map to the same internal filter so the
// inconsistency stops at the HTTP boundary.
package timefilter

import "time"

// Filter is a named lookback window for comparison statistics.
type Filter string

const (
	FilterLast24Hours Filter = "24h"
	FilterLast7Days   Filter = "7d"
	FilterLast30Days  Filter = "30d"
	FilterLastYear    Filter = "1y"
	FilterTotal       Filter = "total"
)

// ParseFilter maps an external timeFilter value to its internal filter.
// Unknown values fall back to FilterTotal rather than erroring.
func ParseFilter(value string) Filter {
	switch value {
	case "24h":
		return FilterLast24Hours
	case "7d":
		return FilterLast7Days
	case "1m", "30d":
		return FilterLast30Days
	case "1y":
		return FilterLastYear
	default:
		return FilterTotal
	}
}

// Window returns the filter's lookback duration. The second return is false
// for FilterTotal, which has no bounded window.
func (f Filter) Window() (time.Duration, bool) {
	switch f {
	case FilterLast24Hours:
		return 24 * time.Hour, true
	case FilterLast7Days:
		return 7 * 24 * time.Hour, true
	case FilterLast30Days:
		return 30 * 24 * time.Hour, true
	case FilterLastYear:
		return 365 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Label returns a human-readable description of the filter window.
func (f Filter) Label() string {
	switch f {
	case FilterLast24Hours:
		return "Last 24 hours"
	case FilterLast7Days:
		return "Last 7 days"
	case FilterLast30Days:
		return "Last 30 days"
	case FilterLastYear:
		return "Last 12 months"
	default:
		return "All time"
	}
}

// Granularity is the bucket size of a trend series.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// Range is a named trend chart range.
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
	RangeAll   Range = "all"
)

// ParseRange maps an external range value to its internal range. Unknown
// values fall back to RangeYear. RangeAll is normalized to RangeYear: both
// chart 12 monthly buckets.
func ParseRange(value string) Range {
	switch value {
	case "day":
		return RangeDay
	case "week":
		return RangeWeek
	case "month":
		return RangeMonth
	case "year", "all":
		return RangeYear
	default:
		return RangeYear
	}
}

// Bucketing returns the granularity and bucket count charted for the range.
func (r Range) Bucketing() (Granularity, int) {
	switch r {
	case RangeDay:
		return GranularityHour, 24
	case RangeWeek:
		return GranularityDay, 7
	case RangeMonth:
		return GranularityDay, 30
	default:
		return GranularityMonth, 12
	}
}

// Label returns a human-readable description of the range.
func (r Range) Label() string {
	switch r {
	case RangeDay:
		return "Last 24 hours"
	case RangeWeek:
		return "Last 7 days"
	case RangeMonth:
		return "Last 30 days"
	default:
		return "Last 12 months"
	}
}
