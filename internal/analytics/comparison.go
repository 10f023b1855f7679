package analytics

import (
	"time"

	"inkwell/internal/timefilter"
)

// CountInRange counts events with a timestamp in [from, to). A zero from
// means unbounded below.
type CountInRange func(from, to time.Time) (int64, error)

// Compare counts a metric over the filter's window ending at now and over
// the window of equal length immediately before it. For FilterTotal the
// current count is unbounded and the previous period is reported as zero.
//
// A failure counting the previous period degrades to zero rather than
// failing the whole comparison; a failure on the current period is returned.
func Compare(count CountInRange, filter timefilter.Filter, now time.Time) (ComparisonResult, error) {
	result := ComparisonResult{PeriodLabel: filter.Label()}

	window, bounded := filter.Window()
	if !bounded {
		current, err := count(time.Time{}, now)
		if err != nil {
			return ComparisonResult{}, err
		}
		result.Current = current
		result.PercentChange = PercentChange(current, 0)
		return result, nil
	}

	start := now.Add(-window)
	current, err := count(start, now)
	if err != nil {
		return ComparisonResult{}, err
	}

	previous, err := count(start.Add(-window), start)
	if err != nil {
		previous = 0
	}

	result.Current = current
	result.Previous = previous
	result.PercentChange = PercentChange(current, previous)
	return result, nil
}
