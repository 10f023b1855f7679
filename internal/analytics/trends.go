package analytics

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"inkwell/internal/timefilter"
)

// TrendMetric names a countable event stream charted on the admin dashboard.
type TrendMetric string

const (
	TrendViews          TrendMetric = "views"
	TrendLikes          TrendMetric = "likes"
	TrendNewUsers       TrendMetric = "new_users"
	TrendNewSubscribers TrendMetric = "new_subscribers"
)

// timestampColumn returns the table and timestamp column counted for the metric.
func (m TrendMetric) timestampColumn() (table, column string) {
	switch m {
	case TrendViews:
		return "view_events", "occurred_at"
	case TrendLikes:
		return "likes", "created_at"
	case TrendNewUsers:
		return "users", "created_at"
	default:
		return "subscribers", "created_at"
	}
}

// BucketRow is one grouped row of a trend query: a strftime bucket key and
// the number of events that fell into it.
type BucketRow struct {
	Key   string
	Count int64
}

// TrendRows fetches grouped bucket counts for a metric. Day and month
// granularities are bounded below by the chart horizon; hour granularity
// groups every stored event by its hour of day, so an event from last week
// at 14:00 lands in the same bucket as one from today at 14:00.
func TrendRows(db *gorm.DB, metric TrendMetric, granularity timefilter.Granularity, horizon int, now time.Time) ([]BucketRow, error) {
	table, column := metric.timestampColumn()

	var format string
	var since time.Time
	switch granularity {
	case timefilter.GranularityHour:
		format = "%H"
	case timefilter.GranularityDay:
		format = "%Y-%m-%d"
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		since = midnight.AddDate(0, 0, -(horizon - 1))
	case timefilter.GranularityMonth:
		format = "%Y-%m"
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(horizon - 1), 0)
	default:
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}

	query := fmt.Sprintf(`
		SELECT strftime('%s', %s) AS key, COUNT(*) AS count
		FROM %s
	`, format, column, table)

	var rows []BucketRow
	var err error
	if since.IsZero() {
		err = db.Raw(query + " GROUP BY key ORDER BY key").Scan(&rows).Error
	} else {
		err = db.Raw(query+" WHERE "+column+" >= ? GROUP BY key ORDER BY key", since).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s trend rows: %w", metric, err)
	}
	return rows, nil
}

// BucketSeries folds grouped rows into a zero-filled series of length
// horizon. Day and month buckets run oldest to newest with the bucket
// containing now last. Hour buckets are indexed by hour of day, 0 through
// 23. Rows whose key is malformed or falls outside the horizon are skipped.
func BucketSeries(rows []BucketRow, granularity timefilter.Granularity, horizon int, now time.Time) ([]int64, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("invalid trend horizon %d", horizon)
	}

	values := make([]int64, horizon)
	nowMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, row := range rows {
		var index int
		switch granularity {
		case timefilter.GranularityHour:
			hour, err := strconv.Atoi(row.Key)
			if err != nil {
				continue
			}
			index = hour
		case timefilter.GranularityDay:
			day, err := time.Parse("2006-01-02", row.Key)
			if err != nil {
				continue
			}
			daysAgo := int(nowMidnight.Sub(day).Hours() / 24)
			index = horizon - 1 - daysAgo
		case timefilter.GranularityMonth:
			month, err := time.Parse("2006-01", row.Key)
			if err != nil {
				continue
			}
			monthsAgo := (now.Year()-month.Year())*12 + int(now.Month()) - int(month.Month())
			index = horizon - 1 - monthsAgo
		default:
			return nil, fmt.Errorf("unsupported granularity %q", granularity)
		}

		if index < 0 || index >= horizon {
			continue
		}
		// Grouping upstream makes index collisions a bug there, not here;
		// last write wins.
		values[index] = row.Count
	}

	return values, nil
}

// MetricTrend fetches and buckets one metric into a zero-filled TrendSeries.
func MetricTrend(db *gorm.DB, metric TrendMetric, chartRange timefilter.Range, now time.Time) (TrendSeries, error) {
	granularity, horizon := chartRange.Bucketing()

	rows, err := TrendRows(db, metric, granularity, horizon, now)
	if err != nil {
		return TrendSeries{}, err
	}
	values, err := BucketSeries(rows, granularity, horizon, now)
	if err != nil {
		return TrendSeries{}, err
	}
	return TrendSeries{Granularity: granularity, Values: values}, nil
}
