package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/timefilter"
)

func TestBucketSeriesLengthInvariant(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		granularity timefilter.Granularity
		horizon     int
		rows        []BucketRow
	}{
		{"hour empty", timefilter.GranularityHour, 24, nil},
		{"hour one row", timefilter.GranularityHour, 24, []BucketRow{{Key: "14", Count: 3}}},
		{"day empty", timefilter.GranularityDay, 7, nil},
		{"day rows outside horizon", timefilter.GranularityDay, 7, []BucketRow{{Key: "2020-01-01", Count: 9}}},
		{"month empty", timefilter.GranularityMonth, 12, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := BucketSeries(tt.rows, tt.granularity, tt.horizon, now)
			require.NoError(t, err)
			assert.Len(t, values, tt.horizon)
		})
	}
}

func TestBucketSeriesZeroFill(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)

	values, err := BucketSeries(nil, timefilter.GranularityDay, 7, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0, 0}, values)
}

func TestBucketSeriesRejectsInvalidHorizon(t *testing.T) {
	now := time.Now().UTC()

	_, err := BucketSeries(nil, timefilter.GranularityDay, 0, now)
	assert.Error(t, err)

	_, err = BucketSeries(nil, timefilter.GranularityMonth, -1, now)
	assert.Error(t, err)
}

func TestBucketSeriesMonthAlignment(t *testing.T) {
	// March 2024 with a 12-month horizon: the current month lands last,
	// 11 months ago lands first, older rows are discarded.
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	rows := []BucketRow{
		{Key: "2024-03", Count: 5},
		{Key: "2023-04", Count: 3},
		{Key: "2022-01", Count: 9},
	}

	values, err := BucketSeries(rows, timefilter.GranularityMonth, 12, now)
	require.NoError(t, err)
	require.Len(t, values, 12)

	assert.Equal(t, int64(5), values[11])
	assert.Equal(t, int64(3), values[0])

	var total int64
	for _, v := range values {
		total += v
	}
	assert.Equal(t, int64(8), total, "row outside the horizon must be discarded")
}

func TestBucketSeriesDayAlignment(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

	rows := []BucketRow{
		{Key: "2024-03-10", Count: 4},
		{Key: "2024-03-04", Count: 2},
		{Key: "2024-03-03", Count: 7},
	}

	values, err := BucketSeries(rows, timefilter.GranularityDay, 7, now)
	require.NoError(t, err)
	require.Len(t, values, 7)

	assert.Equal(t, int64(4), values[6])
	assert.Equal(t, int64(2), values[0])

	var total int64
	for _, v := range values {
		total += v
	}
	assert.Equal(t, int64(6), total, "row seven days back must be discarded")
}

func TestBucketSeriesHourOfDay(t *testing.T) {
	// Hour buckets map directly to hour of day, not to hours before now.
	now := time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC)

	rows := []BucketRow{
		{Key: "00", Count: 1},
		{Key: "14", Count: 6},
		{Key: "23", Count: 2},
	}

	values, err := BucketSeries(rows, timefilter.GranularityHour, 24, now)
	require.NoError(t, err)
	require.Len(t, values, 24)

	assert.Equal(t, int64(1), values[0])
	assert.Equal(t, int64(6), values[14])
	assert.Equal(t, int64(2), values[23])
}

func TestBucketSeriesSkipsMalformedKeys(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

	rows := []BucketRow{
		{Key: "not-a-date", Count: 100},
		{Key: "2024-03-10", Count: 4},
	}

	values, err := BucketSeries(rows, timefilter.GranularityDay, 7, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), values[6])

	var total int64
	for _, v := range values {
		total += v
	}
	assert.Equal(t, int64(4), total)

	hourRows := []BucketRow{{Key: "2x", Count: 50}, {Key: "25", Count: 9}}
	hourValues, err := BucketSeries(hourRows, timefilter.GranularityHour, 24, now)
	require.NoError(t, err)
	for _, v := range hourValues {
		assert.Zero(t, v)
	}
}
