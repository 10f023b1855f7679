package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"inkwell/internal/pkg/async"
	"inkwell/internal/posts"
	"inkwell/internal/subscribers"
	"inkwell/internal/timefilter"
	"inkwell/internal/users"
	"inkwell/internal/views"
)

const breakdownLimit = 10

// Breakdowns holds the top audience dimension values for a set of posts.
type Breakdowns struct {
	Referrers        []DimensionValue `json:"referrers"`
	Devices          []DimensionValue `json:"devices"`
	Browsers         []DimensionValue `json:"browsers"`
	OperatingSystems []DimensionValue `json:"operatingSystems"`
	Countries        []DimensionValue `json:"countries"`
}

// PostAnalytics is the analytics payload for one post. Degraded lists the
// sections whose query failed and were defaulted to empty or zero.
type PostAnalytics struct {
	PostID         uint        `json:"postId"`
	PeriodLabel    string      `json:"periodLabel"`
	Views          int64       `json:"views"`
	UniqueViews    int64       `json:"uniqueViews"`
	Comments       int64       `json:"comments"`
	Likes          int64       `json:"likes"`
	EngagementRate float64     `json:"engagementRate"`
	ViewSeries     TrendSeries `json:"viewSeries"`
	Breakdowns     Breakdowns  `json:"breakdowns"`
	Degraded       []string    `json:"degraded,omitempty"`
}

// PostSummary is one row of an author's post list with its stat rollup.
type PostSummary struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	Views          int64     `json:"views"`
	Comments       int64     `json:"comments"`
	Likes          int64     `json:"likes"`
	EngagementRate float64   `json:"engagementRate"`
}

// AuthorAnalytics aggregates analytics across all of one author's posts,
// plus a paginated list of those posts with per-post summaries.
type AuthorAnalytics struct {
	UserID         uint          `json:"userId"`
	PeriodLabel    string        `json:"periodLabel"`
	Views          int64         `json:"views"`
	UniqueViews    int64         `json:"uniqueViews"`
	Comments       int64         `json:"comments"`
	Likes          int64         `json:"likes"`
	EngagementRate float64       `json:"engagementRate"`
	ViewSeries     TrendSeries   `json:"viewSeries"`
	Breakdowns     Breakdowns    `json:"breakdowns"`
	Posts          []PostSummary `json:"posts"`
	TotalPosts     int64         `json:"totalPosts"`
	Degraded       []string      `json:"degraded,omitempty"`
}

// AdminAnalytics is the site-wide dashboard payload.
type AdminAnalytics struct {
	TotalViews       int64            `json:"totalViews"`
	TotalLikes       int64            `json:"totalLikes"`
	TotalPosts       int64            `json:"totalPosts"`
	TotalSubscribers int64            `json:"totalSubscribers"`
	AvgViewsPerPost  float64          `json:"avgViewsPerPost"`
	Views            ComparisonResult `json:"views"`
	Likes            ComparisonResult `json:"likes"`
	NewUsers         ComparisonResult `json:"newUsers"`
	NewSubscribers   ComparisonResult `json:"newSubscribers"`
	Degraded         []string         `json:"degraded,omitempty"`
}

// AdminTrends holds the four site-wide trend series for one chart range.
type AdminTrends struct {
	PeriodLabel    string      `json:"periodLabel"`
	Views          TrendSeries `json:"views"`
	Likes          TrendSeries `json:"likes"`
	NewUsers       TrendSeries `json:"newUsers"`
	NewSubscribers TrendSeries `json:"newSubscribers"`
	Degraded       []string    `json:"degraded,omitempty"`
}

// degradedSet collects the names of failed sections, logging each failure.
type degradedSet struct {
	logger   *slog.Logger
	sections []string
}

func (d *degradedSet) add(section string, err error) {
	d.logger.Warn("analytics section degraded", "section", section, "error", err)
	d.sections = append(d.sections, section)
}

func (d *degradedSet) sorted() []string {
	sort.Strings(d.sections)
	return d.sections
}

// ForPost computes the analytics payload for one post. It returns a
// posts.PostNotFoundError when the post does not exist; individual metric
// failures degrade their section instead of failing the request.
func ForPost(db *gorm.DB, logger *slog.Logger, postID uint, filter timefilter.Filter, now time.Time) (*PostAnalytics, error) {
	post, err := posts.GetPostByID(db, postID)
	if err != nil {
		return nil, err
	}

	result := &PostAnalytics{PostID: post.ID, PeriodLabel: filter.Label()}
	degraded := &degradedSet{logger: logger}

	stats, series, breakdowns := aggregateForPosts(db, degraded, []uint{post.ID}, filter, now)
	result.Views = stats.views
	result.UniqueViews = stats.uniqueViews
	result.Comments = stats.comments
	result.Likes = stats.likes
	result.EngagementRate = EngagementRate(stats.views, stats.comments, stats.likes)
	result.ViewSeries = series
	result.Breakdowns = breakdowns
	result.Degraded = degraded.sorted()
	return result, nil
}

// ForAuthor computes aggregate analytics across every post owned by one
// author, plus a paginated and searchable list of those posts. The post
// lookup itself must succeed; everything else is best-effort.
func ForAuthor(db *gorm.DB, logger *slog.Logger, userID uint, filter timefilter.Filter, listFilters posts.PostFilters, now time.Time) (*AuthorAnalytics, error) {
	postIDs, err := posts.IDsByAuthor(db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts for user %d: %w", userID, err)
	}

	result := &AuthorAnalytics{
		UserID:      userID,
		PeriodLabel: filter.Label(),
		Posts:       []PostSummary{},
	}
	degraded := &degradedSet{logger: logger}

	stats, series, breakdowns := aggregateForPosts(db, degraded, postIDs, filter, now)
	result.Views = stats.views
	result.UniqueViews = stats.uniqueViews
	result.Comments = stats.comments
	result.Likes = stats.likes
	result.EngagementRate = EngagementRate(stats.views, stats.comments, stats.likes)
	result.ViewSeries = series
	result.Breakdowns = breakdowns

	listFilters.UserID = userID
	summaries, total, err := postSummaries(db, listFilters)
	if err != nil {
		degraded.add("posts", err)
	} else {
		result.Posts = summaries
		result.TotalPosts = total
	}

	result.Degraded = degraded.sorted()
	return result, nil
}

// ForAdmin computes the site-wide dashboard payload.
func ForAdmin(db *gorm.DB, logger *slog.Logger, filter timefilter.Filter, now time.Time) (*AdminAnalytics, error) {
	result := &AdminAnalytics{}
	degraded := &degradedSet{logger: logger}

	if totalViews, err := views.CountAll(db); err != nil {
		degraded.add("total_views", err)
	} else {
		result.TotalViews = totalViews
	}
	if totalLikes, err := posts.CountAllLikes(db); err != nil {
		degraded.add("total_likes", err)
	} else {
		result.TotalLikes = totalLikes
	}
	if totalPosts, err := posts.CountAll(db); err != nil {
		degraded.add("total_posts", err)
	} else {
		result.TotalPosts = totalPosts
	}
	if totalSubscribers, err := subscribers.CountAll(db); err != nil {
		degraded.add("total_subscribers", err)
	} else {
		result.TotalSubscribers = totalSubscribers
	}
	if result.TotalPosts > 0 {
		avg := float64(result.TotalViews) / float64(result.TotalPosts)
		result.AvgViewsPerPost = math.Round(avg*100) / 100
	}

	comparisons := []struct {
		section string
		target  *ComparisonResult
		count   CountInRange
	}{
		{"views_comparison", &result.Views, func(from, to time.Time) (int64, error) {
			return views.CountInRange(db, from, to)
		}},
		{"likes_comparison", &result.Likes, func(from, to time.Time) (int64, error) {
			return posts.CountLikesInRange(db, from, to)
		}},
		{"new_users_comparison", &result.NewUsers, func(from, to time.Time) (int64, error) {
			return users.CountInRange(db, from, to)
		}},
		{"new_subscribers_comparison", &result.NewSubscribers, func(from, to time.Time) (int64, error) {
			return subscribers.CountInRange(db, from, to)
		}},
	}
	for _, c := range comparisons {
		comparison, err := Compare(c.count, filter, now)
		if err != nil {
			degraded.add(c.section, err)
			*c.target = ComparisonResult{PeriodLabel: filter.Label()}
			continue
		}
		*c.target = comparison
	}

	result.Degraded = degraded.sorted()
	return result, nil
}

// ForAdminTrends charts the four site-wide metrics over one range. The four
// trend queries run concurrently; a failed metric yields a zero-filled
// series of the expected length.
func ForAdminTrends(db *gorm.DB, logger *slog.Logger, chartRange timefilter.Range, now time.Time) (*AdminTrends, error) {
	granularity, horizon := chartRange.Bucketing()
	result := &AdminTrends{PeriodLabel: chartRange.Label()}
	degraded := &degradedSet{logger: logger}

	metrics := []TrendMetric{TrendViews, TrendLikes, TrendNewUsers, TrendNewSubscribers}
	tasks := make([]async.Task, len(metrics))
	for i, metric := range metrics {
		metric := metric
		tasks[i] = async.Task{
			Name: string(metric),
			Fn: func() (interface{}, error) {
				series, err := MetricTrend(db, metric, chartRange, now)
				if err != nil {
					return nil, err
				}
				return series, nil
			},
		}
	}

	series := make([]TrendSeries, len(metrics))
	for i, outcome := range async.Run(tasks, len(tasks)) {
		if outcome.Err != nil {
			degraded.add(outcome.Name, outcome.Err)
			series[i] = TrendSeries{Granularity: granularity, Values: make([]int64, horizon)}
			continue
		}
		series[i] = outcome.Value.(TrendSeries)
	}

	result.Views = series[0]
	result.Likes = series[1]
	result.NewUsers = series[2]
	result.NewSubscribers = series[3]
	result.Degraded = degraded.sorted()
	return result, nil
}

type aggregateStats struct {
	views       int64
	uniqueViews int64
	comments    int64
	likes       int64
}

// aggregateForPosts fans out the count, series and breakdown queries for a
// set of posts. Each failed query degrades its own section.
func aggregateForPosts(db *gorm.DB, degraded *degradedSet, postIDs []uint, filter timefilter.Filter, now time.Time) (aggregateStats, TrendSeries, Breakdowns) {
	var from time.Time
	if window, bounded := filter.Window(); bounded {
		from = now.Add(-window)
	}

	seriesHorizon := 30
	if filter == timefilter.FilterLast7Days {
		seriesHorizon = 7
	}

	dimensions := []struct {
		section   string
		dimension Dimension
	}{
		{"breakdowns.referrers", DimensionReferrer},
		{"breakdowns.devices", DimensionDevice},
		{"breakdowns.browsers", DimensionBrowser},
		{"breakdowns.operating_systems", DimensionOS},
		{"breakdowns.countries", DimensionCountry},
	}

	tasks := []async.Task{
		{Name: "views", Fn: func() (interface{}, error) {
			return views.CountForPosts(db, postIDs, from, now)
		}},
		{Name: "unique_views", Fn: func() (interface{}, error) {
			return views.CountUniqueForPosts(db, postIDs, from, now)
		}},
		{Name: "comments", Fn: func() (interface{}, error) {
			return posts.CountCommentsForPosts(db, postIDs)
		}},
		{Name: "likes", Fn: func() (interface{}, error) {
			return posts.CountLikesForPosts(db, postIDs)
		}},
		{Name: "view_series", Fn: func() (interface{}, error) {
			return viewSeriesForPosts(db, postIDs, seriesHorizon, now)
		}},
	}
	for _, d := range dimensions {
		d := d
		tasks = append(tasks, async.Task{Name: d.section, Fn: func() (interface{}, error) {
			return TopDimensionValues(db, d.dimension, postIDs, from, now, breakdownLimit)
		}})
	}

	stats := aggregateStats{}
	series := TrendSeries{Granularity: timefilter.GranularityDay, Values: make([]int64, seriesHorizon)}
	breakdowns := Breakdowns{
		Referrers:        []DimensionValue{},
		Devices:          []DimensionValue{},
		Browsers:         []DimensionValue{},
		OperatingSystems: []DimensionValue{},
		Countries:        []DimensionValue{},
	}

	for _, outcome := range async.Run(tasks, 4) {
		if outcome.Err != nil {
			degraded.add(outcome.Name, outcome.Err)
			continue
		}
		switch outcome.Name {
		case "views":
			stats.views = outcome.Value.(int64)
		case "unique_views":
			stats.uniqueViews = outcome.Value.(int64)
		case "comments":
			stats.comments = outcome.Value.(int64)
		case "likes":
			stats.likes = outcome.Value.(int64)
		case "view_series":
			series = outcome.Value.(TrendSeries)
		case "breakdowns.referrers":
			breakdowns.Referrers = outcome.Value.([]DimensionValue)
		case "breakdowns.devices":
			breakdowns.Devices = outcome.Value.([]DimensionValue)
		case "breakdowns.browsers":
			breakdowns.Browsers = outcome.Value.([]DimensionValue)
		case "breakdowns.operating_systems":
			breakdowns.OperatingSystems = outcome.Value.([]DimensionValue)
		case "breakdowns.countries":
			breakdowns.Countries = outcome.Value.([]DimensionValue)
		}
	}

	return stats, series, breakdowns
}

// viewSeriesForPosts builds a day-granularity view count series for a set
// of posts, one bucket per calendar day ending today.
func viewSeriesForPosts(db *gorm.DB, postIDs []uint, horizon int, now time.Time) (TrendSeries, error) {
	if len(postIDs) == 0 {
		return TrendSeries{Granularity: timefilter.GranularityDay, Values: make([]int64, horizon)}, nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := midnight.AddDate(0, 0, -(horizon - 1))

	var rows []BucketRow
	err := db.Raw(`
		SELECT strftime('%Y-%m-%d', occurred_at) AS key, COUNT(*) AS count
		FROM view_events
		WHERE post_id IN ? AND occurred_at >= ?
		GROUP BY key
		ORDER BY key
	`, postIDs, since).Scan(&rows).Error
	if err != nil {
		return TrendSeries{}, fmt.Errorf("failed to fetch view series: %w", err)
	}

	values, err := BucketSeries(rows, timefilter.GranularityDay, horizon, now)
	if err != nil {
		return TrendSeries{}, err
	}
	return TrendSeries{Granularity: timefilter.GranularityDay, Values: values}, nil
}

// postSummaries lists an author's posts with per-post stat rollups. The
// per-post view, comment and like counts come from one grouped query each,
// joined in memory by post id.
func postSummaries(db *gorm.DB, filters posts.PostFilters) ([]PostSummary, int64, error) {
	listed, err := posts.ListFiltered(db, filters)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(listed.Posts))
	for i, post := range listed.Posts {
		ids[i] = post.ID
	}

	viewCounts, err := views.ViewCountsByPost(db, ids)
	if err != nil {
		return nil, 0, err
	}
	commentCounts, err := posts.CommentCountsByPost(db, ids)
	if err != nil {
		return nil, 0, err
	}
	likeCounts, err := posts.LikeCountsByPost(db, ids)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]PostSummary, len(listed.Posts))
	for i, post := range listed.Posts {
		summaries[i] = PostSummary{
			ID:             post.ID,
			Title:          post.Title,
			Slug:           post.Slug,
			Status:         post.Status,
			CreatedAt:      post.CreatedAt,
			Views:          viewCounts[post.ID],
			Comments:       commentCounts[post.ID],
			Likes:          likeCounts[post.ID],
			EngagementRate: EngagementRate(viewCounts[post.ID], commentCounts[post.ID], likeCounts[post.ID]),
		}
	}
	return summaries, listed.Total, nil
}
