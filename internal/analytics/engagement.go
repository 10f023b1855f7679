package analytics

import "math"

// EngagementRate returns the percentage of views that produced a comment or
// a like, rounded to two decimal places. A post with no views has a rate of
// zero regardless of interactions, which can happen when view events have
// been pruned but comments remain.
func EngagementRate(views, comments, likes int64) float64 {
	if views <= 0 {
		return 0
	}
	rate := float64(comments+likes) / float64(views) * 100
	return math.Round(rate*100) / 100
}
