package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/analytics"
	"inkwell/internal/testsupport"
	"inkwell/internal/views"
)

func TestTopDimensionValues(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	author := testsupport.CreateTestUser(db, "author@example.com")
	post := testsupport.CreateTestPost(t, db, author.ID, "Broken Down", "broken-down")
	other := testsupport.CreateTestPost(t, db, author.ID, "Unrelated", "unrelated")

	seed := func(postID uint, hostname, ip string, occurredAt time.Time) {
		event := testsupport.CreateTestViewEvent(t, db, postID, views.Identity{IPAddress: ip}, occurredAt)
		require.NoError(t, db.Model(event).Update("referrer_hostname", hostname).Error)
	}

	seed(post.ID, "news.ycombinator.com", "203.0.113.1", now.Add(-time.Hour))
	seed(post.ID, "news.ycombinator.com", "203.0.113.2", now.Add(-2*time.Hour))
	seed(post.ID, "news.ycombinator.com", "203.0.113.3", now.Add(-3*time.Hour))
	seed(post.ID, "reddit.com", "203.0.113.4", now.Add(-time.Hour))
	seed(post.ID, "reddit.com", "203.0.113.5", now.Add(-48*time.Hour))
	seed(other.ID, "lobste.rs", "203.0.113.6", now.Add(-time.Hour))

	t.Run("orders by count descending", func(t *testing.T) {
		values, err := analytics.TopDimensionValues(db, analytics.DimensionReferrer, []uint{post.ID}, time.Time{}, now, 10)
		require.NoError(t, err)
		require.Len(t, values, 2)
		assert.Equal(t, "news.ycombinator.com", values[0].Value)
		assert.Equal(t, int64(3), values[0].Count)
		assert.Equal(t, "reddit.com", values[1].Value)
		assert.Equal(t, int64(2), values[1].Count)
	})

	t.Run("bounded range excludes old events", func(t *testing.T) {
		values, err := analytics.TopDimensionValues(db, analytics.DimensionReferrer, []uint{post.ID}, now.Add(-24*time.Hour), now, 10)
		require.NoError(t, err)
		require.Len(t, values, 2)
		assert.Equal(t, int64(3), values[0].Count)
		assert.Equal(t, int64(1), values[1].Count)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		values, err := analytics.TopDimensionValues(db, analytics.DimensionReferrer, []uint{post.ID}, time.Time{}, now, 1)
		require.NoError(t, err)
		assert.Len(t, values, 1)
	})

	t.Run("other dimensions use the seeded sentinels", func(t *testing.T) {
		values, err := analytics.TopDimensionValues(db, analytics.DimensionDevice, []uint{post.ID}, time.Time{}, now, 10)
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.Equal(t, views.UnknownDevice, values[0].Value)
		assert.Equal(t, int64(5), values[0].Count)
	})

	t.Run("empty post list", func(t *testing.T) {
		values, err := analytics.TopDimensionValues(db, analytics.DimensionReferrer, nil, time.Time{}, now, 10)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("unknown dimension", func(t *testing.T) {
		_, err := analytics.TopDimensionValues(db, analytics.Dimension("bogus"), []uint{post.ID}, time.Time{}, now, 10)
		assert.Error(t, err)
	})
}
