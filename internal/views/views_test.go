package views_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/testsupport"
	"inkwell/internal/views"
)

func TestCountForPosts(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	author := testsupport.CreateTestUser(db, "author@example.com")
	first := testsupport.CreateTestPost(t, db, author.ID, "First", "first")
	second := testsupport.CreateTestPost(t, db, author.ID, "Second", "second")

	testsupport.SeedViews(t, db, first.ID, 3, now.Add(-1*time.Hour))
	testsupport.SeedViews(t, db, first.ID, 2, now.Add(-48*time.Hour))
	testsupport.SeedViews(t, db, second.ID, 1, now.Add(-1*time.Hour))

	t.Run("bounded range", func(t *testing.T) {
		count, err := views.CountForPosts(db, []uint{first.ID}, now.Add(-24*time.Hour), now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("zero from disables the lower bound", func(t *testing.T) {
		count, err := views.CountForPosts(db, []uint{first.ID}, time.Time{}, now)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("multiple posts", func(t *testing.T) {
		count, err := views.CountForPosts(db, []uint{first.ID, second.ID}, time.Time{}, now)
		require.NoError(t, err)
		assert.Equal(t, int64(6), count)
	})

	t.Run("empty post list short-circuits", func(t *testing.T) {
		count, err := views.CountForPosts(db, nil, time.Time{}, now)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestCountUniqueForPosts(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	author := testsupport.CreateTestUser(db, "author@example.com")
	post := testsupport.CreateTestPost(t, db, author.ID, "Uniques", "uniques")

	repeat := views.Identity{IPAddress: "203.0.113.80"}
	testsupport.CreateTestViewEvent(t, db, post.ID, repeat, now.Add(-3*time.Hour))
	testsupport.CreateTestViewEvent(t, db, post.ID, repeat, now.Add(-2*time.Hour))
	testsupport.CreateTestViewEvent(t, db, post.ID, views.Identity{IPAddress: "203.0.113.81"}, now.Add(-time.Hour))

	total, err := views.CountForPosts(db, []uint{post.ID}, time.Time{}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	unique, err := views.CountUniqueForPosts(db, []uint{post.ID}, time.Time{}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unique)

	// The bounded variant only sees the distinct actors inside the range.
	unique, err = views.CountUniqueForPosts(db, []uint{post.ID}, now.Add(-90*time.Minute), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unique)
}

func TestCountInRange(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	author := testsupport.CreateTestUser(db, "author@example.com")
	post := testsupport.CreateTestPost(t, db, author.ID, "Ranged", "ranged")

	testsupport.SeedViews(t, db, post.ID, 4, now.Add(-12*time.Hour))
	testsupport.SeedViews(t, db, post.ID, 2, now.Add(-36*time.Hour))

	current, err := views.CountInRange(db, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), current)

	previous, err := views.CountInRange(db, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), previous)

	all, err := views.CountInRange(db, time.Time{}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(6), all)

	total, err := views.CountAll(db)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
}

func TestViewCountsByPost(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	author := testsupport.CreateTestUser(db, "author@example.com")
	first := testsupport.CreateTestPost(t, db, author.ID, "First", "first")
	second := testsupport.CreateTestPost(t, db, author.ID, "Second", "second")
	third := testsupport.CreateTestPost(t, db, author.ID, "Third", "third")

	testsupport.SeedViews(t, db, first.ID, 3, now.Add(-time.Hour))
	testsupport.SeedViews(t, db, second.ID, 1, now.Add(-time.Hour))

	counts, err := views.ViewCountsByPost(db, []uint{first.ID, second.ID, third.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[first.ID])
	assert.Equal(t, int64(1), counts[second.ID])

	// Posts without views are simply absent from the map.
	_, present := counts[third.ID]
	assert.False(t, present)

	empty, err := views.ViewCountsByPost(db, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
