package views_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/testsupport"
	"inkwell/internal/views"
)

const dedupWindow = 30 * time.Minute

func TestShouldRecordView(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	author := testsupport.CreateTestUser(db, "author@example.com")
	post := testsupport.CreateTestPost(t, db, author.ID, "Dedup", "dedup")

	t.Run("first view from an actor records", func(t *testing.T) {
		record, err := views.ShouldRecordView(db, post.ID, views.Identity{IPAddress: "203.0.113.50"}, now, dedupWindow)
		require.NoError(t, err)
		assert.True(t, record)
	})

	t.Run("repeat inside the window is suppressed", func(t *testing.T) {
		identity := views.Identity{IPAddress: "203.0.113.51"}
		testsupport.CreateTestViewEvent(t, db, post.ID, identity, now.Add(-10*time.Minute))

		record, err := views.ShouldRecordView(db, post.ID, identity, now, dedupWindow)
		require.NoError(t, err)
		assert.False(t, record)
	})

	t.Run("repeat outside the window records", func(t *testing.T) {
		identity := views.Identity{IPAddress: "203.0.113.52"}
		testsupport.CreateTestViewEvent(t, db, post.ID, identity, now.Add(-31*time.Minute))

		record, err := views.ShouldRecordView(db, post.ID, identity, now, dedupWindow)
		require.NoError(t, err)
		assert.True(t, record)
	})

	t.Run("boundary view exactly one window old records", func(t *testing.T) {
		identity := views.Identity{IPAddress: "203.0.113.53"}
		testsupport.CreateTestViewEvent(t, db, post.ID, identity, now.Add(-dedupWindow))

		record, err := views.ShouldRecordView(db, post.ID, identity, now, dedupWindow)
		require.NoError(t, err)
		assert.True(t, record)
	})

	t.Run("no identity signal always records", func(t *testing.T) {
		testsupport.CreateTestViewEvent(t, db, post.ID, views.Identity{}, now.Add(-time.Minute))

		record, err := views.ShouldRecordView(db, post.ID, views.Identity{}, now, dedupWindow)
		require.NoError(t, err)
		assert.True(t, record)
	})

	t.Run("other posts do not suppress", func(t *testing.T) {
		other := testsupport.CreateTestPost(t, db, author.ID, "Other", "other")
		identity := views.Identity{IPAddress: "203.0.113.54"}
		testsupport.CreateTestViewEvent(t, db, post.ID, identity, now.Add(-time.Minute))

		record, err := views.ShouldRecordView(db, other.ID, identity, now, dedupWindow)
		require.NoError(t, err)
		assert.True(t, record)
	})
}

// A prior event is matched by any overlapping signal, not only by the
// signal the actor key was derived from.
func TestShouldRecordViewMatchesAnySignal(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	author := testsupport.CreateTestUser(db, "author@example.com")
	post := testsupport.CreateTestPost(t, db, author.ID, "Signals", "signals")

	prior := views.Identity{SessionID: "sess-abc", UserID: 42, IPAddress: "203.0.113.60"}
	testsupport.CreateTestViewEvent(t, db, post.ID, prior, now.Add(-5*time.Minute))

	cases := []struct {
		name     string
		identity views.Identity
		record   bool
	}{
		{"session matches", views.Identity{SessionID: "sess-abc"}, false},
		{"user matches", views.Identity{UserID: 42}, false},
		{"ip matches", views.Identity{IPAddress: "203.0.113.60"}, false},
		{"ip matches despite new session", views.Identity{SessionID: "sess-new", IPAddress: "203.0.113.60"}, false},
		{"nothing matches", views.Identity{SessionID: "sess-new", UserID: 7, IPAddress: "203.0.113.61"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := views.ShouldRecordView(db, post.ID, tc.identity, now, dedupWindow)
			require.NoError(t, err)
			assert.Equal(t, tc.record, record)
		})
	}
}

func TestFindMostRecentViewOrdering(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	author := testsupport.CreateTestUser(db, "author@example.com")
	post := testsupport.CreateTestPost(t, db, author.ID, "Ordering", "ordering")

	identity := views.Identity{IPAddress: "203.0.113.70"}
	testsupport.CreateTestViewEvent(t, db, post.ID, identity, now.Add(-2*time.Hour))
	latest := testsupport.CreateTestViewEvent(t, db, post.ID, identity, now.Add(-10*time.Minute))
	testsupport.CreateTestViewEvent(t, db, post.ID, identity, now.Add(-time.Hour))

	event, err := views.FindMostRecentView(db, post.ID, identity)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, latest.ID, event.ID)

	none, err := views.FindMostRecentView(db, post.ID, views.Identity{IPAddress: "203.0.113.99"})
	require.NoError(t, err)
	assert.Nil(t, none)

	noSignal, err := views.FindMostRecentView(db, post.ID, views.Identity{})
	require.NoError(t, err)
	assert.Nil(t, noSignal)
}
