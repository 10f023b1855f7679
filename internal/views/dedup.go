package views

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ShouldRecordView decides whether an incoming view of the post should be
// counted or suppressed as a repeat within the dedup window.
//
// The prior-event lookup matches on any of the identity signals, not only
// the chosen actor key. A visitor with no identity signal at all cannot be
// deduplicated, so every such call records.
//
// The check-then-insert sequence carries no transactional guarantee: two
// concurrent requests from the same actor may both be told to record.
// Slight over-counting under concurrent duplicates is accepted.
func ShouldRecordView(db *gorm.DB, postID uint, identity Identity, now time.Time, window time.Duration) (bool, error) {
	if !identity.HasSignal() {
		return true, nil
	}

	prior, err := FindMostRecentView(db, postID, identity)
	if err != nil {
		return false, fmt.Errorf("error looking up prior view for post %d: %w", postID, err)
	}
	if prior == nil {
		return true, nil
	}

	if now.Sub(prior.OccurredAt) < window {
		return false, nil
	}
	return true, nil
}
