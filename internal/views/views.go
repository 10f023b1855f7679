// Package views records deduplicated page views for blog posts.
//
// A view event is immutable once written. The package decides whether an
// incoming view should be counted (dedup.go), enriches it with device and
// geo attributes (record.go), and exposes the count queries the analytics
// layer reads from.
package views

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Constants for unknown or default values
const (
	DirectOrUnknownReferrer = "__direct_or_unknown__"
	UnknownDevice           = "__unknown_device__"
	UnknownBrowser          = "__unknown_browser__"
	UnknownOS               = "__unknown_os__"
	UnknownCountry          = "__unknown_country__"
)

// ViewEvent is one counted page view. Never mutated and never deleted by
// this subsystem; retention pruning is an operational concern.
type ViewEvent struct {
	ID               uint          `gorm:"primaryKey;autoIncrement"`
	PostID           uint          `gorm:"index:idx_post_occurred;not null"`
	ActorKey         string        `gorm:"index;size:64;not null"`
	SessionID        string        `gorm:"index"`
	UserID           sql.NullInt64 `gorm:"index"`
	IPAddress        string        `gorm:"index"`
	UserAgent        string
	Referrer         string
	ReferrerHostname string `gorm:"index"`
	Country          string
	DeviceType       string
	Browser          string
	OS               string
	OccurredAt       time.Time `gorm:"index:idx_post_occurred;not null"`
	CreatedAt        time.Time
}

// Identity carries the identity signals available for one visitor request.
// Any subset may be present.
type Identity struct {
	SessionID string
	UserID    uint
	IPAddress string
}

// ActorKey returns a hash of the best-available identity signal, in
// priority order session id, user id, IP address. Raw signals never appear
// in the key. Empty when no signal is present.
func (i Identity) ActorKey() string {
	var data string
	switch {
	case i.SessionID != "":
		data = "session." + i.SessionID
	case i.UserID > 0:
		data = "user." + strconv.FormatUint(uint64(i.UserID), 10)
	case i.IPAddress != "":
		data = "ip." + i.IPAddress
	default:
		return ""
	}

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// HasSignal reports whether at least one identity signal is present.
func (i Identity) HasSignal() bool {
	return i.SessionID != "" || i.UserID > 0 || i.IPAddress != ""
}

// FindMostRecentView returns the latest view of the post matching any of the
// identity signals, or nil when none exists. The match is an OR across
// session id, user id and IP address: one physical visitor may be matched by
// several signals at once.
func FindMostRecentView(db *gorm.DB, postID uint, identity Identity) (*ViewEvent, error) {
	var conds []string
	var args []interface{}

	if identity.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, identity.SessionID)
	}
	if identity.UserID > 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, identity.UserID)
	}
	if identity.IPAddress != "" {
		conds = append(conds, "ip_address = ?")
		args = append(args, identity.IPAddress)
	}
	if len(conds) == 0 {
		return nil, nil
	}

	var event ViewEvent
	err := db.Where("post_id = ?", postID).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("occurred_at DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// CountForPosts counts views across the given posts, optionally restricted
// to [from, to). Zero times disable the corresponding bound.
func CountForPosts(db *gorm.DB, postIDs []uint, from, to time.Time) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	query := db.Model(&ViewEvent{}).Where("post_id IN ?", postIDs)
	if !from.IsZero() {
		query = query.Where("occurred_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("occurred_at < ?", to)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountUniqueForPosts counts distinct actors across the given posts.
func CountUniqueForPosts(db *gorm.DB, postIDs []uint, from, to time.Time) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	query := db.Model(&ViewEvent{}).
		Distinct("actor_key").
		Where("post_id IN ?", postIDs)
	if !from.IsZero() {
		query = query.Where("occurred_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("occurred_at < ?", to)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountInRange counts views site-wide in [from, to). A zero from disables
// the lower bound.
func CountInRange(db *gorm.DB, from, to time.Time) (int64, error) {
	query := db.Model(&ViewEvent{}).Where("occurred_at < ?", to)
	if !from.IsZero() {
		query = query.Where("occurred_at >= ?", from)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountAll counts every view site-wide.
func CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&ViewEvent{}).Count(&count).Error
	return count, err
}

// ViewCountsByPost fetches per-post view counts in a single grouped query.
func ViewCountsByPost(db *gorm.DB, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID uint
		Count  int64
	}
	err := db.Model(&ViewEvent{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}
