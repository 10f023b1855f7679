// Package subscribers holds newsletter subscriber records. The analytics
// subsystem only counts them; signup and delivery live elsewhere.
package subscribers

import (
	"time"

	"gorm.io/gorm"
)

// Subscriber is one newsletter signup.
type Subscriber struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Confirmed bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
}

// CountInRange counts subscribers created in [from, to).
func CountInRange(db *gorm.DB, from, to time.Time) (int64, error) {
	query := db.Model(&Subscriber{}).Where("created_at < ?", to)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountAll counts every subscriber.
func CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Subscriber{}).Count(&count).Error
	return count, err
}
