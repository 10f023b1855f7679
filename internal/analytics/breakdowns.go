package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Dimension names a view event attribute an audience breakdown groups by.
type Dimension string

const (
	DimensionReferrer Dimension = "referrer"
	DimensionDevice   Dimension = "device"
	DimensionBrowser  Dimension = "browser"
	DimensionOS       Dimension = "os"
	DimensionCountry  Dimension = "country"
)

func (d Dimension) column() (string, error) {
	switch d {
	case DimensionReferrer:
		return "referrer_hostname", nil
	case DimensionDevice:
		return "device_type", nil
	case DimensionBrowser:
		return "browser", nil
	case DimensionOS:
		return "os", nil
	case DimensionCountry:
		return "country", nil
	default:
		return "", fmt.Errorf("unknown breakdown dimension %q", d)
	}
}

// TopDimensionValues returns the most frequent values of a dimension across
// the given posts' view events, ordered by count descending. A zero from or
// to leaves that side of the time range unbounded.
func TopDimensionValues(db *gorm.DB, dimension Dimension, postIDs []uint, from, to time.Time, limit int) ([]DimensionValue, error) {
	column, err := dimension.column()
	if err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		return []DimensionValue{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s AS value, COUNT(*) AS count
		FROM view_events
		WHERE post_id IN ?
	`, column)
	args := []interface{}{postIDs}

	if !from.IsZero() {
		query += " AND occurred_at >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		query += " AND occurred_at < ?"
		args = append(args, to)
	}
	query += fmt.Sprintf(" GROUP BY %s ORDER BY count DESC LIMIT ?", column)
	args = append(args, limit)

	var values []DimensionValue
	if err := db.Raw(query, args...).Scan(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s breakdown: %w", dimension, err)
	}
	return values, nil
}
