// Package posts holds blog posts and their comment/like activity.
package posts

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Post statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is a blog entry owned by one author.
type Post struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Excerpt     string
	Body        string `gorm:"type:text"`
	Status      string `gorm:"index;not null;default:draft"`
	PublishedAt sql.NullTime
	CreatedAt   time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Comment is a reader comment on a post. Only its existence matters to the
// analytics subsystem; moderation lives elsewhere.
type Comment struct {
	ID          uint `gorm:"primaryKey"`
	PostID      uint `gorm:"index;not null"`
	AuthorName  string
	AuthorEmail string
	Body        string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"index;autoCreateTime"`
}

// Like is a reader like on a post.
type Like struct {
	ID        uint      `gorm:"primaryKey"`
	PostID    uint      `gorm:"index;not null"`
	UserID    uint      `gorm:"index"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
}

// PostNotFoundError indicates the requested post does not exist.
type PostNotFoundError struct {
	ID uint
}

func (e *PostNotFoundError) Error() string {
	return fmt.Sprintf("post %d not found", e.ID)
}

// NewPostNotFoundError creates a PostNotFoundError for the given post ID.
func NewPostNotFoundError(id uint) *PostNotFoundError {
	return &PostNotFoundError{ID: id}
}

// GetPostByID retrieves a post by its primary key.
func GetPostByID(db *gorm.DB, id uint) (*Post, error) {
	var post Post
	if err := db.Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewPostNotFoundError(id)
		}
		return nil, fmt.Errorf("error fetching post %d: %w", id, err)
	}
	return &post, nil
}

// IDsByAuthor returns the IDs of every post owned by the given author.
func IDsByAuthor(db *gorm.DB, userID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&Post{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching post ids for user %d: %w", userID, err)
	}
	return ids, nil
}

// PostFilters represents filtering options for post listings.
type PostFilters struct {
	UserID uint
	Search string
	Limit  int
	Offset int
}

// PostsResult represents a paginated post listing.
type PostsResult struct {
	Posts []Post
	Total int64
}

// ListFiltered retrieves a filtered and paginated list of an author's posts.
func ListFiltered(db *gorm.DB, filters PostFilters) (PostsResult, error) {
	query := db.Model(&Post{}).Where("user_id = ?", filters.UserID)

	if filters.Search != "" {
		query = query.Where("(title LIKE ? OR slug LIKE ?)",
			"%"+filters.Search+"%", "%"+filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return PostsResult{}, err
	}

	var result []Post
	if err := query.Order("created_at DESC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&result).Error; err != nil {
		return PostsResult{}, err
	}

	return PostsResult{Posts: result, Total: total}, nil
}

// CountAll counts every post on the site.
func CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Post{}).Count(&count).Error
	return count, err
}

// CountCommentsForPosts counts comments across the given posts.
func CountCommentsForPosts(db *gorm.DB, postIDs []uint) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := db.Model(&Comment{}).Where("post_id IN ?", postIDs).Count(&count).Error
	return count, err
}

// CountLikesForPosts counts likes across the given posts.
func CountLikesForPosts(db *gorm.DB, postIDs []uint) (int64, error) {
	if len(postIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := db.Model(&Like{}).Where("post_id IN ?", postIDs).Count(&count).Error
	return count, err
}

// CountLikesInRange counts likes created in [from, to) site-wide. A zero
// from disables the lower bound.
func CountLikesInRange(db *gorm.DB, from, to time.Time) (int64, error) {
	query := db.Model(&Like{}).Where("created_at < ?", to)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountAllLikes counts every like on the site.
func CountAllLikes(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Like{}).Count(&count).Error
	return count, err
}

// CommentCountsByPost fetches per-post comment counts for all the given
// posts in a single grouped query. Callers join the result in memory
// instead of issuing one count query per post.
func CommentCountsByPost(db *gorm.DB, postIDs []uint) (map[uint]int64, error) {
	return groupedCountsByPost(db, "comments", postIDs)
}

// LikeCountsByPost fetches per-post like counts for all the given posts in a
// single grouped query.
func LikeCountsByPost(db *gorm.DB, postIDs []uint) (map[uint]int64, error) {
	return groupedCountsByPost(db, "likes", postIDs)
}

func groupedCountsByPost(db *gorm.DB, table string, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID uint
		Count  int64
	}

	query := fmt.Sprintf(`
    SELECT post_id, COUNT(*) as count
    FROM %s
    WHERE post_id IN (?)
    GROUP BY post_id
    `, table)

	if err := db.Raw(query, postIDs).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching grouped %s counts: %w", table, err)
	}

	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}
