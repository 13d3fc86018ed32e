// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post model.
//
// Update and delete are scoped by (id, user_id) so ownership is enforced at
// the query level; a zero-row result is reported as ErrNotFound and the
// service decides whether that means "missing" or "not yours".
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreatePost inserts a post authored by userID.
func CreatePost(ctx context.Context, db *gorm.DB, userID, title, content string) (*domain.Post, error) {
	now := time.Now().UTC()
	p := &domain.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a post by ID, or ErrNotFound.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// PostExists reports whether a post with the given ID exists.
func PostExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).Limit(1).Count(&n).Error
	return n > 0, err
}

// CountPosts returns the total number of posts.
func CountPosts(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Post{}).Count(&n).Error
	return n, err
}

// ListPostsPage returns posts newest first (created_at DESC, id DESC).
func ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListPostsByUser returns every post authored by userID, newest first.
func ListPostsByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Post, error) {
	out := []domain.Post{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// UpdatePost rewrites title and content of a post owned by userID.
// Returns ErrNotFound if no row matched.
func UpdatePost(ctx context.Context, db *gorm.DB, id, userID, title, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"title":      title,
			"content":    content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePost removes a post owned by userID together with its likes and
// comments. Returns ErrNotFound if no row matched.
func DeletePost(ctx context.Context, db *gorm.DB, id, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// The FK cascade covers this when foreign keys are enforced; do it
		// explicitly for connections where they are not.
		if err := tx.Where("post_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error
	})
}

// PostStore adapts the post functions above to services.PostRepo, keeping
// services decoupled from this package while reusing its queries.
type PostStore struct{}

// CreatePost proxies CreatePost.
func (PostStore) CreatePost(ctx context.Context, db *gorm.DB, userID, title, content string) (*domain.Post, error) {
	return CreatePost(ctx, db, userID, title, content)
}

// GetPost proxies GetPost.
func (PostStore) GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	return GetPost(ctx, db, id)
}

// UpdatePost proxies UpdatePost.
func (PostStore) UpdatePost(ctx context.Context, db *gorm.DB, id, userID, title, content string) error {
	return UpdatePost(ctx, db, id, userID, title, content)
}

// DeletePost proxies DeletePost.
func (PostStore) DeletePost(ctx context.Context, db *gorm.DB, id, userID string) error {
	return DeletePost(ctx, db, id, userID)
}

// CountPosts proxies CountPosts (pagination support).
func (PostStore) CountPosts(ctx context.Context, db *gorm.DB) (int64, error) {
	return CountPosts(ctx, db)
}

// ListPostsPage proxies ListPostsPage (pagination support).
func (PostStore) ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error) {
	return ListPostsPage(ctx, db, offset, limit)
}

// LikeCounts proxies LikeCounts.
func (PostStore) LikeCounts(ctx context.Context, db *gorm.DB, postIDs []string) (map[string]int64, error) {
	return LikeCounts(ctx, db, postIDs)
}
