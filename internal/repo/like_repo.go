// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for likes.
//
// A user likes a post at most once (ux_like_user_post), so the like count of
// a post is simply the number of rows that reference it.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateLike records that userID likes postID.
func CreateLike(ctx context.Context, db *gorm.DB, userID, postID string) (*domain.Like, error) {
	l := &domain.Like{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// GetLike fetches the like of postID by userID, or ErrNotFound.
func GetLike(ctx context.Context, db *gorm.DB, userID, postID string) (*domain.Like, error) {
	var l domain.Like
	err := db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLike removes the like if present and returns the rows removed.
func DeleteLike(ctx context.Context, db *gorm.DB, userID, postID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&domain.Like{})
	return res.RowsAffected, res.Error
}

// CountLikes returns the number of likes on postID.
func CountLikes(ctx context.Context, db *gorm.DB, postID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Like{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// LikeCounts returns like counts for several posts at once. Posts without
// likes are absent from the map.
func LikeCounts(ctx context.Context, db *gorm.DB, postIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PostID string
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Like{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PostID] = r.N
	}
	return out, nil
}

// ListLikedPosts returns the posts userID has liked, most recently liked first.
func ListLikedPosts(ctx context.Context, db *gorm.DB, userID string) ([]domain.Post, error) {
	out := []domain.Post{}
	err := db.WithContext(ctx).
		Model(&domain.Post{}).
		Select("posts.*").
		Joins("JOIN likes l ON l.post_id = posts.id").
		Where("l.user_id = ?", userID).
		Order("l.created_at DESC, l.id DESC").
		Scan(&out).Error
	return out, err
}
