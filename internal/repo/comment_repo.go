// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for comments.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateComment attaches a comment by userID to postID.
func CreateComment(ctx context.Context, db *gorm.DB, postID, userID, content string) (*domain.Comment, error) {
	c := &domain.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns a post's comments oldest first (created_at ASC, id ASC).
func ListComments(ctx context.Context, db *gorm.DB, postID string) ([]domain.Comment, error) {
	out := []domain.Comment{}
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
