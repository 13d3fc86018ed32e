// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the follow
// graph (Relationship edges).
//
// Edges are directed (follower -> followee). Uniqueness of an ordered pair
// is enforced by the ux_relationship_pair index, so CreateRelationship
// surfaces a duplicate as a unique violation that the service layer absorbs.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateRelationship inserts the edge followerID -> followeeID.
func CreateRelationship(ctx context.Context, db *gorm.DB, followerID, followeeID string) (*domain.Relationship, error) {
	r := &domain.Relationship{
		ID:         uuid.NewString(),
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRelationship fetches the edge followerID -> followeeID, or ErrNotFound.
func GetRelationship(ctx context.Context, db *gorm.DB, followerID, followeeID string) (*domain.Relationship, error) {
	var r domain.Relationship
	err := db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRelationship removes the edge if present and returns the number of
// rows removed (0 or 1).
func DeleteRelationship(ctx context.Context, db *gorm.DB, followerID, followeeID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&domain.Relationship{})
	return res.RowsAffected, res.Error
}

// ListFollowers returns the users following userID, ordered by edge creation
// (oldest first, ties by edge id).
func ListFollowers(ctx context.Context, db *gorm.DB, userID string) ([]domain.User, error) {
	out := []domain.User{}
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("users.*").
		Joins("JOIN relationships r ON r.follower_id = users.id").
		Where("r.followee_id = ?", userID).
		Order("r.created_at ASC, r.id ASC").
		Scan(&out).Error
	return out, err
}

// ListFollowings returns the users userID follows, ordered by edge creation
// (oldest first, ties by edge id).
func ListFollowings(ctx context.Context, db *gorm.DB, userID string) ([]domain.User, error) {
	out := []domain.User{}
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("users.*").
		Joins("JOIN relationships r ON r.followee_id = users.id").
		Where("r.follower_id = ?", userID).
		Order("r.created_at ASC, r.id ASC").
		Scan(&out).Error
	return out, err
}

// CountFollowers returns how many users follow userID.
func CountFollowers(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Relationship{}).Where("followee_id = ?", userID).Count(&n).Error
	return n, err
}

// CountFollowings returns how many users userID follows.
func CountFollowings(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Relationship{}).Where("follower_id = ?", userID).Count(&n).Error
	return n, err
}
