// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model that lets clients retry POST /rooms/:id/messages without appending
// the same message twice.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (user_id, room_id, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, roomID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND room_id = ? AND key = ? AND expires_at > ?", userID, roomID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, roomID, key, messageID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    userID,
		RoomID:    roomID,
		Key:       key,
		MessageID: messageID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// ClaimIdempotency records key for messageID on tx, the transaction that
// appends the message. An expired record for the same tuple is replaced. A
// live one yields ErrDuplicate, and the caller must roll back and replay it.
func ClaimIdempotency(ctx context.Context, tx *gorm.DB, userID, roomID, key, messageID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	err := tx.WithContext(ctx).
		Where("user_id = ? AND room_id = ? AND key = ? AND expires_at <= ?", userID, roomID, key, time.Now().UTC()).
		Delete(&domain.Idempotency{}).Error
	if err != nil {
		return nil, err
	}
	return CreateIdempotency(ctx, tx, userID, roomID, key, messageID, status, ttl)
}

// PurgeExpiredIdempotency deletes records whose expiry is at or before now and
// returns how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
