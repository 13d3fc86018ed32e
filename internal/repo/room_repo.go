// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for direct-message
// rooms and their Entry memberships.
//
// A room is created together with exactly two entries. CreateRoomWithEntries
// does not open its own transaction: the caller passes a transaction handle
// so a pair_key collision rolls back the room and both entries together.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateRoomWithEntries inserts a room for the unordered pair (a, b) and one
// entry per participant. Run it inside a transaction.
func CreateRoomWithEntries(ctx context.Context, tx *gorm.DB, a, b string) (*domain.Room, []domain.Entry, error) {
	now := time.Now().UTC()
	room := &domain.Room{
		ID:        uuid.NewString(),
		PairKey:   domain.PairKey(a, b),
		CreatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(room).Error; err != nil {
		return nil, nil, err
	}
	entries := []domain.Entry{
		{ID: uuid.NewString(), RoomID: room.ID, UserID: a, CreatedAt: now},
		{ID: uuid.NewString(), RoomID: room.ID, UserID: b, CreatedAt: now},
	}
	if err := tx.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, nil, err
	}
	return room, entries, nil
}

// GetRoom fetches a room by ID, or ErrNotFound.
func GetRoom(ctx context.Context, db *gorm.DB, id string) (*domain.Room, error) {
	var r domain.Room
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoomByPair fetches the room shared by a and b (in either order), or
// ErrNotFound.
func GetRoomByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Room, error) {
	var r domain.Room
	err := db.WithContext(ctx).
		Where("pair_key = ?", domain.PairKey(a, b)).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// HasEntry reports whether userID is a member of roomID.
func HasEntry(ctx context.Context, db *gorm.DB, roomID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// ListEntries returns the memberships of the given rooms, ordered by
// (room_id, user_id).
func ListEntries(ctx context.Context, db *gorm.DB, roomIDs ...string) ([]domain.Entry, error) {
	out := []domain.Entry{}
	if len(roomIDs) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).
		Where("room_id IN ?", roomIDs).
		Order("room_id ASC, user_id ASC").
		Find(&out).Error
	return out, err
}

// ListRoomsForUser returns the rooms userID has an entry in, in creation
// order. Callers re-sort by activity.
func ListRoomsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Room, error) {
	out := []domain.Room{}
	err := db.WithContext(ctx).
		Model(&domain.Room{}).
		Select("rooms.*").
		Joins("JOIN entries e ON e.room_id = rooms.id").
		Where("e.user_id = ?", userID).
		Order("rooms.created_at ASC, rooms.id ASC").
		Scan(&out).Error
	return out, err
}
