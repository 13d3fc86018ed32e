// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
//
// Messages are append-only. Order within a room is defined by Seq, which
// callers assign with NextSeq inside the same transaction as the insert; the
// (room_id, seq) unique index rejects a concurrent writer that picked the
// same value.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// NextSeq returns max(seq)+1 for roomID, or 1 for an empty room.
func NextSeq(ctx context.Context, db *gorm.DB, roomID string) (int64, error) {
	var last struct{ Seq int64 }
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("seq").
		Where("room_id = ?", roomID).
		Order("seq DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last.Seq + 1, nil
}

// CreateMessage inserts a message with the given sequence number. An empty id
// gets a fresh UUID.
func CreateMessage(ctx context.Context, db *gorm.DB, id, roomID, userID string, seq int64, content string) (*domain.Message, error) {
	if id == "" {
		id = uuid.NewString()
	}
	m := &domain.Message{
		ID:        id,
		RoomID:    roomID,
		UserID:    userID,
		Seq:       seq,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMessage fetches a message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns a room's messages in log order (seq ASC). A limit
// <= 0 returns all of them.
func ListMessages(ctx context.Context, db *gorm.DB, roomID string, limit int) ([]domain.Message, error) {
	out := []domain.Message{}
	q := db.WithContext(ctx).Where("room_id = ?", roomID).Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB, roomID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM messages WHERE room_id = ?", roomID).Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice ordered by seq ASC.
func ListMessagesPage(ctx context.Context, db *gorm.DB, roomID string, offset, limit int) ([]domain.Message, error) {
	out := []domain.Message{}
	err := db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("seq ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// LastMessages returns the latest message of each given room. Rooms without
// messages are absent from the map.
func LastMessages(ctx context.Context, db *gorm.DB, roomIDs []string) (map[string]domain.Message, error) {
	out := make(map[string]domain.Message, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	latest := db.Model(&domain.Message{}).
		Select("room_id, MAX(seq) AS seq").
		Where("room_id IN ?", roomIDs).
		Group("room_id")
	var rows []domain.Message
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("messages.*").
		Joins("JOIN (?) latest ON latest.room_id = messages.room_id AND latest.seq = messages.seq", latest).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.RoomID] = m
	}
	return out, nil
}

// MessageCounts returns per-room message counts. Empty rooms are absent.
func MessageCounts(ctx context.Context, db *gorm.DB, roomIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		RoomID string
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("room_id, COUNT(*) AS n").
		Where("room_id IN ?", roomIDs).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.RoomID] = r.N
	}
	return out, nil
}
