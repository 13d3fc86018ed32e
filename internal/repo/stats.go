// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate query behind conditional
// responses (ETag generation) on room logs.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// MessagesStats returns aggregate metadata for a room's log: the number of
// messages and the highest sequence number. Because the log is append-only,
// the pair changes exactly when the log does. An empty room yields (0, 0).
func MessagesStats(ctx context.Context, db *gorm.DB, roomID string) (count int64, lastSeq int64, err error) {
	q := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Message{}).Where("room_id = ?", roomID)
	}

	if err = q().Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct{ Seq int64 }
	if err = q().Select("seq").Order("seq DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.Seq, nil
}
