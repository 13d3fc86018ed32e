package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

func mkRoom(t *testing.T, db *gorm.DB) (roomID, a, b string) {
	t.Helper()
	a, b = mkUser(t, db), mkUser(t, db)
	var room *domain.Room
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		r, _, err := repo.CreateRoomWithEntries(context.Background(), tx, a, b)
		room = r
		return err
	}))
	return room.ID, a, b
}

// failMessageInserts makes the first n message inserts fail with err.
func failMessageInserts(t *testing.T, db *gorm.DB, n int32, err error) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("fail_messages", func(tx *gorm.DB) {
		if tx.Statement.Table != "messages" {
			return
		}
		if calls.Add(1) <= n {
			_ = tx.AddError(err)
		}
	}))
	return &calls
}

func TestAppend_NormalisesContent(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 50)
	rid, a, _ := mkRoom(t, db)

	// "e" + combining acute composes to a single rune
	m, err := svc.Append(context.Background(), rid, a, "  cafe\u0301\r\nline2\rline3 \n")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9\nline2\nline3", m.Content)
	assert.EqualValues(t, 1, m.Seq)
}

func TestAppend_LengthLimits(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 5)
	rid, a, _ := mkRoom(t, db)
	ctx := context.Background()

	_, err := svc.Append(ctx, rid, a, "ééééé")
	require.NoError(t, err, "limit counts runes, not bytes")

	_, err = svc.Append(ctx, rid, a, "toolong")
	assert.ErrorIs(t, err, ErrContentTooLong)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Append(ctx, rid, a, "\n\t ")
	assert.ErrorIs(t, err, ErrEmptyContent)

	assert.EqualValues(t, 1, count(t, db, &domain.Message{}, "room_id = ?", rid))
}

func TestAppend_DefaultLimit(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 0)
	rid, a, _ := mkRoom(t, db)

	_, err := svc.Append(context.Background(), rid, a, strings.Repeat("x", DefaultMaxContentRunes))
	require.NoError(t, err)
	_, err = svc.Append(context.Background(), rid, a, strings.Repeat("x", DefaultMaxContentRunes+1))
	assert.ErrorIs(t, err, ErrContentTooLong)
}

func TestAppend_RetriesSeqCollision(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 0)
	rid, a, _ := mkRoom(t, db)
	calls := failMessageInserts(t, db, 2, errors.New("UNIQUE constraint failed: messages.room_id, messages.seq"))

	m, err := svc.Append(context.Background(), rid, a, "hi")
	require.NoError(t, err)
	assert.EqualValues(t, 1, m.Seq)
	assert.EqualValues(t, 3, calls.Load())
	assert.EqualValues(t, 1, count(t, db, &domain.Message{}, "room_id = ?", rid))
}

func TestAppend_GivesUpAfterMaxAttempts(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 0)
	svc.MaxAppendAttempts = 3
	rid, a, _ := mkRoom(t, db)
	calls := failMessageInserts(t, db, 1000, errors.New("database is locked (5) (SQLITE_BUSY)"))

	_, err := svc.Append(context.Background(), rid, a, "hi")
	require.ErrorIs(t, err, ErrAppendFailed)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 3, calls.Load())
	assert.EqualValues(t, 0, count(t, db, &domain.Message{}, ""))
}

func TestAppend_OtherErrorsAreNotRetried(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 0)
	rid, a, _ := mkRoom(t, db)
	boom := errors.New("boom")
	calls := failMessageInserts(t, db, 1000, boom)

	_, err := svc.Append(context.Background(), rid, a, "hi")
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, calls.Load())
}

func TestAppend_UnknownRoomIsForbidden(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 0)
	a := mkUser(t, db)

	_, err := svc.Append(context.Background(), "00000000-0000-0000-0000-000000000000", a, "hi")
	assert.ErrorIs(t, err, ErrRoomForbidden)
}

func TestMessageService_Reads(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 0)
	rid, a, b := mkRoom(t, db)
	ctx := context.Background()

	items, total, err := svc.ListPage(ctx, rid, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.EqualValues(t, 0, total)

	for i, author := range []string{a, b, a} {
		_, err := svc.Append(ctx, rid, author, string(rune('a'+i)))
		require.NoError(t, err)
	}

	log, err := svc.List(ctx, rid)
	require.NoError(t, err)
	require.Len(t, log, 3)
	last := log[2]
	assert.Equal(t, "c", last.Content)
	assert.EqualValues(t, 3, last.Seq)

	got, err := svc.Get(ctx, last.ID)
	require.NoError(t, err)
	assert.Equal(t, last.ID, got.ID)

	items, total, err = svc.ListPage(ctx, rid, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Content)
}

func TestAppendKeyed_SecondClaimAppendsNothing(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 0)
	rid, a, b := mkRoom(t, db)
	ctx := context.Background()

	m, err := svc.AppendKeyed(ctx, rid, a, "first", Claim{Key: "k1"})
	require.NoError(t, err)

	_, err = svc.AppendKeyed(ctx, rid, a, "second", Claim{Key: "k1"})
	assert.ErrorIs(t, err, ErrKeyClaimed)
	assert.ErrorIs(t, err, ErrConflict)

	// the key is scoped to the author
	_, err = svc.AppendKeyed(ctx, rid, b, "other author", Claim{Key: "k1"})
	require.NoError(t, err)

	assert.EqualValues(t, 2, count(t, db, &domain.Message{}, "room_id = ?", rid))
	rec, err := repo.GetIdempotency(ctx, db, a, rid, "k1", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, m.ID, rec.MessageID)
}

func TestAppendKeyed_RolledBackMessageReleasesClaim(t *testing.T) {
	db := newSvcDB(t)
	svc := NewMessageService(db, 0)
	svc.MaxAppendAttempts = 1
	rid, a, _ := mkRoom(t, db)
	ctx := context.Background()

	boom := errors.New("insert failed")
	failMessageInserts(t, db, 1, boom)

	_, err := svc.AppendKeyed(ctx, rid, a, "lost", Claim{Key: "k1"})
	require.ErrorIs(t, err, boom)

	assert.EqualValues(t, 0, count(t, db, &domain.Idempotency{}, ""))
	_, err = svc.AppendKeyed(ctx, rid, a, "retried", Claim{Key: "k1"})
	require.NoError(t, err)
}
