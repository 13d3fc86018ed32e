package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComment_CreateAndListOldestFirst(t *testing.T) {
	db := newSvcDB(t)
	svc := NewCommentService(db, 20)
	ctx := context.Background()
	author, a := mkUser(t, db), mkUser(t, db)
	p := mkPost(t, db, author)

	for _, body := range []string{"first", " second\r\n"} {
		_, err := svc.Create(ctx, a, p, body)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "second", list[1].Content)
	assert.Equal(t, a, list[1].UserID)
}

func TestComment_Rejects(t *testing.T) {
	db := newSvcDB(t)
	svc := NewCommentService(db, 5)
	ctx := context.Background()
	author := mkUser(t, db)
	p := mkPost(t, db, author)

	_, err := svc.Create(ctx, author, p, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
	_, err = svc.Create(ctx, author, p, "too long")
	assert.ErrorIs(t, err, ErrContentTooLong)
	_, err = svc.Create(ctx, author, uuid.NewString(), "hi")
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = svc.List(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = svc.List(ctx, "x")
	assert.ErrorIs(t, err, ErrInvalidID)
}
