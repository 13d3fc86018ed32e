package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-social-backend/internal/repo"
)

// U1 follows U2, likes U2's post, and opens a DM that both can read while a
// third user is kept out.
func TestScenario_FollowLikeDM(t *testing.T) {
	db := newSvcDB(t)
	pub := &recorder{}
	ctx := context.Background()

	users := NewUserService(db, pub)
	follows := NewFollowService(db, pub)
	likes := NewLikeService(db, pub)
	posts := NewPostService(db, repo.PostStore{})
	rooms := NewRoomService(db, NewMessageService(db, 0), pub)

	u1, err := users.Register(ctx, "U1@example.com")
	require.NoError(t, err)
	u2, err := users.Register(ctx, "u2@example.com")
	require.NoError(t, err)
	u3, err := users.Register(ctx, "u3@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", u1.Email)

	_, err = follows.Follow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	st, err := follows.Status(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, st.Following)
	assert.False(t, st.FollowedBy)

	post, err := posts.Create(ctx, u2.ID, "hello", "first post")
	require.NoError(t, err)
	_, err = likes.Like(ctx, u1.ID, post.ID)
	require.NoError(t, err)
	withLikes, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, withLikes.Likes)

	room, created, err := rooms.Open(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, created)
	_, err = rooms.PostMessage(ctx, u1.ID, room.Room.ID, "hi")
	require.NoError(t, err)
	_, err = rooms.PostMessage(ctx, u2.ID, room.Room.ID, "hey")
	require.NoError(t, err)

	seen, err := rooms.Get(ctx, u2.ID, room.Room.ID)
	require.NoError(t, err)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, u1.ID, seen.Messages[0].UserID)
	assert.Equal(t, "hey", seen.Messages[1].Content)

	_, err = rooms.Get(ctx, u3.ID, room.Room.ID)
	assert.ErrorIs(t, err, ErrRoomForbidden)

	prof, err := users.Profile(ctx, u2.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, prof.FollowersCount)
	assert.EqualValues(t, 0, prof.FollowingCount)
	require.Len(t, prof.Posts, 1)

	prof1, err := users.Profile(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, prof1.LikedPosts, 1)
	assert.Equal(t, post.ID, prof1.LikedPosts[0].ID)
}
