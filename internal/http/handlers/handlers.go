// Package handlers exposes the REST endpoints of the social API.
//
// Handlers are transport-thin: they bind and validate input, read the actor
// set by middleware.Authenticate, call an application service, and translate
// the result (or the error kind) into an HTTP response. Authorization lives
// in the services; a handler never decides who may see a room.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// UserService registers users and reads profiles.
type UserService interface {
	Register(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Profile(ctx context.Context, id string) (*services.Profile, error)
}

// FollowService manages the follow graph.
type FollowService interface {
	Follow(ctx context.Context, actorID, targetID string) (*domain.Relationship, error)
	Unfollow(ctx context.Context, actorID, targetID string) error
	ListFollowers(ctx context.Context, userID string) ([]domain.User, error)
	ListFollowings(ctx context.Context, userID string) ([]domain.User, error)
	Status(ctx context.Context, actorID, targetID string) (*services.RelationStatus, error)
}

// LikeService manages likes on posts.
type LikeService interface {
	Like(ctx context.Context, userID, postID string) (*domain.Like, error)
	Unlike(ctx context.Context, userID, postID string) error
	Summary(ctx context.Context, userID, postID string) (*services.LikeSummary, error)
}

// RoomService opens direct-message rooms and fronts their logs. Every
// method taking a caller authorizes it.
type RoomService interface {
	Open(ctx context.Context, actorID, peerID string) (*services.RoomDetail, bool, error)
	Get(ctx context.Context, callerID, roomID string) (*services.RoomDetail, error)
	ListFor(ctx context.Context, userID string) ([]services.RoomSummary, error)
	PostMessageOnce(ctx context.Context, actorID, roomID, key, content string) (*domain.Message, bool, error)
	ListMessages(ctx context.Context, callerID, roomID string, page, pageSize int) ([]domain.Message, int64, error)
	LogVersion(ctx context.Context, callerID, roomID string) (count, lastSeq int64, err error)
}

// PostService provides post CRUD.
type PostService interface {
	Create(ctx context.Context, userID, title, content string) (*domain.Post, error)
	Get(ctx context.Context, id string) (*services.PostWithLikes, error)
	ListPage(ctx context.Context, page, pageSize int) ([]services.PostWithLikes, int64, error)
	Update(ctx context.Context, userID, id, title, content string) (*domain.Post, error)
	Delete(ctx context.Context, userID, id string) error
}

// CommentService attaches comments to posts.
type CommentService interface {
	Create(ctx context.Context, userID, postID, content string) (*domain.Comment, error)
	List(ctx context.Context, postID string) ([]domain.Comment, error)
}

// TokenIssuer mints bearer tokens for newly registered users.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// Services bundles the dependencies of Handlers. Tokens is optional.
type Services struct {
	Users    UserService
	Follows  FollowService
	Likes    LikeService
	Rooms    RoomService
	Posts    PostService
	Comments CommentService
	Tokens   TokenIssuer
}

var (
	_ UserService    = (*services.UserService)(nil)
	_ FollowService  = (*services.FollowService)(nil)
	_ LikeService    = (*services.LikeService)(nil)
	_ RoomService    = (*services.RoomService)(nil)
	_ PostService    = (*services.PostService)(nil)
	_ CommentService = (*services.CommentService)(nil)
)

//
// Handler wiring
//

// Handlers groups all HTTP endpoints.
type Handlers struct {
	users    UserService
	follows  FollowService
	likes    LikeService
	rooms    RoomService
	posts    PostService
	comments CommentService
	tokens   TokenIssuer
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		users:    s.Users,
		follows:  s.Follows,
		likes:    s.Likes,
		rooms:    s.Rooms,
		posts:    s.Posts,
		comments: s.Comments,
		tokens:   s.Tokens,
	}
}

// actor returns the authenticated user id. Routes using it are mounted
// behind middleware.Authenticate, so it is never empty there.
func actor(c *gin.Context) string {
	return middleware.UserID(c)
}

//
// Shared DTOs
//

// PublicUser is the view of a user visible to other users.
type PublicUser struct {
	ID        string    `json:"id" example:"3f1d7a52-8c4e-4d8b-9a53-0c9b6d2f1e77"`
	CreatedAt time.Time `json:"created_at"`
}

func publicUsers(us []domain.User) []PublicUser {
	out := make([]PublicUser, len(us))
	for i, u := range us {
		out[i] = PublicUser{ID: u.ID, CreatedAt: u.CreatedAt}
	}
	return out
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
