// Package services – LikeService
//
// LikeService is the engagement ledger: at most one like per (user, post),
// idempotent like/unlike, and the aggregate count. Like follows the same
// insert-then-refetch discipline as Follow, so concurrent double-clicks
// converge to a single row and the count never double-counts.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/events"
	"github.com/tbourn/go-social-backend/internal/observability"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// LikeService provides like/unlike and like aggregation.
type LikeService struct {
	DB     *gorm.DB
	Events events.Publisher
}

// NewLikeService constructs a LikeService.
func NewLikeService(db *gorm.DB, pub events.Publisher) *LikeService {
	return &LikeService{DB: db, Events: pub}
}

// LikeSummary is the like state of a post as seen by one user.
type LikeSummary struct {
	PostID string
	Count  int64
	Liked  bool
}

func (s *LikeService) span(ctx context.Context, name, userID, postID string) (context.Context, trace.Span) {
	return otel.Tracer("services/LikeService").Start(ctx, name,
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("post.id", postID),
		),
	)
}

// Like records that userID likes postID and returns the like, new or existing.
func (s *LikeService) Like(ctx context.Context, userID, postID string) (*domain.Like, error) {
	ctx, span := s.span(ctx, "Like", userID, postID)
	defer span.End()

	if err := checkIDs(userID, postID); err != nil {
		return nil, err
	}
	ok, err := repo.PostExists(ctx, s.DB, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPostNotFound
	}

	l, err := repo.CreateLike(ctx, s.DB, userID, postID)
	switch {
	case err == nil:
		observability.LikeOps.WithLabelValues("like", observability.ResultCreated).Inc()
		publish(ctx, s.Events, events.New(events.PostLiked, userID, postID, l.ID))
		return l, nil
	case repo.IsDuplicate(err):
		observability.CreateConflicts.WithLabelValues("like").Inc()
		existing, gerr := repo.GetLike(ctx, s.DB, userID, postID)
		if gerr != nil {
			return nil, gerr
		}
		observability.LikeOps.WithLabelValues("like", observability.ResultExisting).Inc()
		return existing, nil
	case repo.IsForeignKey(err):
		// post deleted between the existence check and the insert
		return nil, ErrPostNotFound
	default:
		return nil, err
	}
}

// Unlike removes userID's like on postID if present.
func (s *LikeService) Unlike(ctx context.Context, userID, postID string) error {
	ctx, span := s.span(ctx, "Unlike", userID, postID)
	defer span.End()

	if err := checkIDs(userID, postID); err != nil {
		return err
	}
	n, err := repo.DeleteLike(ctx, s.DB, userID, postID)
	if err != nil {
		return err
	}
	if n == 0 {
		observability.LikeOps.WithLabelValues("unlike", observability.ResultAbsent).Inc()
		return nil
	}
	observability.LikeOps.WithLabelValues("unlike", observability.ResultRemoved).Inc()
	publish(ctx, s.Events, events.New(events.PostUnliked, userID, postID, ""))
	return nil
}

// Count returns the number of likes on postID.
func (s *LikeService) Count(ctx context.Context, postID string) (int64, error) {
	if err := checkIDs(postID); err != nil {
		return 0, err
	}
	return repo.CountLikes(ctx, s.DB, postID)
}

// HasLiked reports whether userID likes postID.
func (s *LikeService) HasLiked(ctx context.Context, userID, postID string) (bool, error) {
	if err := checkIDs(userID, postID); err != nil {
		return false, err
	}
	_, err := repo.GetLike(ctx, s.DB, userID, postID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Summary returns the count and the caller's liked flag for a post.
func (s *LikeService) Summary(ctx context.Context, userID, postID string) (*LikeSummary, error) {
	ctx, span := s.span(ctx, "Summary", userID, postID)
	defer span.End()

	if err := checkIDs(postID); err != nil {
		return nil, err
	}
	ok, err := repo.PostExists(ctx, s.DB, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPostNotFound
	}
	count, err := s.Count(ctx, postID)
	if err != nil {
		return nil, err
	}
	liked, err := s.HasLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return &LikeSummary{PostID: postID, Count: count, Liked: liked}, nil
}

// ListLikedPosts returns the posts userID has liked, most recent like first.
func (s *LikeService) ListLikedPosts(ctx context.Context, userID string) ([]domain.Post, error) {
	if err := checkIDs(userID); err != nil {
		return nil, err
	}
	return repo.ListLikedPosts(ctx, s.DB, userID)
}
