// Package services – FollowService
//
// FollowService manages the directed follow graph. Follow and Unfollow are
// idempotent: following twice leaves one edge and unfollowing a user you do
// not follow is a successful no-op.
//
// Creation is insert-first. The unique index on (follower_id, followee_id)
// decides concurrent races; the loser re-reads the winner's edge and returns
// it, so callers never see a conflict.
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

// FollowService provides follow graph operations.
type FollowService struct {
	DB     *gorm.DB
	Events events.Publisher
}

// NewFollowService constructs a FollowService.
func NewFollowService(db *gorm.DB, pub events.Publisher) *FollowService {
	return &FollowService{DB: db, Events: pub}
}

// RelationStatus describes the edges between an actor and a target in both
// directions.
type RelationStatus struct {
	Following  bool // actor -> target
	FollowedBy bool // target -> actor
}

func (s *FollowService) span(ctx context.Context, name, actorID, targetID string) (context.Context, trace.Span) {
	return otel.Tracer("services/FollowService").Start(ctx, name,
		trace.WithAttributes(
			attribute.String("user.id", actorID),
			attribute.String("target.id", targetID),
		),
	)
}

// Follow makes actorID follow targetID and returns the edge, whether it was
// created by this call or already existed.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID string) (*domain.Relationship, error) {
	ctx, span := s.span(ctx, "Follow", actorID, targetID)
	defer span.End()

	if err := checkIDs(actorID, targetID); err != nil {
		return nil, err
	}
	if actorID == targetID {
		return nil, ErrSelfFollow
	}
	ok, err := repo.UserExists(ctx, s.DB, targetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	rel, err := repo.CreateRelationship(ctx, s.DB, actorID, targetID)
	switch {
	case err == nil:
		observability.FollowOps.WithLabelValues("follow", observability.ResultCreated).Inc()
		publish(ctx, s.Events, events.New(events.UserFollowed, actorID, targetID, rel.ID))
		return rel, nil
	case repo.IsDuplicate(err):
		observability.CreateConflicts.WithLabelValues("relationship").Inc()
		existing, gerr := repo.GetRelationship(ctx, s.DB, actorID, targetID)
		if gerr != nil {
			return nil, gerr
		}
		observability.FollowOps.WithLabelValues("follow", observability.ResultExisting).Inc()
		return existing, nil
	default:
		return nil, err
	}
}

// Unfollow removes the edge actorID -> targetID if it exists.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID string) error {
	ctx, span := s.span(ctx, "Unfollow", actorID, targetID)
	defer span.End()

	if err := checkIDs(actorID, targetID); err != nil {
		return err
	}
	n, err := repo.DeleteRelationship(ctx, s.DB, actorID, targetID)
	if err != nil {
		return err
	}
	if n == 0 {
		observability.FollowOps.WithLabelValues("unfollow", observability.ResultAbsent).Inc()
		return nil
	}
	observability.FollowOps.WithLabelValues("unfollow", observability.ResultRemoved).Inc()
	publish(ctx, s.Events, events.New(events.UserUnfollowed, actorID, targetID, ""))
	return nil
}

// ListFollowers returns the users following userID, oldest edge first.
func (s *FollowService) ListFollowers(ctx context.Context, userID string) ([]domain.User, error) {
	ctx, span := s.span(ctx, "ListFollowers", userID, "")
	defer span.End()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return repo.ListFollowers(ctx, s.DB, userID)
}

// ListFollowings returns the users userID follows, oldest edge first.
func (s *FollowService) ListFollowings(ctx context.Context, userID string) ([]domain.User, error) {
	ctx, span := s.span(ctx, "ListFollowings", userID, "")
	defer span.End()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return repo.ListFollowings(ctx, s.DB, userID)
}

// Status reports whether actorID follows targetID and vice versa.
func (s *FollowService) Status(ctx context.Context, actorID, targetID string) (*RelationStatus, error) {
	if err := checkIDs(actorID, targetID); err != nil {
		return nil, err
	}
	st := &RelationStatus{}
	var err error
	if st.Following, err = s.exists(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	if st.FollowedBy, err = s.exists(ctx, targetID, actorID); err != nil {
		return nil, err
	}
	return st, nil
}

// Counts returns how many users follow userID and how many userID follows.
func (s *FollowService) Counts(ctx context.Context, userID string) (followers, followings int64, err error) {
	if err = checkIDs(userID); err != nil {
		return 0, 0, err
	}
	if followers, err = repo.CountFollowers(ctx, s.DB, userID); err != nil {
		return 0, 0, err
	}
	followings, err = repo.CountFollowings(ctx, s.DB, userID)
	return followers, followings, err
}

func (s *FollowService) exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	_, err := repo.GetRelationship(ctx, s.DB, followerID, followeeID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *FollowService) requireUser(ctx context.Context, userID string) error {
	if err := checkIDs(userID); err != nil {
		return err
	}
	ok, err := repo.UserExists(ctx, s.DB, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}
