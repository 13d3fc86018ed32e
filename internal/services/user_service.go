// Package services – UserService
//
// UserService is the identity registry: it registers users by email and
// assembles the profile view (posts, liked posts, follow counts). The social
// core only ever reads users by id.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/events"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// UserService registers and reads users.
type UserService struct {
	DB     *gorm.DB
	Events events.Publisher
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, pub events.Publisher) *UserService {
	return &UserService{DB: db, Events: pub}
}

// Profile is the public view of a user.
type Profile struct {
	User           domain.User
	Posts          []domain.Post
	LikedPosts     []domain.Post
	FollowersCount int64
	FollowingCount int64
}

// Register creates a user for email. Emails are compared case-insensitively.
func (s *UserService) Register(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Register")
	defer span.End()

	addr, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	u, err := repo.CreateUser(ctx, s.DB, addr)
	if err != nil {
		if repo.IsDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	publish(ctx, s.Events, events.New(events.UserRegistered, u.ID, u.ID, ""))
	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if err := checkIDs(id); err != nil {
		return nil, err
	}
	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Profile returns the user with their posts, the posts they liked and their
// follower/following counts.
func (s *UserService) Profile(ctx context.Context, id string) (*Profile, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Profile",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer span.End()

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: *u}
	if p.Posts, err = repo.ListPostsByUser(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if p.LikedPosts, err = repo.ListLikedPosts(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if p.FollowersCount, err = repo.CountFollowers(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if p.FollowingCount, err = repo.CountFollowings(ctx, s.DB, id); err != nil {
		return nil, err
	}
	return p, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// normalizeEmail lower-cases and validates a bare address.
func normalizeEmail(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if err := validate.Var(s, "required,email,max=255"); err != nil {
		return "", ErrInvalidEmail
	}
	return s, nil
}
