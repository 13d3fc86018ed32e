// Package seed loads a small demo data set: three users, a handful of posts,
// a follow edge, a like and one direct-message room with a short exchange.
//
// Seeding goes through the application services, so the data obeys the same
// rules as API traffic, and it is safe to run repeatedly: existing users are
// reused and nothing is duplicated.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/events"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
)

// Emails of the seeded users, in order.
var Emails = []string{"test1@test.com", "test2@test.com", "test3@test.com"}

type postSeed struct {
	author int
	title  string
}

var posts = []postSeed{
	{0, "test1"}, {0, "test2"},
	{1, "test3"}, {1, "test4"},
}

// Result reports what the seed left in the store.
type Result struct {
	Users []domain.User
	Room  domain.Room
	// CreatedPosts is zero on reruns.
	CreatedPosts int
}

// Run seeds db. pub may be nil.
func Run(ctx context.Context, db *gorm.DB, pub events.Publisher, postRepo services.PostRepo) (*Result, error) {
	if pub == nil {
		pub = events.Noop{}
	}
	lg := zerolog.Ctx(ctx)
	usersSvc := services.NewUserService(db, pub)
	postSvc := services.NewPostService(db, postRepo)
	rooms := services.NewRoomService(db, services.NewMessageService(db, 2000), pub)

	res := &Result{}
	for _, email := range Emails {
		u, err := usersSvc.Register(ctx, email)
		if errors.Is(err, services.ErrEmailTaken) {
			u, err = repo.GetUserByEmail(ctx, db, email)
		}
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", email, err)
		}
		res.Users = append(res.Users, *u)
	}
	u1, u2 := res.Users[0].ID, res.Users[1].ID

	for _, p := range posts {
		author := res.Users[p.author].ID
		mine, err := repo.ListPostsByUser(ctx, db, author)
		if err != nil {
			return nil, err
		}
		if hasTitle(mine, p.title) {
			continue
		}
		if _, err := postSvc.Create(ctx, author, p.title, "testtesttest"); err != nil {
			return nil, fmt.Errorf("seed post %s: %w", p.title, err)
		}
		res.CreatedPosts++
	}

	if _, err := services.NewFollowService(db, pub).Follow(ctx, u1, u2); err != nil {
		return nil, fmt.Errorf("seed follow: %w", err)
	}
	theirs, err := repo.ListPostsByUser(ctx, db, u2)
	if err != nil {
		return nil, err
	}
	if len(theirs) > 0 {
		if _, err := services.NewLikeService(db, pub).Like(ctx, u1, theirs[0].ID); err != nil {
			return nil, fmt.Errorf("seed like: %w", err)
		}
	}

	d, created, err := rooms.Open(ctx, u1, u2)
	if err != nil {
		return nil, fmt.Errorf("seed room: %w", err)
	}
	res.Room = d.Room
	if created {
		for _, m := range []struct{ from, text string }{
			{u1, "hi there"},
			{u2, "hello! nice posts"},
		} {
			if _, err := rooms.PostMessage(ctx, m.from, d.Room.ID, m.text); err != nil {
				return nil, fmt.Errorf("seed message: %w", err)
			}
		}
	}

	lg.Info().
		Int("users", len(res.Users)).
		Int("posts_created", res.CreatedPosts).
		Str("room_id", res.Room.ID).
		Bool("room_created", created).
		Msg("seed complete")
	return res, nil
}

func hasTitle(ps []domain.Post, title string) bool {
	for _, p := range ps {
		if p.Title == title {
			return true
		}
	}
	return false
}
