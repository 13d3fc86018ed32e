// Package services – PostService
//
// PostService is plain CRUD over posts with author-only update and delete.
// Listing decorates each post with its like count. Persistence goes through
// the PostRepo contract so the service can be exercised with a fake.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// PostRepo defines the repository contract required by PostService.
type PostRepo interface {
	// CreatePost inserts a post authored by userID.
	CreatePost(ctx context.Context, db *gorm.DB, userID, title, content string) (*domain.Post, error)

	// GetPost fetches a post by id.
	GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error)

	// UpdatePost rewrites a post owned by userID.
	UpdatePost(ctx context.Context, db *gorm.DB, id, userID, title, content string) error

	// DeletePost removes a post owned by userID with its likes and comments.
	DeletePost(ctx context.Context, db *gorm.DB, id, userID string) error

	// CountPosts returns the total number of posts for pagination.
	CountPosts(ctx context.Context, db *gorm.DB) (int64, error)

	// ListPostsPage returns a page of posts, newest first.
	ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error)

	// LikeCounts returns like counts keyed by post id.
	LikeCounts(ctx context.Context, db *gorm.DB, postIDs []string) (map[string]int64, error)
}

// PostService provides post CRUD.
type PostService struct {
	DB   *gorm.DB
	Repo PostRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// MaxContentRunes caps post bodies; <= 0 uses DefaultMaxContentRunes.
	MaxContentRunes int
}

// NewPostService constructs a PostService with default limits.
func NewPostService(db *gorm.DB, r PostRepo) *PostService {
	return &PostService{DB: db, Repo: r, TitleMaxLen: 120, MaxContentRunes: 10000}
}

// PostWithLikes is a post plus its like count.
type PostWithLikes struct {
	Post  domain.Post
	Likes int64
}

// Create inserts a post authored by userID.
func (s *PostService) Create(ctx context.Context, userID, title, content string) (*domain.Post, error) {
	if err := checkIDs(userID); err != nil {
		return nil, err
	}
	title, body, err := s.clean(title, content)
	if err != nil {
		return nil, err
	}
	return s.Repo.CreatePost(ctx, s.DB, userID, title, body)
}

// Get returns a post with its like count.
func (s *PostService) Get(ctx context.Context, id string) (*PostWithLikes, error) {
	if err := checkIDs(id); err != nil {
		return nil, err
	}
	p, err := s.Repo.GetPost(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	counts, err := s.Repo.LikeCounts(ctx, s.DB, []string{p.ID})
	if err != nil {
		return nil, err
	}
	return &PostWithLikes{Post: *p, Likes: counts[p.ID]}, nil
}

// ListPage returns a page of posts, newest first, with the total count.
func (s *PostService) ListPage(ctx context.Context, page, pageSize int) ([]PostWithLikes, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountPosts(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []PostWithLikes{}, 0, nil
	}
	posts, err := s.Repo.ListPostsPage(ctx, s.DB, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	counts, err := s.Repo.LikeCounts(ctx, s.DB, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PostWithLikes, len(posts))
	for i, p := range posts {
		out[i] = PostWithLikes{Post: p, Likes: counts[p.ID]}
	}
	return out, total, nil
}

// Update rewrites a post. Only its author may do so.
func (s *PostService) Update(ctx context.Context, userID, id, title, content string) (*domain.Post, error) {
	if err := checkIDs(userID, id); err != nil {
		return nil, err
	}
	title, body, err := s.clean(title, content)
	if err != nil {
		return nil, err
	}
	if err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdatePost(ctx, s.DB, id, userID, title, body); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return s.Repo.GetPost(ctx, s.DB, id)
}

// Delete removes a post with its likes and comments. Only its author may do so.
func (s *PostService) Delete(ctx context.Context, userID, id string) error {
	if err := checkIDs(userID, id); err != nil {
		return err
	}
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.Repo.DeletePost(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// owned distinguishes a missing post from someone else's post.
func (s *PostService) owned(ctx context.Context, userID, id string) error {
	p, err := s.Repo.GetPost(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	if p.UserID != userID {
		return ErrNotPostOwner
	}
	return nil
}

func (s *PostService) clean(title, content string) (string, string, error) {
	title = whitespaceRE.ReplaceAllString(strings.TrimSpace(title), " ")
	if title == "" {
		return "", "", ErrEmptyTitle
	}
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		title = string([]rune(title)[:s.TitleMaxLen])
	}
	body, err := checkContent(content, s.MaxContentRunes)
	if err != nil {
		return "", "", err
	}
	return title, body, nil
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
