// Package services – CommentService
//
// CommentService attaches non-empty comments to existing posts.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// CommentService provides comment create/list.
type CommentService struct {
	DB *gorm.DB

	// MaxContentRunes caps a comment; <= 0 uses DefaultMaxContentRunes.
	MaxContentRunes int
}

// NewCommentService constructs a CommentService.
func NewCommentService(db *gorm.DB, maxContentRunes int) *CommentService {
	return &CommentService{DB: db, MaxContentRunes: maxContentRunes}
}

// Create adds a comment by userID on postID.
func (s *CommentService) Create(ctx context.Context, userID, postID, content string) (*domain.Comment, error) {
	if err := checkIDs(userID, postID); err != nil {
		return nil, err
	}
	body, err := checkContent(content, s.MaxContentRunes)
	if err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	c, err := repo.CreateComment(ctx, s.DB, postID, userID, body)
	if repo.IsForeignKey(err) {
		return nil, ErrPostNotFound
	}
	return c, err
}

// List returns a post's comments oldest first.
func (s *CommentService) List(ctx context.Context, postID string) ([]domain.Comment, error) {
	if err := checkIDs(postID); err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	return repo.ListComments(ctx, s.DB, postID)
}

func (s *CommentService) requirePost(ctx context.Context, postID string) error {
	ok, err := repo.PostExists(ctx, s.DB, postID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPostNotFound
	}
	return nil
}
