package service

import (
	"context"
	"errors"
	"strings"

	"miniblog/internal/domain"
	"miniblog/internal/repository"
	"miniblog/internal/slug"
)

// PostService implements post CRUD. Lookups accept public identifiers; only
// the numeric prefix is trusted, so links with a stale slug keep working.
// Mutations require the acting user to own the post.
type PostService interface {
	Create(ctx context.Context, userID int64, title, body string) (*domain.Post, error)
	GetByPublicID(ctx context.Context, publicID string) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Post, error)
	Update(ctx context.Context, userID int64, publicID, title, body string) (*domain.Post, error)
	Delete(ctx context.Context, userID int64, publicID string) error
}

type postService struct {
	posts repository.PostRepository
}

func NewPostService(posts repository.PostRepository) PostService {
	return &postService{posts: posts}
}

func (s *postService) Create(ctx context.Context, userID int64, title, body string) (*domain.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationErr("title", "is required")
	}

	post := &domain.Post{
		UserID: userID,
		Title:  title,
		Body:   body,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) GetByPublicID(ctx context.Context, publicID string) (*domain.Post, error) {
	id, err := slug.ParsePublicID(publicID)
	if err != nil {
		return nil, ErrNotFound
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) List(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

func (s *postService) ListByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	return s.posts.ListByUser(ctx, userID)
}

func (s *postService) Update(ctx context.Context, userID int64, publicID, title, body string) (*domain.Post, error) {
	post, err := s.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationErr("title", "is required")
	}

	post.Title = title
	post.Body = body
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, userID int64, publicID string) error {
	post, err := s.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return ErrForbidden
	}
	return s.posts.Delete(ctx, post.ID)
}
