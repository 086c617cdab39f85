// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not *sqlstore.Store, so tests pass
// in-memory fakes and main.go decides between SQLite and Postgres.
//
// Services return apperror values and never HTTP status codes; the handler
// layer (through internal/httpx) does that translation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength   = 200
	MaxBodyLength    = 100000
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// BlogInput is the writable part of a blog post.
type BlogInput struct {
	Title string
	Body  string
}

// BlogService handles business logic for blog posts.
type BlogService struct {
	blogs  repository.BlogRepository
	logger *slog.Logger
}

// NewBlogService creates a BlogService.
func NewBlogService(blogs repository.BlogRepository, logger *slog.Logger) *BlogService {
	return &BlogService{
		blogs:  blogs,
		logger: logger,
	}
}

// validate trims the input and enforces the length rules.
func (in *BlogInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)

	if in.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Body) > MaxBodyLength {
		return apperror.ValidationFailed("body",
			fmt.Sprintf("body must be %d bytes or less", MaxBodyLength))
	}
	return nil
}

// Create validates and saves a new post authored by the caller.
//
// Titles are unique: a taken title is an apperror.Conflict. The check runs
// before the insert so the common case gets a clean error; the UNIQUE index
// still catches two requests racing for the same title.
func (s *BlogService) Create(ctx context.Context, caller auth.Identity, in BlogInput) (*model.Blog, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	taken, err := s.blogs.TitleTaken(ctx, in.Title, 0)
	if err != nil {
		return nil, fmt.Errorf("creating blog: %w", err)
	}
	if taken {
		return nil, apperror.Conflict("blog", "title")
	}

	blog := &model.Blog{
		Title:  in.Title,
		Body:   in.Body,
		UserID: caller.UserID,
	}
	if err := s.blogs.Create(ctx, blog); err != nil {
		// Tokens are not revoked when an account is deleted. A token whose
		// user is gone is treated like any other bad credential.
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("blog author no longer exists",
				slog.Int64("userID", caller.UserID),
			)
			return nil, apperror.Unauthorized(err)
		}
		return nil, fmt.Errorf("creating blog: %w", err)
	}

	s.logger.Info("blog created",
		slog.Int64("id", blog.ID),
		slog.Int64("userID", caller.UserID),
	)

	// Re-read so the response carries the joined author.
	return s.blogs.GetByID(ctx, blog.ID)
}

// Get returns one post with its author.
func (s *BlogService) Get(ctx context.Context, id int64) (*model.Blog, error) {
	return s.blogs.GetByID(ctx, id)
}

// List returns posts newest first.
//
// PAGINATION: limit is clamped to 1-100 (default 20) and a negative offset
// is treated as 0, so callers can't request the whole table.
func (s *BlogService) List(ctx context.Context, limit, offset int) ([]model.Blog, error) {
	blogs, err := s.blogs.List(ctx, clampPage(limit, offset))
	if err != nil {
		s.logger.Error("failed to list blogs", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing blogs: %w", err)
	}
	return blogs, nil
}

// Update replaces title and body of a post. Only the author may do this.
//
// STRATEGY: fetch, check ownership, then update. A missing post is a 404
// for everyone; an existing post owned by someone else is a 403.
func (s *BlogService) Update(ctx context.Context, caller auth.Identity, id int64, in BlogInput) (*model.Blog, error) {
	blog, err := s.authored(ctx, caller, id, "update")
	if err != nil {
		return nil, err
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	if in.Title != blog.Title {
		taken, err := s.blogs.TitleTaken(ctx, in.Title, id)
		if err != nil {
			return nil, fmt.Errorf("updating blog: %w", err)
		}
		if taken {
			return nil, apperror.Conflict("blog", "title")
		}
	}

	blog.Title = in.Title
	blog.Body = in.Body
	if err := s.blogs.Update(ctx, blog); err != nil {
		return nil, fmt.Errorf("updating blog: %w", err)
	}

	s.logger.Info("blog updated", slog.Int64("id", id))
	return blog, nil
}

// Delete removes a post. Only the author may do this.
func (s *BlogService) Delete(ctx context.Context, caller auth.Identity, id int64) error {
	if _, err := s.authored(ctx, caller, id, "delete"); err != nil {
		return err
	}

	if err := s.blogs.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("blog deleted", slog.Int64("id", id), slog.Int64("userID", caller.UserID))
	return nil
}

// authored loads a post and checks that caller wrote it.
func (s *BlogService) authored(ctx context.Context, caller auth.Identity, id int64, action string) (*model.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.UserID != caller.UserID {
		s.logger.Warn("blog ownership check failed",
			slog.Int64("id", id),
			slog.Int64("userID", caller.UserID),
			slog.String("action", action),
		)
		return nil, apperror.Forbidden("you can only " + action + " your own blogs")
	}
	return blog, nil
}

// clampPage applies the list defaults shared by users and blogs.
func clampPage(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}
