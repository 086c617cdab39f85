// Package repository defines the storage interfaces the services depend on.
// internal/repository/sqlstore implements them over database/sql.
package repository

import (
	"context"

	"github.com/sakif/blog-api/internal/model"
)

// ListOptions pages a list query. A zero Limit means "no limit".
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists users.
//
// Lookups of a missing row return apperror.NotFound. Writes that hit a
// UNIQUE constraint return apperror.Conflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByEmail returns apperror.ErrNotFound when no user has that email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// FindConflict returns the first unique field ("name" or "email") already
	// taken by a user other than excludeID, or "" when both are free.
	FindConflict(ctx context.Context, name, email string, excludeID int64) (string, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

// BlogRepository persists blog posts.
type BlogRepository interface {
	Create(ctx context.Context, blog *model.Blog) error
	GetByID(ctx context.Context, id int64) (*model.Blog, error)
	// TitleTaken reports whether a blog other than excludeID uses title.
	TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]model.Blog, error)
	// ListByUsers returns the blogs of every user in ids, keyed by user id.
	ListByUsers(ctx context.Context, ids []int64) (map[int64][]model.Blog, error)
	Update(ctx context.Context, blog *model.Blog) error
	Delete(ctx context.Context, id int64) error
}
