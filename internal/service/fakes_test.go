package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. The service
// doesn't know or care whether it talks to these or to sqlstore.
// Every method stores and returns copies so tests can't corrupt state.

var errDBDown = errors.New("database is down")

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// set to a non-nil error to simulate a database failure
	getErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (f *fakeUserRepo) FindConflict(_ context.Context, name, email string, excludeID int64) (string, error) {
	var nameTaken bool
	for _, u := range f.users {
		if u.ID == excludeID {
			continue
		}
		if u.Email == email {
			return "email", nil
		}
		nameTaken = nameTaken || u.Name == name
	}
	if nameTaken {
		return "name", nil
	}
	return "", nil
}

func (f *fakeUserRepo) List(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts), nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return apperror.NotFound("user", u.ID)
	}
	now := time.Now()
	u.UpdatedAt = &now
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

type fakeBlogRepo struct {
	blogs     map[int64]*model.Blog
	nextID    int64
	listErr   error
	createErr error
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{blogs: make(map[int64]*model.Blog)}
}

func (f *fakeBlogRepo) Create(_ context.Context, b *model.Blog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now()
	stored := *b
	f.blogs[b.ID] = &stored
	return nil
}

func (f *fakeBlogRepo) GetByID(_ context.Context, id int64) (*model.Blog, error) {
	b, ok := f.blogs[id]
	if !ok {
		return nil, apperror.NotFound("blog", id)
	}
	out := *b
	return &out, nil
}

func (f *fakeBlogRepo) TitleTaken(_ context.Context, title string, excludeID int64) (bool, error) {
	for _, b := range f.blogs {
		if b.Title == title && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlogRepo) all() []model.Blog {
	out := make([]model.Blog, 0, len(f.blogs))
	for _, b := range f.blogs {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeBlogRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Blog, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return paginate(f.all(), opts), nil
}

func (f *fakeBlogRepo) ListByUsers(_ context.Context, ids []int64) (map[int64][]model.Blog, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[int64][]model.Blog)
	for _, b := range f.all() {
		if want[b.UserID] {
			out[b.UserID] = append(out[b.UserID], b)
		}
	}
	return out, nil
}

func (f *fakeBlogRepo) Update(_ context.Context, b *model.Blog) error {
	if _, ok := f.blogs[b.ID]; !ok {
		return apperror.NotFound("blog", b.ID)
	}
	now := time.Now()
	b.UpdatedAt = &now
	stored := *b
	f.blogs[b.ID] = &stored
	return nil
}

func (f *fakeBlogRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.blogs[id]; !ok {
		return apperror.NotFound("blog", id)
	}
	delete(f.blogs, id)
	return nil
}

func paginate[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
