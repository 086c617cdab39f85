package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	s := newTestStore(t)

	u := createTestUser(t, s, "alice")

	assert.Positive(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Nil(t, u.UpdatedAt)
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "alice")

	err := s.Users().Create(context.Background(), &model.User{
		Name: "alice2", Email: "alice@example.com", Password: "x",
	})

	require.ErrorIs(t, err, apperror.ErrConflict)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email", appErr.Field)
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	s := newTestStore(t)
	created := createTestUser(t, s, "bob")

	got, err := s.Users().GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, "bob", got.Name)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, "$2a$04$digest", got.Password)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Second)
}

func TestUserGetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Users().GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserGetByEmail(t *testing.T) {
	s := newTestStore(t)
	created := createTestUser(t, s, "carol")

	got, err := s.Users().GetByEmail(context.Background(), "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = s.Users().GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserFindConflict(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")
	createTestUser(t, s, "bob")

	tests := []struct {
		name      string
		inName    string
		inEmail   string
		excludeID int64
		want      string
	}{
		{"both free", "carol", "carol@example.com", 0, ""},
		{"name taken", "alice", "new@example.com", 0, "name"},
		{"email taken", "new", "alice@example.com", 0, "email"},
		{"both taken by different users", "bob", "alice@example.com", 0, "email"},
		{"own row excluded", "alice", "alice@example.com", alice.ID, ""},
		{"other row still counts", "bob", "alice@example.com", alice.ID, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Users().FindConflict(context.Background(), tt.inName, tt.inEmail, tt.excludeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserList(t *testing.T) {
	s := newTestStore(t)
	for _, n := range []string{"a", "b", "c"} {
		createTestUser(t, s, n)
	}

	all, err := s.Users().List(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name)

	paged, err := s.Users().List(context.Background(), repository.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "b", paged[0].Name)
}

func TestUserList_Empty(t *testing.T) {
	s := newTestStore(t)

	users, err := s.Users().List(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUserUpdate(t *testing.T) {
	s := newTestStore(t)
	u := createTestUser(t, s, "dave")

	u.Name = "david"
	u.Email = "david@example.com"
	require.NoError(t, s.Users().Update(context.Background(), u))
	require.NotNil(t, u.UpdatedAt)

	got, err := s.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "david", got.Name)
	assert.Equal(t, "david@example.com", got.Email)
	require.NotNil(t, got.UpdatedAt)
}

func TestUserUpdate_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Users().Update(context.Background(), &model.User{ID: 404, Name: "x", Email: "x@x.com", Password: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserDelete_CascadesToBlogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "erin")
	b := createTestBlog(t, s, "Erin's post", u.ID)

	require.NoError(t, s.Users().Delete(ctx, u.ID))

	_, err := s.Users().GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = s.Blogs().GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserDelete_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Users().Delete(context.Background(), 12345)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
