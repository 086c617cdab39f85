package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

var _ repository.BlogRepository = (*Blogs)(nil)

// Blogs is the blogs table.
type Blogs struct {
	*Store
}

// Blogs returns the blog repository backed by this store.
func (s *Store) Blogs() *Blogs {
	return &Blogs{Store: s}
}

// selectBlogs joins the author so every read returns a complete Blog.
// LEFT JOIN: rows written before authorship existed have no user_id.
func (r *Blogs) selectBlogs() sq.SelectBuilder {
	return r.sb.
		Select(
			"b.id", "b.title", "b.body", "b.user_id", "b.created_at", "b.updated_at",
			"u.id", "u.name", "u.email",
		).
		From("blogs b").
		LeftJoin("users u ON u.id = b.user_id")
}

func scanBlog(row scanner) (*model.Blog, error) {
	var (
		b                 model.Blog
		userID, authorID  sql.NullInt64
		authorName, email sql.NullString
		created, updated  sql.NullTime
	)
	if err := row.Scan(
		&b.ID, &b.Title, &b.Body, &userID, &created, &updated,
		&authorID, &authorName, &email,
	); err != nil {
		return nil, err
	}

	b.UserID = userID.Int64
	if created.Valid {
		b.CreatedAt = created.Time
	}
	b.UpdatedAt = nullTime(updated)
	if authorID.Valid {
		b.Author = &model.Author{ID: authorID.Int64, Name: authorName.String, Email: email.String}
	}
	return &b, nil
}

// Create inserts a blog and fills in its ID and CreatedAt.
//
// An author that no longer exists (the account was deleted while its token
// is still valid) is reported as apperror.NotFound for the user.
func (r *Blogs) Create(ctx context.Context, blog *model.Blog) error {
	blog.CreatedAt = r.now()
	blog.UpdatedAt = nil

	query, args, err := r.sb.
		Insert("blogs").
		Columns("title", "body", "user_id", "created_at").
		Values(blog.Title, blog.Body, blog.UserID, blog.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building blog insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&blog.ID); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return apperror.Conflict("blog", "title")
		}
		if foreignKeyViolation(err) {
			return apperror.NotFound("user", blog.UserID)
		}
		return fmt.Errorf("sqlstore: creating blog: %w", err)
	}

	return nil
}

// GetByID returns the blog with its author, or apperror.NotFound.
func (r *Blogs) GetByID(ctx context.Context, id int64) (*model.Blog, error) {
	query, args, err := r.selectBlogs().Where(sq.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building blog query: %w", err)
	}

	b, err := scanBlog(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("blog", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting blog %d: %w", id, err)
	}
	return b, nil
}

func (r *Blogs) TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error) {
	query, args, err := r.sb.
		Select("COUNT(*)").
		From("blogs").
		Where(sq.Eq{"title": title}).
		Where(sq.NotEq{"id": excludeID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("sqlstore: building title query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("sqlstore: checking blog title: %w", err)
	}
	return count > 0, nil
}

// List returns blogs newest first.
func (r *Blogs) List(ctx context.Context, opts repository.ListOptions) ([]model.Blog, error) {
	q := page(r.selectBlogs().OrderBy("b.created_at DESC", "b.id DESC"), opts)
	return r.query(ctx, q)
}

// ListByUsers fetches the blogs of many users in one IN query.
// Users without blogs get no map entry.
func (r *Blogs) ListByUsers(ctx context.Context, ids []int64) (map[int64][]model.Blog, error) {
	out := make(map[int64][]model.Blog, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	blogs, err := r.query(ctx, r.selectBlogs().Where(sq.Eq{"b.user_id": ids}).OrderBy("b.id"))
	if err != nil {
		return nil, err
	}
	for _, b := range blogs {
		out[b.UserID] = append(out[b.UserID], b)
	}
	return out, nil
}

func (r *Blogs) query(ctx context.Context, q sq.SelectBuilder) ([]model.Blog, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building blog list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing blogs: %w", err)
	}
	defer rows.Close()

	blogs := make([]model.Blog, 0)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning blog row: %w", err)
		}
		blogs = append(blogs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating blogs: %w", err)
	}

	return blogs, nil
}

// Update writes title and body and stamps UpdatedAt. Authorship never changes.
func (r *Blogs) Update(ctx context.Context, blog *model.Blog) error {
	now := r.now()

	query, args, err := r.sb.
		Update("blogs").
		Set("title", blog.Title).
		Set("body", blog.Body).
		Set("updated_at", now).
		Where(sq.Eq{"id": blog.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building blog update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return apperror.Conflict("blog", "title")
		}
		return fmt.Errorf("sqlstore: updating blog %d: %w", blog.ID, err)
	}

	if err := expectOne(res, "blog", blog.ID); err != nil {
		return err
	}

	blog.UpdatedAt = &now
	return nil
}

func (r *Blogs) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("blogs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building blog delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting blog %d: %w", id, err)
	}

	return expectOne(res, "blog", id)
}
