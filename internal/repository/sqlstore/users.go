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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` fails to compile if *Y stops implementing X.
var _ repository.UserRepository = (*Users)(nil)

var userColumns = []string{"id", "name", "email", "password", "created_at", "updated_at"}

// Users is the users table.
type Users struct {
	*Store
}

// Users returns the user repository backed by this store.
func (s *Store) Users() *Users {
	return &Users{Store: s}
}

func scanUser(row scanner) (*model.User, error) {
	var (
		u       model.User
		updated sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt, &updated); err != nil {
		return nil, err
	}
	u.UpdatedAt = nullTime(updated)
	return &u, nil
}

// Create inserts a user and fills in its ID and CreatedAt.
//
// user.Password must already be a digest; this layer never hashes.
func (r *Users) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = r.now()
	user.UpdatedAt = nil

	query, args, err := r.sb.
		Insert("users").
		Columns("name", "email", "password", "created_at").
		Values(user.Name, user.Email, user.Password, user.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building user insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		if field, ok := uniqueViolation(err); ok {
			return apperror.Conflict("user", field)
		}
		return fmt.Errorf("sqlstore: creating user: %w", err)
	}

	return nil
}

// GetByID returns apperror.NotFound when no user has that id.
func (r *Users) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := r.getOne(ctx, sq.Eq{"id": id})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}
	return u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := r.getOne(ctx, sq.Eq{"email": email})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting user by email: %w", err)
	}
	return u, nil
}

func (r *Users) getOne(ctx context.Context, where sq.Sqlizer) (*model.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

// FindConflict checks name and email, each against its own column.
// Email is reported first when both are taken.
func (r *Users) FindConflict(ctx context.Context, name, email string, excludeID int64) (string, error) {
	query, args, err := r.sb.
		Select("name", "email").
		From("users").
		Where(sq.Or{
			sq.Eq{"name": name},
			sq.Eq{"email": email},
		}).
		Where(sq.NotEq{"id": excludeID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("sqlstore: building conflict query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("sqlstore: checking user conflicts: %w", err)
	}
	defer rows.Close()

	var nameTaken, emailTaken bool
	for rows.Next() {
		var n, e string
		if err := rows.Scan(&n, &e); err != nil {
			return "", fmt.Errorf("sqlstore: scanning conflict row: %w", err)
		}
		nameTaken = nameTaken || n == name
		emailTaken = emailTaken || e == email
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("sqlstore: iterating conflict rows: %w", err)
	}

	switch {
	case emailTaken:
		return "email", nil
	case nameTaken:
		return "name", nil
	default:
		return "", nil
	}
}

// List returns users ordered by id.
func (r *Users) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	query, args, err := page(r.sb.Select(userColumns...).From("users").OrderBy("id"), opts).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: building user list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}
	// CRITICAL: an unclosed sql.Rows never returns its connection to the pool.
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating users: %w", err)
	}

	return users, nil
}

// Update writes name, email and password and stamps UpdatedAt.
func (r *Users) Update(ctx context.Context, user *model.User) error {
	now := r.now()

	query, args, err := r.sb.
		Update("users").
		Set("name", user.Name).
		Set("email", user.Email).
		Set("password", user.Password).
		Set("updated_at", now).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building user update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if field, ok := uniqueViolation(err); ok {
			return apperror.Conflict("user", field)
		}
		return fmt.Errorf("sqlstore: updating user %d: %w", user.ID, err)
	}

	if err := expectOne(res, "user", user.ID); err != nil {
		return err
	}

	user.UpdatedAt = &now
	return nil
}

// Delete removes a user. The foreign key cascades to the user's blogs.
func (r *Users) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building user delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %d: %w", id, err)
	}

	return expectOne(res, "user", id)
}

// expectOne turns "zero rows affected" into apperror.NotFound.
func expectOne(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
