package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

const MaxNameLength = 100

// UserInput is the writable part of an account. On update an empty Password
// keeps the current one.
type UserInput struct {
	Name     string
	Email    string
	Password string
}

// UserService handles registration and account management.
type UserService struct {
	users     repository.UserRepository
	blogs     repository.BlogRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	blogs repository.BlogRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		blogs:     blogs,
		passwords: passwords,
		logger:    logger,
	}
}

func (in *UserInput) validate(passwordRequired bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(in.Name) > MaxNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if in.Email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return apperror.ValidationFailed("email", "email is not a valid address")
	}
	if passwordRequired && in.Password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	if len(in.Password) > 72 {
		return apperror.ValidationFailed("password", "password must be 72 bytes or less")
	}
	return nil
}

// checkUnique reports a taken name or email as apperror.Conflict with the
// offending field. excludeID skips the caller's own row on update.
func (s *UserService) checkUnique(ctx context.Context, in UserInput, excludeID int64) error {
	field, err := s.users.FindConflict(ctx, in.Name, in.Email, excludeID)
	if err != nil {
		return err
	}
	if field != "" {
		return apperror.Conflict("user", field)
	}
	return nil
}

// Register creates an account. The password is stored as a bcrypt digest.
func (s *UserService) Register(ctx context.Context, in UserInput) (*model.User, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in, 0); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	digest, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	user := &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: digest,
		Blogs:    []model.Blog{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("id", user.ID))
	return user, nil
}

// Get returns one user with their blogs.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	byUser, err := s.blogs.ListByUsers(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("loading blogs of user %d: %w", id, err)
	}
	user.Blogs = blogsOrEmpty(byUser[id])
	return user, nil
}

// List returns users with their blogs. Blogs are fetched in one query for
// the whole page rather than one per user.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	users, err := s.users.List(ctx, clampPage(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	byUser, err := s.blogs.ListByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	for i := range users {
		users[i].Blogs = blogsOrEmpty(byUser[users[i].ID])
	}

	return users, nil
}

// Update changes the caller's own account.
func (s *UserService) Update(ctx context.Context, caller auth.Identity, id int64, in UserInput) (*model.User, error) {
	user, err := s.self(ctx, caller, id, "update")
	if err != nil {
		return nil, err
	}

	if err := in.validate(false); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in, id); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	user.Name = in.Name
	user.Email = in.Email
	if in.Password != "" {
		digest, err := s.passwords.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("updating user: %w", err)
		}
		user.Password = digest
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	s.logger.Info("user updated", slog.Int64("id", id))
	return s.Get(ctx, id)
}

// Delete removes the caller's own account and, by cascade, their blogs.
func (s *UserService) Delete(ctx context.Context, caller auth.Identity, id int64) error {
	if _, err := s.self(ctx, caller, id, "delete"); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

// self loads a user and checks that it is the caller.
func (s *UserService) self(ctx context.Context, caller auth.Identity, id int64, action string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID != caller.UserID {
		s.logger.Warn("user ownership check failed",
			slog.Int64("id", id),
			slog.Int64("userID", caller.UserID),
			slog.String("action", action),
		)
		return nil, apperror.Forbidden("you can only " + action + " your own account")
	}
	return user, nil
}

func blogsOrEmpty(b []model.Blog) []model.Blog {
	if b == nil {
		return []model.Blog{}
	}
	return b
}
