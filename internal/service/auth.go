// Authentication business logic for package service.
//
//	AuthHandler (HTTP) → AuthService.Login → UserRepository (DB)
//	                                       ↘ PasswordService (bcrypt)
//	                                       ↘ TokenService (JWT)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/repository"
)

// TokenTypeBearer is the only token type the API issues.
const TokenTypeBearer = "bearer"

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService handles login.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → look up the account by email
//   - tokens     *auth.TokenService         → sign the access token
//   - passwords  *auth.PasswordService      → bcrypt verification
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	// decoy is a digest checked when the email is unknown, so both failure
	// paths spend the same bcrypt time.
	decoyOnce sync.Once
	decoy     string
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Login verifies email and password and issues an access token.
//
// An unknown email and a wrong password return the same
// apperror.InvalidCredentials, so the response never reveals which accounts
// exist. The token carries {user_id, email} and the configured TTL.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Token, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		s.passwords.Verify(s.decoyDigest(), password)
		s.logger.Info("login failed", slog.String("reason", "unknown email"))
		return nil, apperror.InvalidCredentials()
	case err != nil:
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !s.passwords.Verify(user.Password, password) {
		s.logger.Info("login failed", slog.String("reason", "wrong password"), slog.Int64("userID", user.ID))
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return &Token{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

func (s *AuthService) decoyDigest() string {
	s.decoyOnce.Do(func() {
		d, err := s.passwords.Hash("decoy-password-never-matches")
		if err == nil {
			s.decoy = d
		}
	})
	return s.decoy
}
