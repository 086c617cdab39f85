package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
)

// =========================================================================
// HELPERS
// =========================================================================

// newTestAuthService returns an AuthService wired with a fake user repo,
// bcrypt at minimum cost and a real TokenService.
func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	repo := newFakeUserRepo()
	return NewAuthService(repo, ts, auth.NewPasswordServiceForTest(), quietLogger()), repo, ts
}

// seedUser stores a user whose password is plaintext, hashed at test cost.
func seedUser(t *testing.T, repo *fakeUserRepo, name, email, plaintext string) *model.User {
	t.Helper()
	digest, err := auth.NewPasswordServiceForTest().Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := &model.User{Name: name, Email: email, Password: digest}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return u
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc, repo, ts := newTestAuthService(t)
	u := seedUser(t, repo, "alice", "a@x.com", "pw1")

	tok, err := svc.Login(context.Background(), "a@x.com", "pw1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tok.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want %q", tok.TokenType, "bearer")
	}

	claims, err := ts.Validate(tok.AccessToken)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.UserID != u.ID || claims.Email != "a@x.com" {
		t.Errorf("claims = {%d, %q}, want {%d, %q}", claims.UserID, claims.Email, u.ID, "a@x.com")
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 30*time.Minute {
		t.Errorf("token ttl = %s, want 30m", ttl)
	}
}

func TestLogin_TrimsEmail(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	seedUser(t, repo, "alice", "a@x.com", "pw1")

	if _, err := svc.Login(context.Background(), "  a@x.com ", "pw1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

// Unknown email and wrong password must be indistinguishable.
func TestLogin_FailuresAreIdentical(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	seedUser(t, repo, "alice", "a@x.com", "pw1")

	_, errUnknown := svc.Login(context.Background(), "nobody@x.com", "pw1")
	_, errWrong := svc.Login(context.Background(), "a@x.com", "wrong")

	for name, err := range map[string]error{"unknown email": errUnknown, "wrong password": errWrong} {
		if !errors.Is(err, apperror.ErrInvalidCredentials) {
			t.Errorf("%s: error = %v, want ErrInvalidCredentials", name, err)
		}
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("messages differ: %q vs %q", errUnknown.Error(), errWrong.Error())
	}
}

func TestLogin_EmptyPassword(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	seedUser(t, repo, "alice", "a@x.com", "pw1")

	_, err := svc.Login(context.Background(), "a@x.com", "")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.getErr = errDBDown

	_, err := svc.Login(context.Background(), "a@x.com", "pw1")
	if !errors.Is(err, errDBDown) {
		t.Fatalf("Login() error = %v, want the repository error", err)
	}
	if errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Error("a database failure must not look like bad credentials")
	}
}
