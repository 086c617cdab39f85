package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

var testIdentity = Identity{UserID: 42, Email: "a@x.com"}

// newTestTokenService creates a TokenService with a fixed secret and a
// controllable clock.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, "HS256", DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// fixedClock returns a clock pinned at start that can be moved forward.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		ttl       time.Duration
		wantErr   bool
	}{
		{"valid HS256", testSecret, "HS256", time.Minute, false},
		{"valid HS384", testSecret, "HS384", time.Minute, false},
		{"valid HS512", testSecret, "HS512", time.Minute, false},
		{"short secret", "short", "HS256", time.Minute, true},
		{"empty secret", "", "HS256", time.Minute, true},
		{"asymmetric algorithm", testSecret, "RS256", time.Minute, true},
		{"none algorithm", testSecret, "none", time.Minute, true},
		{"unknown algorithm", testSecret, "HS999", time.Minute, true},
		{"zero ttl", testSecret, "HS256", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService(tt.secret, tt.algorithm, tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTokenService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =========================================================================
// ISSUE TESTS
// =========================================================================

func TestIssue_ReturnsJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// header.payload.signature
	if got := strings.Count(token, "."); got != 2 {
		t.Errorf("Issue() token doesn't look like a JWT (expected 2 dots, got %d)", got)
	}
}

func TestIssue_RequiresIdentity(t *testing.T) {
	ts := newTestTokenService(t)

	if _, err := ts.Issue(Identity{Email: "a@x.com"}); err == nil {
		t.Error("Issue() should reject an identity without a user id")
	}
	if _, err := ts.Issue(Identity{UserID: 1}); err == nil {
		t.Error("Issue() should reject an identity without an email")
	}
}

func TestIssue_SetsExpiryFromTTL(t *testing.T) {
	ts := newTestTokenService(t)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ts.now, _ = fixedClock(start)

	token, err := ts.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	c, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if want := start.Add(30 * time.Minute); !c.ExpiresAt.Time.Equal(want) {
		t.Errorf("exp = %v, want %v", c.ExpiresAt.Time, want)
	}
	if c.ID == "" {
		t.Error("jti claim is empty")
	}
}

// =========================================================================
// VALIDATE TESTS
// =========================================================================

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	c, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.Identity() != testIdentity {
		t.Errorf("Validate() identity = %+v, want %+v", c.Identity(), testIdentity)
	}
}

func TestValidate_ValidUntilTTLElapses(t *testing.T) {
	ts := newTestTokenService(t)
	var advance func(time.Duration)
	ts.now, advance = fixedClock(time.Now())

	token, err := ts.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	advance(29 * time.Minute)
	if _, err := ts.Validate(token); err != nil {
		t.Fatalf("Validate() before ttl elapsed error = %v", err)
	}

	advance(2 * time.Minute)
	_, err = ts.Validate(token)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate() after ttl elapsed error = %v, want ErrExpired", err)
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueWithTTL(testIdentity, -1*time.Minute)
	if err != nil {
		t.Fatalf("IssueWithTTL() error = %v", err)
	}

	_, err = ts.Validate(token)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate() error = %v, want ErrExpired", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ErrExpired should wrap ErrInvalidToken, got %v", err)
	}
}

func TestValidate_TamperedSignature(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Issue(testIdentity)

	tampered := token[:len(token)-3] + "xxx"

	_, err := ts.Validate(tampered)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidate_TamperedPayload(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Issue(testIdentity)
	other, _ := ts.Issue(Identity{UserID: 1, Email: "admin@x.com"})

	// Splice another token's payload under this token's signature.
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	spliced := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err := ts.Validate(spliced)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!", "HS256", time.Minute)
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", "HS256", time.Minute)

	token, _ := ts1.Issue(testIdentity)

	_, err := ts2.Validate(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidate_ExpiredAndWrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!", "HS256", time.Minute)
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", "HS256", time.Minute)

	token, _ := ts1.IssueWithTTL(testIdentity, -time.Minute)

	// The signature is checked before the claims.
	_, err := ts2.Validate(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidate_WrongAlgorithm(t *testing.T) {
	ts256, _ := NewTokenService(testSecret, "HS256", time.Minute)
	ts512, _ := NewTokenService(testSecret, "HS512", time.Minute)

	token, _ := ts512.Issue(testIdentity)

	_, err := ts256.Validate(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestValidate_NoneAlgorithmRejected(t *testing.T) {
	ts := newTestTokenService(t)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		Email:  "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if _, err := ts.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidate_MissingClaims(t *testing.T) {
	ts := newTestTokenService(t)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		claims Claims
	}{
		{"no user_id", Claims{Email: "a@x.com", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}},
		{"no email", Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}},
		{"no exp", Claims{UserID: 1, Email: "a@x.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte(testSecret))
			if err != nil {
				t.Fatalf("signing: %v", err)
			}

			_, err = ts.Validate(token)
			if !errors.Is(err, ErrMissingClaims) {
				t.Errorf("Validate() error = %v, want ErrMissingClaims", err)
			}
		})
	}
}

func TestValidate_Malformed(t *testing.T) {
	ts := newTestTokenService(t)

	for _, token := range []string{"", "not-a-jwt", "a.b", "not.a.jwt.token", "###.###.###"} {
		t.Run(token, func(t *testing.T) {
			_, err := ts.Validate(token)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Validate(%q) error = %v, want ErrMalformed", token, err)
			}
		})
	}
}
