// Package auth provides the credential and token primitives of the blog API:
// bcrypt password hashing, JWT issuance and validation, and the middleware
// that turns a bearer token into a request identity.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs email + password to /login
//  2. AuthService looks the user up, verifies the password with PasswordService
//  3. TokenService signs a JWT carrying {user_id, email, exp}
//  4. Client sends "Authorization: Bearer <jwt>" on every protected call
//  5. RequireAuth validates the token and stores an Identity in the request context
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"user_id":1,"email":"a@x.com","exp":1234567890,"iat":...,"jti":"..."}
//	- Signature: HMAC(header+"."+payload, secretKey)
//
// The server verifies a token with the secret alone, no DB lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 30 * time.Minute

// minSecretLength guards against trivially guessable HMAC keys.
const minSecretLength = 16

// Token validation failures. All of them wrap ErrInvalidToken, so callers
// that do not care about the reason can match on that alone.
var (
	ErrInvalidToken     = errors.New("auth: invalid token")
	ErrMalformed        = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrExpired          = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrMissingClaims    = fmt.Errorf("%w: missing required claims", ErrInvalidToken)
)

// Identity is the caller resolved from a valid token. It lives for the
// duration of one request and is never persisted.
type Identity struct {
	UserID int64
	Email  string
}

// Claims is the JWT payload. user_id and email are required; the embedded
// RegisteredClaims carries exp, iat and jti.
type Claims struct {
	UserID int64  `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity fields of the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email}
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret and the signing method, both fixed for the
// lifetime of the process. Changing either invalidates every issued token.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService.
//
// algorithm must be one of HS256, HS384 or HS512. The secret should be at
// least 32 bytes of random data in production:
//
//	SECRET_KEY=$(openssl rand -hex 32)
func NewTokenService(secret, algorithm string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: secret key must be at least %d characters", minSecretLength)
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", algorithm)
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}

	return &TokenService{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the lifetime given to tokens by Issue.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new access token for the identity with the configured TTL.
func (s *TokenService) Issue(id Identity) (string, error) {
	return s.IssueWithTTL(id, s.ttl)
}

// IssueWithTTL signs a token that expires ttl from now.
// A negative ttl yields an already expired token, which tests rely on.
func (s *TokenService) IssueWithTTL(id Identity, ttl time.Duration) (string, error) {
	if id.UserID <= 0 || id.Email == "" {
		return "", fmt.Errorf("auth: cannot issue token without user id and email")
	}

	now := s.now()
	c := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns its claims.
//
// The signature is checked first, then the claims. The returned error is
// one of ErrMalformed, ErrExpired, ErrInvalidSignature or ErrMissingClaims.
// Only the configured algorithm is accepted, which rules out "none" and
// algorithm-confusion tokens.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	c := &Claims{}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrMalformed
	}

	if c.UserID <= 0 || c.Email == "" {
		return nil, ErrMissingClaims
	}

	return c, nil
}

// classify maps jwt library errors onto this package's failures.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMissingClaims, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
