package auth

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/httpx"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// With a plain string key any package that knows the string could read or
// shadow the value. Only this package can build a key of type contextKey.
type contextKey string

const identityKey contextKey = "identity"

// ErrNoToken is returned when the request carries no usable bearer token.
var ErrNoToken = errors.New("auth: missing bearer token")

// bearerPattern matches "Bearer <token>". The scheme is case-insensitive
// (RFC 7235) and the token itself may not contain whitespace.
var bearerPattern = regexp.MustCompile(`(?i)^Bearer\s+(\S+)$`)

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	m := bearerPattern.FindStringSubmatch(r.Header.Get("Authorization"))
	if m == nil {
		return "", ErrNoToken
	}
	return m[1], nil
}

// Identify resolves the request's bearer token into an Identity.
//
// Every failure (no header, wrong scheme, malformed, expired, bad signature,
// missing claims) comes back as apperror.Unauthorized with the underlying
// cause attached, so callers render one uniform 401.
func Identify(tokens *TokenService, r *http.Request) (Identity, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return Identity{}, apperror.Unauthorized(err)
	}

	claims, err := tokens.Validate(raw)
	if err != nil {
		return Identity{}, apperror.Unauthorized(err)
	}

	return claims.Identity(), nil
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <jwt>" header, validates
// it, and stores the Identity in the request context. If the token is
// missing or invalid it answers 401 and stops the chain.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new one that wraps it.
// Chi applies them in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
//
// onReject, if non-nil, is called with the underlying failure before the 401
// is written. The server uses it to log the cause, which the client never sees.
func RequireAuth(tokens *TokenService, onReject func(*http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := Identify(tokens, r)
			if err != nil {
				if onReject != nil {
					onReject(r, err)
				}
				httpx.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated caller from the context.
//
// Returns (Identity{}, false) when the request did not pass through
// RequireAuth.
//
// Usage in handlers:
//
//	id, ok := auth.IdentityFromContext(r.Context())
//	if !ok {
//	    // not authenticated
//	}
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID > 0
}
