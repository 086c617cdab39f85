// Package handler contains the HTTP handlers of the blog API.
//
// Handlers only speak HTTP: they parse the request, call a service and write
// the result with internal/httpx. Every error goes through httpx.WriteError,
// which owns the error → status mapping.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/httpx"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/service"
)

// The handlers depend on these interfaces rather than on the concrete
// services, so handler tests can substitute fakes.

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*service.Token, error)
}

type UserService interface {
	Register(ctx context.Context, in service.UserInput) (*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, error)
	Update(ctx context.Context, caller auth.Identity, id int64, in service.UserInput) (*model.User, error)
	Delete(ctx context.Context, caller auth.Identity, id int64) error
}

type BlogService interface {
	Create(ctx context.Context, caller auth.Identity, in service.BlogInput) (*model.Blog, error)
	Get(ctx context.Context, id int64) (*model.Blog, error)
	List(ctx context.Context, limit, offset int) ([]model.Blog, error)
	Update(ctx context.Context, caller auth.Identity, id int64, in service.BlogInput) (*model.Blog, error)
	Delete(ctx context.Context, caller auth.Identity, id int64) error
}

// decodeBody reads a JSON request body into dst. Bodies that fail to decode
// are logged at Warn; the client gets a 400 validation error.
func decodeBody(logger *slog.Logger, r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		logger.Warn("rejected request body",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// pathID parses the {id} URL parameter.
//
// URL PARAMETERS:
// For DELETE /blog/17, chi.URLParam(r, "id") returns "17".
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "id must be a positive integer")
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}

// paging reads ?limit= and ?offset=.
func paging(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// caller returns the identity placed in the context by auth.RequireAuth.
// On a route without the middleware it fails closed with Unauthorized.
func caller(r *http.Request) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return auth.Identity{}, apperror.Unauthorized(nil)
	}
	return id, nil
}
