package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/httpx"
)

// AuthHandler serves POST /login.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(a Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, logger: logger}
}

// HandleLogin exchanges email and password for a bearer token.
//
// HTTP: POST /login
// REQUEST BODY (application/x-www-form-urlencoded):
//
//	username=a@x.com&password=secret
//
// The field is called "username" but carries the email; this is the
// OAuth2 password-grant form that client libraries already know how to send.
//
// RESPONSE: {"access_token": "<jwt>", "token_type": "bearer"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("rejected login form", slog.String("error", err.Error()))
		httpx.WriteError(w, apperror.ValidationFailed("body", "invalid form body"))
		return
	}

	// The password is never logged.
	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	var missing string
	switch {
	case email == "":
		missing = "username"
	case password == "":
		missing = "password"
	}
	if missing != "" {
		h.logger.Warn("rejected login form", slog.String("missing", missing))
		httpx.WriteError(w, apperror.ValidationFailed(missing, missing+" is required"))
		return
	}

	token, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, token)
}
