package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/blog-api/internal/httpx"
	"github.com/sakif/blog-api/internal/service"
)

// UserHandler serves /user.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// userRequest is the JSON body of POST /user and PUT /user/{id}.
type userRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req userRequest) input() service.UserInput {
	return service.UserInput{Name: req.Name, Email: req.Email, Password: req.Password}
}

// HandleRegister creates an account. Public: this is how users sign up.
//
// HTTP: POST /user
// REQUEST BODY: {"name": "alice", "email": "a@x.com", "password": "secret"}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(h.logger, r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.input())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, user)
}

// HandleList returns users with their blogs.
//
// HTTP: GET /user?limit=20&offset=0
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, users)
}

// HandleGet returns one user.
//
// HTTP: GET /user/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleUpdate changes the caller's own account.
//
// HTTP: PUT /user/{id}
// REQUEST BODY: {"name": "...", "email": "...", "password": "optional"}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var req userRequest
	if err := decodeBody(h.logger, r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), who, id, req.input())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleDelete removes the caller's own account.
//
// HTTP: DELETE /user/{id} → 204 No Content
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := h.users.Delete(r.Context(), who, id); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteNoContent(w)
}
