package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/blog-api/internal/httpx"
	"github.com/sakif/blog-api/internal/service"
)

// BlogHandler serves /blog. Every route sits behind auth.RequireAuth.
type BlogHandler struct {
	blogs  BlogService
	logger *slog.Logger
}

func NewBlogHandler(blogs BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{blogs: blogs, logger: logger}
}

type blogRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (req blogRequest) input() service.BlogInput {
	return service.BlogInput{Title: req.Title, Body: req.Body}
}

// HandleCreate publishes a post as the caller.
//
// HTTP: POST /blog
// REQUEST BODY: {"title": "Hello", "body": "..."}
func (h *BlogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var req blogRequest
	if err := decodeBody(h.logger, r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	blog, err := h.blogs.Create(r.Context(), who, req.input())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, blog)
}

// HandleList returns posts newest first.
//
// HTTP: GET /blog?limit=20&offset=40
func (h *BlogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	blogs, err := h.blogs.List(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, blogs)
}

// HandleGet returns one post.
//
// HTTP: GET /blog/{id}
func (h *BlogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	blog, err := h.blogs.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, blog)
}

// HandleUpdate replaces title and body. Author only.
//
// HTTP: PUT /blog/{id}
func (h *BlogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req blogRequest
	if err := decodeBody(h.logger, r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	blog, err := h.blogs.Update(r.Context(), who, id, req.input())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, blog)
}

// HandleDelete removes a post. Author only.
//
// HTTP: DELETE /blog/{id} → 204 No Content
func (h *BlogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.blogs.Delete(r.Context(), who, id); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteNoContent(w)
}
