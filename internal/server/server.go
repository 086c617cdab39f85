// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer. It connects the store, services,
// handlers and middleware, and it owns the server lifecycle.
//
// DEPENDENCY INJECTION FLOW:
//
//	cmd/server builds config.Config, the logger and the sqlstore.Store
//	server.New creates:
//	  PasswordService, TokenService           (internal/auth)
//	  AuthService, UserService, BlogService   (internal/service, over store repositories)
//	  AuthHandler, UserHandler, BlogHandler   (internal/handler)
//
// This is the "composition root": all dependencies are wired in New and
// routes, not scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/handler"
	"github.com/sakif/blog-api/internal/httpx"
	"github.com/sakif/blog-api/internal/middleware"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/service"
)

// shutdownTimeout is how long in-flight requests get once shutdown starts.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The store is owned by the caller: Start does not close it.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  *sqlstore.Store
}

// New creates a Server with every route registered.
//
// passwords may be nil, in which case a PasswordService with cfg.BcryptCost
// is built. Tests pass auth.NewPasswordServiceForTest() to stay fast.
func New(cfg config.Config, store *sqlstore.Store, passwords *auth.PasswordService, logger *slog.Logger) (*Server, error) {
	if passwords == nil {
		var err error
		passwords, err = auth.NewPasswordService(cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}

	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.Algorithm, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	users := store.Users()
	blogs := store.Blogs()

	s.routes(
		tokens,
		handler.NewAuthHandler(service.NewAuthService(users, tokens, passwords, logger), logger),
		handler.NewUserHandler(service.NewUserService(users, blogs, passwords, logger), logger),
		handler.NewBlogHandler(service.NewBlogService(blogs, logger), logger),
	)

	return s, nil
}

// routes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz      → liveness + DB ping          (public)
//	POST   /login        → form login, returns a token (public)
//	POST   /user         → register                    (public)
//	GET    /user         → list users with their blogs (bearer)
//	GET    /user/{id}    → one user                    (bearer)
//	PUT    /user/{id}    → update own account          (bearer, self)
//	DELETE /user/{id}    → delete own account          (bearer, self)
//	POST   /blog         → create                      (bearer)
//	GET    /blog         → list, ?limit=&offset=       (bearer)
//	GET    /blog/{id}    → one blog                    (bearer)
//	PUT    /blog/{id}    → update own blog             (bearer, author)
//	DELETE /blog/{id}    → delete own blog             (bearer, author)
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: unique id per request, picked up by the logger
//  2. RealIP: client IP from proxy headers
//  3. Logger: one line per request
//  4. Recoverer: a panic becomes a 500 instead of a crash
//  5. CORS: answers preflight requests before routing
func (s *Server) routes(tokens *auth.TokenService, authH *handler.AuthHandler, userH *handler.UserHandler, blogH *handler.BlogHandler) {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if len(s.config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
			Error:   "not_found",
			Message: "route not found",
		})
	})

	r.Get("/healthz", s.handleHealth)
	r.Post("/login", authH.HandleLogin)

	// Everything in the groups below needs a valid bearer token. Rejections
	// are logged with the reason; the client only sees the uniform 401.
	requireAuth := auth.RequireAuth(tokens, s.logReject)

	r.Route("/user", func(r chi.Router) {
		r.Post("/", userH.HandleRegister)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, middleware.RecordCaller)
			r.Get("/", userH.HandleList)
			r.Get("/{id}", userH.HandleGet)
			r.Put("/{id}", userH.HandleUpdate)
			r.Delete("/{id}", userH.HandleDelete)
		})
	})

	r.Route("/blog", func(r chi.Router) {
		r.Use(requireAuth, middleware.RecordCaller)
		r.Post("/", blogH.HandleCreate)
		r.Get("/", blogH.HandleList)
		r.Get("/{id}", blogH.HandleGet)
		r.Put("/{id}", blogH.HandleUpdate)
		r.Delete("/{id}", blogH.HandleDelete)
	})
}

func (s *Server) logReject(r *http.Request, err error) {
	s.logger.Info("request not authenticated",
		slog.String("path", r.URL.Path),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("reason", rejectReason(err)),
	)
}

// rejectReason digs the token failure out of the 401 error. The AppError
// message is the same for every rejection and says nothing useful.
func rejectReason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err.Error()
	}
	return err.Error()
}

// handleHealth reports whether the process is up and the database answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Handler returns the root handler. Tests drive it without a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait for in-flight requests (up to 30s)
//  3. Return; the caller closes the store afterwards
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("driver", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
