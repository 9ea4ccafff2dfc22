package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "homeportal/internal/log"
	"homeportal/internal/middleware/auth"
	"homeportal/internal/middleware/ratelimit"
	"homeportal/internal/middleware/security"
	"homeportal/internal/middleware/trace"
	"homeportal/internal/services"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr           string
	MaxUploadBytes int64
	CORS           security.CORSConfig
	Headers        security.HeadersConfig
}

// Deps are the collaborators the handlers call into. Limiter and Detector
// default to fresh instances when nil.
type Deps struct {
	Assets   *services.AssetService
	Links    *services.LinkService
	Contacts *services.ContactService
	Todos    *services.TodoService
	Events   *services.EventService
	Users    *services.UserService
	Notifier *services.Notifier

	DB       Pinger
	Auth     *auth.Authenticator
	Limiter  *ratelimit.Limiter
	Detector *security.Detector
	Logger   *applog.Logger
}

type Server struct {
	http.Server

	config Config
	deps   Deps
	logger *applog.Logger
	trace  *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(config Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	if deps.Detector == nil {
		deps.Detector = security.NewDetector()
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 10 << 20
	}

	logger := deps.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		config:  config,
		deps:    deps,
		logger:  logger,
		trace:   trace.NewMiddleware(deps.Detector.ExtractClientIP, logger),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              config.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("POST /assets/import", auth.Require(http.HandlerFunc(s.handleImportAssets)))
	mux.HandleFunc("GET /assets/summary", s.handleAssetSummary)
	mux.HandleFunc("GET /assets/snapshots", s.handleListSnapshots)

	mux.HandleFunc("GET /me", s.handleMe)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)

	mux.HandleFunc("GET /links", s.handleListLinks)
	mux.HandleFunc("GET /links/search", s.handleSearchLinks)
	mux.Handle("POST /links", auth.Require(http.HandlerFunc(s.handleCreateLink)))
	mux.Handle("PATCH /links/{id}", auth.Require(http.HandlerFunc(s.handleUpdateLink)))
	mux.Handle("DELETE /links/{id}", auth.Require(http.HandlerFunc(s.handleDeleteLink)))
	mux.Handle("POST /links/{id}/click", auth.Require(http.HandlerFunc(s.handleClickLink)))

	mux.HandleFunc("GET /contacts", s.handleListContacts)
	mux.Handle("POST /contacts", auth.Require(http.HandlerFunc(s.handleCreateContact)))
	mux.Handle("PATCH /contacts/{id}", auth.Require(http.HandlerFunc(s.handleUpdateContact)))
	mux.Handle("DELETE /contacts/{id}", auth.Require(http.HandlerFunc(s.handleDeleteContact)))

	mux.HandleFunc("GET /todos", s.handleListTodos)
	mux.Handle("POST /todos", auth.Require(http.HandlerFunc(s.handleCreateTodo)))
	mux.Handle("PATCH /todos/{id}", auth.Require(http.HandlerFunc(s.handleUpdateTodo)))
	mux.Handle("DELETE /todos/{id}", auth.Require(http.HandlerFunc(s.handleDeleteTodo)))

	mux.HandleFunc("GET /events", s.handleListEvents)
	mux.HandleFunc("GET /events/{id}", s.handleGetEvent)
	mux.Handle("POST /events", auth.Require(http.HandlerFunc(s.handleCreateEvent)))
	mux.Handle("PATCH /events/{id}", auth.Require(http.HandlerFunc(s.handleUpdateEvent)))
	mux.Handle("DELETE /events/{id}", auth.Require(http.HandlerFunc(s.handleDeleteEvent)))
}

// middleware wraps h so that tracing runs first and authentication last.
func (s *Server) middleware(h http.Handler) http.Handler {
	extractIP := s.deps.Detector.ExtractClientIP

	h = s.withAuth(h)
	h = s.deps.Limiter.Middleware(extractIP, s.handleRateLimited)(h)
	h = security.HeadersMiddleware(s.config.Headers)(h)
	h = security.CORSMiddleware(s.config.CORS)(h)
	h = s.deps.Detector.Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = applog.Middleware(s.logger)(h)
	return s.trace.Middleware(h)
}

// publicPaths never look at credentials, so a stale token cannot block them.
var publicPaths = map[string]bool{
	"/healthz":     true,
	"/readyz":      true,
	"/metrics":     true,
	"/auth/logout": true,
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	authed := s.deps.Auth.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		authed.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.deps.Detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown gracefully shuts down the server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
