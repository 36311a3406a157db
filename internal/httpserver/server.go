package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/blackmichael/blog-admin/internal/config"
	"github.com/blackmichael/blog-admin/internal/domain"
	"github.com/blackmichael/blog-admin/internal/metrics"
)

// maxRequestBodySize limits JSON and form bodies.
const maxRequestBodySize = 1 << 20 // 1 MB

// Gate is the login capability the server needs from the session gate.
type Gate interface {
	Login(password string) (string, error)
	domain.Verifier
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Posts   *domain.PostService
	Gate    Gate
	Events  http.Handler
	Metrics *metrics.Metrics
}

// Server is the HTTP server for the JSON API, the public read path and the
// admin pages.
type Server struct {
	posts      *domain.PostService
	gate       Gate
	metrics    *metrics.Metrics
	templates  *template.Template
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		posts:     deps.Posts,
		gate:      deps.Gate,
		metrics:   deps.Metrics,
		templates: parseTemplates(),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /login", s.handleLogin)

	mux.HandleFunc("GET /posts", s.requireAuth(s.handleListPosts))
	mux.HandleFunc("POST /posts", s.requireAuth(s.handleCreatePost))
	mux.HandleFunc("GET /posts/{id}", s.requireAuth(s.handleGetPost))
	mux.HandleFunc("PUT /posts/{id}", s.requireAuth(s.handleUpdatePost))
	mux.HandleFunc("DELETE /posts/{id}", s.requireAuth(s.handleDeletePost))
	if deps.Events != nil {
		mux.HandleFunc("GET /posts/events", s.requireAuth(deps.Events.ServeHTTP))
	}

	mux.HandleFunc("GET /public/posts", s.handlePublicList)
	mux.HandleFunc("GET /public/posts/{slug}", s.handlePublicPost)

	s.registerAdmin(mux)

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      withLogging(logger, deps.Metrics, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func withLogging(logger *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if m != nil {
			m.ObserveRequest(r.Method, route, wrapped.status, elapsed)
		}
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", wrapped.status,
			"duration", elapsed,
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
