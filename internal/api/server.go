// Package api exposes the reading tracker as a JSON HTTP API
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"readtracker/internal/tracker"
)

// Options configures the router
type Options struct {
	// Auth guards /api when set; nil leaves the API open for local use
	Auth *InitDataValidator
	// RateLimiter throttles /api per client IP when set
	RateLimiter *RateLimiter
}

// Server serves the tracker API
type Server struct {
	svc    *tracker.Service
	logger *zap.Logger
}

// NewRouter builds the HTTP routes. Callers may mount more routes on the
// returned router, such as the Telegram webhook.
func NewRouter(svc *tracker.Service, logger *zap.Logger, opts Options) chi.Router {
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}
		if opts.Auth != nil {
			r.Use(opts.Auth.Middleware(logger))
		}

		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleCreateBook)
			r.Get("/{id}", s.handleGetBook)
			r.Put("/{id}", s.handleUpdateBook)
			r.Delete("/{id}", s.handleDeleteBook)
			r.Get("/{id}/progress", s.handleBookProgress)
		})

		r.Get("/logs", s.handleListLogs)
		r.Post("/logs", s.handleCreateLog)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/goals", s.handleGoals)
		r.Get("/suggestions", s.handleSuggestions)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	return r
}

// NewHTTPServer wraps handler in an http.Server listening on port
func NewHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// fail logs unexpected errors and writes the JSON error response
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		requestLogger(r.Context(), s.logger).Error(msg, zap.Error(err))
		writeError(w, status, errInternal(msg))
		return
	}
	writeError(w, status, err)
}

type errInternal string

func (e errInternal) Error() string { return string(e) }
