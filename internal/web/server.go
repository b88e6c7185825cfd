// Package web provides the HTTP server and handlers for the data load wizard.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/loadwizard/internal/config"
	"github.com/JonMunkholm/loadwizard/internal/inspect"
	"github.com/JonMunkholm/loadwizard/internal/metrics"
	"github.com/JonMunkholm/loadwizard/internal/web/middleware"
	"github.com/JonMunkholm/loadwizard/internal/wizard"
)

// Server is the HTTP server for the wizard API.
type Server struct {
	sessions  *wizard.Sessions
	inspector *inspect.Inspector
	policy    wizard.Policy
	metrics   *metrics.Metrics
	cfg       config.ServerConfig
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cfg config.ServerConfig, security config.SecurityConfig, sessions *wizard.Sessions, inspector *inspect.Inspector, policy wizard.Policy, m *metrics.Metrics) *Server {
	s := &Server{
		sessions:  sessions,
		inspector: inspector,
		policy:    policy,
		metrics:   m,
		cfg:       cfg,
		router:    chi.NewRouter(),
	}
	if m != nil {
		// The store owns the gauge so sweeps keep it honest.
		sessions.SetSizeObserver(func(n int) {
			m.SessionsActive.Set(float64(n))
		})
	}
	s.setupMiddleware(security)
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(security config.SecurityConfig) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(security.TrustedProxies))
	s.router.Use(middleware.Logger(s.observeRequest))
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.RequestTimeout))
	s.router.Use(securityHeaders)
}

// observeRequest feeds request latency into the Prometheus histogram.
func (s *Server) observeRequest(method string, status int, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RequestDuration.
		WithLabelValues(method, strconv.Itoa(status)).
		Observe(duration.Seconds())
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		// Static catalogs
		r.Get("/transformations", s.handleListTransformations)
		r.Get("/strategies", s.handleListStrategies)

		// Destination browsing (DSN in the body, never in the URL)
		r.Post("/inspect/schemas", s.handleListSchemas)
		r.Post("/inspect/tables", s.handleListTables)

		// Session lifecycle
		r.Post("/wizards", s.handleCreateWizard)
		r.Route("/wizards/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetWizard)
			r.Delete("/", s.handleDeleteWizard)

			// Per-step state updates
			r.Put("/source", s.handlePutSource)
			r.Put("/details", s.handlePutDetails)
			r.Put("/destination", s.handlePutDestination)
			r.Put("/mappings", s.handlePutMappings)
			r.Put("/upsert-keys", s.handlePutUpsertKeys)
			r.Put("/schedule", s.handlePutSchedule)

			// Navigation
			r.Post("/next", s.handleNext)
			r.Post("/back", s.handleBack)
			r.Post("/skip", s.handleSkip)
			r.Post("/jump", s.handleJump)

			// Read-only views
			r.Get("/validation", s.handleValidation)
			r.Get("/ddl", s.handleDDL)
			r.Post("/suggest", s.handleSuggest)

			// Submission
			r.Post("/submit", s.handleSubmit)
		})
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
