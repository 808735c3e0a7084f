// Package server exposes the analysis pipeline and history over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/raine/skybet/internal/analysis"
	"github.com/raine/skybet/internal/history"
	"github.com/raine/skybet/internal/imagedata"
)

const (
	analysisTimeout = 120 * time.Second
	defaultTimeout  = 15 * time.Second
)

// Config holds server configuration
type Config struct {
	Addr          string
	Log           zerolog.Logger
	Pipeline      *analysis.Pipeline
	MaxImageBytes int64
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	pipeline *analysis.Pipeline
	ledger   *history.Ledger
	maxImage int64
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	maxImage := cfg.MaxImageBytes
	if maxImage <= 0 {
		maxImage = imagedata.DefaultMaxImageSize
	}

	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		pipeline: cfg.Pipeline,
		ledger:   cfg.Pipeline.Ledger(),
		maxImage: maxImage,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: analysisTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Model calls can take a while, two of them for rounds.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(analysisTimeout))
			r.Post("/analysis", s.handleAnalysis)
			r.Post("/fairness", s.handleFairness)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultTimeout))
			r.Route("/history", func(r chi.Router) {
				r.Get("/", s.handleGetHistory)
				r.Delete("/", s.handleClearHistory)
				r.Get("/stats", s.handleHistoryStats)
				r.Get("/export", s.handleHistoryExport)
			})
			r.Post("/betlog", s.handleBetLog)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
