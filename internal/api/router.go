package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// indexText is the body served at the root path.
const indexText = "Index for Bakery/BakedGood API"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.tracingMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.serverTimingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Route("/bakeries", func(r chi.Router) {
		r.Get("/", s.handleListBakeries)
		// Non-numeric IDs fall through to the router's 404.
		r.Get("/{id:[0-9]+}", s.handleGetBakery)
	})

	r.Route("/baked_goods", func(r chi.Router) {
		r.Get("/by_price", s.handleListBakedGoodsByPrice)
		r.Get("/most_expensive", s.handleMostExpensiveBakedGood)
	})

	return r
}

// handleIndex returns a plain-text banner.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	io.WriteString(w, indexText)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("store health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "unavailable",
				"error":   msgUnavailable,
				"version": s.version,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
