package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", s.handleHealth)

		// Unified climate proxies
		r.Route("/climate", func(r chi.Router) {
			r.Get("/", s.handleListClimate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetClimate)
				r.Post("/temperature", s.handleSetTemperature)
				r.Post("/hvac_mode", s.handleSetHvacMode)
				r.Post("/fan_mode", s.handleSetFanMode)
				r.Get("/history", s.handleClimateHistory)
			})
		})

		// Raw entity registry (diagnostics)
		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)
			r.Get("/{id}", s.handleGetEntity)
		})

		// WebSocket for real-time state updates
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"instances": s.climate.Count(),
		"entities":  s.registry.Count(),
	})
}
