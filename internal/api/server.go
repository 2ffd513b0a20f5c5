// Package api provides the HTTP server for the Sahaara engine.
// It exposes the engagement REST API, live SSE feeds backed by the document
// store's snapshot subscriptions, and the assistant boundary passthrough.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sahaara-app/sahaara/internal/app/engagement"
	"github.com/sahaara-app/sahaara/internal/domain"
	"github.com/sahaara-app/sahaara/internal/health"
)

// Server is the Sahaara HTTP API server.
type Server struct {
	ledger         *engagement.Ledger
	metricsEnabled bool
	assistant      *Assistant      // nil when no endpoint configured
	checker        *health.Checker // nil disables /health/detail
}

// NewServer creates a new API server over the ledger.
func NewServer(ledger *engagement.Ledger) *Server {
	return &Server{ledger: ledger}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetAssistant sets the text/speech boundary client.
func (s *Server) SetAssistant(a *Assistant) { s.assistant = a }

// SetHealthChecker sets the periodic health checker surfaced at /health/detail.
func (s *Server) SetHealthChecker(c *health.Checker) { s.checker = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if s.checker != nil && !s.checker.IsHealthy() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	if s.checker != nil {
		r.Get("/health/detail", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.checker.Statuses())
		})
	}

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": "0.1.0",
		})
	})

	// Engagement ledger
	r.Route("/api/engagement/{uid}", func(r chi.Router) {
		r.Post("/daily/complete", s.handleCompleteDaily)
		r.Post("/weekly/track", s.handleTrackWeekly)
		r.Get("/stats", s.handleStats)
		r.Post("/emotions", s.handleRecordEmotion)
		r.Get("/summary", s.handleSummary)
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)
	})

	// Projections and catalog
	r.Get("/api/leaderboard", s.handleLeaderboard)
	r.Get("/api/challenges", s.handleChallenges)

	// Live SSE feeds
	r.Get("/api/live/leaderboard", s.handleLiveLeaderboard)
	r.Get("/api/live/stats/{uid}", s.handleLiveStats)

	// Assistant boundary
	if s.assistant != nil {
		r.Post("/api/assistant/generate", s.handleGenerate)
	}

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeLedgerError maps ledger failures onto the retry contract: validation
// problems are the caller's fault; anything touching storage is transient
// and reported as "could not record; will retry", never as success.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDateKey),
		errors.Is(err, domain.ErrIntensityOutOfRange),
		errors.Is(err, domain.ErrNoEmotions),
		errors.Is(err, domain.ErrEmptyUID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflictRetryExhausted):
		writeError(w, http.StatusServiceUnavailable, "could not record; will retry: "+err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "could not record; will retry: "+err.Error())
	}
}

// corsMiddleware adds CORS headers for the web client.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
