package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sahaara-app/sahaara/internal/domain"
)

// ─── Live SSE feeds (/api/live/*) ────────────────────────────────────────────
// Each connection holds one document-store subscription; the client
// disconnecting cancels it, so no standing watch outlives its reader.
// Snapshot pushes arrive on the committing goroutine and are handed to the
// streaming loop through a small buffer that keeps only the freshest update.

// --- GET /api/live/leaderboard?top=N ---

func (s *Server) handleLiveLeaderboard(w http.ResponseWriter, r *http.Request) {
	topN := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			topN = n
		}
	}

	updates := make(chan []domain.LeaderboardEntry, 1)
	cancel, err := s.ledger.SubscribeLeaderboard(topN, func(entries []domain.LeaderboardEntry) {
		coalesce(updates, entries)
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	defer cancel()

	streamSSE(w, r, "leaderboard", func() (any, bool) {
		select {
		case entries := <-updates:
			return entries, true
		case <-r.Context().Done():
			return nil, false
		}
	})
}

// --- GET /api/live/stats/{uid} ---

func (s *Server) handleLiveStats(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	updates := make(chan domain.UserStats, 1)
	cancel, err := s.ledger.SubscribeStats(r.Context(), uid, func(stats domain.UserStats) {
		coalesce(updates, stats)
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	defer cancel()

	streamSSE(w, r, "stats", func() (any, bool) {
		select {
		case stats := <-updates:
			return stats, true
		case <-r.Context().Done():
			return nil, false
		}
	})
}

// coalesce replaces a pending update with the newer one; subscribers only
// ever care about the latest snapshot.
func coalesce[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// streamSSE writes one SSE event per snapshot until next reports done.
func streamSSE(w http.ResponseWriter, r *http.Request, event string, next func() (any, bool)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		payload, ok := next()
		if !ok {
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		if _, err := w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}
