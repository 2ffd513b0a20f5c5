package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sahaara-app/sahaara/internal/domain"
)

// ─── Engagement REST API (/api/engagement/{uid}/*) ──────────────────────────
// Thin request/response plumbing; every mutation goes through the ledger's
// transactional entry points and nothing here writes the store directly.

// --- POST /api/engagement/{uid}/daily/complete ---

type completeDailyRequest struct {
	PointsPerChallenge int `json:"pointsPerChallenge,omitempty"`
}

func (s *Server) handleCompleteDaily(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var req completeDailyRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	stats, err := s.ledger.CompleteDailyChallenge(r.Context(), uid, req.PointsPerChallenge)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- POST /api/engagement/{uid}/weekly/track ---

type trackWeeklyRequest struct {
	GoalDays           int `json:"goalDays,omitempty"`
	PointsPerChallenge int `json:"pointsPerChallenge,omitempty"`
}

func (s *Server) handleTrackWeekly(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var req trackWeeklyRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	stats, err := s.ledger.CompleteWeeklyDay(r.Context(), uid, req.GoalDays, req.PointsPerChallenge)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- GET /api/engagement/{uid}/stats ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- POST /api/engagement/{uid}/emotions ---

type recordEmotionRequest struct {
	Emotions  []string `json:"emotions"`
	Intensity int      `json:"intensity"`
	DateKey   string   `json:"dateKey,omitempty"`
}

func (s *Server) handleRecordEmotion(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var req recordEmotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.ledger.RecordEmotion(r.Context(), uid, req.Emotions, req.Intensity, req.DateKey); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// --- GET /api/engagement/{uid}/summary ---

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ledger.WeeklySummary(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- GET/PUT /api/engagement/{uid}/profile ---

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok, err := s.ledger.Profile(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.ledger.SaveProfile(r.Context(), chi.URLParam(r, "uid"), profile); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// --- GET /api/leaderboard?top=N ---

// rankedEntry adds the positional rank to a projection row for the response.
type rankedEntry struct {
	Rank int `json:"rank"`
	domain.LeaderboardEntry
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	topN := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		topN = n
	}

	entries, err := s.ledger.Leaderboard(r.Context(), topN)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	ranked := make([]rankedEntry, len(entries))
	for i, e := range entries {
		ranked[i] = rankedEntry{Rank: i + 1, LeaderboardEntry: e}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": ranked,
	})
}

// --- GET /api/challenges ---

func (s *Server) handleChallenges(w http.ResponseWriter, r *http.Request) {
	active, err := s.ledger.Challenges(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, active)
}
