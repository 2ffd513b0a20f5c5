package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sahaara-app/sahaara/internal/domain"
)

// ─── Assistant boundary ──────────────────────────────────────────────────────
// The wellness chat and voice features live behind a hosted generative
// endpoint; the engine only needs "prompt in, text out" and "speak this".
// The client talks the OpenAI chat-completions shape so any compatible
// provider works.

// Assistant is the text/speech boundary client.
type Assistant struct {
	baseURL   string
	speechURL string
	apiKey    string
	model     string
	client    *http.Client
}

// NewAssistant creates a client for the configured completion endpoint.
// speechURL may be empty; Speak then fails with ErrSpeechUnconfigured.
func NewAssistant(baseURL, speechURL, apiKey, model string) *Assistant {
	return &Assistant{
		baseURL:   baseURL,
		speechURL: speechURL,
		apiKey:    apiKey,
		model:     model,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type assistantRequest struct {
	Model    string             `json:"model"`
	Messages []assistantMessage `json:"messages"`
}

type assistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type assistantResponse struct {
	Choices []struct {
		Message assistantMessage `json:"message"`
	} `json:"choices"`
}

// GenerateText sends a prompt and returns the completion text.
// Unreachable or non-2xx upstreams fail with ErrAssistantUnavailable; a
// well-formed reply with no text fails with ErrEmptyResponse.
func (a *Assistant) GenerateText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(assistantRequest{
		Model:    a.model,
		Messages: []assistantMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAssistantUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", domain.ErrAssistantUnavailable, resp.StatusCode)
	}

	var out assistantResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAssistantUnavailable, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", domain.ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}

// Speak submits text to the speech endpoint and drains the audio response;
// it returns once playback delivery completes or ctx is cancelled.
func (a *Assistant) Speak(ctx context.Context, text string) error {
	if a.speechURL == "" {
		return domain.ErrSpeechUnconfigured
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.speechURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAssistantUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", domain.ErrAssistantUnavailable, resp.StatusCode)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

// --- POST /api/assistant/generate ---

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	text, err := s.assistant.GenerateText(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
