package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Date utilities
	ErrInvalidDateKey = errors.New("invalid date key — expected YYYY-MM-DD")

	// Document store
	ErrConflictRetryExhausted = errors.New("transaction conflict retries exhausted")
	ErrStoreClosed            = errors.New("document store is closed")
	ErrTxReadAfterWrite       = errors.New("transaction read after write staged for same path")

	// Ledger input validation
	ErrIntensityOutOfRange = errors.New("emotion intensity must be between 1 and 10")
	ErrNoEmotions          = errors.New("at least one emotion tag is required")
	ErrEmptyUID            = errors.New("user id must not be empty")

	// Assistant boundary (text/voice service)
	ErrAssistantUnavailable = errors.New("assistant service unavailable")
	ErrEmptyResponse        = errors.New("assistant returned an empty response")
	ErrSpeechUnconfigured   = errors.New("speech endpoint not configured")
)
