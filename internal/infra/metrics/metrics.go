// Package metrics provides Prometheus metrics for the Sahaara engine:
// ledger transactions, awards, emotion entries, and live watches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger transactions ────────────────────────────────────────────────────

// TxCommitted counts committed ledger transactions by operation
// ("daily_complete", "weekly_track").
var TxCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sahaara",
	Name:      "ledger_tx_committed_total",
	Help:      "Total committed ledger transactions.",
}, []string{"op"})

// TxConflicts counts optimistic-concurrency retries.
var TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sahaara",
	Name:      "ledger_tx_conflicts_total",
	Help:      "Total transaction retries caused by write conflicts.",
})

// TxExhausted counts transactions that gave up after bounded retries.
var TxExhausted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sahaara",
	Name:      "ledger_tx_retry_exhausted_total",
	Help:      "Total transactions abandoned after exhausting conflict retries.",
})

// ─── Awards ─────────────────────────────────────────────────────────────────

// AwardsGranted counts point awards by kind ("daily", "weekly").
var AwardsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sahaara",
	Name:      "awards_granted_total",
	Help:      "Total challenge awards granted.",
}, []string{"kind"})

// AwardsSuppressed counts calls stopped by an idempotency guard.
var AwardsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sahaara",
	Name:      "awards_suppressed_total",
	Help:      "Total award attempts suppressed by completion guards.",
}, []string{"kind"})

// ─── Event log ──────────────────────────────────────────────────────────────

// EmotionsRecorded counts emotion entries written (upserts included).
var EmotionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sahaara",
	Name:      "emotions_recorded_total",
	Help:      "Total emotion entries recorded.",
})

// ─── Subscriptions ──────────────────────────────────────────────────────────

// WatchesActive tracks currently open live subscriptions by kind
// ("stats", "leaderboard", "challenges", "summary").
var WatchesActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "sahaara",
	Name:      "watches_active",
	Help:      "Number of open live subscriptions.",
}, []string{"kind"})
