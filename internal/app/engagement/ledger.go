// Package engagement implements the Sahaara gamification ledger.
// Points, streaks and weekly-goal completion are bookkept atomically in the
// document store; concurrent completions from multiple devices race on the
// transaction, and the completion-guard markers keep every award
// at-most-once per day (daily) and per week (weekly bonus).
package engagement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sahaara-app/sahaara/internal/domain"
	"github.com/sahaara-app/sahaara/internal/infra/docstore"
	"github.com/sahaara-app/sahaara/internal/infra/metrics"
)

// Ledger is the single mutation path for UserStats, completion markers and
// the leaderboard projection. No other code writes those documents.
type Ledger struct {
	store *docstore.Store
	now   func() time.Time
	names func(uid string) string
}

// NewLedger creates a ledger over the given store. The wall clock and the
// display-name resolver are injectable; defaults are time.Now and anonymous
// entries.
func NewLedger(store *docstore.Store) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
		names: func(string) string { return "" },
	}
}

// SetClock overrides the ledger's clock. Tests pin it to fixed days.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// SetNameResolver sets the uid -> display name lookup used when upserting
// leaderboard entries.
func (l *Ledger) SetNameResolver(fn func(uid string) string) { l.names = fn }

// ─── Document paths ─────────────────────────────────────────────────────────

const (
	challengeDailyPath  = "challenges/daily"
	challengeWeeklyPath = "challenges/weekly"
)

func statsPath(uid string) string   { return "users/" + uid + "/data/stats" }
func profilePath(uid string) string { return "users/" + uid + "/data/profile" }

func emotionsCollection(uid string) string { return "users/" + uid + "/emotions" }

func emotionPath(uid, key string) string { return emotionsCollection(uid) + "/" + key }

func dailyCompletionPath(uid, key string) string {
	return "users/" + uid + "/dailyCompletions/" + key
}

func weeklyAwardPath(uid, weekKey string) string {
	return "users/" + uid + "/weeklyAwards/" + weekKey
}

func leaderboardPath(uid string) string { return "leaderboard/" + uid }

// ─── Stats lifecycle ────────────────────────────────────────────────────────

// EnsureStats creates the default stats document if the user has none.
// goalDays <= 0 keeps the default weekly goal.
func (l *Ledger) EnsureStats(ctx context.Context, uid string, goalDays int) error {
	if uid == "" {
		return domain.ErrEmptyUID
	}
	snap, err := l.store.Get(ctx, statsPath(uid))
	if err != nil {
		return fmt.Errorf("ensure stats: %w", err)
	}
	if snap.Exists() {
		return nil
	}
	if err := l.store.Set(ctx, statsPath(uid), domain.DefaultStats(l.now(), goalDays), false); err != nil {
		return fmt.Errorf("ensure stats: %w", err)
	}
	return nil
}

// Stats returns the user's current stats, or the zero-value default when the
// user has never completed anything.
func (l *Ledger) Stats(ctx context.Context, uid string) (domain.UserStats, error) {
	if uid == "" {
		return domain.UserStats{}, domain.ErrEmptyUID
	}
	snap, err := l.store.Get(ctx, statsPath(uid))
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("read stats: %w", err)
	}
	stats := domain.DefaultStats(l.now(), 0)
	if err := snap.DataTo(&stats); err != nil {
		return domain.UserStats{}, err
	}
	return stats, nil
}

// SubscribeStats opens a live subscription to the user's stats document.
// The callback fires with the current value and after every committed
// change; the returned cancel func releases the watch.
func (l *Ledger) SubscribeStats(ctx context.Context, uid string, cb func(domain.UserStats)) (func(), error) {
	if err := l.EnsureStats(ctx, uid, 0); err != nil {
		return nil, err
	}
	cancel, err := l.store.Watch(statsPath(uid), func(snap docstore.Snapshot) {
		stats := domain.DefaultStats(l.now(), 0)
		if err := snap.DataTo(&stats); err != nil {
			return // degrade to no update
		}
		cb(stats)
	})
	if err != nil {
		return nil, err
	}
	metrics.WatchesActive.WithLabelValues("stats").Inc()
	return func() {
		cancel()
		metrics.WatchesActive.WithLabelValues("stats").Dec()
	}, nil
}

// ─── Daily challenge ────────────────────────────────────────────────────────

// CompleteDailyChallenge awards today's daily challenge exactly once.
// points <= 0 selects the default award. The whole read-modify-write —
// guard check, weekly rollover, streak update, leaderboard upsert — commits
// atomically; a concurrent duplicate resolves to the guard branch and
// returns the post-award stats unchanged.
func (l *Ledger) CompleteDailyChallenge(ctx context.Context, uid string, points int) (domain.UserStats, error) {
	if uid == "" {
		return domain.UserStats{}, domain.ErrEmptyUID
	}
	if points <= 0 {
		points = domain.DefaultPointsPerChallenge
	}

	now := l.now()
	today := domain.DateKey(now)
	week := domain.WeekKey(now)

	var result domain.UserStats
	var awarded bool

	err := l.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		awarded = false

		statsSnap, err := tx.Get(statsPath(uid))
		if err != nil {
			return err
		}
		guardSnap, err := tx.Get(dailyCompletionPath(uid, today))
		if err != nil {
			return err
		}

		stats := domain.DefaultStats(now, 0)
		if err := statsSnap.DataTo(&stats); err != nil {
			return err
		}

		// Already completed today — return current state untouched.
		if guardSnap.Exists() {
			result = stats
			return nil
		}

		rolloverWeek(&stats, week)

		newStreak := 1
		if stats.LastCompletionDate != "" {
			gap, err := domain.DayGap(today, stats.LastCompletionDate)
			if err != nil {
				return err
			}
			switch {
			case gap == 1:
				newStreak = stats.CurrentStreak + 1
			case gap == 0:
				// Unreachable behind the guard; keep the streak if hit.
				newStreak = stats.CurrentStreak
				if newStreak == 0 {
					newStreak = 1
				}
			default:
				newStreak = 1
			}
		}

		stats.Points += points
		stats.CurrentStreak = newStreak
		if newStreak > stats.LongestStreak {
			stats.LongestStreak = newStreak
		}
		stats.ChallengesCompleted++
		stats.LastCompletionDate = today
		stats.LastDailyCompletionDate = today
		addWeeklyDay(&stats, today)

		if err := tx.Set(statsPath(uid), stats); err != nil {
			return err
		}
		if err := tx.Set(dailyCompletionPath(uid, today), domain.DailyCompletion{
			Completed: true,
			CreatedAt: now.UnixMilli(),
		}); err != nil {
			return err
		}
		if err := l.upsertLeaderboard(tx, uid, stats.Points); err != nil {
			return err
		}

		result = stats
		awarded = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflictRetryExhausted) {
			metrics.TxExhausted.Inc()
		}
		return domain.UserStats{}, fmt.Errorf("complete daily challenge: %w", err)
	}

	if awarded {
		metrics.TxCommitted.WithLabelValues("daily_complete").Inc()
		metrics.AwardsGranted.WithLabelValues("daily").Inc()
	} else {
		metrics.AwardsSuppressed.WithLabelValues("daily").Inc()
	}
	return result, nil
}

// ─── Weekly challenge ───────────────────────────────────────────────────────

// CompleteWeeklyDay tracks today against the weekly goal and pays the weekly
// bonus at most once per week, the first time the tracked-day set reaches
// the goal. Tracking the same day twice is a no-op on the set; calls beyond
// the goal never change points. goalDays > 0 overrides the stored goal —
// including mid-week, after days were tracked against the old goal.
func (l *Ledger) CompleteWeeklyDay(ctx context.Context, uid string, goalDays, points int) (domain.UserStats, error) {
	if uid == "" {
		return domain.UserStats{}, domain.ErrEmptyUID
	}
	if points <= 0 {
		points = domain.DefaultPointsPerChallenge
	}

	now := l.now()
	today := domain.DateKey(now)
	week := domain.WeekKey(now)

	var result domain.UserStats
	var awarded, changed bool

	err := l.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		awarded = false

		statsSnap, err := tx.Get(statsPath(uid))
		if err != nil {
			return err
		}
		awardSnap, err := tx.Get(weeklyAwardPath(uid, week))
		if err != nil {
			return err
		}

		stats := domain.DefaultStats(now, goalDays)
		if err := statsSnap.DataTo(&stats); err != nil {
			return err
		}

		changed = !statsSnap.Exists() || stats.WeeklyStartDate != week
		rolloverWeek(&stats, week)
		if goalDays > 0 && goalDays != stats.WeeklyGoalDays {
			stats.WeeklyGoalDays = goalDays
			changed = true
		}
		if stats.WeeklyGoalDays <= 0 {
			stats.WeeklyGoalDays = domain.DefaultWeeklyGoal
		}
		if !stats.HasWeeklyDay(today) {
			addWeeklyDay(&stats, today)
			changed = true
		}

		// The bonus never touches LastCompletionDate: streaks are earned by
		// daily completions only.
		if len(stats.WeeklyCompletedDates) >= stats.WeeklyGoalDays && !awardSnap.Exists() {
			stats.Points += points
			stats.ChallengesCompleted++
			if err := tx.Set(weeklyAwardPath(uid, week), domain.WeeklyAward{
				WeekStart: week,
				AwardedAt: now.UnixMilli(),
			}); err != nil {
				return err
			}
			awarded = true
			changed = true
		}

		result = stats
		if !changed {
			// Tracking an already-tracked day is a no-op: nothing to
			// commit, nothing for subscribers to re-read.
			return nil
		}

		if err := tx.Set(statsPath(uid), stats); err != nil {
			return err
		}
		return l.upsertLeaderboard(tx, uid, stats.Points)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflictRetryExhausted) {
			metrics.TxExhausted.Inc()
		}
		return domain.UserStats{}, fmt.Errorf("complete weekly day: %w", err)
	}

	if changed {
		metrics.TxCommitted.WithLabelValues("weekly_track").Inc()
	}
	if awarded {
		metrics.AwardsGranted.WithLabelValues("weekly").Inc()
	}
	return result, nil
}

// ─── Profile ────────────────────────────────────────────────────────────────

// SaveProfile merge-writes the user's presentation preferences.
func (l *Ledger) SaveProfile(ctx context.Context, uid string, p domain.Profile) error {
	if uid == "" {
		return domain.ErrEmptyUID
	}
	if err := l.store.Set(ctx, profilePath(uid), p, true); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Profile reads the user's profile; ok is false when none was ever saved.
func (l *Ledger) Profile(ctx context.Context, uid string) (domain.Profile, bool, error) {
	if uid == "" {
		return domain.Profile{}, false, domain.ErrEmptyUID
	}
	snap, err := l.store.Get(ctx, profilePath(uid))
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("read profile: %w", err)
	}
	var p domain.Profile
	if err := snap.DataTo(&p); err != nil {
		return domain.Profile{}, false, err
	}
	return p, snap.Exists(), nil
}

// ─── Shared transaction steps ───────────────────────────────────────────────

// rolloverWeek clears weekly-scoped state when the calendar advanced into a
// new week. It never touches points.
func rolloverWeek(stats *domain.UserStats, week string) {
	if stats.WeeklyStartDate != week {
		stats.WeeklyStartDate = week
		stats.WeeklyCompletedDates = []string{}
	}
}

// addWeeklyDay unions a DateKey into the week's tracked-day set.
func addWeeklyDay(stats *domain.UserStats, key string) {
	if stats.HasWeeklyDay(key) {
		return
	}
	stats.WeeklyCompletedDates = append(stats.WeeklyCompletedDates, key)
	sort.Strings(stats.WeeklyCompletedDates)
}

// upsertLeaderboard stages the denormalized projection write; merge keeps an
// existing display name when the resolver has none.
func (l *Ledger) upsertLeaderboard(tx *docstore.Tx, uid string, points int) error {
	entry := map[string]any{"uid": uid, "points": points}
	if name := l.names(uid); name != "" {
		entry["displayName"] = name
	}
	return tx.SetMerge(leaderboardPath(uid), entry)
}
