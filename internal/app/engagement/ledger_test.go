package engagement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sahaara-app/sahaara/internal/app/engagement"
	"github.com/sahaara-app/sahaara/internal/domain"
	"github.com/sahaara-app/sahaara/internal/infra/docstore"
	"github.com/sahaara-app/sahaara/internal/infra/metrics"
)

// testLedger creates a ledger over a temporary document store.
func testLedger(t *testing.T) (*engagement.Ledger, *docstore.Store) {
	t.Helper()
	store, err := docstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return engagement.NewLedger(store), store
}

// onDay pins the ledger clock to noon of the given DateKey.
func onDay(t *testing.T, l *engagement.Ledger, key string) {
	t.Helper()
	day, err := domain.ParseDateKey(key, time.UTC)
	if err != nil {
		t.Fatalf("parse %s: %v", key, err)
	}
	noon := day.Add(12 * time.Hour)
	l.SetClock(func() time.Time { return noon })
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Challenge Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestDaily_NewUserScenario(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()

	onDay(t, l, "2024-01-01")
	stats, err := l.CompleteDailyChallenge(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStats(t, stats, 50, 1, 1, 1)

	// Same day again — guard branch, unchanged
	stats, err = l.CompleteDailyChallenge(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	assertStats(t, stats, 50, 1, 1, 1)

	// Next day — streak extends
	onDay(t, l, "2024-01-02")
	stats, err = l.CompleteDailyChallenge(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("day 2: %v", err)
	}
	assertStats(t, stats, 100, 2, 2, 2)

	// Gap of 3 days — streak resets, longest survives
	onDay(t, l, "2024-01-05")
	stats, err = l.CompleteDailyChallenge(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("day 5: %v", err)
	}
	assertStats(t, stats, 150, 1, 2, 3)
}

func TestDaily_AtMostOneAwardUnderConcurrency(t *testing.T) {
	l, _ := testLedger(t)
	onDay(t, l, "2024-03-11")

	const callers = 8
	results := make([]domain.UserStats, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.CompleteDailyChallenge(context.Background(), "u1", 0)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	for i, stats := range results {
		if stats.Points != 50 || stats.ChallengesCompleted != 1 {
			t.Errorf("caller %d saw points=%d completed=%d, want 50/1",
				i, stats.Points, stats.ChallengesCompleted)
		}
	}

	final, err := l.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if final.Points != 50 {
		t.Errorf("expected exactly one award, got %d points", final.Points)
	}
}

func TestDaily_LongestStreakNeverDecreases(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()

	days := []string{"2024-02-05", "2024-02-06", "2024-02-07", "2024-02-12", "2024-02-13"}
	longest := 0
	for _, day := range days {
		onDay(t, l, day)
		stats, err := l.CompleteDailyChallenge(ctx, "u1", 0)
		if err != nil {
			t.Fatalf("%s: %v", day, err)
		}
		if stats.LongestStreak < longest {
			t.Errorf("%s: longest streak decreased %d -> %d", day, longest, stats.LongestStreak)
		}
		longest = stats.LongestStreak
	}
	if longest != 3 {
		t.Errorf("expected longest 3, got %d", longest)
	}
}

func TestDaily_StreakIgnoresWeeklyBonus(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()

	onDay(t, l, "2024-01-01")
	if _, err := l.CompleteDailyChallenge(ctx, "u1", 0); err != nil {
		t.Fatalf("monday daily: %v", err)
	}

	// A weekly bonus on Tuesday pays points but is not a daily completion,
	// so it must not bridge the streak over the missed day.
	onDay(t, l, "2024-01-02")
	stats, err := l.CompleteWeeklyDay(ctx, "u1", 1, 0)
	if err != nil {
		t.Fatalf("tuesday weekly: %v", err)
	}
	if stats.Points != 100 {
		t.Fatalf("expected daily + weekly points, got %d", stats.Points)
	}
	if stats.LastCompletionDate != "2024-01-01" {
		t.Errorf("weekly bonus moved lastCompletionDate to %s", stats.LastCompletionDate)
	}

	onDay(t, l, "2024-01-03")
	stats, err = l.CompleteDailyChallenge(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("wednesday daily: %v", err)
	}
	if stats.CurrentStreak != 1 {
		t.Errorf("streak = %d after a missed daily, want reset to 1", stats.CurrentStreak)
	}
}

func TestDaily_WeeklyRolloverClearsTrackedDays(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()

	onDay(t, l, "2024-01-07") // Sunday, week of 2024-01-01
	if _, err := l.CompleteDailyChallenge(ctx, "u1", 0); err != nil {
		t.Fatalf("sunday: %v", err)
	}

	onDay(t, l, "2024-01-08") // Monday, next week
	stats, err := l.CompleteDailyChallenge(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("monday: %v", err)
	}
	if stats.WeeklyStartDate != "2024-01-08" {
		t.Errorf("expected week start 2024-01-08, got %s", stats.WeeklyStartDate)
	}
	if len(stats.WeeklyCompletedDates) != 1 || stats.WeeklyCompletedDates[0] != "2024-01-08" {
		t.Errorf("expected tracked days [2024-01-08], got %v", stats.WeeklyCompletedDates)
	}
	// Streak crosses the week boundary untouched
	if stats.CurrentStreak != 2 {
		t.Errorf("expected streak 2 across rollover, got %d", stats.CurrentStreak)
	}
}

func TestDaily_CustomPoints(t *testing.T) {
	l, _ := testLedger(t)
	onDay(t, l, "2024-01-01")

	stats, err := l.CompleteDailyChallenge(context.Background(), "u1", 75)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if stats.Points != 75 {
		t.Errorf("expected 75 points, got %d", stats.Points)
	}
}

func TestDaily_EmptyUID(t *testing.T) {
	l, _ := testLedger(t)
	if _, err := l.CompleteDailyChallenge(context.Background(), "", 0); err != domain.ErrEmptyUID {
		t.Errorf("expected ErrEmptyUID, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Weekly Challenge Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestWeekly_GoalScenario(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()

	// Track Monday through Thursday; the 4th call pays the bonus.
	days := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}
	var stats domain.UserStats
	var err error
	for i, day := range days {
		onDay(t, l, day)
		stats, err = l.CompleteWeeklyDay(ctx, "u1", 0, 0)
		if err != nil {
			t.Fatalf("%s: %v", day, err)
		}
		if i < 3 && stats.Points != 0 {
			t.Errorf("%s: points before goal, got %d", day, stats.Points)
		}
	}
	if stats.Points != 50 || stats.ChallengesCompleted != 1 {
		t.Fatalf("expected 50 points / 1 completion at goal, got %d/%d",
			stats.Points, stats.ChallengesCompleted)
	}
	if len(stats.WeeklyCompletedDates) != 4 {
		t.Errorf("expected 4 tracked days, got %v", stats.WeeklyCompletedDates)
	}

	// 5th call same week — set grows, points do not.
	onDay(t, l, "2024-01-05")
	stats, err = l.CompleteWeeklyDay(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("friday: %v", err)
	}
	if stats.Points != 50 {
		t.Errorf("expected bonus paid once, got %d points", stats.Points)
	}
	if len(stats.WeeklyCompletedDates) != 5 {
		t.Errorf("expected 5 tracked days, got %v", stats.WeeklyCompletedDates)
	}
}

func TestWeekly_SameDayIdempotent(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()
	onDay(t, l, "2024-01-03")

	for i := 0; i < 3; i++ {
		stats, err := l.CompleteWeeklyDay(ctx, "u1", 0, 0)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(stats.WeeklyCompletedDates) != 1 {
			t.Errorf("call %d: expected 1 tracked day, got %v", i, stats.WeeklyCompletedDates)
		}
		if stats.Points != 0 {
			t.Errorf("call %d: unexpected points %d", i, stats.Points)
		}
	}
}

func TestWeekly_AtMostOneBonusUnderConcurrency(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()

	// Three days tracked; the goal-reaching 4th day arrives from many
	// clients at once.
	for _, day := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		onDay(t, l, day)
		if _, err := l.CompleteWeeklyDay(ctx, "u1", 0, 0); err != nil {
			t.Fatalf("%s: %v", day, err)
		}
	}
	onDay(t, l, "2024-01-04")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.CompleteWeeklyDay(context.Background(), "u1", 0, 0)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}

	stats, err := l.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Points != 50 || stats.ChallengesCompleted != 1 {
		t.Errorf("expected one bonus (50/1), got %d/%d", stats.Points, stats.ChallengesCompleted)
	}
}

func TestWeekly_NoOpDoesNotCountAsCommit(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()
	onDay(t, l, "2024-01-03")

	committed := metrics.TxCommitted.WithLabelValues("weekly_track")
	before := testutil.ToFloat64(committed)

	if _, err := l.CompleteWeeklyDay(ctx, "u1", 0, 0); err != nil {
		t.Fatalf("first track: %v", err)
	}
	if got := testutil.ToFloat64(committed) - before; got != 1 {
		t.Fatalf("commits after first track = %v, want 1", got)
	}

	// Re-tracking the same day stages no writes and commits nothing.
	if _, err := l.CompleteWeeklyDay(ctx, "u1", 0, 0); err != nil {
		t.Fatalf("repeat track: %v", err)
	}
	if got := testutil.ToFloat64(committed) - before; got != 1 {
		t.Errorf("commits after no-op repeat = %v, want still 1", got)
	}
}

func TestWeekly_RolloverResetsSetAndAwardsAgain(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()

	// Meet a 2-day goal in week one.
	onDay(t, l, "2024-01-01")
	if _, err := l.CompleteWeeklyDay(ctx, "u1", 2, 0); err != nil {
		t.Fatalf("w1 day1: %v", err)
	}
	onDay(t, l, "2024-01-02")
	stats, err := l.CompleteWeeklyDay(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("w1 day2: %v", err)
	}
	if stats.Points != 50 {
		t.Fatalf("expected week-one bonus, got %d", stats.Points)
	}

	// Next week starts clean and can earn its own bonus.
	onDay(t, l, "2024-01-08")
	stats, err = l.CompleteWeeklyDay(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("w2 day1: %v", err)
	}
	if len(stats.WeeklyCompletedDates) != 1 {
		t.Errorf("expected fresh set after rollover, got %v", stats.WeeklyCompletedDates)
	}
	onDay(t, l, "2024-01-09")
	stats, err = l.CompleteWeeklyDay(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("w2 day2: %v", err)
	}
	if stats.Points != 100 {
		t.Errorf("expected second bonus in week two, got %d", stats.Points)
	}
}

func TestWeekly_GoalOverrideMidWeek(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()

	onDay(t, l, "2024-01-01")
	if _, err := l.CompleteWeeklyDay(ctx, "u1", 0, 0); err != nil {
		t.Fatalf("day1: %v", err)
	}

	// Lowering the goal to 2 mid-week makes the second tracked day pay out.
	onDay(t, l, "2024-01-02")
	stats, err := l.CompleteWeeklyDay(ctx, "u1", 2, 0)
	if err != nil {
		t.Fatalf("day2: %v", err)
	}
	if stats.WeeklyGoalDays != 2 {
		t.Errorf("expected goal 2, got %d", stats.WeeklyGoalDays)
	}
	if stats.Points != 50 {
		t.Errorf("expected bonus at lowered goal, got %d points", stats.Points)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Consistency
// ═══════════════════════════════════════════════════════════════════════════

func TestLeaderboard_MatchesStatsAfterEveryAward(t *testing.T) {
	l, store := testLedger(t)
	ctx := context.Background()
	l.SetNameResolver(func(uid string) string { return "Asha" })

	onDay(t, l, "2024-01-01")
	if _, err := l.CompleteDailyChallenge(ctx, "u1", 0); err != nil {
		t.Fatalf("daily: %v", err)
	}
	if _, err := l.CompleteWeeklyDay(ctx, "u1", 1, 0); err != nil {
		t.Fatalf("weekly: %v", err)
	}

	stats, err := l.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	snap, err := store.Get(ctx, "leaderboard/u1")
	if err != nil {
		t.Fatalf("get projection: %v", err)
	}
	var entry domain.LeaderboardEntry
	if err := snap.DataTo(&entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.Points != stats.Points {
		t.Errorf("projection points %d != stats points %d", entry.Points, stats.Points)
	}
	if entry.DisplayName != "Asha" {
		t.Errorf("expected display name Asha, got %q", entry.DisplayName)
	}
}

func TestLeaderboard_RankedOrder(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()
	onDay(t, l, "2024-01-01")

	for i, uid := range []string{"low", "high", "mid"} {
		points := []int{10, 90, 40}[i]
		if _, err := l.CompleteDailyChallenge(ctx, uid, points); err != nil {
			t.Fatalf("%s: %v", uid, err)
		}
	}

	entries, err := l.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected top 2, got %d entries", len(entries))
	}
	if entries[0].UID != "high" || entries[1].UID != "mid" {
		t.Errorf("expected [high mid], got [%s %s]", entries[0].UID, entries[1].UID)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Stats lifecycle
// ═══════════════════════════════════════════════════════════════════════════

func TestEnsureStats_DefaultsOnce(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()
	onDay(t, l, "2024-01-03") // Wednesday

	if err := l.EnsureStats(ctx, "u1", 0); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	stats, err := l.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.WeeklyGoalDays != domain.DefaultWeeklyGoal {
		t.Errorf("expected default goal, got %d", stats.WeeklyGoalDays)
	}
	if stats.WeeklyStartDate != "2024-01-01" {
		t.Errorf("expected week start 2024-01-01, got %s", stats.WeeklyStartDate)
	}

	// A second ensure with a different goal must not clobber the document.
	if err := l.EnsureStats(ctx, "u1", 6); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	stats, _ = l.Stats(ctx, "u1")
	if stats.WeeklyGoalDays != domain.DefaultWeeklyGoal {
		t.Errorf("ensure overwrote existing stats: goal %d", stats.WeeklyGoalDays)
	}
}

func TestSubscribeStats_PushesOnEveryCommit(t *testing.T) {
	l, _ := testLedger(t)
	ctx := context.Background()
	onDay(t, l, "2024-01-01")

	var pushes []domain.UserStats
	cancel, err := l.SubscribeStats(ctx, "u1", func(stats domain.UserStats) {
		pushes = append(pushes, stats)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if len(pushes) != 1 {
		t.Fatalf("expected initial push, got %d", len(pushes))
	}

	if _, err := l.CompleteDailyChallenge(ctx, "u1", 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(pushes) != 2 {
		t.Fatalf("expected push after commit, got %d", len(pushes))
	}
	if pushes[1].Points != 50 {
		t.Errorf("expected 50 points in push, got %d", pushes[1].Points)
	}

	cancel()
	onDay(t, l, "2024-01-02")
	if _, err := l.CompleteDailyChallenge(ctx, "u1", 0); err != nil {
		t.Fatalf("complete 2: %v", err)
	}
	if len(pushes) != 2 {
		t.Errorf("push after cancel: got %d", len(pushes))
	}
}

// assertStats checks the four counters the scenarios pin down.
func assertStats(t *testing.T, stats domain.UserStats, points, current, longest, completed int) {
	t.Helper()
	if stats.Points != points {
		t.Errorf("points = %d, want %d", stats.Points, points)
	}
	if stats.CurrentStreak != current {
		t.Errorf("currentStreak = %d, want %d", stats.CurrentStreak, current)
	}
	if stats.LongestStreak != longest {
		t.Errorf("longestStreak = %d, want %d", stats.LongestStreak, longest)
	}
	if stats.ChallengesCompleted != completed {
		t.Errorf("challengesCompleted = %d, want %d", stats.ChallengesCompleted, completed)
	}
}
