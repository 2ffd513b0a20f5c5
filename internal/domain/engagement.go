// Package domain — engagement ledger types.
// Points, streaks and weekly goals are mutated only inside document-store
// transactions; these structs are the JSON shapes those transactions move.
package domain

import "time"

// DefaultWeeklyGoal is the number of tracked days that completes the weekly
// challenge when no explicit goal is configured.
const DefaultWeeklyGoal = 4

// DefaultPointsPerChallenge is awarded per daily completion and per weekly
// goal completion.
const DefaultPointsPerChallenge = 50

// UserStats is the single live gamification record for a user.
// WeeklyCompletedDates only ever holds DateKeys of the week starting at
// WeeklyStartDate; rollover clears it before any mutation.
type UserStats struct {
	Points                  int      `json:"points"`
	CurrentStreak           int      `json:"currentStreak"`
	LongestStreak           int      `json:"longestStreak"`
	ChallengesCompleted     int      `json:"challengesCompleted"`
	LastCompletionDate      string   `json:"lastCompletionDate,omitempty"`
	LastDailyCompletionDate string   `json:"lastDailyCompletionDate,omitempty"`
	WeeklyStartDate         string   `json:"weeklyStartDate"`
	WeeklyGoalDays          int      `json:"weeklyGoalDays"`
	WeeklyCompletedDates    []string `json:"weeklyCompletedDates"`
}

// DefaultStats returns the zero-value stats record for a new user.
// goalDays <= 0 selects DefaultWeeklyGoal.
func DefaultStats(now time.Time, goalDays int) UserStats {
	if goalDays <= 0 {
		goalDays = DefaultWeeklyGoal
	}
	return UserStats{
		WeeklyStartDate:      WeekKey(now),
		WeeklyGoalDays:       goalDays,
		WeeklyCompletedDates: []string{},
	}
}

// HasWeeklyDay reports whether the given DateKey is already tracked for the
// current week.
func (s UserStats) HasWeeklyDay(key string) bool {
	for _, d := range s.WeeklyCompletedDates {
		if d == key {
			return true
		}
	}
	return false
}

// EmotionEntry is one append-only event-log record: the emotions a user
// reported for a single calendar day. ID always equals Date.
type EmotionEntry struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Emotions  []string `json:"emotions"`
	Intensity int      `json:"intensity"`
	CreatedAt int64    `json:"createdAt"` // unix milliseconds
}

// DailyCompletion is the existence-only idempotency marker for the daily
// challenge. Created once per user per DateKey, never updated or deleted.
type DailyCompletion struct {
	Completed bool  `json:"completed"`
	CreatedAt int64 `json:"createdAt"`
}

// WeeklyAward marks that the weekly bonus was paid for a given week.
// At most one exists per user per WeekKey.
type WeeklyAward struct {
	WeekStart string `json:"weekStart"`
	AwardedAt int64  `json:"awardedAt"`
}

// LeaderboardEntry is the denormalized per-user projection used for ranked
// reads. Points must eventually equal the user's UserStats.Points; it is
// written only as a side effect of points-changing transactions.
type LeaderboardEntry struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Points      int    `json:"points"`
}

// ChallengeType distinguishes the two catalog entries.
type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "daily"
	ChallengeWeekly ChallengeType = "weekly"
)

// ChallengeDefinition is externally managed configuration. The ledger only
// reads RewardPoints and GoalDays; it never writes these documents.
type ChallengeDefinition struct {
	ID           string        `json:"id"`
	Type         ChallengeType `json:"type"`
	Description  string        `json:"description"`
	RewardPoints int           `json:"rewardPoints"`
	GoalDays     int           `json:"goalDays,omitempty"`
}

// ActiveChallenges is the merged view of the two catalog documents.
type ActiveChallenges struct {
	Daily  *ChallengeDefinition `json:"daily,omitempty"`
	Weekly *ChallengeDefinition `json:"weekly,omitempty"`
}

// MoodPoint is one point of the weekly mood trend: the weekday the entry's
// DateKey falls on and its reported intensity.
type MoodPoint struct {
	Day       string `json:"day"`
	MoodScore int    `json:"moodScore"`
}

// EmotionSlice is one bar of the emotion breakdown histogram.
type EmotionSlice struct {
	Emotion    string `json:"emotion"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
}

// EmotionSummary is the derived read over the last week of emotion entries.
type EmotionSummary struct {
	Trend     []MoodPoint    `json:"trend"`
	Breakdown []EmotionSlice `json:"breakdown"`
}

// Profile holds the per-user presentation preferences synced across devices.
type Profile struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}
