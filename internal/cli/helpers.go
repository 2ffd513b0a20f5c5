package cli

import (
	"fmt"

	"github.com/sahaara-app/sahaara/internal/daemon"
	"github.com/sahaara-app/sahaara/internal/domain"
)

// resolveUID picks the --uid flag, falling back to the configured default.
func resolveUID(cfg daemon.Config) (string, error) {
	if uidFlag != "" {
		return uidFlag, nil
	}
	if cfg.User.UID != "" {
		return cfg.User.UID, nil
	}
	return "", fmt.Errorf("no user id: pass --uid or set [user] uid in config")
}

// printStats renders a stats record the way every mutating command reports it.
func printStats(stats domain.UserStats) {
	fmt.Printf("Points:               %d\n", stats.Points)
	fmt.Printf("Current streak:       %d\n", stats.CurrentStreak)
	fmt.Printf("Longest streak:       %d\n", stats.LongestStreak)
	fmt.Printf("Challenges completed: %d\n", stats.ChallengesCompleted)
	fmt.Printf("Week of:              %s  (%d/%d days)\n",
		stats.WeeklyStartDate, len(stats.WeeklyCompletedDates), stats.WeeklyGoalDays)
}
