package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahaara-app/sahaara/internal/daemon"
)

func init() {
	trackCmd.Flags().IntVar(&trackGoalDays, "goal", 0, "Weekly goal in days (overrides stored goal)")
	trackCmd.Flags().IntVar(&trackPoints, "points", 0, "Points per challenge (overrides config)")
	rootCmd.AddCommand(trackCmd)
}

var (
	trackGoalDays int
	trackPoints   int
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track today against the weekly challenge",
	Long: `Add today to this week's tracked days. The weekly bonus pays out once
per week, the first time the tracked-day count reaches the goal; extra
calls are harmless.`,
	RunE: runTrack,
}

func runTrack(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	uid, err := resolveUID(d.Config)
	if err != nil {
		return err
	}

	points := trackPoints
	if points <= 0 {
		points = d.Config.Engagement.PointsPerChallenge
	}

	stats, err := d.Ledger.CompleteWeeklyDay(context.Background(), uid, trackGoalDays, points)
	if err != nil {
		return err
	}

	fmt.Println("Weekly day tracked.")
	printStats(stats)
	return nil
}
