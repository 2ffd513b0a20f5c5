package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahaara-app/sahaara/internal/daemon"
)

func init() {
	completeCmd.Flags().IntVar(&completePoints, "points", 0, "Points per challenge (overrides config)")
	rootCmd.AddCommand(completeCmd)
}

var completePoints int

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete today's daily challenge",
	Long: `Award the daily challenge for today. Awards at most once per day:
repeating the command returns the current stats unchanged.`,
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	uid, err := resolveUID(d.Config)
	if err != nil {
		return err
	}

	points := completePoints
	if points <= 0 {
		points = d.Config.Engagement.PointsPerChallenge
	}

	stats, err := d.Ledger.CompleteDailyChallenge(context.Background(), uid, points)
	if err != nil {
		return err
	}

	fmt.Println("Daily challenge recorded.")
	printStats(stats)
	return nil
}
