package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahaara-app/sahaara/internal/daemon"
)

func init() {
	statsCmd.Flags().BoolVar(&statsSummary, "summary", false, "Include the weekly mood summary")
	rootCmd.AddCommand(statsCmd)
}

var statsSummary bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show points, streaks and weekly progress",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	uid, err := resolveUID(d.Config)
	if err != nil {
		return err
	}

	stats, err := d.Ledger.Stats(context.Background(), uid)
	if err != nil {
		return err
	}
	printStats(stats)

	if !statsSummary {
		return nil
	}

	summary, err := d.Ledger.WeeklySummary(context.Background(), uid)
	if err != nil {
		return err
	}

	if len(summary.Trend) > 0 {
		fmt.Println("\nMood trend:")
		for _, p := range summary.Trend {
			fmt.Printf("  %s  %d/10\n", p.Day, p.MoodScore)
		}
	}
	if len(summary.Breakdown) > 0 {
		fmt.Println("\nEmotions:")
		for _, slice := range summary.Breakdown {
			fmt.Printf("  %-12s %d%%\n", slice.Emotion, slice.Percentage)
		}
	}
	return nil
}
