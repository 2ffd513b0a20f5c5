package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sahaara-app/sahaara/internal/daemon"
)

func init() {
	emotionCmd.Flags().IntVar(&emotionIntensity, "intensity", 5, "Mood intensity, 1-10")
	emotionCmd.Flags().StringVar(&emotionDate, "date", "", "Day to record (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(emotionCmd)
}

var (
	emotionIntensity int
	emotionDate      string
)

var emotionCmd = &cobra.Command{
	Use:   "emotion <tag> [tag...]",
	Short: "Record today's emotion check-in",
	Long: `Record emotion tags and intensity for one day. Recording twice for the
same day overwrites — the event log keeps one entry per day.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmotion,
}

func runEmotion(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	uid, err := resolveUID(d.Config)
	if err != nil {
		return err
	}

	err = d.Ledger.RecordEmotion(context.Background(), uid, args, emotionIntensity, emotionDate)
	if err != nil {
		return err
	}

	day := emotionDate
	if day == "" {
		day = "today"
	}
	fmt.Printf("Recorded %s (intensity %d) for %s.\n", strings.Join(args, ", "), emotionIntensity, day)
	return nil
}
