package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sahaara-app/sahaara/internal/daemon"
)

func init() {
	leaderboardCmd.Flags().IntVar(&leaderboardTop, "top", 0, "How many entries to show (overrides config)")
	rootCmd.AddCommand(leaderboardCmd)
}

var leaderboardTop int

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"lb"},
	Short:   "Show the points leaderboard",
	RunE:    runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	topN := leaderboardTop
	if topN <= 0 {
		topN = d.Config.Engagement.LeaderboardSize
	}

	entries, err := d.Ledger.Leaderboard(context.Background(), topN)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No leaderboard entries yet. Complete a challenge to get on the board.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tPOINTS")
	for i, e := range entries {
		name := e.DisplayName
		if name == "" {
			name = e.UID
		}
		fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, name, e.Points)
	}
	return w.Flush()
}
