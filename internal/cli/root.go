// Package cli implements the Sahaara command-line interface using Cobra.
// Each subcommand maps to one ledger capability (complete, track, emotion,
// stats, leaderboard, serve).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sahaara",
	Short: "Sahaara — wellness engagement engine",
	Long: `Sahaara engine: the gamification ledger behind the Sahaara wellness app.
Tracks daily and weekly challenge completion, points, streaks, emotion
check-ins and the leaderboard, with an HTTP API for clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// uidFlag overrides the configured default user for a single invocation.
var uidFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&uidFlag, "uid", "", "User id (overrides config)")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
