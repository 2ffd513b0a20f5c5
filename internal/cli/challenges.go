package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahaara-app/sahaara/internal/daemon"
	"github.com/sahaara-app/sahaara/internal/domain"
)

func init() {
	rootCmd.AddCommand(challengesCmd)
}

var challengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "Show the active challenge definitions",
	RunE:  runChallenges,
}

func runChallenges(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	active, err := d.Ledger.Challenges(context.Background())
	if err != nil {
		return err
	}

	if active.Daily == nil && active.Weekly == nil {
		fmt.Println("No challenge definitions published.")
		return nil
	}

	printChallenge("Daily", active.Daily)
	printChallenge("Weekly", active.Weekly)
	return nil
}

func printChallenge(label string, def *domain.ChallengeDefinition) {
	if def == nil {
		return
	}
	fmt.Printf("%s: %s (%d points", label, def.Description, def.RewardPoints)
	if def.GoalDays > 0 {
		fmt.Printf(", goal %d days", def.GoalDays)
	}
	fmt.Println(")")
}
