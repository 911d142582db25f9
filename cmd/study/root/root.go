package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"studyline/internal/ui"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "study",
	Short:         "Studyline — spaced-repetition review with RPG progression",
	Long:          "Studyline is a local-first spaced-repetition trainer: SM-2 scheduling,\nXP/levels/gold, daily streaks and one-time milestones.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.AddCommand(
		newAddCmd(),
		newReviewCmd(),
		newDueCmd(),
		newStatusCmd(),
		newStatsCmd(),
		newClaimCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
