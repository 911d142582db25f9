package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"studyline/internal/ui"
)

func newClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim today's daily reward",
		Long:  "Settles today's solved/correct counters into XP and gold.\nEach component is granted at most once per day, so claiming again is safe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.svc.ClaimDaily(ctx, a.cfg.UserID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.XP == 0 && res.Gold == 0 {
				fmt.Fprintln(out, ui.Muted.Render("Nothing to claim right now — already granted today."))
				return nil
			}
			fmt.Fprintln(out, ui.Heading(ui.IconDone, "Daily reward"))
			fmt.Fprintln(out, ui.LabelValue("XP", fmt.Sprintf("+%d", res.XP)))
			if res.Gold > 0 {
				fmt.Fprintln(out, ui.LabelValue("Gold", fmt.Sprintf("+%d %s", res.Gold, ui.IconGold)))
			}
			for _, tag := range res.Bonuses {
				fmt.Fprintf(out, "%s bonus: %s\n", ui.IconSparkle, ui.Gold.Render(string(tag)))
			}
			fmt.Fprintln(out, ui.Dim.Render(fmt.Sprintf("today: %d solved, %d correct", res.DailySolved, res.DailyCorrect)))
			return nil
		},
	}

	return cmd
}
