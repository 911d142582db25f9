package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studyline/internal/ui"
)

func newStatsCmd() *cobra.Command {
	var days int
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show review statistics from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			since := a.svc.Now().AddDate(0, 0, -days)
			sum, err := a.log.Summarize(ctx, a.cfg.UserID, since)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconTarget, fmt.Sprintf("Last %d day(s)", days)))
			fmt.Fprintln(out, ui.LabelValue("Reviews", sum.Reviews))
			accuracy := 0
			if sum.Reviews > 0 {
				accuracy = sum.Correct * 100 / sum.Reviews
			}
			fmt.Fprintln(out, ui.LabelValue("Correct", fmt.Sprintf("%d (%d%%)", sum.Correct, accuracy)))
			fmt.Fprintln(out, ui.LabelValue("XP", sum.XP))
			fmt.Fprintln(out, ui.LabelValue("Gold", sum.Gold))

			if recent > 0 {
				entries, err := a.log.Recent(ctx, a.cfg.UserID, recent)
				if err != nil {
					return err
				}
				if len(entries) > 0 {
					fmt.Fprintln(out, "")
					fmt.Fprintln(out, ui.H2.Render("Recent reviews"))
					for _, e := range entries {
						fmt.Fprintf(out, "- %s item %d q=%d +%dxp\n",
							ui.Muted.Render(e.CreatedAt.Format(time.DateTime)), e.ItemID, int(e.Quality), e.XP)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Window size in days")
	cmd.Flags().IntVar(&recent, "recent", 10, "How many recent reviews to list (0 to hide)")

	return cmd
}
