package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"studyline/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show progression, streak and milestones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			st, level, err := a.svc.Progression(ctx, a.cfg.UserID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Progression"))
			bar := ui.ProgressBar(level.CurrentXP, level.NextLevelXP, 30)
			fmt.Fprintln(out, ui.LabelValue("Level", fmt.Sprintf("%d %s %d%%", level.Level, bar, level.ProgressPercent)))
			fmt.Fprintln(out, ui.LabelValue("Total XP", st.TotalXP))
			fmt.Fprintln(out, ui.LabelValue("Gold", fmt.Sprintf("%d %s", st.Gold, ui.IconGold)))
			fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%d day(s) %s", st.Streak.StreakDays, ui.IconFlame)))
			fmt.Fprintln(out, ui.LabelValue("Today", fmt.Sprintf("%d solved, %d correct", st.DailySolved, st.DailyCorrect)))
			fmt.Fprintln(out, ui.LabelValue("All time", fmt.Sprintf("%d solved, %d correct", st.TotalSolved, st.TotalCorrect)))
			fmt.Fprintln(out, "")

			catalog, awarded, err := a.svc.AwardedMilestones(ctx, a.cfg.UserID)
			if err != nil {
				return err
			}
			earned := 0
			for _, ms := range catalog {
				if awarded[ms.ID] {
					earned++
				}
			}
			fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s Milestones (%d/%d)", ui.IconTrophy, earned, len(catalog))))
			for _, ms := range catalog {
				mark := ui.Muted.Render("·")
				name := ui.Muted.Render(ms.Name)
				if awarded[ms.ID] {
					mark = ui.Good.Render("✔")
					name = ms.Name
				}
				fmt.Fprintf(out, "%s %s %s %s\n", mark, ms.Icon, name,
					ui.Dim.Render(fmt.Sprintf("(%s ≥ %d, +%dxp/+%dg)", ms.Metric, ms.Threshold, ms.RewardXP, ms.RewardGold)))
			}

			cards, err := a.svc.CardProgressAll(ctx, a.cfg.UserID)
			if err != nil {
				return err
			}
			mastered := 0
			for _, p := range cards {
				if p.Mastered {
					mastered++
				}
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.LabelValue("Cards", fmt.Sprintf("%d tracked, %d mastered", len(cards), mastered)))
			return nil
		},
	}

	return cmd
}
