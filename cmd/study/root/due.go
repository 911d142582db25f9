package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"studyline/internal/engine"
	"studyline/internal/ui"
)

func newDueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List items due for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			items, err := a.items.ListItems(ctx)
			if err != nil {
				return err
			}
			progress, err := a.svc.CardProgressAll(ctx, a.cfg.UserID)
			if err != nil {
				return err
			}

			now := a.svc.Now()
			due, fresh := 0, 0
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconBook, "Review queue"))
			for _, it := range items {
				p, ok := progress[it.ID]
				switch {
				case !ok:
					fresh++
					fmt.Fprintf(cmd.OutOrStdout(), "- %d %s %s\n", it.ID, it.Prompt, ui.Muted.Render("(new)"))
				case engine.IsDue(p, now):
					due++
					fmt.Fprintf(cmd.OutOrStdout(), "- %d %s %s\n", it.ID, it.Prompt,
						ui.Warn.Render(fmt.Sprintf("(due, interval %dd, reps %d)", p.Interval, p.Repetitions)))
				}
			}
			if due == 0 && fresh == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("(nothing due — everything is scheduled ahead)"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", ui.LabelValue("Due / new", fmt.Sprintf("%d / %d", due, fresh)))
			return nil
		},
	}

	return cmd
}
