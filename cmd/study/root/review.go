package root

import (
	"context"

	"github.com/spf13/cobra"

	"studyline/internal/tui"
)

func newReviewCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Start an interactive review session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			n := limit
			if n <= 0 {
				n = a.cfg.SessionSize
			}
			return tui.RunReview(ctx, a.svc, a.items, a.cfg.UserID, n, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Cards per session (default from config)")

	return cmd
}
