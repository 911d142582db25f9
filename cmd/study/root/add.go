package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"studyline/internal/engine"
	"studyline/internal/ui"
)

func newAddCmd() *cobra.Command {
	var difficulty string

	cmd := &cobra.Command{
		Use:   "add <prompt> <answer>",
		Short: "Add an item to the catalog",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("prompt and answer are required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			d, err := engine.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			id, err := a.items.Insert(ctx, args[0], args[1], d)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s added item %d (%s)\n", ui.IconPlus, id, ui.DifficultyText(string(d)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficulty, "diff", "d", "medium", "Difficulty (very_easy|easy|medium|hard|very_hard)")

	return cmd
}
