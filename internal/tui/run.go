package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"studyline/internal/engine"
)

// RunReview runs an interactive review session until the card limit is
// reached or the user quits.
func RunReview(ctx context.Context, svc *engine.Service, cat engine.Catalog, userID string, limit int, out io.Writer) error {
	m := newReviewModel(ctx, svc, cat, userID, limit)
	p := tea.NewProgram(m, tea.WithOutput(out))
	_, err := p.Run()
	return err
}
