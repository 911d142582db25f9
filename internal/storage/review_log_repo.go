package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studyline/internal/engine"
)

// ReviewLogRepo is the audit trail of scored answers. It implements
// engine.ReviewLog and backs the stats command.
type ReviewLogRepo struct {
	db *sql.DB
}

func NewReviewLogRepo(db *sql.DB) *ReviewLogRepo {
	return &ReviewLogRepo{db: db}
}

func (r *ReviewLogRepo) Insert(ctx context.Context, e engine.ReviewLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO review_log (id, user_id, item_id, quality, xp_awarded, gold_awarded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.ItemID, int(e.Quality), e.XP, e.Gold, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("review log insert: %w", err)
	}
	return nil
}

// Summary aggregates the log since the given time.
type Summary struct {
	Reviews int
	Correct int
	XP      int
	Gold    int
}

func (r *ReviewLogRepo) Summarize(ctx context.Context, userID string, since time.Time) (Summary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN quality >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(xp_awarded), 0),
			COALESCE(SUM(gold_awarded), 0)
		FROM review_log
		WHERE user_id = ? AND created_at >= ?
	`, int(engine.QualityGood), userID, since)

	var s Summary
	if err := row.Scan(&s.Reviews, &s.Correct, &s.XP, &s.Gold); err != nil {
		return Summary{}, fmt.Errorf("review log summarize: %w", err)
	}
	return s, nil
}

func (r *ReviewLogRepo) Recent(ctx context.Context, userID string, limit int) ([]engine.ReviewLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, quality, xp_awarded, gold_awarded, created_at
		FROM review_log
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("review log recent: %w", err)
	}
	defer rows.Close()

	var out []engine.ReviewLogEntry
	for rows.Next() {
		var e engine.ReviewLogEntry
		var q int
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemID, &q, &e.XP, &e.Gold, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("review log scan: %w", err)
		}
		e.Quality = engine.Quality(q)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("review log rows: %w", err)
	}
	return out, nil
}
