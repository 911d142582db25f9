package storage

import (
	"context"
	"database/sql"
	"fmt"

	"studyline/internal/engine"
)

// CardRepo persists per-item spaced-repetition state with optimistic
// versioning. It implements engine.CardStore.
type CardRepo struct {
	db *sql.DB
}

func NewCardRepo(db *sql.DB) *CardRepo {
	return &CardRepo{db: db}
}

// Get returns the card state and its version. A missing row yields the
// default state at version 0. A row violating the engine's invariants yields
// engine.ErrCorruptState together with the stored version so the caller can
// rebuild the entity in place.
func (r *CardRepo) Get(ctx context.Context, userID string, itemID int64) (engine.CardProgress, int64, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT version, ease_factor, repetitions, interval_days, last_review_at, mastered
		FROM card_progress
		WHERE user_id = ? AND item_id = ?
	`, userID, itemID)

	var (
		version    int64
		p          engine.CardProgress
		lastReview sql.NullTime
	)
	p.ItemID = itemID
	if err := row.Scan(&version, &p.EaseFactor, &p.Repetitions, &p.Interval, &lastReview, &p.Mastered); err != nil {
		if err == sql.ErrNoRows {
			return engine.NewCardProgress(itemID), 0, nil
		}
		return engine.CardProgress{}, 0, fmt.Errorf("card get: %w", err)
	}
	if lastReview.Valid {
		t := lastReview.Time
		p.LastReviewAt = &t
	}
	if err := p.Validate(); err != nil {
		return engine.CardProgress{}, version, err
	}
	return p, version, nil
}

func (r *CardRepo) List(ctx context.Context, userID string) (map[int64]engine.CardProgress, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, ease_factor, repetitions, interval_days, last_review_at, mastered
		FROM card_progress
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("card list: %w", err)
	}
	defer rows.Close()

	out := map[int64]engine.CardProgress{}
	for rows.Next() {
		var (
			p          engine.CardProgress
			lastReview sql.NullTime
		)
		if err := rows.Scan(&p.ItemID, &p.EaseFactor, &p.Repetitions, &p.Interval, &lastReview, &p.Mastered); err != nil {
			return nil, fmt.Errorf("card list scan: %w", err)
		}
		if lastReview.Valid {
			t := lastReview.Time
			p.LastReviewAt = &t
		}
		out[p.ItemID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("card list rows: %w", err)
	}
	return out, nil
}

// Put writes the state conditioned on version being unchanged. Version 0
// inserts; losing either race returns engine.ErrStoreConflict.
func (r *CardRepo) Put(ctx context.Context, userID string, p engine.CardProgress, version int64) error {
	if version == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO card_progress
				(user_id, item_id, version, ease_factor, repetitions, interval_days, last_review_at, mastered)
			VALUES (?, ?, 1, ?, ?, ?, ?, ?)
		`, userID, p.ItemID, p.EaseFactor, p.Repetitions, p.Interval, nullableTime(p.LastReviewAt), p.Mastered)
		if err != nil {
			return fmt.Errorf("card insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("card insert rows affected: %w", err)
		}
		if n == 0 {
			// Row appeared since our read.
			return engine.ErrStoreConflict
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE card_progress
		SET version = version + 1,
			ease_factor = ?, repetitions = ?, interval_days = ?, last_review_at = ?, mastered = ?
		WHERE user_id = ? AND item_id = ? AND version = ?
	`, p.EaseFactor, p.Repetitions, p.Interval, nullableTime(p.LastReviewAt), p.Mastered, userID, p.ItemID, version)
	if err != nil {
		return fmt.Errorf("card update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("card update rows affected: %w", err)
	}
	if n == 0 {
		return engine.ErrStoreConflict
	}
	return nil
}
