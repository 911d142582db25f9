package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studyline/internal/engine"
)

// UserRepo persists the per-user progression record with optimistic
// versioning. It implements engine.UserStore.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Get returns the user state and its version; a missing row yields the zero
// state at version 0. Invariant violations yield engine.ErrCorruptState with
// the stored version.
func (r *UserRepo) Get(ctx context.Context, userID string) (engine.UserState, int64, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT version, total_xp, gold, total_solved, total_correct, combo_count,
			daily_solved, daily_correct, daily_date,
			streak_days, last_active_date,
			flat_granted_on, goal_granted_on, accuracy_granted_on
		FROM user_state
		WHERE user_id = ?
	`, userID)

	var (
		version int64
		st      engine.UserState
	)
	err := row.Scan(&version, &st.TotalXP, &st.Gold, &st.TotalSolved, &st.TotalCorrect, &st.ComboCount,
		&st.DailySolved, &st.DailyCorrect, &st.DailyDate,
		&st.Streak.StreakDays, &st.Streak.LastActiveDate,
		&st.Grants.FlatGrantedOn, &st.Grants.GoalGrantedOn, &st.Grants.AccuracyGrantedOn)
	if err != nil {
		if err == sql.ErrNoRows {
			return engine.UserState{}, 0, nil
		}
		return engine.UserState{}, 0, fmt.Errorf("user get: %w", err)
	}
	if err := st.Validate(); err != nil {
		return engine.UserState{}, version, err
	}
	return st, version, nil
}

// Put writes the state conditioned on version being unchanged. Version 0
// inserts; losing either race returns engine.ErrStoreConflict.
func (r *UserRepo) Put(ctx context.Context, userID string, st engine.UserState, version int64) error {
	if version == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO user_state
				(user_id, version, total_xp, gold, total_solved, total_correct, combo_count,
				daily_solved, daily_correct, daily_date,
				streak_days, last_active_date,
				flat_granted_on, goal_granted_on, accuracy_granted_on)
			VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, userID, st.TotalXP, st.Gold, st.TotalSolved, st.TotalCorrect, st.ComboCount,
			st.DailySolved, st.DailyCorrect, st.DailyDate,
			st.Streak.StreakDays, st.Streak.LastActiveDate,
			st.Grants.FlatGrantedOn, st.Grants.GoalGrantedOn, st.Grants.AccuracyGrantedOn)
		if err != nil {
			return fmt.Errorf("user insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("user insert rows affected: %w", err)
		}
		if n == 0 {
			return engine.ErrStoreConflict
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE user_state
		SET version = version + 1,
			total_xp = ?, gold = ?, total_solved = ?, total_correct = ?, combo_count = ?,
			daily_solved = ?, daily_correct = ?, daily_date = ?,
			streak_days = ?, last_active_date = ?,
			flat_granted_on = ?, goal_granted_on = ?, accuracy_granted_on = ?
		WHERE user_id = ? AND version = ?
	`, st.TotalXP, st.Gold, st.TotalSolved, st.TotalCorrect, st.ComboCount,
		st.DailySolved, st.DailyCorrect, st.DailyDate,
		st.Streak.StreakDays, st.Streak.LastActiveDate,
		st.Grants.FlatGrantedOn, st.Grants.GoalGrantedOn, st.Grants.AccuracyGrantedOn,
		userID, version)
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user update rows affected: %w", err)
	}
	if n == 0 {
		return engine.ErrStoreConflict
	}
	return nil
}

// AwardRepo persists the set of milestones already granted to a user. It
// implements engine.AwardStore.
type AwardRepo struct {
	db *sql.DB
}

func NewAwardRepo(db *sql.DB) *AwardRepo {
	return &AwardRepo{db: db}
}

func (r *AwardRepo) List(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT milestone_id FROM awarded_milestones WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("award list: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("award list scan: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("award list rows: %w", err)
	}
	return out, nil
}

// Add records the given milestone ids. Re-adding an id is a no-op, which
// keeps milestone granting idempotent across retries.
func (r *AwardRepo) Add(ctx context.Context, userID string, ids []string) error {
	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO awarded_milestones (user_id, milestone_id) VALUES (?, ?)
		`, userID, id); err != nil {
			return fmt.Errorf("award add: %w", err)
		}
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
