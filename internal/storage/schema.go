package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			prompt TEXT NOT NULL,
			answer TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'medium',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		// Versioned per (user, item); writes are conditioned on version.
		`CREATE TABLE IF NOT EXISTS card_progress (
			user_id TEXT NOT NULL,
			item_id INTEGER NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,

			ease_factor REAL NOT NULL DEFAULT 2.5,
			repetitions INTEGER NOT NULL DEFAULT 0,
			interval_days INTEGER NOT NULL DEFAULT 1,
			last_review_at DATETIME,
			mastered INTEGER NOT NULL DEFAULT 0,

			PRIMARY KEY (user_id, item_id),
			FOREIGN KEY(item_id) REFERENCES items(id)
		);`,
		`CREATE TABLE IF NOT EXISTS user_state (
			user_id TEXT PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,

			total_xp INTEGER NOT NULL DEFAULT 0,
			gold INTEGER NOT NULL DEFAULT 0,
			total_solved INTEGER NOT NULL DEFAULT 0,
			total_correct INTEGER NOT NULL DEFAULT 0,
			combo_count INTEGER NOT NULL DEFAULT 0,

			daily_solved INTEGER NOT NULL DEFAULT 0,
			daily_correct INTEGER NOT NULL DEFAULT 0,
			daily_date TEXT NOT NULL DEFAULT '',

			streak_days INTEGER NOT NULL DEFAULT 0,
			last_active_date TEXT NOT NULL DEFAULT '',

			flat_granted_on TEXT NOT NULL DEFAULT '',
			goal_granted_on TEXT NOT NULL DEFAULT '',
			accuracy_granted_on TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS awarded_milestones (
			user_id TEXT NOT NULL,
			milestone_id TEXT NOT NULL,
			awarded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, milestone_id)
		);`,
		// Audit trail of scored answers; feeds the stats command.
		`CREATE TABLE IF NOT EXISTS review_log (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			item_id INTEGER NOT NULL,
			quality INTEGER NOT NULL,
			xp_awarded INTEGER NOT NULL,
			gold_awarded INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_card_progress_user_id ON card_progress(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_review_log_user_id_created_at ON review_log(user_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
