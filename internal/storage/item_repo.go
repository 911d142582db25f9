package storage

import (
	"context"
	"database/sql"
	"fmt"

	"studyline/internal/engine"
)

// ItemRepo is the sqlite-backed item catalog. It implements engine.Catalog;
// the surrounding application may substitute its own provider.
type ItemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

func (r *ItemRepo) ListItems(ctx context.Context) ([]engine.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, prompt, answer, difficulty FROM items ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("item list: %w", err)
	}
	defer rows.Close()

	var out []engine.Item
	for rows.Next() {
		var it engine.Item
		var diff string
		if err := rows.Scan(&it.ID, &it.Prompt, &it.Answer, &diff); err != nil {
			return nil, fmt.Errorf("item list scan: %w", err)
		}
		it.Difficulty = engine.Difficulty(diff)
		if !it.Difficulty.IsValid() {
			it.Difficulty = engine.DefaultDifficulty
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("item list rows: %w", err)
	}
	return out, nil
}

func (r *ItemRepo) Get(ctx context.Context, id int64) (*engine.Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, prompt, answer, difficulty FROM items WHERE id = ?
	`, id)
	var it engine.Item
	var diff string
	if err := row.Scan(&it.ID, &it.Prompt, &it.Answer, &diff); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("item get: %w", err)
	}
	it.Difficulty = engine.Difficulty(diff)
	if !it.Difficulty.IsValid() {
		it.Difficulty = engine.DefaultDifficulty
	}
	return &it, nil
}

func (r *ItemRepo) Insert(ctx context.Context, prompt, answer string, difficulty engine.Difficulty) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO items (prompt, answer, difficulty) VALUES (?, ?, ?)
	`, prompt, answer, string(difficulty))
	if err != nil {
		return 0, fmt.Errorf("item insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("item last insert id: %w", err)
	}
	return id, nil
}
