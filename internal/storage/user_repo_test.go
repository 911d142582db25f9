package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"studyline/internal/engine"
)

func TestUserRepoMissingReturnsZeroState(t *testing.T) {
	repo := NewUserRepo(openTestDB(t))

	st, version, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.EqualValues(t, 0, version)
	require.Equal(t, engine.UserState{}, st)
}

func TestUserRepoRoundtrip(t *testing.T) {
	repo := NewUserRepo(openTestDB(t))
	ctx := context.Background()

	st := engine.UserState{
		TotalXP:      113,
		Gold:         4,
		TotalSolved:  20,
		TotalCorrect: 17,
		ComboCount:   3,
		DailySolved:  5,
		DailyCorrect: 4,
		DailyDate:    "2024-06-01",
		Streak:       engine.StreakState{StreakDays: 6, LastActiveDate: "2024-06-01"},
		Grants:       engine.DailyGrants{FlatGrantedOn: "2024-05-31"},
	}
	require.NoError(t, repo.Put(ctx, "u1", st, 0))

	got, version, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 1, version)
	require.Equal(t, st, got)

	got.TotalXP += 8
	require.NoError(t, repo.Put(ctx, "u1", got, version))

	got2, version, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 2, version)
	require.Equal(t, 121, got2.TotalXP)
}

func TestUserRepoStaleVersionConflicts(t *testing.T) {
	repo := NewUserRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "u1", engine.UserState{}, 0))
	require.ErrorIs(t, repo.Put(ctx, "u1", engine.UserState{}, 0), engine.ErrStoreConflict)
	require.ErrorIs(t, repo.Put(ctx, "u1", engine.UserState{}, 9), engine.ErrStoreConflict)
}

func TestUserRepoCorruptRowRecoverable(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO user_state (user_id, version, total_xp) VALUES ('u1', 5, -10)
	`)
	require.NoError(t, err)

	_, version, err := repo.Get(ctx, "u1")
	require.ErrorIs(t, err, engine.ErrCorruptState)
	require.EqualValues(t, 5, version)

	require.NoError(t, repo.Put(ctx, "u1", engine.UserState{}, version))

	st, version, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 6, version)
	require.Equal(t, 0, st.TotalXP)
}

func TestAwardRepoAddIdempotent(t *testing.T) {
	repo := NewAwardRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "u1", []string{"xp_100", "streak_3"}))
	require.NoError(t, repo.Add(ctx, "u1", []string{"xp_100"}))

	awarded, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"xp_100": true, "streak_3": true}, awarded)

	other, err := repo.List(ctx, "other")
	require.NoError(t, err)
	require.Empty(t, other)
}
