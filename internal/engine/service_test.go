package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

// Map-backed stores honoring the versioned read / conditional write contract.

type memCardStore struct {
	cards    map[int64]CardProgress
	versions map[int64]int64
	// forced Put failures remaining, for conflict-retry tests
	conflicts int
}

func newMemCardStore() *memCardStore {
	return &memCardStore{cards: map[int64]CardProgress{}, versions: map[int64]int64{}}
}

func (s *memCardStore) Get(_ context.Context, _ string, itemID int64) (CardProgress, int64, error) {
	p, ok := s.cards[itemID]
	if !ok {
		return NewCardProgress(itemID), 0, nil
	}
	return p, s.versions[itemID], nil
}

func (s *memCardStore) List(_ context.Context, _ string) (map[int64]CardProgress, error) {
	out := map[int64]CardProgress{}
	for id, p := range s.cards {
		out[id] = p
	}
	return out, nil
}

func (s *memCardStore) Put(_ context.Context, _ string, p CardProgress, version int64) error {
	if s.conflicts > 0 {
		s.conflicts--
		return ErrStoreConflict
	}
	if s.versions[p.ItemID] != version {
		return ErrStoreConflict
	}
	s.cards[p.ItemID] = p
	s.versions[p.ItemID] = version + 1
	return nil
}

type memUserStore struct {
	state   UserState
	version int64
	// next Get reports a corrupt record, for recovery tests
	corruptOnce bool
}

func (s *memUserStore) Get(_ context.Context, _ string) (UserState, int64, error) {
	if s.corruptOnce {
		s.corruptOnce = false
		return UserState{}, s.version, fmt.Errorf("%w: seeded for test", ErrCorruptState)
	}
	return s.state, s.version, nil
}

func (s *memUserStore) Put(_ context.Context, _ string, st UserState, version int64) error {
	if s.version != version {
		return ErrStoreConflict
	}
	s.state = st
	s.version = version + 1
	return nil
}

type memAwardStore struct {
	awarded map[string]bool
}

func (s *memAwardStore) List(_ context.Context, _ string) (map[string]bool, error) {
	out := map[string]bool{}
	for id := range s.awarded {
		out[id] = true
	}
	return out, nil
}

func (s *memAwardStore) Add(_ context.Context, _ string, ids []string) error {
	for _, id := range ids {
		s.awarded[id] = true
	}
	return nil
}

type memCatalog struct {
	items []Item
}

func (c *memCatalog) ListItems(_ context.Context) ([]Item, error) { return c.items, nil }

type memReviewLog struct {
	entries []ReviewLogEntry
}

func (l *memReviewLog) Insert(_ context.Context, e ReviewLogEntry) error {
	l.entries = append(l.entries, e)
	return nil
}

type testEnv struct {
	svc    *Service
	cards  *memCardStore
	users  *memUserStore
	awards *memAwardStore
	log    *memReviewLog
	clock  *FixedClock
}

func newTestEnv(items ...Item) *testEnv {
	env := &testEnv{
		cards:  newMemCardStore(),
		users:  &memUserStore{},
		awards: &memAwardStore{awarded: map[string]bool{}},
		log:    &memReviewLog{},
		clock:  &FixedClock{T: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	env.svc = NewService(&memCatalog{items: items}, env.cards, env.users, env.awards, env.log,
		WithClock(env.clock),
		WithScheduler(NewSchedulerWithSeed(1)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return env
}

func TestSubmitAnswerRewardChain(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Prompt: "q", Answer: "a", Difficulty: DifficultyHard})
	env.users.state = UserState{
		ComboCount: 3,
		Streak:     StreakState{StreakDays: 3, LastActiveDate: "2024-06-01"},
	}
	env.users.version = 1

	out, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityEasy, ElapsedSeconds: 8,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	// 5 * 1.5 (fast) * 2.0 (hard) * 1.0 (combo 3) * 1.1 (streak 3) = 16.5 -> 17
	if out.XP != 17 {
		t.Fatalf("xp=%d, want 17", out.XP)
	}
	if out.Gold != 0 {
		t.Fatalf("gold=%d, want 0 below payout threshold", out.Gold)
	}
	for _, tag := range []BonusTag{BonusTime, BonusDifficulty, BonusCombo, BonusStreak} {
		if !hasBonus(out.Bonuses, tag) {
			t.Fatalf("bonuses %v missing %q", out.Bonuses, tag)
		}
	}
	if out.ComboCount != 4 {
		t.Fatalf("combo=%d after correct answer, want 4", out.ComboCount)
	}

	// A 3-day streak crosses the streak_3 milestone on this update.
	if len(out.Milestones) != 1 || out.Milestones[0].ID != "streak_3" {
		t.Fatalf("milestones=%v, want exactly streak_3", out.Milestones)
	}

	st, _, err := env.svc.Progression(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Progression: %v", err)
	}
	if st.TotalXP != 32 {
		t.Fatalf("total xp=%d, want 17 answer + 15 milestone = 32", st.TotalXP)
	}
	if st.Gold != 1 {
		t.Fatalf("gold=%d, want 1 from the milestone", st.Gold)
	}

	if len(env.log.entries) != 1 {
		t.Fatalf("review log entries=%d, want 1", len(env.log.entries))
	}
	if e := env.log.entries[0]; e.ItemID != 1 || e.XP != 17 {
		t.Fatalf("logged entry = %+v", e)
	}
}

func TestSubmitAnswerInvalidQuality(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})

	_, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{ItemID: 1, Quality: 9})
	if !errors.Is(err, ErrInvalidQuality) {
		t.Fatalf("err=%v, want ErrInvalidQuality", err)
	}
	if len(env.cards.cards) != 0 {
		t.Fatalf("card state written for rejected event")
	}
	if env.users.version != 0 {
		t.Fatalf("user state written for rejected event")
	}
}

func TestSubmitAnswerComboUsesPriorCount(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})

	// Combo activates at 3; the multiplier reads the count before the
	// event's own increment, so the bonus first fires on the 4th answer.
	for i := 0; i < 3; i++ {
		out, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
			ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
		})
		if err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
		if hasBonus(out.Bonuses, BonusCombo) {
			t.Fatalf("answer %d: combo bonus with prior combo %d", i+1, i)
		}
	}

	out, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
	})
	if err != nil {
		t.Fatalf("4th answer: %v", err)
	}
	if !hasBonus(out.Bonuses, BonusCombo) {
		t.Fatalf("4th answer: combo bonus missing at prior combo 3")
	}

	out, err = env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityWrong, ElapsedSeconds: 30,
	})
	if err != nil {
		t.Fatalf("failing answer: %v", err)
	}
	if out.ComboCount != 0 {
		t.Fatalf("combo=%d after failure, want 0", out.ComboCount)
	}
}

func TestSubmitAnswerMilestoneGrantedOnce(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})
	env.users.state = UserState{TotalXP: 95}
	env.users.version = 1

	// 5 * 1.5 (medium) = 8 XP pushes the total past 100.
	out, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if len(out.Milestones) != 1 || out.Milestones[0].ID != "xp_100" {
		t.Fatalf("milestones=%v, want exactly xp_100", out.Milestones)
	}

	for i := 0; i < 5; i++ {
		out, err = env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
			ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
		})
		if err != nil {
			t.Fatalf("follow-up %d: %v", i+1, err)
		}
		for _, ms := range out.Milestones {
			if ms.ID == "xp_100" {
				t.Fatalf("xp_100 granted a second time on follow-up %d", i+1)
			}
		}
	}
}

func TestSubmitAnswerMasteryAfterFivePasses(t *testing.T) {
	env := newTestEnv(Item{ID: 7, Difficulty: DifficultyEasy})

	var out *ReviewOutcome
	var err error
	for i := 0; i < 5; i++ {
		out, err = env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
			ItemID: 7, Quality: QualityEasy, ElapsedSeconds: 5,
		})
		if err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
		if i < 4 && out.Mastered {
			t.Fatalf("mastered after %d passes", i+1)
		}
		env.clock.AdvanceDays(out.Progress.Interval)
	}
	if !out.Mastered {
		t.Fatalf("not mastered after 5 consecutive passes: %+v", out.Progress)
	}
	if out.Progress.Repetitions != 5 {
		t.Fatalf("repetitions=%d, want 5", out.Progress.Repetitions)
	}
}

func TestSubmitAnswerLevelUp(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})
	env.users.state = UserState{TotalXP: 95}
	env.users.version = 1

	out, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !out.LevelUp {
		t.Fatalf("no level up crossing 100 XP: before=%d after=%d", out.LevelBefore, out.LevelAfter)
	}
	if out.LevelBefore != 1 || out.LevelAfter != 2 {
		t.Fatalf("level %d -> %d, want 1 -> 2", out.LevelBefore, out.LevelAfter)
	}
}

func TestSubmitAnswerRetriesThenSucceeds(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})
	env.cards.conflicts = 2

	out, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer with 2 transient conflicts: %v", err)
	}
	if out.Progress.Repetitions != 1 {
		t.Fatalf("repetitions=%d after retry, want 1", out.Progress.Repetitions)
	}
}

func TestSubmitAnswerConflictBudgetExhausted(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})
	env.cards.conflicts = 10

	_, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
	})
	if !errors.Is(err, ErrStoreConflict) {
		t.Fatalf("err=%v, want ErrStoreConflict", err)
	}
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("err=%v, want *ConflictError", err)
	}
	if ce.Attempts != defaultConflictRetries {
		t.Fatalf("attempts=%d, want %d", ce.Attempts, defaultConflictRetries)
	}
}

func TestSubmitAnswerRecoversCorruptUserState(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})
	env.users.state = UserState{TotalXP: -50}
	env.users.version = 4
	env.users.corruptOnce = true

	out, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer over corrupt state: %v", err)
	}
	if out.XP != 8 {
		t.Fatalf("xp=%d scored from rebuilt state, want 8", out.XP)
	}
	if env.users.state.TotalXP != 8 {
		t.Fatalf("total xp=%d after rebuild, want 8", env.users.state.TotalXP)
	}
}

func TestStartSessionStreakIdempotentPerDay(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})

	info, err := env.svc.StartSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first StartSession: %v", err)
	}
	if info.StreakDays != 1 {
		t.Fatalf("streak=%d on first session, want 1", info.StreakDays)
	}

	info, err = env.svc.StartSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second StartSession: %v", err)
	}
	if info.StreakDays != 1 {
		t.Fatalf("streak=%d on same-day session, want 1", info.StreakDays)
	}

	env.clock.AdvanceDays(1)
	info, err = env.svc.StartSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("next-day StartSession: %v", err)
	}
	if info.StreakDays != 2 {
		t.Fatalf("streak=%d on consecutive day, want 2", info.StreakDays)
	}

	env.clock.AdvanceDays(3)
	info, err = env.svc.StartSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("post-gap StartSession: %v", err)
	}
	if info.StreakDays != 1 {
		t.Fatalf("streak=%d after gap, want 1", info.StreakDays)
	}
}

func TestStartSessionCounts(t *testing.T) {
	env := newTestEnv(
		Item{ID: 1, Difficulty: DifficultyMedium},
		Item{ID: 2, Difficulty: DifficultyMedium},
		Item{ID: 3, Difficulty: DifficultyMedium},
	)

	// Item 1 reviewed today (not due), items 2 and 3 untouched.
	if _, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
	}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	info, err := env.svc.StartSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if info.TotalItems != 3 || info.NewCount != 2 || info.DueCount != 0 {
		t.Fatalf("counts=%+v, want total 3, new 2, due 0", info)
	}
	if info.NextItemID != 2 && info.NextItemID != 3 {
		t.Fatalf("next=%d, want an unreviewed item", info.NextItemID)
	}
}

func TestStartSessionEmptyCatalog(t *testing.T) {
	env := newTestEnv()

	info, err := env.svc.StartSession(context.Background(), "u1")
	if !errors.Is(err, ErrNoItemsAvailable) {
		t.Fatalf("err=%v, want ErrNoItemsAvailable", err)
	}
	if info == nil {
		t.Fatalf("nil info alongside ErrNoItemsAvailable")
	}
	if info.StreakDays != 1 {
		t.Fatalf("streak=%d, want the touch applied even without items", info.StreakDays)
	}
}

func TestClaimDailyOncePerDay(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})

	for i := 0; i < 2; i++ {
		if _, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
			ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
		}); err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i+1, err)
		}
	}

	out, err := env.svc.ClaimDaily(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ClaimDaily: %v", err)
	}
	// 2 solved * 1 + 2 correct * 5 = 12 flat XP, no threshold bonuses.
	if out.XP != 12 || out.Gold != 0 {
		t.Fatalf("claim = %d xp / %d gold, want 12 / 0", out.XP, out.Gold)
	}
	if len(out.Bonuses) != 0 {
		t.Fatalf("bonuses=%v below both thresholds, want none", out.Bonuses)
	}

	out, err = env.svc.ClaimDaily(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second ClaimDaily: %v", err)
	}
	if out.XP != 0 || out.Gold != 0 {
		t.Fatalf("second claim = %d xp / %d gold, want nothing", out.XP, out.Gold)
	}
}

func TestClaimDailyRollsOverCounters(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyMedium})

	if _, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 1, Quality: QualityGood, ElapsedSeconds: 30,
	}); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	env.clock.AdvanceDays(1)
	out, err := env.svc.ClaimDaily(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ClaimDaily: %v", err)
	}
	if out.DailySolved != 0 || out.XP != 0 {
		t.Fatalf("claim after rollover = %+v, want reset counters and no reward", out)
	}
}

func TestSubmitAnswerUnknownItemUsesDefaultDifficulty(t *testing.T) {
	env := newTestEnv(Item{ID: 1, Difficulty: DifficultyVeryHard})

	out, err := env.svc.SubmitAnswer(context.Background(), "u1", ReviewEvent{
		ItemID: 99, Quality: QualityGood, ElapsedSeconds: 30,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	// 5 * 1.5 (medium fallback) = 8, not the very_hard 13.
	if out.XP != 8 {
		t.Fatalf("xp=%d for uncatalogued item, want 8", out.XP)
	}
}
