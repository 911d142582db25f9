package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// UserState is the per-user progression record: XP, gold, combo, daily
// counters, streak, and daily-grant markers. XP and gold only ever grow;
// daily counters roll over lazily when the local day changes.
type UserState struct {
	TotalXP      int
	Gold         int
	TotalSolved  int
	TotalCorrect int

	ComboCount int

	DailySolved  int
	DailyCorrect int
	DailyDate    string // local day the daily counters belong to

	Streak StreakState
	Grants DailyGrants
}

// Validate reports whether the persisted record satisfies the engine's
// invariants.
func (s UserState) Validate() error {
	if s.TotalXP < 0 || s.Gold < 0 || s.ComboCount < 0 {
		return fmt.Errorf("%w: negative progression counter", ErrCorruptState)
	}
	if s.Streak.StreakDays < 0 {
		return fmt.Errorf("%w: negative streak", ErrCorruptState)
	}
	return nil
}

// CardStore persists CardProgress keyed by (user, item) with optimistic
// versioning. Get returns version 0 and a fresh default when no record
// exists. A corrupt record yields ErrCorruptState together with the stored
// version, so callers can rebuild the entity in place.
type CardStore interface {
	Get(ctx context.Context, userID string, itemID int64) (CardProgress, int64, error)
	List(ctx context.Context, userID string) (map[int64]CardProgress, error)
	// Put writes the state conditioned on version being unchanged; version 0
	// inserts. A lost race returns ErrStoreConflict.
	Put(ctx context.Context, userID string, p CardProgress, version int64) error
}

// UserStore persists UserState keyed by user with the same versioned
// read / conditional write contract as CardStore.
type UserStore interface {
	Get(ctx context.Context, userID string) (UserState, int64, error)
	Put(ctx context.Context, userID string, s UserState, version int64) error
}

// AwardStore persists the set of milestone ids already granted to a user.
type AwardStore interface {
	List(ctx context.Context, userID string) (map[string]bool, error)
	Add(ctx context.Context, userID string, ids []string) error
}

// Catalog lists the reviewable items. The engine treats it as read-only.
type Catalog interface {
	ListItems(ctx context.Context) ([]Item, error)
}

// ReviewLogEntry is one audit row per scored answer.
type ReviewLogEntry struct {
	ID        string
	UserID    string
	ItemID    int64
	Quality   Quality
	XP        int
	Gold      int
	CreatedAt time.Time
}

// ReviewLog records scored answers for stats and auditing.
type ReviewLog interface {
	Insert(ctx context.Context, e ReviewLogEntry) error
}

const defaultConflictRetries = 3

// Service orchestrates the scheduler, scoring and streak components over the
// injected stores. It holds no user state itself; every mutation is a
// versioned read-modify-write with bounded retries.
type Service struct {
	catalog Catalog
	cards   CardStore
	users   UserStore
	awards  AwardStore
	log     ReviewLog

	sched   *Scheduler
	clock   Clock
	logger  *slog.Logger
	retries int
}

// Option configures a Service.
type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithScheduler(sc *Scheduler) Option {
	return func(s *Service) { s.sched = sc }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithConflictRetries sets how many attempts a conflicting write gets before
// a ConflictError surfaces.
func WithConflictRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retries = n
		}
	}
}

func NewService(catalog Catalog, cards CardStore, users UserStore, awards AwardStore, log ReviewLog, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		cards:   cards,
		users:   users,
		awards:  awards,
		log:     log,
		sched:   NewScheduler(),
		clock:   NewSystemClock(nil),
		logger:  slog.Default(),
		retries: defaultConflictRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReviewOutcome is the structured delta SubmitAnswer emits for the reward
// sink: what this answer earned, what it unlocked, and what to show next.
type ReviewOutcome struct {
	ItemID     int64
	NextItemID int64

	XP      int
	Gold    int
	Bonuses []BonusTag

	ComboCount int
	Progress   CardProgress
	Mastered   bool

	LevelBefore int
	LevelAfter  int
	LevelUp     bool
	Level       LevelInfo

	Milestones []Milestone
}

// SubmitAnswer is the engine's only mutating entry point: it applies one
// review event to the card and the user's progression, grants any newly
// crossed milestones, and picks the next item to present.
//
// Combo and streak multipliers use the counts before this event's own
// transitions; the combo increment/reset happens after scoring.
func (s *Service) SubmitAnswer(ctx context.Context, userID string, ev ReviewEvent) (*ReviewOutcome, error) {
	if !ev.Quality.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, ev.Quality)
	}

	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	difficulty := DefaultDifficulty
	for _, it := range items {
		if it.ID == ev.ItemID {
			difficulty = it.Difficulty
			break
		}
	}

	now := s.clock.Now()
	at := ev.At
	if at.IsZero() {
		at = now
	}
	today := Day(now)

	var progress CardProgress
	err = s.withRetry("card_progress", func() error {
		p, ver, err := s.cards.Get(ctx, userID, ev.ItemID)
		if err != nil {
			p, err = s.recoverCard(userID, ev.ItemID, err)
			if err != nil {
				return err
			}
		}
		p, err = RecordAnswer(p, ev.Quality, at)
		if err != nil {
			return err
		}
		progress = p
		return s.cards.Put(ctx, userID, p, ver)
	})
	if err != nil {
		return nil, err
	}

	outcome := &ReviewOutcome{
		ItemID:   ev.ItemID,
		Progress: progress,
		Mastered: progress.Mastered,
	}

	err = s.withRetry("user_state", func() error {
		st, ver, err := s.users.Get(ctx, userID)
		if err != nil {
			st, err = s.recoverUser(userID, err)
			if err != nil {
				return err
			}
		}
		awarded, err := s.awards.List(ctx, userID)
		if err != nil {
			return fmt.Errorf("list awarded milestones: %w", err)
		}

		rolloverDaily(&st, today)

		res := ScoreAnswer(ScoreInput{
			Quality:        ev.Quality,
			ElapsedSeconds: ev.ElapsedSeconds,
			Difficulty:     difficulty,
			ComboBefore:    st.ComboCount,
			StreakDays:     st.Streak.StreakDays,
		})

		st.DailySolved++
		st.TotalSolved++
		if ev.Quality.Correct() {
			st.ComboCount++
			st.DailyCorrect++
			st.TotalCorrect++
		} else {
			st.ComboCount = 0
		}

		before := LevelFromXP(st.TotalXP)
		st.TotalXP += res.XP
		st.Gold += res.Gold

		crossed := CheckMilestones(Metrics{
			TotalXP:      st.TotalXP,
			TotalCorrect: st.TotalCorrect,
			StreakDays:   st.Streak.StreakDays,
		}, awarded)
		for _, ms := range crossed {
			st.TotalXP += ms.RewardXP
			st.Gold += ms.RewardGold
		}

		after := LevelFromXP(st.TotalXP)

		if err := s.users.Put(ctx, userID, st, ver); err != nil {
			return err
		}
		if len(crossed) > 0 {
			ids := make([]string, 0, len(crossed))
			for _, ms := range crossed {
				ids = append(ids, ms.ID)
			}
			if err := s.awards.Add(ctx, userID, ids); err != nil {
				return fmt.Errorf("record awarded milestones: %w", err)
			}
		}

		outcome.XP = res.XP
		outcome.Gold = res.Gold
		outcome.Bonuses = res.Bonuses
		outcome.ComboCount = st.ComboCount
		outcome.Milestones = crossed
		outcome.LevelBefore = before.Level
		outcome.LevelAfter = after.Level
		outcome.LevelUp = after.Level > before.Level
		outcome.Level = after
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.log != nil {
		entry := ReviewLogEntry{
			ID:        uuid.NewString(),
			UserID:    userID,
			ItemID:    ev.ItemID,
			Quality:   ev.Quality,
			XP:        outcome.XP,
			Gold:      outcome.Gold,
			CreatedAt: now,
		}
		if err := s.log.Insert(ctx, entry); err != nil {
			s.logger.Warn("review log insert failed", "user_id", userID, "item_id", ev.ItemID, "error", err)
		}
	}

	progressMap, err := s.cards.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list card progress: %w", err)
	}
	next, err := s.sched.SelectNext(items, progressMap, now)
	if err != nil {
		return nil, err
	}
	outcome.NextItemID = next

	return outcome, nil
}

// SessionInfo is the session bootstrap snapshot: streak after today's touch
// plus catalog counts and the first item to present.
type SessionInfo struct {
	StreakDays int
	DueCount   int
	NewCount   int
	Mastered   int
	TotalItems int
	NextItemID int64
}

// StartSession advances the user's streak for today (idempotently) and
// reports what the session looks like. Consulted once per session bootstrap.
func (s *Service) StartSession(ctx context.Context, userID string) (*SessionInfo, error) {
	now := s.clock.Now()

	var streakDays int
	err := s.withRetry("user_state", func() error {
		st, ver, err := s.users.Get(ctx, userID)
		if err != nil {
			st, err = s.recoverUser(userID, err)
			if err != nil {
				return err
			}
		}
		st.Streak = TouchStreak(st.Streak, now)
		rolloverDaily(&st, Day(now))
		streakDays = st.Streak.StreakDays
		return s.users.Put(ctx, userID, st, ver)
	})
	if err != nil {
		return nil, err
	}

	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	progress, err := s.cards.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list card progress: %w", err)
	}

	info := &SessionInfo{
		StreakDays: streakDays,
		TotalItems: len(items),
	}
	for _, it := range items {
		p, ok := progress[it.ID]
		if !ok {
			info.NewCount++
			continue
		}
		if p.Mastered {
			info.Mastered++
		}
		if IsDue(p, now) {
			info.DueCount++
		}
	}

	next, err := s.sched.SelectNext(items, progress, now)
	if err != nil {
		if errors.Is(err, ErrNoItemsAvailable) {
			return info, err
		}
		return nil, err
	}
	info.NextItemID = next
	return info, nil
}

// DailyOutcome is the result of settling the day's counters.
type DailyOutcome struct {
	XP      int
	Gold    int
	Bonuses []BonusTag

	DailySolved  int
	DailyCorrect int
	Level        LevelInfo
}

// ClaimDaily settles today's counters into a reward. Each component (flat
// portion and the two threshold bonuses) is granted at most once per local
// day, so claiming repeatedly is safe.
func (s *Service) ClaimDaily(ctx context.Context, userID string) (*DailyOutcome, error) {
	today := Day(s.clock.Now())

	var out DailyOutcome
	err := s.withRetry("user_state", func() error {
		st, ver, err := s.users.Get(ctx, userID)
		if err != nil {
			st, err = s.recoverUser(userID, err)
			if err != nil {
				return err
			}
		}
		rolloverDaily(&st, today)

		res, grants := DailyReward(st.DailySolved, st.DailyCorrect, st.Grants, today)
		st.Grants = grants
		st.TotalXP += res.XP
		st.Gold += res.Gold

		if err := s.users.Put(ctx, userID, st, ver); err != nil {
			return err
		}
		out = DailyOutcome{
			XP:           res.XP,
			Gold:         res.Gold,
			Bonuses:      res.Bonuses,
			DailySolved:  st.DailySolved,
			DailyCorrect: st.DailyCorrect,
			Level:        LevelFromXP(st.TotalXP),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Now exposes the service clock for presentation code that needs "today".
func (s *Service) Now() time.Time { return s.clock.Now() }

// CardProgressAll returns every card state the user has, keyed by item.
func (s *Service) CardProgressAll(ctx context.Context, userID string) (map[int64]CardProgress, error) {
	return s.cards.List(ctx, userID)
}

// Progression returns the user's current progression snapshot without
// mutating anything.
func (s *Service) Progression(ctx context.Context, userID string) (UserState, LevelInfo, error) {
	st, _, err := s.users.Get(ctx, userID)
	if err != nil {
		st, err = s.recoverUser(userID, err)
		if err != nil {
			return UserState{}, LevelInfo{}, err
		}
	}
	return st, LevelFromXP(st.TotalXP), nil
}

// AwardedMilestones returns the milestone catalog annotated with the user's
// earned set.
func (s *Service) AwardedMilestones(ctx context.Context, userID string) ([]Milestone, map[string]bool, error) {
	awarded, err := s.awards.List(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list awarded milestones: %w", err)
	}
	return MilestoneCatalog(), awarded, nil
}

// rolloverDaily resets the daily counters when the local day has changed
// since they were last touched. Lazy: there is no scheduled job, the first
// event of a new day performs the reset.
func rolloverDaily(st *UserState, today string) {
	if st.DailyDate == today {
		return
	}
	st.DailyDate = today
	st.DailySolved = 0
	st.DailyCorrect = 0
}

// recoverCard handles a corrupt persisted card: rebuild the default state
// and log the anomaly instead of propagating. Any other error passes through.
func (s *Service) recoverCard(userID string, itemID int64, err error) (CardProgress, error) {
	if !errors.Is(err, ErrCorruptState) {
		return CardProgress{}, err
	}
	s.logger.Warn("corrupt card progress, rebuilding default state",
		"user_id", userID, "item_id", itemID, "error", err)
	return NewCardProgress(itemID), nil
}

func (s *Service) recoverUser(userID string, err error) (UserState, error) {
	if !errors.Is(err, ErrCorruptState) {
		return UserState{}, err
	}
	s.logger.Warn("corrupt user state, rebuilding default state",
		"user_id", userID, "error", err)
	return UserState{}, nil
}

// withRetry runs fn until it succeeds or returns a non-conflict error, up to
// the configured attempt budget. Exhaustion surfaces a ConflictError; a
// conflicting update is never silently dropped.
func (s *Service) withRetry(entity string, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrStoreConflict) {
			return err
		}
	}
	s.logger.Warn("conflict retry budget exhausted", "entity", entity, "attempts", s.retries)
	return &ConflictError{Entity: entity, Attempts: s.retries}
}
