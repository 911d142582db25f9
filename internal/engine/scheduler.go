package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

const (
	// MinEaseFactor and MaxEaseFactor bound the per-item ease coefficient.
	MinEaseFactor = 1.3
	MaxEaseFactor = 2.5

	// DefaultEaseFactor is the SM-2 starting ease for a new card.
	DefaultEaseFactor = 2.5

	// MasteryRepetitions is how many consecutive passing reviews mark a
	// card as mastered.
	MasteryRepetitions = 5

	// MaxIntervalDays caps the review interval at one year.
	MaxIntervalDays = 365
)

// CardProgress is the per-user, per-item spaced-repetition state. It is
// created lazily on the first review and never deleted; it represents the
// user's permanent learning history for the item.
type CardProgress struct {
	ItemID       int64
	EaseFactor   float64
	Repetitions  int
	Interval     int // days until next due
	LastReviewAt *time.Time
	Mastered     bool
}

// NewCardProgress returns the default state for an item that has never been
// reviewed.
func NewCardProgress(itemID int64) CardProgress {
	return CardProgress{
		ItemID:     itemID,
		EaseFactor: DefaultEaseFactor,
		Interval:   1,
	}
}

// Validate reports whether the state satisfies the engine's invariants.
// Persisted records failing this are treated as corrupt.
func (p CardProgress) Validate() error {
	if p.EaseFactor < MinEaseFactor || p.EaseFactor > MaxEaseFactor {
		return fmt.Errorf("%w: ease factor %.3f outside [%.1f, %.1f]", ErrCorruptState, p.EaseFactor, MinEaseFactor, MaxEaseFactor)
	}
	if p.Repetitions < 0 {
		return fmt.Errorf("%w: negative repetitions %d", ErrCorruptState, p.Repetitions)
	}
	if p.Interval < 1 {
		return fmt.Errorf("%w: interval %d below 1 day", ErrCorruptState, p.Interval)
	}
	return nil
}

// RecordAnswer applies one graded answer to the card and returns the new
// state. The input is not mutated; on error the caller must keep the old
// state.
//
// A failing grade (below QualityGood) resets the repetition run and puts the
// card back on a one-day interval. The ease factor adapts in both branches:
// it tracks item difficulty, not pass/fail.
func RecordAnswer(p CardProgress, quality Quality, now time.Time) (CardProgress, error) {
	if !quality.IsValid() {
		return CardProgress{}, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}

	if quality.Correct() {
		p.Repetitions++
		switch p.Repetitions {
		case 1:
			p.Interval = 1
		case 2:
			p.Interval = 6
		default:
			p.Interval = int(math.Round(float64(p.Repetitions-1) * p.EaseFactor))
		}
		if p.Interval > MaxIntervalDays {
			p.Interval = MaxIntervalDays
		}
		p.Mastered = p.Repetitions >= MasteryRepetitions
	} else {
		p.Repetitions = 0
		p.Interval = 1
		p.Mastered = false
	}

	// EF' = EF + (0.1 - (5-q) * (0.08 + (5-q)*0.02)), clamped both ends.
	q := float64(quality)
	ef := p.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	if ef > MaxEaseFactor {
		ef = MaxEaseFactor
	}
	p.EaseFactor = ef

	t := now
	p.LastReviewAt = &t
	return p, nil
}

// IsDue reports whether the card should be presented on the given day.
// Mastered cards are never due; unreviewed cards always are.
func IsDue(p CardProgress, today time.Time) bool {
	if p.Mastered {
		return false
	}
	if p.LastReviewAt == nil {
		return true
	}
	return daysBetween(*p.LastReviewAt, today) >= p.Interval
}

// Scheduler selects the next item to present. Ties inside a pool are broken
// uniformly at random so presentation order carries no insertion bias.
type Scheduler struct {
	rng *rand.Rand
}

// NewScheduler returns a Scheduler with a time-seeded RNG.
func NewScheduler() *Scheduler {
	return NewSchedulerWithSeed(time.Now().UnixNano())
}

// NewSchedulerWithSeed returns a Scheduler with a deterministic RNG, for
// reproducible sessions and tests.
func NewSchedulerWithSeed(seed int64) *Scheduler {
	return &Scheduler{rng: rand.New(rand.NewSource(seed))}
}

// SelectNext picks the next item: anything due for review first, then items
// never seen, then the full catalog so a session is never empty. It is a
// pure read; no state is mutated.
func (s *Scheduler) SelectNext(items []Item, progress map[int64]CardProgress, today time.Time) (int64, error) {
	if len(items) == 0 {
		return 0, ErrNoItemsAvailable
	}

	var due, fresh []int64
	for _, it := range items {
		p, ok := progress[it.ID]
		if !ok {
			fresh = append(fresh, it.ID)
			continue
		}
		if IsDue(p, today) {
			due = append(due, it.ID)
		}
	}

	switch {
	case len(due) > 0:
		return due[s.rng.Intn(len(due))], nil
	case len(fresh) > 0:
		return fresh[s.rng.Intn(len(fresh))], nil
	default:
		return items[s.rng.Intn(len(items))].ID, nil
	}
}
