package engine

import (
	"fmt"
	"strings"
	"time"
)

// Quality grades a single answer, 0 (complete blackout) to 4 (effortless).
// Grades of QualityGood and above count as correct.
type Quality int

const (
	QualityBlackout Quality = 0
	QualityWrong    Quality = 1
	QualityHard     Quality = 2
	QualityGood     Quality = 3
	QualityEasy     Quality = 4
)

func (q Quality) IsValid() bool {
	return q >= QualityBlackout && q <= QualityEasy
}

// Correct reports whether the grade counts as a correct answer.
func (q Quality) Correct() bool {
	return q >= QualityGood
}

type Difficulty string

const (
	DifficultyVeryEasy Difficulty = "very_easy"
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
)

// DefaultDifficulty is used when an item carries no difficulty rating.
const DefaultDifficulty Difficulty = DifficultyMedium

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyVeryEasy, DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard:
		return true
	default:
		return false
	}
}

func ParseDifficulty(input string) (Difficulty, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	d := Difficulty(s)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid difficulty: %q", input)
	}
	return d, nil
}

// Multiplier returns the scoring multiplier for the difficulty.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyVeryEasy:
		return 1.0
	case DifficultyEasy:
		return 1.2
	case DifficultyMedium:
		return 1.5
	case DifficultyHard:
		return 2.0
	case DifficultyVeryHard:
		return 2.5
	default:
		return 1.0
	}
}

// Item is a reviewable unit from the catalog. The engine only reads items;
// the catalog collaborator owns their lifecycle.
type Item struct {
	ID         int64
	Prompt     string
	Answer     string
	Difficulty Difficulty
}

// ReviewEvent is one graded answer. It is never persisted verbatim; it is
// the sole input that drives card and progression updates.
type ReviewEvent struct {
	ItemID         int64
	Quality        Quality
	ElapsedSeconds int
	At             time.Time
}
