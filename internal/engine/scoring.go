package engine

import "math"

const (
	// BaseXP is the XP for a correct answer before any bonus.
	BaseXP = 5

	// GoldXPThreshold and GoldDivisor govern the gold payout: answers worth
	// at least the threshold earn floor(xp/divisor) gold.
	GoldXPThreshold = 50
	GoldDivisor     = 10

	// ComboMinCount is the combo length at which the combo bonus activates.
	ComboMinCount = 3
	// ComboMaxMultiplier caps the combo bonus.
	ComboMaxMultiplier = 2.0

	// StreakMinDays is the streak length at which the streak bonus activates.
	StreakMinDays = 3
	// StreakMaxMultiplier caps the streak bonus.
	StreakMaxMultiplier = 1.5
)

// BonusTag labels a bonus applied to a score, for display by the reward sink.
type BonusTag string

const (
	BonusTime       BonusTag = "time"
	BonusDifficulty BonusTag = "difficulty"
	BonusCombo      BonusTag = "combo"
	BonusStreak     BonusTag = "streak"
	BonusDailyGoal  BonusTag = "daily_goal"
	BonusAccuracy   BonusTag = "accuracy"
)

// ScoreInput is one answer plus the progression context it is scored under.
// ComboBefore and StreakDays are the counts BEFORE this event's own
// increment; the caller owns those transitions.
type ScoreInput struct {
	Quality        Quality
	ElapsedSeconds int
	Difficulty     Difficulty
	ComboBefore    int
	StreakDays     int
}

// ScoreResult is the reward delta for one answer.
type ScoreResult struct {
	XP      int
	Gold    int
	Bonuses []BonusTag
}

// ScoreAnswer converts one answer into an XP/gold delta. Incorrect answers
// score zero. The bonus chain multiplies in a fixed order: time, difficulty,
// combo, streak.
func ScoreAnswer(in ScoreInput) ScoreResult {
	if !in.Quality.Correct() {
		return ScoreResult{}
	}

	total := float64(BaseXP)
	var bonuses []BonusTag

	if m := timeMultiplier(in.ElapsedSeconds); m != 1.0 {
		total *= m
		bonuses = append(bonuses, BonusTime)
	}
	if m := in.Difficulty.Multiplier(); m != 1.0 {
		total *= m
		bonuses = append(bonuses, BonusDifficulty)
	}
	if in.ComboBefore >= ComboMinCount {
		total *= comboMultiplier(in.ComboBefore)
		bonuses = append(bonuses, BonusCombo)
	}
	if in.StreakDays >= StreakMinDays {
		total *= streakMultiplier(in.StreakDays)
		bonuses = append(bonuses, BonusStreak)
	}

	xp := int(math.Round(total))
	gold := 0
	if xp >= GoldXPThreshold {
		gold = xp / GoldDivisor
	}
	return ScoreResult{XP: xp, Gold: gold, Bonuses: bonuses}
}

func timeMultiplier(elapsedSeconds int) float64 {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	switch {
	case elapsedSeconds <= 10:
		return 1.5
	case elapsedSeconds <= 20:
		return 1.3
	case elapsedSeconds > 60:
		return 0.8
	default:
		return 1.0
	}
}

func comboMultiplier(combo int) float64 {
	m := 1.0 + 0.1*float64(combo-ComboMinCount)
	return math.Min(m, ComboMaxMultiplier)
}

func streakMultiplier(days int) float64 {
	m := 1.0 + 0.1*float64(days/StreakMinDays)
	return math.Min(m, StreakMaxMultiplier)
}
