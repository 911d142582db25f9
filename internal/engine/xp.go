package engine

import "math"

const (
	// LevelBaseXP is the XP cost of advancing from level 1 to level 2.
	LevelBaseXP = 100.0

	// LevelGrowth is the geometric growth of per-level XP cost:
	// level n costs LevelBaseXP * LevelGrowth^(n-1) over the previous level.
	LevelGrowth = 1.1
)

// LevelInfo is the level breakdown derived from total XP.
type LevelInfo struct {
	Level           int
	CurrentXP       int // XP accumulated inside the current level
	NextLevelXP     int // XP cost of the current level's full span
	ProgressPercent int
}

// XPForLevelStep returns the XP cost of moving from the given level to the
// next one. Levels start at 1.
func XPForLevelStep(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Round(LevelBaseXP * math.Pow(LevelGrowth, float64(level-1))))
}

// LevelFromXP converts total XP into a level breakdown by walking the curve
// from level 1, subtracting each level's cost until the remainder no longer
// covers the next step. Level is monotonically non-decreasing in totalXP.
func LevelFromXP(totalXP int) LevelInfo {
	if totalXP < 0 {
		totalXP = 0
	}

	level := 1
	remaining := totalXP
	step := XPForLevelStep(level)
	for remaining >= step {
		remaining -= step
		level++
		step = XPForLevelStep(level)
	}

	return LevelInfo{
		Level:           level,
		CurrentXP:       remaining,
		NextLevelXP:     step,
		ProgressPercent: int(math.Round(float64(remaining) / float64(step) * 100)),
	}
}
