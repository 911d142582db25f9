package engine

import "sort"

// MilestoneMetric names the cumulative metric a milestone threshold applies to.
type MilestoneMetric string

const (
	MetricTotalXP      MilestoneMetric = "total_xp"
	MetricTotalCorrect MilestoneMetric = "total_correct"
	MetricStreakDays   MilestoneMetric = "streak_days"
)

// Milestone is a one-time reward granted the first time a cumulative metric
// crosses its threshold.
type Milestone struct {
	ID         string
	Name       string
	Icon       string
	Metric     MilestoneMetric
	Threshold  int
	RewardXP   int
	RewardGold int
}

// Metrics is the cumulative snapshot milestones are checked against.
type Metrics struct {
	TotalXP      int
	TotalCorrect int
	StreakDays   int
}

func (m Metrics) value(metric MilestoneMetric) int {
	switch metric {
	case MetricTotalXP:
		return m.TotalXP
	case MetricTotalCorrect:
		return m.TotalCorrect
	case MetricStreakDays:
		return m.StreakDays
	default:
		return 0
	}
}

// MilestoneCatalog returns the static milestone table.
func MilestoneCatalog() []Milestone {
	return []Milestone{
		// XP milestones
		{ID: "xp_100", Name: "First Steps", Icon: "🌱", Metric: MetricTotalXP, Threshold: 100, RewardXP: 10, RewardGold: 1},
		{ID: "xp_500", Name: "Warming Up", Icon: "🌿", Metric: MetricTotalXP, Threshold: 500, RewardXP: 25, RewardGold: 3},
		{ID: "xp_1000", Name: "1000 XP", Icon: "🌳", Metric: MetricTotalXP, Threshold: 1000, RewardXP: 50, RewardGold: 5},
		{ID: "xp_5000", Name: "Scholar", Icon: "⭐", Metric: MetricTotalXP, Threshold: 5000, RewardXP: 100, RewardGold: 10},
		{ID: "xp_20000", Name: "Sage", Icon: "💫", Metric: MetricTotalXP, Threshold: 20000, RewardXP: 250, RewardGold: 25},

		// Correct-answer milestones
		{ID: "correct_10", Name: "On the Board", Icon: "✓", Metric: MetricTotalCorrect, Threshold: 10, RewardXP: 10, RewardGold: 1},
		{ID: "correct_50", Name: "Sharp", Icon: "📋", Metric: MetricTotalCorrect, Threshold: 50, RewardXP: 25, RewardGold: 2},
		{ID: "correct_100", Name: "Century", Icon: "🏅", Metric: MetricTotalCorrect, Threshold: 100, RewardXP: 50, RewardGold: 5},
		{ID: "correct_500", Name: "Relentless", Icon: "🏆", Metric: MetricTotalCorrect, Threshold: 500, RewardXP: 150, RewardGold: 15},

		// Streak milestones
		{ID: "streak_3", Name: "Habit Forming", Icon: "🔁", Metric: MetricStreakDays, Threshold: 3, RewardXP: 15, RewardGold: 1},
		{ID: "streak_7", Name: "One Week", Icon: "🔥", Metric: MetricStreakDays, Threshold: 7, RewardXP: 40, RewardGold: 4},
		{ID: "streak_14", Name: "Fortnight", Icon: "⚡", Metric: MetricStreakDays, Threshold: 14, RewardXP: 80, RewardGold: 8},
		{ID: "streak_30", Name: "One Month", Icon: "🏵️", Metric: MetricStreakDays, Threshold: 30, RewardXP: 200, RewardGold: 20},
	}
}

// CheckMilestones returns every catalog milestone whose metric has reached
// its threshold and whose id is not yet in awarded, and marks them awarded.
// The awarded set is what makes the check monotone: a metric jumping past
// several thresholds in one update grants each exactly once, and repeat
// calls with the same metrics grant nothing.
func CheckMilestones(m Metrics, awarded map[string]bool) []Milestone {
	var crossed []Milestone
	for _, ms := range MilestoneCatalog() {
		if awarded[ms.ID] {
			continue
		}
		if m.value(ms.Metric) >= ms.Threshold {
			crossed = append(crossed, ms)
			awarded[ms.ID] = true
		}
	}
	sort.Slice(crossed, func(i, j int) bool { return crossed[i].ID < crossed[j].ID })
	return crossed
}
