package engine

const (
	// DailyGoalSolved is the answers-per-day threshold for the daily_goal bonus.
	DailyGoalSolved = 30
	// DailyAccuracyCorrect is the correct-per-day threshold for the accuracy bonus.
	DailyAccuracyCorrect = 20

	DailyGoalXP       = 20
	DailyGoalGold     = 2
	DailyAccuracyXP   = 15
	DailyAccuracyGold = 1

	DailySolvedXP  = 1
	DailyCorrectXP = 5
)

// DailyGrants records, per reward component, the local day it was last
// granted on. Day markers rather than booleans: a boolean would need a reset
// job, and a missed reset double-grants. Empty string means never granted.
type DailyGrants struct {
	FlatGrantedOn     string
	GoalGrantedOn     string
	AccuracyGrantedOn string
}

// DailyReward settles the day's counters into a reward. The flat portion and
// each threshold bonus are granted at most once per local day, guarded by
// the per-component day markers; claiming is otherwise idempotent and can be
// re-invoked as counters grow.
func DailyReward(dailySolved, dailyCorrect int, grants DailyGrants, today string) (ScoreResult, DailyGrants) {
	var res ScoreResult

	if grants.FlatGrantedOn != today {
		res.XP += dailySolved*DailySolvedXP + dailyCorrect*DailyCorrectXP
		grants.FlatGrantedOn = today
	}
	if dailySolved >= DailyGoalSolved && grants.GoalGrantedOn != today {
		res.XP += DailyGoalXP
		res.Gold += DailyGoalGold
		res.Bonuses = append(res.Bonuses, BonusDailyGoal)
		grants.GoalGrantedOn = today
	}
	if dailyCorrect >= DailyAccuracyCorrect && grants.AccuracyGrantedOn != today {
		res.XP += DailyAccuracyXP
		res.Gold += DailyAccuracyGold
		res.Bonuses = append(res.Bonuses, BonusAccuracy)
		grants.AccuracyGrantedOn = today
	}

	return res, grants
}
