package engine

import "time"

// StreakState is the per-user daily-continuity state. LastActiveDate is a
// local calendar-day string in DayFormat; empty means no activity ever.
type StreakState struct {
	StreakDays     int
	LastActiveDate string
}

// TouchStreak advances the streak for activity on the given day:
//
//	same day as last activity  -> no change (already counted)
//	day after last activity    -> streak + 1
//	anything else              -> streak restarts at 1
//
// Calling it again on the same day is a no-op on the counter, which is what
// makes session bootstrap idempotent.
func TouchStreak(s StreakState, today time.Time) StreakState {
	day := Day(today)
	yesterday := Day(today.AddDate(0, 0, -1))

	switch s.LastActiveDate {
	case day:
		return s
	case yesterday:
		s.StreakDays++
	default:
		s.StreakDays = 1
	}
	s.LastActiveDate = day
	return s
}
