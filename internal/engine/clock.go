package engine

import "time"

// DayFormat is the local calendar-day key used for streaks, daily counters
// and grant markers.
const DayFormat = "2006-01-02"

// Clock abstracts "now" so scheduling and streak logic are deterministic in
// tests. Domain code never calls time.Now directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock returns a Clock reporting wall-clock time in loc.
// A nil loc means time.Local.
func NewSystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// FixedClock always reports the same instant. Tests advance it explicitly.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

func (c *FixedClock) AdvanceDays(n int) { c.T = c.T.AddDate(0, 0, n) }

// Day returns the local calendar-day key for t.
func Day(t time.Time) string {
	return t.Format(DayFormat)
}

// daysBetween counts whole calendar days from a to b, ignoring clock time.
func daysBetween(a, b time.Time) int {
	aa := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bb := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bb.Sub(aa).Hours() / 24)
}
