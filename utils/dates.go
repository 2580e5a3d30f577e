// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// DayWindow holds the calendar-day boundaries used by the eligibility rules, all
// expressed in the reference location.
type DayWindow struct {
	Now              time.Time
	Today            time.Time
	Tomorrow         time.Time
	DayAfterTomorrow time.Time
}

// NewDayWindow computes today's boundaries for now as seen in loc. AddDate keeps
// the boundaries on local midnight across DST changes.
func NewDayWindow(now time.Time, loc *time.Location) DayWindow {
	local := now.In(loc)
	today := BeginningOfDay(local)
	return DayWindow{
		Now:              local,
		Today:            today,
		Tomorrow:         today.AddDate(0, 0, 1),
		DayAfterTomorrow: today.AddDate(0, 0, 2),
	}
}
