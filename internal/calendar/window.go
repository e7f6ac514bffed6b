// Package calendar computes view windows and navigation for the agenda.
// All arithmetic is done in the wall clock of the input date's location; the
// scheduling backend speaks local datetimes, never UTC.
package calendar

import (
	"fmt"
	"time"
)

// Wire formats used by the Amelia backend for dates and datetimes.
const (
	WireDate     = "2006-01-02"
	WireDateTime = "2006-01-02 15:04:05"
)

// Granularity is the calendar zoom level.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity validates a view string from the UI.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("calendar: unknown granularity %q", s)
}

// Window is a [Start, End] range for one view. End is inclusive, at the last
// millisecond of the final day.
type Window struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Granularity Granularity `json:"granularity"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ComputeWindow derives the fetch window for a selected date and view.
//
//	day:   selected 00:00:00.000 .. selected 23:59:59.999
//	week:  most recent Monday .. following Sunday 23:59:59.999
//	month: first of month .. last of month 23:59:59.999
func ComputeWindow(selected time.Time, g Granularity) Window {
	switch g {
	case GranularityWeek:
		start := startOfDay(WeekStart(selected))
		return Window{Start: start, End: endOfDay(start.AddDate(0, 0, 6)), Granularity: g}
	case GranularityMonth:
		y, m, _ := selected.Date()
		start := time.Date(y, m, 1, 0, 0, 0, 0, selected.Location())
		// Day 0 of the next month is the last day of this one.
		last := time.Date(y, m+1, 0, 0, 0, 0, 0, selected.Location())
		return Window{Start: start, End: endOfDay(last), Granularity: g}
	default:
		return Window{Start: startOfDay(selected), End: endOfDay(selected), Granularity: GranularityDay}
	}
}

// WeekStart returns the most recent Monday on or before t. A Sunday belongs
// to the week that started six days earlier.
func WeekStart(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	return startOfDay(t.AddDate(0, 0, -offset))
}

// WeekDays returns the seven days of the selected date's week, Monday first.
func WeekDays(selected time.Time) [7]time.Time {
	var days [7]time.Time
	start := WeekStart(selected)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// Navigate moves the selected date one step in the given direction:
// a day, a week, or a calendar month depending on granularity. Month moves
// clamp the day-of-month so Jan 31 +1 lands on the last day of February
// instead of overflowing into March.
func Navigate(selected time.Time, g Granularity, direction int) time.Time {
	switch g {
	case GranularityWeek:
		return selected.AddDate(0, 0, 7*direction)
	case GranularityMonth:
		y, m, d := selected.Date()
		hh, mm, ss := selected.Clock()
		first := time.Date(y, m+time.Month(direction), 1, 0, 0, 0, 0, selected.Location())
		if last := DaysInMonth(first.Year(), first.Month()); d > last {
			d = last
		}
		return time.Date(first.Year(), first.Month(), d, hh, mm, ss, selected.Nanosecond(), selected.Location())
	default:
		return selected.AddDate(0, 0, direction)
	}
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
