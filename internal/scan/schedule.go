package scan

import (
	"time"

	"github.com/jtdct/sonora/internal/catalog"
)

// NextOccurrence computes the next scheduled scan time as a pure function
// of (now, period, startOfDaySeconds, manualRequested), per spec §4.7's
// design note that scheduling math must be testable without wall-clock
// manipulation. It returns ok=false when nothing should be scheduled
// (period is "never" and no manual scan is pending).
func NextOccurrence(now time.Time, period catalog.UpdatePeriod, startOfDaySeconds int, manualRequested bool) (time.Time, bool) {
	if manualRequested {
		return now, true
	}
	switch period {
	case catalog.PeriodDaily:
		return nextDailyOccurrence(now, startOfDaySeconds), true
	case catalog.PeriodWeekly:
		return nextWeeklyOccurrence(now, startOfDaySeconds), true
	case catalog.PeriodMonthly:
		return nextMonthlyOccurrence(now, startOfDaySeconds), true
	default: // catalog.PeriodNever and anything unrecognized
		return time.Time{}, false
	}
}

// startOfDayOn returns the instant offsetSeconds into the calendar day
// that date falls on, in date's own location.
func startOfDayOn(date time.Time, offsetSeconds int) time.Time {
	y, m, d := date.Date()
	base := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return base.Add(time.Duration(offsetSeconds) * time.Second)
}

func nextDailyOccurrence(now time.Time, offsetSeconds int) time.Time {
	if candidate := startOfDayOn(now, offsetSeconds); candidate.After(now) {
		return candidate
	}
	return startOfDayOn(now.AddDate(0, 0, 1), offsetSeconds)
}

func nextWeeklyOccurrence(now time.Time, offsetSeconds int) time.Time {
	if now.Weekday() == time.Monday {
		if candidate := startOfDayOn(now, offsetSeconds); candidate.After(now) {
			return candidate
		}
	}
	d := now.AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return startOfDayOn(d, offsetSeconds)
}

func nextMonthlyOccurrence(now time.Time, offsetSeconds int) time.Time {
	if now.Day() == 1 {
		if candidate := startOfDayOn(now, offsetSeconds); candidate.After(now) {
			return candidate
		}
	}
	d := now.AddDate(0, 0, 1)
	for d.Day() != 1 {
		d = d.AddDate(0, 0, 1)
	}
	return startOfDayOn(d, offsetSeconds)
}
