// Package period decides how reported usage maps onto calendar periods:
// weekly/monthly report classification, month attribution, and the
// sum-preserving proration and allocation between the two granularities.
package period

import "time"

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the start of the month after t's month.
func NextMonth(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0)
}

// WeekStart returns midnight UTC on the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-weekday+1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of calendar days in t's month.
func DaysInMonth(t time.Time) int {
	return NextMonth(t).Add(-time.Hour).Day()
}

// Midpoint returns the instant halfway between a and b.
func Midpoint(a, b time.Time) time.Time {
	return a.Add(b.Sub(a) / 2)
}
