package period

import (
	"regexp"
	"strings"
	"time"
)

// Weekly exports are named like "Acme weekly user report 2025-03-30.csv";
// both the token and the date are required, otherwise the file is monthly.
var isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// IsWeeklyFilename reports whether a filename denotes a weekly export: it must
// contain the token "weekly" (case-insensitive) and a YYYY-MM-DD date token.
func IsWeeklyFilename(name string) bool {
	return strings.Contains(strings.ToLower(name), "weekly") && isoDateRe.MatchString(name)
}

// AssignMonth picks the calendar month a record's usage belongs to. Zero times
// mean the input was missing. Priority:
//
//  1. Midpoint of first/last active dates: usage is attributed to when the
//     user was actually active, not an arbitrary period boundary.
//  2. Majority of days between the months the period start/end span, ties
//     going to the period start's month.
//  3. The period start's month.
//  4. The month containing now.
//
// Year boundaries need no special handling; only day counts are compared.
func AssignMonth(periodStart, periodEnd, firstActive, lastActive, now time.Time) time.Time {
	if !firstActive.IsZero() && !lastActive.IsZero() && !lastActive.Before(firstActive) {
		return MonthStart(Midpoint(firstActive, lastActive))
	}

	if !periodStart.IsZero() && !periodEnd.IsZero() && !periodEnd.Before(periodStart) {
		return MonthStart(majorityMonth(periodStart, periodEnd))
	}

	if !periodStart.IsZero() {
		return MonthStart(periodStart)
	}

	return MonthStart(now)
}

// majorityMonth returns a day inside whichever month contributes the most days
// to [start, end] inclusive. Ties resolve to start's month because days are
// counted in chronological order and later months must strictly exceed.
func majorityMonth(start, end time.Time) time.Time {
	counts := make(map[time.Time]int)
	best := MonthStart(start)
	bestCount := 0

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		m := MonthStart(d)
		counts[m]++
		if counts[m] > bestCount {
			best = m
			bestCount = counts[m]
		}
	}
	return best
}
