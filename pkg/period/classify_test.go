package period_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yapay-ai/usage-reconciler/pkg/period"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsWeeklyFilename(t *testing.T) {
	tests := []struct {
		name   string
		weekly bool
	}{
		{"Acme weekly user report 2025-03-30.csv", true},
		{"Acme WEEKLY export 2025-01-06.csv", true},
		{"Acme monthly user report March.csv", false},
		{"weekly-report-no-date.csv", false}, // date token required
		{"report 2025-03-30.csv", false},     // weekly token required
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.weekly, period.IsWeeklyFilename(tt.name), tt.name)
	}
}

func TestAssignMonth_MidpointRule(t *testing.T) {
	// Week spans March 30 - April 5 but the user was only active April 2-5:
	// midpoint attribution picks April, not March.
	got := period.AssignMonth(
		date(2025, time.March, 30), date(2025, time.April, 5),
		date(2025, time.April, 2), date(2025, time.April, 5),
		date(2025, time.April, 10),
	)
	assert.Equal(t, date(2025, time.April, 1), got)
}

func TestAssignMonth_MajorityDays(t *testing.T) {
	// March 30 - April 5: 2 March days vs 5 April days.
	got := period.AssignMonth(
		date(2025, time.March, 30), date(2025, time.April, 5),
		time.Time{}, time.Time{},
		date(2025, time.April, 10),
	)
	assert.Equal(t, date(2025, time.April, 1), got)
}

func TestAssignMonth_MajorityTieGoesToStartMonth(t *testing.T) {
	// March 30 - April 2: two days in each month.
	got := period.AssignMonth(
		date(2025, time.March, 30), date(2025, time.April, 2),
		time.Time{}, time.Time{},
		date(2025, time.April, 10),
	)
	assert.Equal(t, date(2025, time.March, 1), got)
}

func TestAssignMonth_YearBoundary(t *testing.T) {
	// Dec 30 2024 - Jan 5 2025: 2 December days vs 5 January days.
	got := period.AssignMonth(
		date(2024, time.December, 30), date(2025, time.January, 5),
		time.Time{}, time.Time{},
		date(2025, time.January, 8),
	)
	assert.Equal(t, date(2025, time.January, 1), got)
}

func TestAssignMonth_PeriodStartOnly(t *testing.T) {
	got := period.AssignMonth(
		date(2025, time.June, 15), time.Time{},
		time.Time{}, time.Time{},
		date(2025, time.July, 1),
	)
	assert.Equal(t, date(2025, time.June, 1), got)
}

func TestAssignMonth_FallbackToNow(t *testing.T) {
	got := period.AssignMonth(
		time.Time{}, time.Time{}, time.Time{}, time.Time{},
		date(2025, time.May, 20),
	)
	assert.Equal(t, date(2025, time.May, 1), got)
}

func TestWeekStart(t *testing.T) {
	// 2025-04-02 is a Wednesday; its ISO week starts Monday 2025-03-31.
	assert.Equal(t, date(2025, time.March, 31), period.WeekStart(date(2025, time.April, 2)))
	// Sunday belongs to the week starting the previous Monday.
	assert.Equal(t, date(2025, time.March, 31), period.WeekStart(date(2025, time.April, 6)))
	// Monday is its own week start.
	assert.Equal(t, date(2025, time.April, 7), period.WeekStart(date(2025, time.April, 7)))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 28, period.DaysInMonth(date(2025, time.February, 10)))
	assert.Equal(t, 29, period.DaysInMonth(date(2024, time.February, 1))) // leap
	assert.Equal(t, 30, period.DaysInMonth(date(2025, time.April, 30)))
	assert.Equal(t, 31, period.DaysInMonth(date(2025, time.January, 15)))
}
