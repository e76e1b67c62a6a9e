package period_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/period"
)

func monthlyRecord(monthStart time.Time, count float64) model.UsageRecord {
	return model.UsageRecord{
		UserID:      "u1",
		Email:       "alice@acme.com",
		Date:        monthStart,
		FeatureUsed: "BlueFlame Messages",
		UsageCount:  count,
		CostUSD:     count * 0.04,
		ToolSource:  "BlueFlame AI",
		FileSource:  "monthly.csv",
	}
}

func TestAllocateMonthlyToWeekly_SumPreservedAllMethodsAndMonthLengths(t *testing.T) {
	months := []time.Time{
		date(2025, time.February, 1), // 28 days
		date(2024, time.February, 1), // 29 days, leap year
		date(2025, time.April, 1),    // 30 days
		date(2025, time.January, 1),  // 31 days
	}
	methods := []period.AllocationMethod{
		period.AllocateEvenByDay,
		period.AllocateBusinessDays,
		period.AllocateProportionalToReference,
	}

	for _, month := range months {
		for _, method := range methods {
			t.Run(fmt.Sprintf("%s_%s", month.Format("2006-01"), method), func(t *testing.T) {
				out, err := period.AllocateMonthlyToWeekly(
					[]model.UsageRecord{monthlyRecord(month, 1234.5)}, method, nil)
				require.NoError(t, err)
				assert.InDelta(t, 1234.5, sumUsage(out), 1e-2)
			})
		}
	}
}

func TestAllocateMonthlyToWeekly_EvenByDay(t *testing.T) {
	// April 2025: starts Tuesday, 30 days.
	out, err := period.AllocateMonthlyToWeekly(
		[]model.UsageRecord{monthlyRecord(date(2025, time.April, 1), 300)},
		period.AllocateEvenByDay, nil)
	require.NoError(t, err)

	// Weeks starting Mar 31, Apr 7, 14, 21, 28.
	require.Len(t, out, 5)
	assert.Equal(t, date(2025, time.March, 31), out[0].Date)
	assert.InDelta(t, 60, out[0].UsageCount, 1e-9) // Apr 1-6: 6 days of 10
	assert.InDelta(t, 70, out[1].UsageCount, 1e-9) // full week
	assert.InDelta(t, 30, out[4].UsageCount, 1e-9) // Apr 28-30
	for _, r := range out {
		assert.Equal(t, time.Monday, r.Date.Weekday())
	}
}

func TestAllocateMonthlyToWeekly_BusinessDays(t *testing.T) {
	// April 2025 has 22 business days.
	out, err := period.AllocateMonthlyToWeekly(
		[]model.UsageRecord{monthlyRecord(date(2025, time.April, 1), 220)},
		period.AllocateBusinessDays, nil)
	require.NoError(t, err)

	assert.InDelta(t, 220, sumUsage(out), 1e-2)
	// First partial week contributes Apr 1-4 (Tue-Fri): 4 business days.
	assert.Equal(t, date(2025, time.March, 31), out[0].Date)
	assert.InDelta(t, 40, out[0].UsageCount, 1e-9)
}

func TestAllocateMonthlyToWeekly_ProportionalToReference(t *testing.T) {
	// Reference weekly series for April 2025 weighting 1:3 across two weeks.
	reference := []model.UsageRecord{
		{Date: date(2025, time.April, 7), UsageCount: 25, FeatureUsed: "ChatGPT Messages"},
		{Date: date(2025, time.April, 14), UsageCount: 75, FeatureUsed: "ChatGPT Messages"},
	}

	out, err := period.AllocateMonthlyToWeekly(
		[]model.UsageRecord{monthlyRecord(date(2025, time.April, 1), 400)},
		period.AllocateProportionalToReference, reference)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, date(2025, time.April, 7), out[0].Date)
	assert.InDelta(t, 100, out[0].UsageCount, 1e-9)
	assert.Equal(t, date(2025, time.April, 14), out[1].Date)
	assert.InDelta(t, 300, out[1].UsageCount, 1e-9)
}

func TestAllocateMonthlyToWeekly_ProportionalFallsBackWithoutReference(t *testing.T) {
	// Reference only covers May; the April record falls back to even-by-day.
	reference := []model.UsageRecord{
		{Date: date(2025, time.May, 5), UsageCount: 100},
	}

	out, err := period.AllocateMonthlyToWeekly(
		[]model.UsageRecord{monthlyRecord(date(2025, time.April, 1), 300)},
		period.AllocateProportionalToReference, reference)
	require.NoError(t, err)

	require.Len(t, out, 5)
	assert.InDelta(t, 300, sumUsage(out), 1e-2)
}

func TestAllocateMonthlyToWeekly_CostFollowsShares(t *testing.T) {
	out, err := period.AllocateMonthlyToWeekly(
		[]model.UsageRecord{monthlyRecord(date(2025, time.April, 1), 300)},
		period.AllocateEvenByDay, nil)
	require.NoError(t, err)

	var totalCost float64
	for _, r := range out {
		totalCost += r.CostUSD
	}
	assert.InDelta(t, 12.0, totalCost, 1e-2)
}

func TestAllocateMonthlyToWeekly_UnknownMethod(t *testing.T) {
	_, err := period.AllocateMonthlyToWeekly(nil, "nope", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown allocation method")
}
