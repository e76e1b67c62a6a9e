package period

import (
	"fmt"
	"sort"
	"time"

	"github.com/yapay-ai/usage-reconciler/pkg/model"
)

// AllocationMethod selects how a monthly total is distributed across weeks.
type AllocationMethod string

const (
	// AllocateEvenByDay spreads the total uniformly over every calendar day.
	AllocateEvenByDay AllocationMethod = "even_by_day"
	// AllocateBusinessDays zeroes Saturday/Sunday and renormalizes the
	// weekday shares so the monthly total is still exactly preserved.
	AllocateBusinessDays AllocationMethod = "business_days"
	// AllocateProportionalToReference follows the weekly shape of a
	// higher-resolution reference series covering the same month; months
	// without positive reference data fall back to even-by-day.
	AllocateProportionalToReference AllocationMethod = "proportional_to_reference"
)

// AllocateMonthlyToWeekly distributes monthly-granularity records into ISO
// weeks (Monday start). Input records carry a month start as their Date;
// output records carry week starts, which may fall in the preceding month for
// the first partial week. Usage and cost sums are preserved per record.
//
// For the proportional method, reference must be a weekly-granularity series
// (Date = week start); each reference week is attributed to its majority-day
// month. When a month has any positive reference data, the whole month is
// allocated across exactly those reference weeks; otherwise the record falls
// back to even-by-day.
func AllocateMonthlyToWeekly(records []model.UsageRecord, method AllocationMethod, reference []model.UsageRecord) ([]model.UsageRecord, error) {
	switch method {
	case AllocateEvenByDay, AllocateBusinessDays, AllocateProportionalToReference:
	default:
		return nil, fmt.Errorf("unknown allocation method %q", method)
	}

	var refShares map[time.Time]map[time.Time]float64
	if method == AllocateProportionalToReference {
		refShares = referenceWeekShares(reference)
	}

	var out []model.UsageRecord
	for _, rec := range records {
		monthStart := MonthStart(rec.Date)

		if method == AllocateProportionalToReference {
			if weeks := refShares[monthStart]; len(weeks) > 0 {
				out = append(out, allocateByShares(rec, weeks)...)
				continue
			}
			// No reference coverage for this month.
			out = append(out, allocateByDays(rec, monthStart, false)...)
			continue
		}

		out = append(out, allocateByDays(rec, monthStart, method == AllocateBusinessDays)...)
	}

	sortRecords(out)
	return out, nil
}

// allocateByDays expands a monthly record into its days and regroups them into
// ISO weeks. With businessOnly set, weekend days get zero and the total is
// spread over the month's weekdays instead.
func allocateByDays(rec model.UsageRecord, monthStart time.Time, businessOnly bool) []model.UsageRecord {
	days := DaysInMonth(monthStart)

	denominator := float64(days)
	if businessOnly {
		weekdays := 0
		for i := 0; i < days; i++ {
			if isBusinessDay(monthStart.AddDate(0, 0, i)) {
				weekdays++
			}
		}
		denominator = float64(weekdays)
	}

	byWeek := make(map[time.Time]float64)
	var weekOrder []time.Time
	for i := 0; i < days; i++ {
		day := monthStart.AddDate(0, 0, i)
		if businessOnly && !isBusinessDay(day) {
			continue
		}
		week := WeekStart(day)
		if _, ok := byWeek[week]; !ok {
			weekOrder = append(weekOrder, week)
		}
		byWeek[week] += 1 / denominator
	}

	out := make([]model.UsageRecord, 0, len(weekOrder))
	for _, week := range weekOrder {
		clone := rec
		clone.Date = week
		clone.UsageCount = rec.UsageCount * byWeek[week]
		clone.CostUSD = rec.CostUSD * byWeek[week]
		out = append(out, clone)
	}
	return out
}

// allocateByShares splits a record across reference weeks proportionally to
// their relative usage.
func allocateByShares(rec model.UsageRecord, weeks map[time.Time]float64) []model.UsageRecord {
	var total float64
	var weekOrder []time.Time
	for week, count := range weeks {
		total += count
		weekOrder = append(weekOrder, week)
	}
	sort.Slice(weekOrder, func(i, j int) bool { return weekOrder[i].Before(weekOrder[j]) })

	out := make([]model.UsageRecord, 0, len(weekOrder))
	for _, week := range weekOrder {
		share := weeks[week] / total
		if share == 0 {
			continue
		}
		clone := rec
		clone.Date = week
		clone.UsageCount = rec.UsageCount * share
		clone.CostUSD = rec.CostUSD * share
		out = append(out, clone)
	}
	return out
}

// referenceWeekShares aggregates a weekly reference series into per-month week
// weights. Each reference week belongs to the month holding the majority of
// its days.
func referenceWeekShares(reference []model.UsageRecord) map[time.Time]map[time.Time]float64 {
	shares := make(map[time.Time]map[time.Time]float64)
	for _, rec := range reference {
		if rec.UsageCount <= 0 {
			continue
		}
		week := WeekStart(rec.Date)
		month := AssignMonth(week, week.AddDate(0, 0, 6), time.Time{}, time.Time{}, week)
		if shares[month] == nil {
			shares[month] = make(map[time.Time]float64)
		}
		shares[month][week] += rec.UsageCount
	}
	return shares
}

func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func sortRecords(records []model.UsageRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		if a.FeatureUsed != b.FeatureUsed {
			return a.FeatureUsed < b.FeatureUsed
		}
		return a.Date.Before(b.Date)
	})
}
