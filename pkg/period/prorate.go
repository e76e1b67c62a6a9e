package period

import (
	"sort"
	"time"

	"github.com/yapay-ai/usage-reconciler/pkg/model"
)

// groupKey identifies the output bucket a day fragment lands in.
type groupKey struct {
	userID  string
	email   string
	feature string
	tool    string
	file    string
	date    time.Time
}

// ProrateWeeklyToMonthly splits weekly records across the calendar months their
// week touches. Each record's Date is the week start; the week is expanded to
// its 7 constituent days at count/7 each, and the day fragments are regrouped
// by month. The total is preserved exactly no matter how many months the week
// spans (one or two, rarely three at year boundaries). Costs follow the same
// shares. Output records carry the month start as their Date.
func ProrateWeeklyToMonthly(records []model.UsageRecord) []model.UsageRecord {
	grouped := make(map[groupKey]*model.UsageRecord)
	var order []groupKey

	for _, rec := range records {
		weekStart := rec.Date
		dayCount := rec.UsageCount / 7
		dayCost := rec.CostUSD / 7

		for i := 0; i < 7; i++ {
			day := weekStart.AddDate(0, 0, i)
			key := groupKey{
				userID:  rec.UserID,
				email:   rec.Email,
				feature: rec.FeatureUsed,
				tool:    rec.ToolSource,
				file:    rec.FileSource,
				date:    MonthStart(day),
			}
			out, ok := grouped[key]
			if !ok {
				clone := rec
				clone.Date = key.date
				clone.UsageCount = 0
				clone.CostUSD = 0
				grouped[key] = &clone
				order = append(order, key)
				out = grouped[key]
			}
			out.UsageCount += dayCount
			out.CostUSD += dayCost
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.email != b.email {
			return a.email < b.email
		}
		if a.userID != b.userID {
			return a.userID < b.userID
		}
		if a.feature != b.feature {
			return a.feature < b.feature
		}
		return a.date.Before(b.date)
	})

	out := make([]model.UsageRecord, 0, len(order))
	for _, key := range order {
		out = append(out, *grouped[key])
	}
	return out
}
