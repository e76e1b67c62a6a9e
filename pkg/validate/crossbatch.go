package validate

import (
	"math"
	"sort"
	"time"

	"github.com/yapay-ai/usage-reconciler/pkg/model"
)

// DefaultTolerancePct is the mismatch tolerance applied when the caller
// passes a non-positive tolerance.
const DefaultTolerancePct = 1.0

// Discrepancy is one user/category pair whose weekly aggregate disagrees
// with the monthly total beyond tolerance.
type Discrepancy struct {
	Email        string  `json:"email"`
	Category     string  `json:"category"`
	WeeklyTotal  float64 `json:"weekly_total"`
	MonthlyTotal float64 `json:"monthly_total"`
	DiffPct      float64 `json:"diff_pct"`
	Note         string  `json:"note,omitempty"`
}

// ComparisonReport is the advisory result of a pre-merge weekly-vs-monthly
// comparison.
type ComparisonReport struct {
	Status        Status        `json:"status"`
	TolerancePct  float64       `json:"tolerance_pct"`
	UsersCompared int           `json:"users_compared"`
	Discrepancies []Discrepancy `json:"discrepancies,omitempty"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

type userCategory struct {
	email    string
	category string
}

// CompareWeeklyMonthly aggregates candidate weekly batches against a
// candidate monthly batch, per user and feature category, before either is
// merged. Mismatches beyond tolerancePct are reported as discrepancies.
// When the monthly total for a pair is zero but the weekly aggregate is
// not, the difference is reported as 100% and marked missing from monthly.
func CompareWeeklyMonthly(weeklyBatches [][]model.UsageRecord, monthlyBatch []model.UsageRecord, tolerancePct float64) *ComparisonReport {
	if tolerancePct <= 0 {
		tolerancePct = DefaultTolerancePct
	}
	report := &ComparisonReport{
		Status:       StatusPass,
		TolerancePct: tolerancePct,
		GeneratedAt:  time.Now().UTC(),
	}

	weekly := make(map[userCategory]float64)
	for _, batch := range weeklyBatches {
		for _, r := range batch {
			weekly[userCategory{email: r.Email, category: r.FeatureUsed}] += r.UsageCount
		}
	}
	monthly := make(map[userCategory]float64)
	for _, r := range monthlyBatch {
		monthly[userCategory{email: r.Email, category: r.FeatureUsed}] += r.UsageCount
	}

	keys := make(map[userCategory]struct{}, len(weekly)+len(monthly))
	users := make(map[string]struct{})
	for k := range weekly {
		keys[k] = struct{}{}
		users[k.email] = struct{}{}
	}
	for k := range monthly {
		keys[k] = struct{}{}
		users[k.email] = struct{}{}
	}
	report.UsersCompared = len(users)

	for key := range keys {
		w := weekly[key]
		m := monthly[key]
		if w == m {
			continue
		}

		var diffPct float64
		var note string
		switch {
		case m == 0:
			diffPct = 100.0
			note = "missing from monthly"
		case w == 0:
			diffPct = 100.0
			note = "missing from weekly"
		default:
			diffPct = math.Abs(w-m) / m * 100.0
		}
		if diffPct <= tolerancePct {
			continue
		}

		report.Discrepancies = append(report.Discrepancies, Discrepancy{
			Email:        key.email,
			Category:     key.category,
			WeeklyTotal:  w,
			MonthlyTotal: m,
			DiffPct:      diffPct,
			Note:         note,
		})
	}

	sort.Slice(report.Discrepancies, func(i, j int) bool {
		a, b := report.Discrepancies[i], report.Discrepancies[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		return a.Category < b.Category
	})

	for _, d := range report.Discrepancies {
		if d.Note != "" {
			report.Status = StatusFail
			break
		}
		report.Status = StatusWarning
	}

	return report
}

// CategoryViolation is a user whose sub-category counts exceed the
// declared total for the same date.
type CategoryViolation struct {
	Email    string    `json:"email"`
	Date     time.Time `json:"date"`
	Total    float64   `json:"total"`
	SubTotal float64   `json:"sub_total"`
	Features []string  `json:"features"`
}

type userDate struct {
	email string
	date  time.Time
}

// CheckCategoryTotals verifies that for each user and date the sum of
// sub-category counts does not exceed the declared total. Sub-categories
// are expected to be subsets of the total, so exceeding it indicates a
// vendor export problem. Violations are data-quality findings, not errors.
func CheckCategoryTotals(records []model.UsageRecord, totalFeature string, subFeatures []string) []CategoryViolation {
	subs := make(map[string]bool, len(subFeatures))
	for _, f := range subFeatures {
		subs[f] = true
	}

	totals := make(map[userDate]float64)
	subTotals := make(map[userDate]float64)
	seen := make(map[userDate][]string)
	for _, r := range records {
		key := userDate{email: r.Email, date: r.Date}
		switch {
		case r.FeatureUsed == totalFeature:
			totals[key] += r.UsageCount
		case subs[r.FeatureUsed]:
			subTotals[key] += r.UsageCount
			seen[key] = append(seen[key], r.FeatureUsed)
		}
	}

	var violations []CategoryViolation
	for key, sub := range subTotals {
		total, ok := totals[key]
		if !ok || sub <= total {
			continue
		}
		features := seen[key]
		sort.Strings(features)
		violations = append(violations, CategoryViolation{
			Email:    key.email,
			Date:     key.date,
			Total:    total,
			SubTotal: sub,
			Features: features,
		})
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		return a.Date.Before(b.Date)
	})
	return violations
}
