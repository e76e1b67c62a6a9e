package model

import "time"

// UsageRecord is the canonical, vendor-agnostic representation of one usage
// event. Email (lowercased) is the natural identity key for a person; UserID
// may vary per ingestion (some vendors emit per-feature synthetic IDs).
type UsageRecord struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	UserName    string    `json:"user_name" db:"user_name"`
	Email       string    `json:"email" db:"email"`
	Department  string    `json:"department" db:"department"`
	Date        time.Time `json:"date" db:"date"`
	FeatureUsed string    `json:"feature_used" db:"feature_used"`
	UsageCount  float64   `json:"usage_count" db:"usage_count"`
	CostUSD     float64   `json:"cost_usd" db:"cost_usd"`
	ToolSource  string    `json:"tool_source" db:"tool_source"`
	FileSource  string    `json:"file_source" db:"file_source"`
}

// BudgetPeriod defines the time window for a spend budget.
type BudgetPeriod string

const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
)

// Budget defines a spending limit for a time period.
type Budget struct {
	ID                string       `json:"id" db:"id"`
	Name              string       `json:"name" db:"name"`
	LimitUSD          float64      `json:"limit_usd" db:"limit_usd"`
	Period            BudgetPeriod `json:"period" db:"period"`
	CurrentSpend      float64      `json:"current_spend" db:"current_spend"`
	AlertThresholdPct float64      `json:"alert_threshold_pct" db:"alert_threshold_pct"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// ReportFilter controls what usage records are included in queries and reports.
type ReportFilter struct {
	Tool       string    `json:"tool,omitempty"`
	Email      string    `json:"email,omitempty"`
	Department string    `json:"department,omitempty"`
	Feature    string    `json:"feature,omitempty"`
	FileSource string    `json:"file_source,omitempty"`
	StartTime  time.Time `json:"start_time,omitempty"`
	EndTime    time.Time `json:"end_time,omitempty"`
}

// UsageSummary holds aggregated usage statistics.
type UsageSummary struct {
	TotalUsage   float64            `json:"total_usage"`
	TotalCostUSD float64            `json:"total_cost_usd"`
	RecordCount  int64              `json:"record_count"`
	UniqueUsers  int64              `json:"unique_users"`
	ByTool       map[string]float64 `json:"by_tool,omitempty"`
	ByFeature    map[string]float64 `json:"by_feature,omitempty"`
	ByDepartment map[string]float64 `json:"by_department,omitempty"`
}

// FileSourceInfo describes one ingested upload as stored.
type FileSourceInfo struct {
	Name        string    `json:"name"`
	RecordCount int64     `json:"record_count"`
	TotalUsage  float64   `json:"total_usage"`
	TotalCost   float64   `json:"total_cost_usd"`
	FirstDate   time.Time `json:"first_date"`
	LastDate    time.Time `json:"last_date"`
}

// PeriodBounds returns the start and end time for the current period.
func PeriodBounds(period BudgetPeriod) (start, end time.Time) {
	now := time.Now().UTC()
	switch period {
	case PeriodDaily:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	case PeriodWeekly:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day()-weekday+1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	}
	return start, end
}
