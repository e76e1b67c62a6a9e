package alerts

import "context"

// AlertLevel indicates the severity of an alert.
type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"  // Approaching budget threshold, or advisory finding
	AlertCritical AlertLevel = "critical" // At or near budget limit
	AlertExceeded AlertLevel = "exceeded" // Budget limit exceeded
)

// AlertSource indicates which subsystem raised an alert.
type AlertSource string

const (
	SourceBudget     AlertSource = "budget"     // Spend threshold crossed
	SourceValidation AlertSource = "validation" // Duplicate or consistency finding
)

// Alert represents a notification raised during ingestion or validation.
// Budget fields are populated for SourceBudget, finding fields for
// SourceValidation.
type Alert struct {
	Level  AlertLevel  `json:"level"`
	Source AlertSource `json:"source"`

	BudgetName   string  `json:"budget_name,omitempty"`
	LimitUSD     float64 `json:"limit_usd,omitempty"`
	CurrentSpend float64 `json:"current_spend,omitempty"`
	ThresholdPct float64 `json:"threshold_pct,omitempty"`
	Period       string  `json:"period,omitempty"`

	FileSource string `json:"file_source,omitempty"`
	Findings   int    `json:"findings,omitempty"`

	Message string `json:"message"`
}

// NewValidationAlert builds an advisory alert for consistency findings
// discovered against stored data.
func NewValidationAlert(fileSource string, findings int, message string) Alert {
	return Alert{
		Level:      AlertWarning,
		Source:     SourceValidation,
		FileSource: fileSource,
		Findings:   findings,
		Message:    message,
	}
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
