package vendors

// Compiled-in specs for the vendors we ingest today. A YAML file in the
// vendors directory with the same kind takes precedence at registry setup.

// NewOpenAI returns the spec for ChatGPT Enterprise per-user exports.
// ChatGPT is license-priced: the flat seat cost lands on the primary
// "ChatGPT Messages" record once per user per month, and the derivative
// tool/project counters carry zero cost so one seat is never billed twice.
func NewOpenAI() *Spec {
	return &Spec{
		Kind:   KindOpenAI,
		Tool:   "ChatGPT",
		Layout: LayoutLong,
		Fields: map[string][]string{
			FieldUserID:      {"user_id", "id", "public_id"},
			FieldUserName:    {"name", "user_name", "display_name"},
			FieldEmail:       {"email", "user_email", "email_address"},
			FieldDepartment:  {"department", "dept", "user_department"},
			FieldPeriodStart: {"period_start", "start_date", "week_start"},
			FieldPeriodEnd:   {"period_end", "end_date", "week_end"},
			FieldFirstActive: {"first_day_active_in_period", "first_active_date"},
			FieldLastActive:  {"last_day_active_in_period", "last_active_date"},
		},
		Features: []FeatureColumn{
			{Feature: "ChatGPT Messages", Aliases: []string{"messages", "message_count", "gpt_messages"}},
			{Feature: "Tool Messages", Aliases: []string{"tool_messages", "tools_messages"}},
			{Feature: "Project Messages", Aliases: []string{"project_messages", "projects_messages"}},
		},
		PrimaryFeature: "ChatGPT Messages",
		LicenseCostUSD: 60.0,
	}
}

// NewBlueFlame returns the spec for BlueFlame AI pivoted monthly exports:
// Rank / User ID / Metric identity columns plus one column per reporting
// month, usage-priced per message.
func NewBlueFlame() *Spec {
	return &Spec{
		Kind:   KindBlueFlame,
		Tool:   "BlueFlame AI",
		Layout: LayoutWide,
		Fields: map[string][]string{
			FieldUserID: {"user id", "user_id", "user"},
			FieldMetric: {"metric", "measure"},
		},
		Features: []FeatureColumn{
			{Feature: "BlueFlame Messages", CostPerUnit: 0.04},
			{Feature: "BlueFlame Documents", CostPerUnit: 0.10},
		},
		MetricFeatures: map[string]string{
			"Messages":  "BlueFlame Messages",
			"Documents": "BlueFlame Documents",
		},
		PrimaryFeature: "BlueFlame Messages",
	}
}

// NewAnthropic returns the spec for Claude workspace per-user exports.
func NewAnthropic() *Spec {
	return &Spec{
		Kind:   KindAnthropic,
		Tool:   "Claude",
		Layout: LayoutLong,
		Fields: map[string][]string{
			FieldUserID:      {"user_id", "id"},
			FieldUserName:    {"name", "user_name"},
			FieldEmail:       {"email", "email_address"},
			FieldDepartment:  {"department"},
			FieldPeriodStart: {"period_start", "start_date"},
			FieldPeriodEnd:   {"period_end", "end_date"},
			FieldFirstActive: {"first_active_date"},
			FieldLastActive:  {"last_active_date"},
		},
		Features: []FeatureColumn{
			{Feature: "Claude Messages", Aliases: []string{"messages", "conversations"}},
			{Feature: "Claude Project Messages", Aliases: []string{"project_messages"}},
		},
		PrimaryFeature: "Claude Messages",
		LicenseCostUSD: 60.0,
	}
}

// Builtins returns the compiled-in specs for all supported vendors.
func Builtins() []*Spec {
	return []*Spec{NewOpenAI(), NewBlueFlame(), NewAnthropic()}
}
