package vendors

import "fmt"

// Kind identifies a supported vendor export family. It is resolved once at
// ingestion time and passed explicitly downstream; no string sniffing later.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindBlueFlame Kind = "blueflame"
	KindAnthropic Kind = "anthropic"
)

// Layout distinguishes the two raw table shapes vendors export.
type Layout string

const (
	// LayoutLong has one row per user per period, feature counts in columns.
	LayoutLong Layout = "long"
	// LayoutWide is pivoted: fixed identity columns plus one column per
	// reporting month (Mon-YY or YY-Mon headers).
	LayoutWide Layout = "wide"
)

// Canonical field names used as keys in a Spec's alias map.
const (
	FieldUserID      = "user_id"
	FieldUserName    = "user_name"
	FieldEmail       = "email"
	FieldDepartment  = "department"
	FieldPeriodStart = "period_start"
	FieldPeriodEnd   = "period_end"
	FieldFirstActive = "first_active"
	FieldLastActive  = "last_active"
	FieldMetric      = "metric"
)

// FeatureColumn maps a raw count column onto a canonical feature, with the
// per-unit cost applied to counts from that column.
type FeatureColumn struct {
	Feature     string   `yaml:"feature"`
	Aliases     []string `yaml:"aliases"`
	CostPerUnit float64  `yaml:"cost_per_unit"`
}

// Spec is the declarative, read-only description of one vendor's export:
// which headers mean what, which features exist, and how cost is assigned.
type Spec struct {
	Kind           Kind                `yaml:"kind"`
	Tool           string              `yaml:"tool"`
	Layout         Layout              `yaml:"layout"`
	Fields         map[string][]string `yaml:"fields"`
	Features       []FeatureColumn     `yaml:"features"`
	PrimaryFeature string              `yaml:"primary_feature"`
	// LicenseCostUSD is a flat monthly per-user cost. When non-zero it is
	// applied to exactly one primary-feature record per user per month,
	// with derivative features carried at zero cost.
	LicenseCostUSD float64 `yaml:"license_cost_usd"`
	// MetricFeatures maps a wide-layout Metric cell value onto a feature.
	MetricFeatures map[string]string `yaml:"metric_features"`
}

// Validate checks the spec for the minimum a normalizer needs.
func (s *Spec) Validate() error {
	if s.Kind == "" {
		return fmt.Errorf("vendor spec: missing kind")
	}
	if s.Tool == "" {
		return fmt.Errorf("vendor spec %s: missing tool name", s.Kind)
	}
	switch s.Layout {
	case LayoutLong:
		if len(s.Features) == 0 {
			return fmt.Errorf("vendor spec %s: long layout needs at least one feature column", s.Kind)
		}
	case LayoutWide:
		if len(s.MetricFeatures) == 0 {
			return fmt.Errorf("vendor spec %s: wide layout needs a metric_features map", s.Kind)
		}
	default:
		return fmt.Errorf("vendor spec %s: unknown layout %q", s.Kind, s.Layout)
	}
	return nil
}

// Aliases returns the ordered header aliases for a canonical field.
func (s *Spec) Aliases(field string) []string {
	return s.Fields[field]
}

// CostPerUnit returns the per-unit cost for a feature, or 0 when the feature
// is unknown or license-priced.
func (s *Spec) CostPerUnit(feature string) float64 {
	for _, f := range s.Features {
		if f.Feature == feature {
			return f.CostPerUnit
		}
	}
	return 0
}

// SubFeatures returns the features other than the primary one, in spec order.
func (s *Spec) SubFeatures() []string {
	var subs []string
	for _, f := range s.Features {
		if f.Feature != s.PrimaryFeature {
			subs = append(subs, f.Feature)
		}
	}
	return subs
}
