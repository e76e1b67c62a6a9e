// Package normalize turns a vendor's raw tabular export into canonical usage
// records, consulting the period classifier and proration engine so weekly and
// monthly reports land on comparable calendar months.
package normalize

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/period"
	"github.com/yapay-ai/usage-reconciler/pkg/tabular"
	"github.com/yapay-ai/usage-reconciler/pkg/vendors"
)

// Normalizer maps one vendor's raw table shape onto canonical records.
type Normalizer struct {
	spec   *vendors.Spec
	logger *slog.Logger
	now    func() time.Time
}

// Result carries the normalized batch plus what was discarded on the way.
type Result struct {
	Records     []model.UsageRecord
	Weekly      bool
	RowsDropped int
}

// New creates a normalizer for the given vendor spec.
func New(spec *vendors.Spec, logger *slog.Logger) *Normalizer {
	return &Normalizer{spec: spec, logger: logger, now: time.Now}
}

// WithClock overrides the processing-time fallback used for month assignment.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize converts a raw table into canonical records. Rows without a
// resolvable user identity are dropped (counted, logged, never fatal); weekly
// files are prorated into months before costs are assigned.
func (n *Normalizer) Normalize(tbl tabular.Table, filename string) (*Result, error) {
	if n.spec.Layout == vendors.LayoutWide {
		return n.normalizeWide(tbl, filename)
	}
	return n.normalizeLong(tbl, filename)
}

// columns holds alias resolution done once per file, never per row.
type columns struct {
	userID      int
	userName    int
	email       int
	department  int
	periodStart int
	periodEnd   int
	firstActive int
	lastActive  int
	features    map[string]int // feature name -> column index
}

func (n *Normalizer) resolveColumns(tbl tabular.Table) columns {
	cols := columns{
		userID:      resolveAlias(tbl, n.spec.Aliases(vendors.FieldUserID)),
		userName:    resolveAlias(tbl, n.spec.Aliases(vendors.FieldUserName)),
		email:       resolveAlias(tbl, n.spec.Aliases(vendors.FieldEmail)),
		department:  resolveAlias(tbl, n.spec.Aliases(vendors.FieldDepartment)),
		periodStart: resolveAlias(tbl, n.spec.Aliases(vendors.FieldPeriodStart)),
		periodEnd:   resolveAlias(tbl, n.spec.Aliases(vendors.FieldPeriodEnd)),
		firstActive: resolveAlias(tbl, n.spec.Aliases(vendors.FieldFirstActive)),
		lastActive:  resolveAlias(tbl, n.spec.Aliases(vendors.FieldLastActive)),
		features:    make(map[string]int),
	}
	for _, f := range n.spec.Features {
		if idx := resolveAlias(tbl, f.Aliases); idx >= 0 {
			cols.features[f.Feature] = idx
		}
	}
	return cols
}

// resolveAlias returns the index of the first alias present in the header row.
func resolveAlias(tbl tabular.Table, aliases []string) int {
	for _, alias := range aliases {
		if idx := tbl.Index(alias); idx >= 0 {
			return idx
		}
	}
	return -1
}

func (n *Normalizer) normalizeLong(tbl tabular.Table, filename string) (*Result, error) {
	cols := n.resolveColumns(tbl)
	if len(cols.features) == 0 {
		return nil, fmt.Errorf("normalize %s: no %s feature columns found in header", filename, n.spec.Kind)
	}

	weekly := period.IsWeeklyFilename(filename)
	res := &Result{Weekly: weekly}

	// Assigned month per person, used to anchor license cost after proration.
	assignedMonth := make(map[string]time.Time)

	var raw []model.UsageRecord
	for _, row := range tbl.Rows {
		email := strings.ToLower(tbl.Cell(row, cols.email))
		userID := tbl.Cell(row, cols.userID)
		if email == "" && strings.Contains(userID, "@") {
			email = strings.ToLower(userID)
		}
		if email == "" && userID == "" {
			res.RowsDropped++
			continue
		}
		if userID == "" {
			userID = email
		}

		periodStart := parseDate(tbl.Cell(row, cols.periodStart))
		periodEnd := parseDate(tbl.Cell(row, cols.periodEnd))
		firstActive := parseDate(tbl.Cell(row, cols.firstActive))
		lastActive := parseDate(tbl.Cell(row, cols.lastActive))

		if weekly && periodStart.IsZero() {
			periodStart = filenameDate(filename)
		}

		date := periodStart
		if !weekly {
			date = period.AssignMonth(periodStart, periodEnd, firstActive, lastActive, n.now())
		}
		if date.IsZero() {
			date = period.MonthStart(n.now())
		}

		identity := email
		if identity == "" {
			identity = userID
		}
		assignedMonth[identity] = period.AssignMonth(periodStart, periodEnd, firstActive, lastActive, n.now())

		department := ParseDepartment(tbl.Cell(row, cols.department))
		name := tbl.Cell(row, cols.userName)

		for _, f := range n.spec.Features {
			idx, ok := cols.features[f.Feature]
			if !ok {
				continue
			}
			count, ok := parseCount(tbl.Cell(row, idx))
			if !ok || count == 0 {
				continue
			}
			raw = append(raw, model.UsageRecord{
				UserID:      userID,
				UserName:    name,
				Email:       email,
				Department:  department,
				Date:        date,
				FeatureUsed: f.Feature,
				UsageCount:  count,
				CostUSD:     count * f.CostPerUnit,
				ToolSource:  n.spec.Tool,
				FileSource:  filename,
			})
		}
	}

	if weekly {
		raw = period.ProrateWeeklyToMonthly(raw)
	} else {
		raw = mergeDuplicates(raw)
	}

	n.assignLicenseCost(raw, assignedMonth)
	res.Records = raw

	if res.RowsDropped > 0 {
		n.logger.Warn("rows dropped during normalization",
			"file", filename,
			"vendor", string(n.spec.Kind),
			"dropped", res.RowsDropped,
		)
	}
	return res, nil
}

// assignLicenseCost puts the flat monthly seat cost on exactly one primary
// feature record per person, in their assigned month. Derivative feature
// records stay at zero so a single license is never billed across features,
// and a week prorated into two months is never billed twice.
func (n *Normalizer) assignLicenseCost(records []model.UsageRecord, assignedMonth map[string]time.Time) {
	if n.spec.LicenseCostUSD == 0 {
		return
	}
	for i := range records {
		rec := &records[i]
		if rec.FeatureUsed != n.spec.PrimaryFeature {
			rec.CostUSD = 0
			continue
		}
		identity := rec.Email
		if identity == "" {
			identity = rec.UserID
		}
		if rec.Date.Equal(assignedMonth[identity]) {
			rec.CostUSD = n.spec.LicenseCostUSD
		} else {
			rec.CostUSD = 0
		}
	}
}

// mergeDuplicates enforces one record per (user, date, feature, tool) within a
// single file by summing counts and costs.
func mergeDuplicates(records []model.UsageRecord) []model.UsageRecord {
	type key struct {
		userID  string
		date    time.Time
		feature string
	}
	merged := make(map[key]*model.UsageRecord)
	var order []key

	for _, rec := range records {
		k := key{userID: rec.UserID, date: rec.Date, feature: rec.FeatureUsed}
		if existing, ok := merged[k]; ok {
			existing.UsageCount += rec.UsageCount
			existing.CostUSD += rec.CostUSD
			continue
		}
		clone := rec
		merged[k] = &clone
		order = append(order, k)
	}

	out := make([]model.UsageRecord, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		if a.FeatureUsed != b.FeatureUsed {
			return a.FeatureUsed < b.FeatureUsed
		}
		return a.Date.Before(b.Date)
	})
	return out
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
}

// parseDate tries the date layouts seen across vendor exports; zero on failure.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

// filenameDate extracts the first YYYY-MM-DD token from a filename.
func filenameDate(name string) time.Time {
	for i := 0; i+10 <= len(name); i++ {
		if t := parseDate(name[i : i+10]); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// parseCount parses a numeric cell, tolerating thousands separators.
func parseCount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
