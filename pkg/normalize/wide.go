package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/tabular"
	"github.com/yapay-ai/usage-reconciler/pkg/vendors"
)

// monthColumn is one pivoted reporting-month column in a wide export.
type monthColumn struct {
	index int
	month time.Time
}

// Month headers have shipped in both Mon-YY and YY-Mon order across export
// format migrations; both must parse or one half of history goes missing.
var monthHeaderLayouts = []string{"Jan-06", "06-Jan"}

// normalizeWide handles pivoted exports: fixed identity columns (Rank,
// User ID, Metric) plus one column per reporting month. "MoM Var" delta
// columns and empty/zero cells are skipped; every remaining (user, month)
// cell becomes one record.
func (n *Normalizer) normalizeWide(tbl tabular.Table, filename string) (*Result, error) {
	userCol := resolveAlias(tbl, n.spec.Aliases(vendors.FieldUserID))
	metricCol := resolveAlias(tbl, n.spec.Aliases(vendors.FieldMetric))
	if userCol < 0 {
		return nil, fmt.Errorf("normalize %s: no user column found for %s", filename, n.spec.Kind)
	}

	var months []monthColumn
	for i, header := range tbl.Headers {
		if i == userCol || i == metricCol {
			continue
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(header)), "mom var") {
			continue
		}
		if month, ok := parseMonthHeader(header); ok {
			months = append(months, monthColumn{index: i, month: month})
		}
	}
	if len(months) == 0 {
		return nil, fmt.Errorf("normalize %s: no month columns recognized in header", filename)
	}

	res := &Result{}
	var raw []model.UsageRecord
	for _, row := range tbl.Rows {
		user := tbl.Cell(row, userCol)
		if user == "" {
			res.RowsDropped++
			continue
		}

		feature := n.spec.PrimaryFeature
		if metricCol >= 0 {
			metric := tbl.Cell(row, metricCol)
			mapped, ok := n.spec.MetricFeatures[metric]
			if !ok {
				res.RowsDropped++
				continue
			}
			feature = mapped
		}

		email := ""
		if strings.Contains(user, "@") {
			email = strings.ToLower(user)
		}

		costPerUnit := n.spec.CostPerUnit(feature)
		for _, mc := range months {
			count, ok := parseCount(tbl.Cell(row, mc.index))
			if !ok || count == 0 {
				continue
			}
			raw = append(raw, model.UsageRecord{
				UserID:      user,
				Email:       email,
				Department:  DefaultDepartment,
				Date:        mc.month,
				FeatureUsed: feature,
				UsageCount:  count,
				CostUSD:     count * costPerUnit,
				ToolSource:  n.spec.Tool,
				FileSource:  filename,
			})
		}
	}

	res.Records = mergeDuplicates(raw)

	if res.RowsDropped > 0 {
		n.logger.Warn("rows dropped during normalization",
			"file", filename,
			"vendor", string(n.spec.Kind),
			"dropped", res.RowsDropped,
		)
	}
	return res, nil
}

// parseMonthHeader recognizes a reporting-month column header in either
// textual form and returns the month start.
func parseMonthHeader(header string) (time.Time, bool) {
	h := strings.TrimSpace(header)
	for _, layout := range monthHeaderLayouts {
		if t, err := time.Parse(layout, h); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
