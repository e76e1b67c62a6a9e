package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yapay-ai/usage-reconciler/pkg/normalize"
	"github.com/yapay-ai/usage-reconciler/pkg/tabular"
	"github.com/yapay-ai/usage-reconciler/pkg/vendors"
)

func newBlueFlameNormalizer() *normalize.Normalizer {
	return normalize.New(vendors.NewBlueFlame(), testLogger()).WithClock(fixedClock)
}

func TestNormalizeWide_MonthColumns(t *testing.T) {
	tbl := tabular.Table{
		Headers: []string{"Rank", "User ID", "Metric", "Mar-25", "Apr-25", "MoM Var (Apr)", "May-25"},
		Rows: [][]string{
			{"1", "eve@acme.com", "Messages", "120", "90", "-25%", "0"},
			{"2", "frank@acme.com", "Messages", "", "50", "", "60"},
		},
	}

	res, err := newBlueFlameNormalizer().Normalize(tbl, "blueflame export.csv")
	require.NoError(t, err)
	require.Len(t, res.Records, 4) // zero and empty cells skipped, MoM Var skipped

	eve := res.Records[0]
	assert.Equal(t, "eve@acme.com", eve.Email)
	assert.Equal(t, "BlueFlame Messages", eve.FeatureUsed)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), eve.Date)
	assert.Equal(t, 120.0, eve.UsageCount)
	assert.InDelta(t, 4.8, eve.CostUSD, 1e-9) // 120 * $0.04
	assert.Equal(t, "BlueFlame AI", eve.ToolSource)
}

func TestNormalizeWide_BothMonthHeaderForms(t *testing.T) {
	// Historical exports flipped between Mon-YY and YY-Mon; both must parse.
	tbl := tabular.Table{
		Headers: []string{"User ID", "Metric", "Mar-25", "25-Apr"},
		Rows: [][]string{
			{"eve@acme.com", "Messages", "10", "20"},
		},
	}

	res, err := newBlueFlameNormalizer().Normalize(tbl, "blueflame.csv")
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), res.Records[0].Date)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), res.Records[1].Date)
}

func TestNormalizeWide_UnknownMetricDropped(t *testing.T) {
	tbl := tabular.Table{
		Headers: []string{"User ID", "Metric", "Apr-25"},
		Rows: [][]string{
			{"eve@acme.com", "Bogus Metric", "10"},
			{"eve@acme.com", "Documents", "3"},
		},
	}

	res, err := newBlueFlameNormalizer().Normalize(tbl, "blueflame.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsDropped)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "BlueFlame Documents", res.Records[0].FeatureUsed)
	assert.InDelta(t, 0.30, res.Records[0].CostUSD, 1e-9) // 3 * $0.10
}

func TestNormalizeWide_ThousandsSeparators(t *testing.T) {
	tbl := tabular.Table{
		Headers: []string{"User ID", "Metric", "Apr-25"},
		Rows: [][]string{
			{"eve@acme.com", "Messages", "1,234"},
		},
	}

	res, err := newBlueFlameNormalizer().Normalize(tbl, "blueflame.csv")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1234.0, res.Records[0].UsageCount)
}

func TestNormalizeWide_NoMonthColumns(t *testing.T) {
	tbl := tabular.Table{
		Headers: []string{"User ID", "Metric", "Total"},
	}

	_, err := newBlueFlameNormalizer().Normalize(tbl, "blueflame.csv")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no month columns")
}

func TestNormalizeWide_EmptyUserDropped(t *testing.T) {
	tbl := tabular.Table{
		Headers: []string{"User ID", "Metric", "Apr-25"},
		Rows: [][]string{
			{"", "Messages", "10"},
		},
	}

	res, err := newBlueFlameNormalizer().Normalize(tbl, "blueflame.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsDropped)
	assert.Empty(t, res.Records)
}
