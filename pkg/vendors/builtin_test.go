package vendors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yapay-ai/usage-reconciler/pkg/vendors"
)

func TestBuiltins_AllValid(t *testing.T) {
	for _, spec := range vendors.Builtins() {
		require.NoError(t, spec.Validate(), "builtin %s must validate", spec.Kind)
	}
}

func TestNewOpenAI_LicensePriced(t *testing.T) {
	spec := vendors.NewOpenAI()

	assert.Equal(t, vendors.LayoutLong, spec.Layout)
	assert.Greater(t, spec.LicenseCostUSD, 0.0)
	assert.Equal(t, "ChatGPT Messages", spec.PrimaryFeature)
	assert.Equal(t, []string{"Tool Messages", "Project Messages"}, spec.SubFeatures())
	// Derivative features must not carry per-unit cost on a licensed tool.
	assert.Equal(t, 0.0, spec.CostPerUnit("Tool Messages"))
}

func TestNewBlueFlame_WideUsagePriced(t *testing.T) {
	spec := vendors.NewBlueFlame()

	assert.Equal(t, vendors.LayoutWide, spec.Layout)
	assert.Equal(t, 0.0, spec.LicenseCostUSD)
	assert.Equal(t, 0.04, spec.CostPerUnit("BlueFlame Messages"))
	assert.Equal(t, "BlueFlame Messages", spec.MetricFeatures["Messages"])
}

func TestSpec_CostPerUnit_Unknown(t *testing.T) {
	spec := vendors.NewBlueFlame()
	assert.Equal(t, 0.0, spec.CostPerUnit("Nope"))
}
