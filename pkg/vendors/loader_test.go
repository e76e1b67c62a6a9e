package vendors_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yapay-ai/usage-reconciler/pkg/vendors"
)

const testSpecYAML = `
kind: openai
tool: ChatGPT
layout: long
fields:
  email: [email, user_email]
  period_start: [period_start]
features:
  - feature: ChatGPT Messages
    aliases: [messages]
primary_feature: ChatGPT Messages
license_cost_usd: 45.0
`

func TestLoadSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openai.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSpecYAML), 0o644))

	spec, err := vendors.LoadSpec(path)
	require.NoError(t, err)
	assert.Equal(t, vendors.KindOpenAI, spec.Kind)
	assert.Equal(t, "ChatGPT", spec.Tool)
	assert.Equal(t, vendors.LayoutLong, spec.Layout)
	assert.Equal(t, []string{"email", "user_email"}, spec.Aliases(vendors.FieldEmail))
	assert.Equal(t, 45.0, spec.LicenseCostUSD)
}

func TestLoadSpec_FileNotFound(t *testing.T) {
	_, err := vendors.LoadSpec("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadSpec_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("invalid: [yaml"), 0o644))

	_, err := vendors.LoadSpec(path)
	assert.Error(t, err)
}

func TestLoadSpec_MissingTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notool.yaml")
	data := []byte("kind: openai\nlayout: long\nfeatures:\n  - feature: X\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := vendors.LoadSpec(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing tool")
}

func TestLoadDir_BuiltinsOnly(t *testing.T) {
	registry, err := vendors.LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Len(t, registry.All(), 3)
}

func TestLoadDir_FileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openai.yaml"), []byte(testSpecYAML), 0o644))

	registry, err := vendors.LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, registry.All(), 3)

	spec, err := registry.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, 45.0, spec.LicenseCostUSD) // from the file, not the builtin
}
