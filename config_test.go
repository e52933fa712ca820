package captable_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, cfg captable.Config)
	}{
		{
			name:  "empty document",
			input: "",
			check: func(t *testing.T, cfg captable.Config) {
				assert.Equal(t, captable.DefaultConfig(), cfg)
			},
		},
		{
			name: "overrides",
			input: `
aggregate_kind: Issuer
choice: Apply
act_as: [issuer-admin]
plugin_timeout: 250ms
context_keys:
  fee_share_prefix: "fees/"
`,
			check: func(t *testing.T, cfg captable.Config) {
				assert.Equal(t, "Issuer", cfg.AggregateKind)
				assert.Equal(t, "Apply", cfg.Choice)
				assert.Equal(t, []string{"issuer-admin"}, cfg.ActAs)
				assert.Equal(t, 250*time.Millisecond, cfg.PluginTimeout)
				assert.Equal(t, "fees/", cfg.ContextKeys.FeeSharePrefix)
				assert.Equal(t, "pricing-rules", cfg.ContextKeys.PricingRules)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := captable.LoadConfig(strings.NewReader(tt.input))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown key", input: "aggregate: CapTable\n"},
		{name: "negative timeout", input: "plugin_timeout: -1s\n"},
		{name: "empty party", input: "act_as: [\"\"]\n"},
		{name: "malformed", input: "choice: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := captable.LoadConfig(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captable.yaml")
	require.NoError(t, os.WriteFile(path, []byte("choice: Apply\n"), 0o600))

	cfg, err := captable.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Apply", cfg.Choice)

	_, err = captable.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMergeWithDefaults(t *testing.T) {
	def := captable.DefaultConfig()

	got := captable.MergeWithDefaults(captable.Config{
		Choice:        "Custom",
		ActAs:         []string{"issuer"},
		PluginTimeout: time.Second,
	})
	assert.Equal(t, "Custom", got.Choice)
	assert.Equal(t, []string{"issuer"}, got.ActAs)
	assert.Equal(t, time.Second, got.PluginTimeout)
	assert.Equal(t, def.AggregateKind, got.AggregateKind)
	assert.Equal(t, def.ContextKeys, got.ContextKeys)

	assert.Equal(t, def, captable.MergeWithDefaults(captable.Config{}))
}
