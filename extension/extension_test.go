package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/captable"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{})
	assert.Equal(t, captable.DefaultConfig(), cfg.Config)
}

func TestMergeWithDefaults_MatchesClient(t *testing.T) {
	in := Config{
		Config:        captable.Config{Choice: "Custom", ActAs: []string{"issuer"}},
		DisablePing:   true,
		RequireConfig: true,
	}

	got := mergeWithDefaults(in)
	assert.Equal(t, captable.MergeWithDefaults(in.Config), got.Config)
	assert.True(t, got.DisablePing)
	assert.True(t, got.RequireConfig)
}

func TestMergeConfigurations(t *testing.T) {
	file := Config{Config: captable.Config{Choice: "FromFile"}}
	prog := Config{
		Config: captable.Config{
			Choice:        "FromCode",
			AggregateKind: "Issuer",
			ActAs:         []string{"admin"},
			PluginTimeout: time.Second,
		},
		DisablePing: true,
	}

	got := mergeConfigurations(file, prog)
	assert.Equal(t, "FromFile", got.Choice)
	assert.Equal(t, "Issuer", got.AggregateKind)
	assert.Equal(t, []string{"admin"}, got.ActAs)
	assert.Equal(t, time.Second, got.PluginTimeout)
	assert.True(t, got.DisablePing)
	assert.Equal(t, "pricing-rules", got.ContextKeys.PricingRules)
}

func TestNew_Options(t *testing.T) {
	e := New(WithActAs("issuer"), WithDisablePing(), WithRequireConfig(true))
	assert.Equal(t, []string{"issuer"}, e.config.ActAs)
	assert.True(t, e.config.DisablePing)
	assert.True(t, e.config.RequireConfig)
	assert.Nil(t, e.Client())
	assert.Equal(t, ExtensionName, e.Name())
}
