package captable

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/payment"
	"github.com/xraph/captable/plugin"
)

// Config holds the client configuration.
// Fields can be set programmatically or loaded from YAML.
type Config struct {
	// AggregateKind is the ledger template of the capitalization record
	// (default: "CapTable").
	AggregateKind string `json:"aggregate_kind" mapstructure:"aggregate_kind" yaml:"aggregate_kind"`

	// Choice is the aggregate choice every batch exercises
	// (default: "UpdateCapTable").
	Choice string `json:"choice" mapstructure:"choice" yaml:"choice"`

	// ActAs lists the parties batches are submitted as.
	ActAs []string `json:"act_as" mapstructure:"act_as" yaml:"act_as"`

	// ContextKeys names the context resources resolved for payments.
	ContextKeys payment.Keys `json:"context_keys" mapstructure:"context_keys" yaml:"context_keys"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AggregateKind: batch.DefaultAggregateKind,
		Choice:        batch.DefaultChoice,
		ContextKeys:   payment.DefaultKeys(),
		PluginTimeout: plugin.DefaultTimeout,
	}
}

// LoadConfig decodes a YAML document from r. Unknown keys are rejected and
// missing fields take defaults. An empty document yields DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("captable: decode config: %w", err)
	}
	cfg = MergeWithDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile loads a YAML config from path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("captable: open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate reports settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.PluginTimeout < 0 {
		return fmt.Errorf("captable: plugin_timeout must not be negative, got %s", c.PluginTimeout)
	}
	for i, p := range c.ActAs {
		if p == "" {
			return fmt.Errorf("captable: act_as[%d] is empty", i)
		}
	}
	return nil
}

// MergeWithDefaults fills zero-valued fields of cfg with DefaultConfig values.
// ActAs has no default and is left as given.
func MergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.AggregateKind == "" {
		cfg.AggregateKind = defaults.AggregateKind
	}
	if cfg.Choice == "" {
		cfg.Choice = defaults.Choice
	}
	if cfg.ContextKeys.PricingRules == "" {
		cfg.ContextKeys.PricingRules = defaults.ContextKeys.PricingRules
	}
	if cfg.ContextKeys.PricingRound == "" {
		cfg.ContextKeys.PricingRound = defaults.ContextKeys.PricingRound
	}
	if cfg.ContextKeys.FeeSharePrefix == "" {
		cfg.ContextKeys.FeeSharePrefix = defaults.ContextKeys.FeeSharePrefix
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}
