package extension

import "github.com/xraph/captable"

// Config holds the captable extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.captable" or "captable" keys).
type Config struct {
	captable.Config `json:",inline" mapstructure:",squash" yaml:",inline"`

	// DisablePing skips the ledger reachability check on start.
	DisablePing bool `json:"disable_ping" mapstructure:"disable_ping" yaml:"disable_ping"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Config: captable.DefaultConfig()}
}
