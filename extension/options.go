package extension

import (
	"github.com/xraph/captable"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/plugin"
)

// Option configures the captable Forge extension.
type Option func(*Extension)

// WithLedger sets the ledger client. Defaults to an in-memory sandbox.
func WithLedger(l ledger.Client) Option {
	return func(e *Extension) {
		e.ledger = l
	}
}

// WithClientOption passes a captable.Option through to the client.
func WithClientOption(opt captable.Option) Option {
	return func(e *Extension) {
		e.clientOpts = append(e.clientOpts, opt)
	}
}

// WithPlugin registers a captable plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.clientOpts = append(e.clientOpts, captable.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisablePing skips the ledger reachability check on start.
func WithDisablePing() Option {
	return func(e *Extension) { e.config.DisablePing = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithActAs sets the parties batches are submitted as.
func WithActAs(parties ...string) Option {
	return func(e *Extension) { e.config.ActAs = parties }
}
