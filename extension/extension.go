// Package extension provides the Forge extension adapter for captable.
//
// It implements the forge.Extension interface to integrate the captable
// client into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.captable" or
// "captable" keys.
package extension

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/captable"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/ledger/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "captable"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Atomic cap table mutations against a versioned ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the captable client as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	client     *captable.Client
	ledger     ledger.Client
	clientOpts []captable.Option
}

// New creates a new captable Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Client returns the underlying captable client.
// This is nil until Register is called.
func (e *Extension) Client() *captable.Client { return e.client }

// Register implements [forge.Extension]. It loads configuration,
// initializes the client, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use the in-memory sandbox if no ledger was provided programmatically.
	if e.ledger == nil {
		e.ledger = memory.New()
	}

	e.client = captable.New(e.ledger, e.buildClientOpts()...)

	return vessel.Provide(fapp.Container(), func() (*captable.Client, error) {
		return e.client, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.client == nil {
		return errors.New("captable: extension not initialized")
	}

	if !e.config.DisablePing {
		if err := e.client.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.client != nil {
		if err := e.client.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.client == nil {
		return errors.New("captable: client not initialized")
	}
	return e.client.Ping(ctx)
}

// buildClientOpts constructs captable.Option values from the resolved config.
func (e *Extension) buildClientOpts() []captable.Option {
	opts := make([]captable.Option, 0, len(e.clientOpts)+2)
	opts = append(opts,
		captable.WithConfig(e.config.Config),
		captable.WithLogger(slog.Default().With("extension", ExtensionName)),
	)

	// Append any pass-through client options.
	opts = append(opts, e.clientOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("captable: configuration is required but not found in config files; " +
				"ensure 'extensions.captable' or 'captable' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	if err := e.config.Validate(); err != nil {
		return err
	}

	e.Logger().Debug("captable: configuration loaded",
		forge.F("aggregate_kind", e.config.AggregateKind),
		forge.F("choice", e.config.Choice),
		forge.F("act_as", e.config.ActAs),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("disable_ping", e.config.DisablePing),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.captable", "captable"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("captable: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("captable: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued client fields with the library
// defaults. Extension-only flags are left as given.
func mergeWithDefaults(cfg Config) Config {
	cfg.Config = captable.MergeWithDefaults(cfg.Config)
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisablePing {
		yamlConfig.DisablePing = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.AggregateKind == "" {
		yamlConfig.AggregateKind = programmaticConfig.AggregateKind
	}
	if yamlConfig.Choice == "" {
		yamlConfig.Choice = programmaticConfig.Choice
	}
	if len(yamlConfig.ActAs) == 0 {
		yamlConfig.ActAs = programmaticConfig.ActAs
	}
	if yamlConfig.ContextKeys.PricingRules == "" {
		yamlConfig.ContextKeys.PricingRules = programmaticConfig.ContextKeys.PricingRules
	}
	if yamlConfig.ContextKeys.PricingRound == "" {
		yamlConfig.ContextKeys.PricingRound = programmaticConfig.ContextKeys.PricingRound
	}
	if yamlConfig.ContextKeys.FeeSharePrefix == "" {
		yamlConfig.ContextKeys.FeeSharePrefix = programmaticConfig.ContextKeys.FeeSharePrefix
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
