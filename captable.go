package captable

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/payment"
	"github.com/xraph/captable/plugin"
	"github.com/xraph/captable/types"
)

// Client wires the conversion registry, payment context builder and plugin
// hooks around one ledger client. Batches are created per logical
// transaction with NewBatch.
type Client struct {
	ledger   ledger.Client
	config   Config
	registry *entity.Registry
	payments *payment.Builder
	plugins  *plugin.Registry
	logger   *slog.Logger
}

// New creates a new Client.
func New(lc ledger.Client, opts ...Option) *Client {
	c := &Client{
		ledger:  lc,
		config:  DefaultConfig(),
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.config = MergeWithDefaults(c.config)
	c.plugins.WithLogger(c.logger).WithTimeout(c.config.PluginTimeout)

	c.registry = entity.NewRegistry(
		entity.WithLogger(c.logger),
		entity.WithDeprecationHandler(func(d entity.Deprecation) {
			c.plugins.EmitDeprecatedField(context.Background(), d)
		}),
	)
	c.payments = payment.NewBuilder(lc,
		payment.WithLogger(c.logger),
		payment.WithKeys(c.config.ContextKeys),
		payment.WithMissHandler(func(key string, err error) {
			c.plugins.EmitOptionalLookupMissed(context.Background(), key, err)
		}),
		payment.WithSelectionHandler(func(payer string, required decimal.Decimal, selected []types.ValueResource) {
			c.plugins.EmitFundsSelected(context.Background(), payer, required, selected)
		}),
	)

	return c
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(c *Client) {
		if err := c.plugins.Register(p); err != nil {
			c.logger.Warn("plugin registration skipped", "plugin", p.Name(), "error", err)
		}
	}
}

// WithConfig replaces the configuration. Zero fields take defaults.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithActAs sets the parties every batch submits as.
func WithActAs(parties ...string) Option {
	return func(c *Client) {
		c.config.ActAs = parties
	}
}

// Start checks the ledger is reachable and initializes plugins.
func (c *Client) Start(ctx context.Context) error {
	if c.ledger == nil {
		return errors.New("captable: no ledger client configured")
	}
	if err := c.ledger.Ping(ctx); err != nil {
		return err
	}

	c.plugins.EmitInit(ctx, c)

	c.logger.Info("captable started",
		"aggregate_kind", c.config.AggregateKind,
		"choice", c.config.Choice,
		"plugins", c.plugins.Count(),
	)
	return nil
}

// Stop shuts down plugins and closes the ledger client.
func (c *Client) Stop() error {
	c.plugins.EmitShutdown(context.Background())
	if c.ledger == nil {
		return nil
	}
	return c.ledger.Close()
}

// Ping checks the ledger connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.ledger == nil {
		return errors.New("captable: no ledger client configured")
	}
	return c.ledger.Ping(ctx)
}

// ──────────────────────────────────────────────────
// Batches
// ──────────────────────────────────────────────────

// NewBatch returns a builder targeting aggregate. The client's registry,
// configuration and plugins are applied before opts.
func (c *Client) NewBatch(aggregate types.ContractRef, opts ...batch.Option) *batch.Builder {
	base := []batch.Option{
		batch.WithRegistry(c.registry),
		batch.WithLogger(c.logger),
		batch.WithObserver(c.plugins.Observer()),
		batch.WithChoice(c.config.Choice),
		batch.WithAggregateKind(c.config.AggregateKind),
	}
	if len(c.config.ActAs) > 0 {
		base = append(base, batch.WithActAs(c.config.ActAs...))
	}
	return batch.New(c.ledger, aggregate, append(base, opts...)...)
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

// NewPaymentContext resolves the context for a payment that spends no
// value inputs.
func (c *Client) NewPaymentContext(ctx context.Context, provider string) (*payment.Result, error) {
	return c.payments.BuildContext(ctx, provider)
}

// NewFundedPaymentContext resolves the context and selects payer's value
// resources to cover required.
func (c *Client) NewFundedPaymentContext(ctx context.Context, payer string, required decimal.Decimal, provider string) (*payment.Result, error) {
	return c.payments.BuildContextWithFunding(ctx, payer, required, provider)
}

// ──────────────────────────────────────────────────
// Accessors
// ──────────────────────────────────────────────────

// Ledger returns the underlying ledger client.
func (c *Client) Ledger() ledger.Client { return c.ledger }

// Registry returns the entity conversion registry.
func (c *Client) Registry() *entity.Registry { return c.registry }

// Payments returns the payment context builder.
func (c *Client) Payments() *payment.Builder { return c.payments }

// Plugins returns the plugin registry.
func (c *Client) Plugins() *plugin.Registry { return c.plugins }

// Config returns the resolved configuration.
func (c *Client) Config() Config { return c.config }
