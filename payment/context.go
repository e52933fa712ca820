// Package payment resolves the context resources and value inputs a
// payment operation needs before it can be compiled into a batch.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/xraph/captable/disclosure"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/types"
)

// Keys names the context resources resolved for every payment.
type Keys struct {
	PricingRules   string `json:"pricing_rules"    yaml:"pricing_rules"    mapstructure:"pricing_rules"`
	PricingRound   string `json:"pricing_round"    yaml:"pricing_round"    mapstructure:"pricing_round"`
	FeeSharePrefix string `json:"fee_share_prefix" yaml:"fee_share_prefix" mapstructure:"fee_share_prefix"`
}

// DefaultKeys returns the standard context resource keys.
func DefaultKeys() Keys {
	return Keys{
		PricingRules:   "pricing-rules",
		PricingRound:   "pricing-round",
		FeeSharePrefix: "fee-share/",
	}
}

// Context is the resolved payment context attached to a compiled request.
type Context struct {
	Provider     string
	PricingRules types.Resource
	PricingRound types.Resource

	// FeeShare is nil when the provider holds no fee-sharing right or the
	// lookup failed.
	FeeShare *types.Resource

	// Funding fields are zero for payments against previously locked funds.
	Payer    string
	Required decimal.Decimal
	Inputs   []types.ValueResource
}

// Native returns the ledger-native payment argument for c.
func (c Context) Native() ledger.Payment {
	p := ledger.Payment{
		Provider:     c.Provider,
		PricingRules: c.PricingRules.ContractID,
		PricingRound: c.PricingRound.ContractID,
	}
	if c.FeeShare != nil {
		p.FeeShare = c.FeeShare.ContractID
	}
	if c.Payer != "" {
		p.Payer = c.Payer
		p.Amount = c.Required.String()
		for _, in := range c.Inputs {
			p.Inputs = append(p.Inputs, in.ID)
		}
	}
	return p
}

// Result is the payment context plus the proofs it requires.
type Result struct {
	Context     Context
	Disclosures []types.Disclosure
}

// Builder resolves payment contexts against a ledger client.
type Builder struct {
	client   ledger.Client
	keys     Keys
	logger   *slog.Logger
	onMiss   func(key string, err error)
	onSelect func(payer string, required decimal.Decimal, selected []types.ValueResource)
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithKeys overrides the context resource keys.
func WithKeys(keys Keys) Option {
	return func(b *Builder) { b.keys = keys }
}

// WithMissHandler is called whenever an optional lookup yields nothing.
// err is nil when the resource is simply absent.
func WithMissHandler(fn func(key string, err error)) Option {
	return func(b *Builder) { b.onMiss = fn }
}

// WithSelectionHandler is called after value inputs were selected.
func WithSelectionHandler(fn func(payer string, required decimal.Decimal, selected []types.ValueResource)) Option {
	return func(b *Builder) { b.onSelect = fn }
}

// NewBuilder returns a payment context builder.
func NewBuilder(client ledger.Client, opts ...Option) *Builder {
	b := &Builder{
		client: client,
		keys:   DefaultKeys(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildContext resolves the context for a payment that spends no value
// inputs, such as a recurring charge against previously locked funds.
func (b *Builder) BuildContext(ctx context.Context, provider string) (*Result, error) {
	if provider == "" {
		return nil, types.NewValidationError("payment", "provider", "is required")
	}

	rules, err := b.lookupRequired(ctx, b.keys.PricingRules)
	if err != nil {
		return nil, err
	}
	round, err := b.lookupRequired(ctx, b.keys.PricingRound)
	if err != nil {
		return nil, err
	}

	pc := Context{Provider: provider, PricingRules: rules, PricingRound: round}
	proofs := []types.Disclosure{rules.Disclosure, round.Disclosure}

	if fee, ok := b.lookupOptional(ctx, b.keys.FeeSharePrefix+provider); ok {
		pc.FeeShare = &fee
		proofs = append(proofs, fee.Disclosure)
	}

	return &Result{Context: pc, Disclosures: disclosure.Filter(proofs)}, nil
}

// BuildContextWithFunding resolves the context and selects payer's value
// resources to cover required.
func (b *Builder) BuildContextWithFunding(ctx context.Context, payer string, required decimal.Decimal, provider string) (*Result, error) {
	if payer == "" {
		return nil, types.NewValidationError("payment", "payer", "is required")
	}

	res, err := b.BuildContext(ctx, provider)
	if err != nil {
		return nil, err
	}

	available, err := b.client.ListValueResources(ctx, payer)
	if err != nil {
		return nil, fmt.Errorf("captable/payment: list value resources of %q: %w", payer, err)
	}

	selected, err := Select(available, required)
	if err != nil {
		var insufficient *types.InsufficientResourceError
		if errors.As(err, &insufficient) {
			insufficient.Payer = payer
			b.logger.Info("insufficient value resources",
				"payer", payer,
				"required", required.String(),
				"shortfall", insufficient.Shortfall.String(),
			)
		}
		return nil, err
	}

	b.logger.Debug("value resources selected",
		"payer", payer,
		"required", required.String(),
		"inputs", len(selected),
		"covered", types.SumEffective(selected).String(),
	)
	if b.onSelect != nil {
		b.onSelect(payer, required, selected)
	}

	res.Context.Payer = payer
	res.Context.Required = required
	res.Context.Inputs = selected

	proofs := make([]types.Disclosure, 0, len(selected))
	for _, in := range selected {
		proofs = append(proofs, in.Disclosure())
	}
	res.Disclosures = append(res.Disclosures, disclosure.Filter(proofs)...)
	return res, nil
}

func (b *Builder) lookupRequired(ctx context.Context, key string) (types.Resource, error) {
	r, ok, err := b.client.LookupContextResource(ctx, key)
	if err != nil {
		return types.Resource{}, fmt.Errorf("captable/payment: lookup %q: %w", key, err)
	}
	if !ok || r == nil {
		return types.Resource{}, &types.NotFoundError{Resource: "context resource", ID: key}
	}
	return *r, nil
}

// lookupOptional resolves a best-effort resource. Absence and lookup
// failure both yield ok == false.
func (b *Builder) lookupOptional(ctx context.Context, key string) (types.Resource, bool) {
	r, ok, err := b.client.LookupOptionalResource(ctx, key)
	switch {
	case err != nil:
		b.logger.Warn("optional lookup failed", "key", key, "error", err)
	case !ok || r == nil:
		b.logger.Debug("optional resource absent", "key", key)
	default:
		return *r, true
	}
	if b.onMiss != nil {
		b.onMiss(key, err)
	}
	return types.Resource{}, false
}
