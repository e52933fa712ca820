package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/types"
)

// DefaultTimeout bounds each plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onBatchCompiled        []OnBatchCompiled
	onBatchSubmitted       []OnBatchSubmitted
	onBatchFailed          []OnBatchFailed
	onConflict             []OnConflict
	onDeprecatedField      []OnDeprecatedField
	onFundsSelected        []OnFundsSelected
	onOptionalLookupMissed []OnOptionalLookupMissed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnBatchCompiled); ok {
		r.onBatchCompiled = append(r.onBatchCompiled, v)
	}
	if v, ok := p.(OnBatchSubmitted); ok {
		r.onBatchSubmitted = append(r.onBatchSubmitted, v)
	}
	if v, ok := p.(OnBatchFailed); ok {
		r.onBatchFailed = append(r.onBatchFailed, v)
	}
	if v, ok := p.(OnConflict); ok {
		r.onConflict = append(r.onConflict, v)
	}
	if v, ok := p.(OnDeprecatedField); ok {
		r.onDeprecatedField = append(r.onDeprecatedField, v)
	}
	if v, ok := p.(OnFundsSelected); ok {
		r.onFundsSelected = append(r.onFundsSelected, v)
	}
	if v, ok := p.(OnOptionalLookupMissed); ok {
		r.onOptionalLookupMissed = append(r.onOptionalLookupMissed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnBatchCompiled)(nil)).Elem(), "OnBatchCompiled")
	checkInterface(reflect.TypeOf((*OnBatchSubmitted)(nil)).Elem(), "OnBatchSubmitted")
	checkInterface(reflect.TypeOf((*OnBatchFailed)(nil)).Elem(), "OnBatchFailed")
	checkInterface(reflect.TypeOf((*OnConflict)(nil)).Elem(), "OnConflict")
	checkInterface(reflect.TypeOf((*OnDeprecatedField)(nil)).Elem(), "OnDeprecatedField")
	checkInterface(reflect.TypeOf((*OnFundsSelected)(nil)).Elem(), "OnFundsSelected")
	checkInterface(reflect.TypeOf((*OnOptionalLookupMissed)(nil)).Elem(), "OnOptionalLookupMissed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, client any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, client)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBatchCompiled emits a batch compiled event.
func (r *Registry) EmitBatchCompiled(ctx context.Context, req *batch.Request) {
	r.mu.RLock()
	plugins := r.onBatchCompiled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchCompiled(ctx, req)
		}); err != nil {
			r.logger.Warn("plugin OnBatchCompiled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBatchSubmitted emits a batch submitted event.
func (r *Registry) EmitBatchSubmitted(ctx context.Context, req *batch.Request, res *batch.Result, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onBatchSubmitted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchSubmitted(ctx, req, res, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnBatchSubmitted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBatchFailed emits a batch failed event, followed by a conflict event
// when the failure is a conflict.
func (r *Registry) EmitBatchFailed(ctx context.Context, req *batch.Request, failure error) {
	r.mu.RLock()
	plugins := r.onBatchFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchFailed(ctx, req, failure)
		}); err != nil {
			r.logger.Warn("plugin OnBatchFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}

	var conflict *types.ConflictError
	if errors.As(failure, &conflict) {
		r.EmitConflict(ctx, req.Command.Target.ContractID, conflict)
	}
}

// EmitConflict emits a conflict event.
func (r *Registry) EmitConflict(ctx context.Context, aggregateID string, conflict *types.ConflictError) {
	r.mu.RLock()
	plugins := r.onConflict
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnConflict(ctx, aggregateID, conflict)
		}); err != nil {
			r.logger.Warn("plugin OnConflict failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDeprecatedField emits a deprecated field event.
func (r *Registry) EmitDeprecatedField(ctx context.Context, d entity.Deprecation) {
	r.mu.RLock()
	plugins := r.onDeprecatedField
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDeprecatedField(ctx, d)
		}); err != nil {
			r.logger.Warn("plugin OnDeprecatedField failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundsSelected emits a funds selected event.
func (r *Registry) EmitFundsSelected(ctx context.Context, payer string, required decimal.Decimal, selected []types.ValueResource) {
	r.mu.RLock()
	plugins := r.onFundsSelected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundsSelected(ctx, payer, required, selected)
		}); err != nil {
			r.logger.Warn("plugin OnFundsSelected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOptionalLookupMissed emits an optional lookup missed event.
func (r *Registry) EmitOptionalLookupMissed(ctx context.Context, key string, cause error) {
	r.mu.RLock()
	plugins := r.onOptionalLookupMissed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOptionalLookupMissed(ctx, key, cause)
		}); err != nil {
			r.logger.Warn("plugin OnOptionalLookupMissed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// Observer adapts the registry to batch.Observer.
func (r *Registry) Observer() batch.Observer { return observer{r} }

type observer struct{ r *Registry }

func (o observer) BatchCompiled(ctx context.Context, req *batch.Request) {
	o.r.EmitBatchCompiled(ctx, req)
}

func (o observer) BatchSubmitted(ctx context.Context, req *batch.Request, res *batch.Result, elapsed time.Duration) {
	o.r.EmitBatchSubmitted(ctx, req, res, elapsed)
}

func (o observer) BatchFailed(ctx context.Context, req *batch.Request, err error) {
	o.r.EmitBatchFailed(ctx, req, err)
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a submission.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
