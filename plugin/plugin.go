// Package plugin provides an extensible plugin system for captable.
// Plugins hook into batch lifecycle events; they observe but never change
// the outcome of a submission.
package plugin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the client starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, client any) error
}

// OnShutdown is called when the client stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Batch lifecycle hooks
// ──────────────────────────────────────────────────

// OnBatchCompiled is called once a batch is compiled, before submission.
type OnBatchCompiled interface {
	Plugin
	OnBatchCompiled(ctx context.Context, req *batch.Request) error
}

// OnBatchSubmitted is called after the ledger accepted a batch.
type OnBatchSubmitted interface {
	Plugin
	OnBatchSubmitted(ctx context.Context, req *batch.Request, res *batch.Result, elapsed time.Duration) error
}

// OnBatchFailed is called when submission or result extraction failed.
type OnBatchFailed interface {
	Plugin
	OnBatchFailed(ctx context.Context, req *batch.Request, err error) error
}

// OnConflict is called when a batch targeted a superseded aggregate version.
// It fires in addition to OnBatchFailed.
type OnConflict interface {
	Plugin
	OnConflict(ctx context.Context, aggregateID string, err *types.ConflictError) error
}

// ──────────────────────────────────────────────────
// Conversion hooks
// ──────────────────────────────────────────────────

// OnDeprecatedField is called when normalization fell back to a legacy field.
type OnDeprecatedField interface {
	Plugin
	OnDeprecatedField(ctx context.Context, d entity.Deprecation) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnFundsSelected is called after value resources were selected for a payer.
type OnFundsSelected interface {
	Plugin
	OnFundsSelected(ctx context.Context, payer string, required decimal.Decimal, selected []types.ValueResource) error
}

// OnOptionalLookupMissed is called when a best-effort context lookup yielded
// nothing. err is nil when the resource is absent.
type OnOptionalLookupMissed interface {
	Plugin
	OnOptionalLookupMissed(ctx context.Context, key string, err error) error
}
