// Package audithook bridges captable batch lifecycle events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/plugin"
	"github.com/xraph/captable/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnBatchCompiled        = (*Extension)(nil)
	_ plugin.OnBatchSubmitted       = (*Extension)(nil)
	_ plugin.OnBatchFailed          = (*Extension)(nil)
	_ plugin.OnConflict             = (*Extension)(nil)
	_ plugin.OnDeprecatedField      = (*Extension)(nil)
	_ plugin.OnFundsSelected        = (*Extension)(nil)
	_ plugin.OnOptionalLookupMissed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges batch lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Batch lifecycle hooks
// ──────────────────────────────────────────────────

// OnBatchCompiled implements plugin.OnBatchCompiled.
func (e *Extension) OnBatchCompiled(ctx context.Context, req *batch.Request) error {
	return e.record(ctx, ActionBatchCompiled, SeverityInfo, OutcomeSuccess,
		ResourceBatch, req.BatchID, CategoryLedger, nil,
		"command_id", req.Command.CommandID,
		"aggregate_id", req.Command.Target.ContractID,
		"operations", len(req.Operations),
	)
}

// OnBatchSubmitted implements plugin.OnBatchSubmitted.
func (e *Extension) OnBatchSubmitted(ctx context.Context, req *batch.Request, res *batch.Result, elapsed time.Duration) error {
	return e.record(ctx, ActionBatchSubmitted, SeverityInfo, OutcomeSuccess,
		ResourceBatch, req.BatchID, CategoryLedger, nil,
		"command_id", res.CommandID,
		"transaction_id", res.TransactionID,
		"previous_aggregate_id", req.Command.Target.ContractID,
		"aggregate_id", res.UpdatedAggregateID,
		"created", len(res.CreatedIDs),
		"edited", len(res.EditedIDs),
		"digest", res.Digest,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnBatchFailed implements plugin.OnBatchFailed.
func (e *Extension) OnBatchFailed(ctx context.Context, req *batch.Request, err error) error {
	return e.record(ctx, ActionBatchFailed, SeverityError, OutcomeFailure,
		ResourceBatch, req.BatchID, CategoryLedger, err,
		"command_id", req.Command.CommandID,
		"aggregate_id", req.Command.Target.ContractID,
		"operations", len(req.Operations),
	)
}

// OnConflict implements plugin.OnConflict.
func (e *Extension) OnConflict(ctx context.Context, aggregateID string, err *types.ConflictError) error {
	return e.record(ctx, ActionBatchConflict, SeverityWarning, OutcomeFailure,
		ResourceAggregate, aggregateID, CategoryLedger, err,
		"stale_contract_id", err.ContractID,
	)
}

// ──────────────────────────────────────────────────
// Conversion hooks
// ──────────────────────────────────────────────────

// OnDeprecatedField implements plugin.OnDeprecatedField.
func (e *Extension) OnDeprecatedField(ctx context.Context, d entity.Deprecation) error {
	return e.record(ctx, ActionFieldDeprecated, SeverityWarning, OutcomeSuccess,
		ResourceEntity, d.EntityID, CategoryConversion, nil,
		"kind", string(d.Kind),
		"field", d.Field,
		"replacement", d.Replacement,
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnFundsSelected implements plugin.OnFundsSelected.
func (e *Extension) OnFundsSelected(ctx context.Context, payer string, required decimal.Decimal, selected []types.ValueResource) error {
	ids := make([]string, 0, len(selected))
	total := decimal.Zero
	for _, r := range selected {
		ids = append(ids, r.ID)
		total = total.Add(r.EffectiveAmount)
	}
	return e.record(ctx, ActionFundsSelected, SeverityInfo, OutcomeSuccess,
		ResourcePayment, payer, CategoryPayment, nil,
		"required", required.String(),
		"selected_total", total.String(),
		"inputs", ids,
	)
}

// OnOptionalLookupMissed implements plugin.OnOptionalLookupMissed.
func (e *Extension) OnOptionalLookupMissed(ctx context.Context, key string, err error) error {
	outcome := OutcomeSuccess
	severity := SeverityInfo
	if err != nil {
		outcome = OutcomePartial
		severity = SeverityWarning
	}
	return e.record(ctx, ActionOptionalLookupMissed, severity, outcome,
		ResourceContext, key, CategoryPayment, err,
		"key", key,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
