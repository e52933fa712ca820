// Package observability provides a metrics extension for captable that
// records batch lifecycle counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/plugin"
	"github.com/xraph/captable/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnBatchCompiled        = (*MetricsExtension)(nil)
	_ plugin.OnBatchSubmitted       = (*MetricsExtension)(nil)
	_ plugin.OnBatchFailed          = (*MetricsExtension)(nil)
	_ plugin.OnConflict             = (*MetricsExtension)(nil)
	_ plugin.OnDeprecatedField      = (*MetricsExtension)(nil)
	_ plugin.OnFundsSelected        = (*MetricsExtension)(nil)
	_ plugin.OnOptionalLookupMissed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records batch lifecycle metrics.
// Register it as a captable plugin.
type MetricsExtension struct {
	factory MetricFactory

	// Batch metrics
	BatchCompiled   Counter
	BatchSubmitted  Counter
	BatchFailed     Counter
	BatchConflicts  Counter
	BatchOperations Histogram
	BatchLatency    Histogram

	// Mutation metrics
	EntitiesCreated Counter
	EntitiesEdited  Counter
	EntitiesDeleted Counter

	// Conversion metrics
	DeprecatedFields Counter

	// Payment metrics
	FundsSelected       Counter
	FundsInputs         Histogram
	OptionalLookupMiss  Counter
	OptionalLookupError Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		BatchCompiled:   factory.Counter("captable.batch.compiled"),
		BatchSubmitted:  factory.Counter("captable.batch.submitted"),
		BatchFailed:     factory.Counter("captable.batch.failed"),
		BatchConflicts:  factory.Counter("captable.batch.conflicts"),
		BatchOperations: factory.Histogram("captable.batch.operations"),
		BatchLatency:    factory.Histogram("captable.batch.latency_ms"),

		EntitiesCreated: factory.Counter("captable.entity.created"),
		EntitiesEdited:  factory.Counter("captable.entity.edited"),
		EntitiesDeleted: factory.Counter("captable.entity.deleted"),

		DeprecatedFields: factory.Counter("captable.entity.deprecated_fields"),

		FundsSelected:       factory.Counter("captable.payment.funds_selected"),
		FundsInputs:         factory.Histogram("captable.payment.inputs"),
		OptionalLookupMiss:  factory.Counter("captable.payment.optional_lookup.miss"),
		OptionalLookupError: factory.Counter("captable.payment.optional_lookup.error"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Batch lifecycle hooks
// ──────────────────────────────────────────────────

// OnBatchCompiled implements plugin.OnBatchCompiled.
func (m *MetricsExtension) OnBatchCompiled(_ context.Context, req *batch.Request) error {
	m.BatchCompiled.Inc()
	m.BatchOperations.Observe(float64(len(req.Operations)))
	return nil
}

// OnBatchSubmitted implements plugin.OnBatchSubmitted.
func (m *MetricsExtension) OnBatchSubmitted(_ context.Context, req *batch.Request, _ *batch.Result, elapsed time.Duration) error {
	m.BatchSubmitted.Inc()
	m.BatchLatency.Observe(float64(elapsed.Milliseconds()))
	for _, op := range req.Operations {
		switch op.Action {
		case ledger.ActionCreate:
			m.EntitiesCreated.Inc()
		case ledger.ActionEdit:
			m.EntitiesEdited.Inc()
		case ledger.ActionDelete:
			m.EntitiesDeleted.Inc()
		}
	}
	return nil
}

// OnBatchFailed implements plugin.OnBatchFailed.
func (m *MetricsExtension) OnBatchFailed(_ context.Context, _ *batch.Request, _ error) error {
	m.BatchFailed.Inc()
	return nil
}

// OnConflict implements plugin.OnConflict.
func (m *MetricsExtension) OnConflict(_ context.Context, _ string, _ *types.ConflictError) error {
	m.BatchConflicts.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Conversion and payment hooks
// ──────────────────────────────────────────────────

// OnDeprecatedField implements plugin.OnDeprecatedField.
func (m *MetricsExtension) OnDeprecatedField(_ context.Context, _ entity.Deprecation) error {
	m.DeprecatedFields.Inc()
	return nil
}

// OnFundsSelected implements plugin.OnFundsSelected.
func (m *MetricsExtension) OnFundsSelected(_ context.Context, _ string, _ decimal.Decimal, selected []types.ValueResource) error {
	m.FundsSelected.Inc()
	m.FundsInputs.Observe(float64(len(selected)))
	return nil
}

// OnOptionalLookupMissed implements plugin.OnOptionalLookupMissed.
func (m *MetricsExtension) OnOptionalLookupMissed(_ context.Context, _ string, err error) error {
	if err != nil {
		m.OptionalLookupError.Inc()
		return nil
	}
	m.OptionalLookupMiss.Inc()
	return nil
}
